package agent

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openaigo "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"blood-donation-bot/internal/chatbot"
)

const (
	defaultBaseURL = "https://api.deepseek.com/v1"
	defaultModel   = "deepseek-chat"

	chatTimeout = 30 * time.Second
	maxRetries  = 2
)

const systemPrompt = "You are a helpful assistant for a blood donation platform. " +
	"Answer general questions about blood donation, eligibility and blood groups briefly and accurately. " +
	"If the user seems to need blood for a patient, suggest they say \"create blood request\" to start a structured request. " +
	"Never give a medical diagnosis; advise talking to a doctor for anything clinical."

// Client answers messages that do not belong to the structured intake
// flow, via any OpenAI-compatible chat completion endpoint.
type Client struct {
	api   openaigo.Client
	model string
}

func NewClient(apiKey, baseURL, model string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}

	api := openaigo.NewClient(
		option.WithBaseURL(strings.TrimRight(baseURL, "/")),
		option.WithAPIKey(strings.TrimSpace(apiKey)),
		option.WithHTTPClient(&http.Client{Timeout: chatTimeout}),
		option.WithMaxRetries(maxRetries),
		option.WithRequestTimeout(chatTimeout),
	)
	return &Client{api: api, model: model}
}

// Respond answers a general question with the requester's recent
// conversation as context.
func (c *Client) Respond(ctx context.Context, text string, history []chatbot.Message) (string, error) {
	messages := make([]openaigo.ChatCompletionMessageParamUnion, 0, len(history)+2)
	messages = append(messages, openaigo.SystemMessage(systemPrompt))
	for _, m := range history {
		switch m.Role {
		case "assistant":
			messages = append(messages, openaigo.AssistantMessage(m.Content))
		default:
			messages = append(messages, openaigo.UserMessage(m.Content))
		}
	}
	messages = append(messages, openaigo.UserMessage(text))

	completion, err := c.api.Chat.Completions.New(ctx, openaigo.ChatCompletionNewParams{
		Model:    openaigo.ChatModel(c.model),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty response")
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
