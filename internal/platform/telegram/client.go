package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"
)

type Client struct {
	Token      string
	httpClient *http.Client
}

func NewClient(token string) *Client {
	return &Client{
		Token: token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type sendMessageReq struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

func (c *Client) SendMessage(chatID int64, text string) error {
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", c.Token)

	reqBody := sendMessageReq{
		ChatID: chatID,
		Text:   text,
		// ParseMode left empty: Markdown chokes on user-supplied text
		// with special characters.
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Post(url, "application/json", bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

// SendDocument uploads a file (e.g. the PDF request summary) to the
// chat via multipart form data.
func (c *Client) SendDocument(chatID int64, fileData []byte, fileName string) error {
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendDocument", c.Token)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return err
	}
	part, err := writer.CreateFormFile("document", fileName)
	if err != nil {
		return err
	}
	if _, err := part.Write(fileData); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	resp, err := c.httpClient.Post(url, writer.FormDataContentType(), &body)
	if err != nil {
		return fmt.Errorf("failed to send telegram document: %w", err)
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode != http.StatusOK {
		var bodyBytes []byte
		if resp.Body != nil {
			bodyBytes, _ = io.ReadAll(resp.Body)
		}
		return fmt.Errorf("telegram api returned status: %s, body: %s", resp.Status, string(bodyBytes))
	}
	return nil
}
