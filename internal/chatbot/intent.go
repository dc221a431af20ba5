package chatbot

import "strings"

// intentPhrases are the multi-word triggers that open an intake
// session. Single keywords like "blood" are deliberately absent so that
// ordinary informational questions fall through to the AI responder.
var intentPhrases = []string{
	"create blood request",
	"create a blood request",
	"need blood urgently",
	"urgent blood needed",
	"need a blood donor",
	"looking for blood donor",
	"request for blood",
	"blood needed for",
	"need blood for",
	"want to request blood",
}

// DetectIntent reports whether the message expresses intent to start
// the structured intake flow. Matching is case-insensitive substring
// containment over the fixed phrase list.
func DetectIntent(message string) bool {
	lower := strings.ToLower(message)
	for _, phrase := range intentPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
