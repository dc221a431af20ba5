package chatbot

import "testing"

func TestDetectIntent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		message string
		want    bool
	}{
		{"I want to create blood request", true},
		{"CREATE BLOOD REQUEST please", true},
		{"we need blood urgently for my father", true},
		{"Urgent Blood Needed at Dhaka Medical", true},
		{"looking for blood donor near Mirpur", true},
		{"I want to request blood for my brother", true},
		// Single keywords must not hijack informational questions.
		{"blood", false},
		{"what is blood made of?", false},
		{"can I donate blood after a tattoo?", false},
		{"", false},
		{"hello there", false},
	}
	for _, tc := range cases {
		if got := DetectIntent(tc.message); got != tc.want {
			t.Errorf("DetectIntent(%q) = %v, want %v", tc.message, got, tc.want)
		}
	}
}
