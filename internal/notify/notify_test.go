package notify

import (
	"errors"
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10c", 10, "exactly10c"},
		{"this is a long string", 10, "this is..."},
		{"", 10, ""},
		{"abc", 3, "abc"},
		{"abcd", 3, "..."},
	}

	for _, tt := range tests {
		result := truncate(tt.input, tt.maxLen)
		if result != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, result, tt.expected)
		}
	}
}

func TestShortenPath(t *testing.T) {
	tests := []struct {
		input string
		short bool
	}{
		{"/short/genome.txt", false},
		{"/a/very/long/path/that/exceeds/the/maximum/length/for/notification/display/genome.txt", true},
		{"C:\\Users\\TestUser\\Downloads\\genome.txt", false},
	}

	for _, tt := range tests {
		result := shortenPath(tt.input)
		if tt.short && len(result) >= len(tt.input) {
			t.Errorf("shortenPath(%q) was not shortened: %q", tt.input, result)
		}
		if !tt.short && result != tt.input {
			t.Errorf("shortenPath(%q) = %q, want unchanged", tt.input, result)
		}
		if len(result) > 60 {
			t.Errorf("shortenPath(%q) too long: %d chars", tt.input, len(result))
		}
	}
}

type sent struct {
	title, message string
}

func recorder(n *Notifier, err error) *[]sent {
	var got []sent
	n.send = func(title, message string) error {
		got = append(got, sent{title, message})
		return err
	}
	return &got
}

func TestAnalysisNotifications(t *testing.T) {
	n := NewNotifier(true, nil)
	got := recorder(n, nil)

	n.AnalysisComplete("genome.txt", "r1")
	n.AnalysisFailed("genome.txt", "Analysis failed. Please try again.")

	if len(*got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(*got))
	}
	if (*got)[0].title != "Analysis Complete" || !strings.Contains((*got)[0].message, "Job r1") {
		t.Errorf("unexpected complete notification: %+v", (*got)[0])
	}
	if (*got)[1].title != "Analysis Failed" || !strings.Contains((*got)[1].message, "Please try again") {
		t.Errorf("unexpected failed notification: %+v", (*got)[1])
	}
}

func TestDisabledNotifierSendsNothing(t *testing.T) {
	n := NewNotifier(false, nil)
	got := recorder(n, nil)

	n.AnalysisComplete("genome.txt", "r1")
	n.AnalysisFailed("genome.txt", "boom")
	if len(*got) != 0 {
		t.Fatalf("disabled notifier sent %d notifications", len(*got))
	}

	n.SetEnabled(true)
	if !n.IsEnabled() {
		t.Fatal("SetEnabled(true) had no effect")
	}
	n.AnalysisComplete("genome.txt", "r1")
	if len(*got) != 1 {
		t.Fatalf("expected 1 notification after enabling, got %d", len(*got))
	}
}

func TestSendErrorIsLogged(t *testing.T) {
	n := NewNotifier(true, nil)
	got := recorder(n, errors.New("no notification daemon"))

	n.AnalysisComplete("genome.txt", "r1")
	if len(*got) != 1 {
		t.Fatalf("expected one attempt, got %d", len(*got))
	}
}
