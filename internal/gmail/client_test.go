package gmail

import (
	"encoding/base64"
	"strings"
	"testing"

	gmailapi "google.golang.org/api/gmail/v1"
)

func TestReadCredential(t *testing.T) {
	t.Run("inline takes precedence", func(t *testing.T) {
		b, err := readCredential(`{"a":1}`, "/nonexistent/path.json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(b) != `{"a":1}` {
			t.Errorf("got %q", string(b))
		}
	})

	t.Run("missing both", func(t *testing.T) {
		if _, err := readCredential("", ""); err == nil {
			t.Error("expected error when no credential configured")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := readCredential("", "/nonexistent/path.json"); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestHeader(t *testing.T) {
	payload := &gmailapi.MessagePart{
		Headers: []*gmailapi.MessagePartHeader{
			{Name: "Subject", Value: "Transaction Alert"},
			{Name: "From", Value: "alerts@bank.example"},
		},
	}

	if got := header(payload, "subject"); got != "Transaction Alert" {
		t.Errorf("header(subject) = %q", got)
	}
	if got := header(payload, "From"); got != "alerts@bank.example" {
		t.Errorf("header(From) = %q", got)
	}
	if got := header(payload, "Date"); got != "" {
		t.Errorf("header(Date) = %q, want empty", got)
	}
	if got := header(nil, "Subject"); got != "" {
		t.Errorf("header(nil) = %q, want empty", got)
	}
}

func TestExtractBody(t *testing.T) {
	encode := func(s string) string {
		return base64.URLEncoding.EncodeToString([]byte(s))
	}

	t.Run("simple body", func(t *testing.T) {
		payload := &gmailapi.MessagePart{
			Body: &gmailapi.MessagePartBody{Data: encode("You spent Rs 450 at Dominos")},
		}
		if got := extractBody(payload); got != "You spent Rs 450 at Dominos" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("multipart picks text/plain", func(t *testing.T) {
		payload := &gmailapi.MessagePart{
			Parts: []*gmailapi.MessagePart{
				{MimeType: "text/html", Body: &gmailapi.MessagePartBody{Data: encode("<b>html</b>")}},
				{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: encode("plain text")}},
			},
		}
		if got := extractBody(payload); got != "plain text" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("raw base64url accepted", func(t *testing.T) {
		raw := base64.RawURLEncoding.EncodeToString([]byte("no padding"))
		payload := &gmailapi.MessagePart{
			Body: &gmailapi.MessagePartBody{Data: raw},
		}
		if got := extractBody(payload); got != "no padding" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("truncated to limit", func(t *testing.T) {
		long := strings.Repeat("x", bodyLimit+500)
		payload := &gmailapi.MessagePart{
			Body: &gmailapi.MessagePartBody{Data: encode(long)},
		}
		if got := extractBody(payload); len(got) != bodyLimit {
			t.Errorf("len = %d, want %d", len(got), bodyLimit)
		}
	})

	t.Run("nil payload", func(t *testing.T) {
		if got := extractBody(nil); got != "" {
			t.Errorf("got %q, want empty", got)
		}
	})
}
