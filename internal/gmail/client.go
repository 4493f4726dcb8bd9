package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	goption "google.golang.org/api/option"
)

// bodyLimit caps how much of an email body is kept for parsing.
// Transaction details always sit in the first few lines.
const bodyLimit = 1000

// transactionQuery narrows the mailbox search to bank alert emails.
const transactionQuery = `subject:(transaction OR payment OR spent OR debited OR credited OR "bank alert")`

// Email is one fetched message, trimmed to the fields the parser needs.
type Email struct {
	MessageID string
	Subject   string
	Sender    string
	Date      string
	Body      string
}

// Config locates the OAuth client secret and a previously issued token.
// Inline JSON takes precedence over file paths when both are set.
type Config struct {
	ClientJSON string
	ClientFile string
	TokenJSON  string
	TokenFile  string
}

type Client struct {
	svc *gmailapi.Service
}

// New builds a Gmail client from stored OAuth credentials. The token
// source refreshes expired access tokens transparently.
func New(ctx context.Context, cfg Config) (*Client, error) {
	clientSecret, err := readCredential(cfg.ClientJSON, cfg.ClientFile)
	if err != nil {
		return nil, fmt.Errorf("oauth client secret: %w", err)
	}

	oauthCfg, err := google.ConfigFromJSON(clientSecret, gmailapi.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}

	tokenJSON, err := readCredential(cfg.TokenJSON, cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("decode oauth token: %w", err)
	}

	svc, err := gmailapi.NewService(ctx, goption.WithTokenSource(oauthCfg.TokenSource(ctx, &tok)))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}

	slog.InfoContext(ctx, "Gmail service initialized", "scope", gmailapi.GmailReadonlyScope)
	return &Client{svc: svc}, nil
}

func readCredential(inline, file string) ([]byte, error) {
	switch {
	case strings.TrimSpace(inline) != "":
		return []byte(inline), nil
	case strings.TrimSpace(file) != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		return b, nil
	default:
		return nil, errors.New("no credential configured")
	}
}

// FetchTransactionEmails searches the mailbox for bank alert emails newer
// than the window and returns at most limit of them, newest first.
func (c *Client) FetchTransactionEmails(ctx context.Context, window time.Duration, limit int) ([]Email, error) {
	if c.svc == nil {
		return nil, errors.New("gmail service not initialized")
	}

	after := time.Now().Add(-window).Format("2006/01/02")
	query := fmt.Sprintf("%s after:%s", transactionQuery, after)

	res, err := c.svc.Users.Messages.List("me").
		Q(query).MaxResults(int64(limit)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if len(res.Messages) == 0 {
		slog.InfoContext(ctx, "No transaction emails found", "query", query)
		return nil, nil
	}

	emails := make([]Email, 0, len(res.Messages))
	for _, m := range res.Messages {
		msg, err := c.svc.Users.Messages.Get("me", m.Id).Format("full").Context(ctx).Do()
		if err != nil {
			slog.WarnContext(ctx, "Failed to fetch message, skipping", "message_id", m.Id, "error", err)
			continue
		}
		emails = append(emails, Email{
			MessageID: m.Id,
			Subject:   header(msg.Payload, "Subject"),
			Sender:    header(msg.Payload, "From"),
			Date:      header(msg.Payload, "Date"),
			Body:      extractBody(msg.Payload),
		})
	}

	slog.InfoContext(ctx, "Fetched transaction emails", "found", len(res.Messages), "extracted", len(emails))
	return emails, nil
}

func header(payload *gmailapi.MessagePart, name string) string {
	if payload == nil {
		return ""
	}
	for _, h := range payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// extractBody returns the plain text body of a message, truncated to
// bodyLimit. Multipart messages use the first text/plain part.
func extractBody(payload *gmailapi.MessagePart) string {
	if payload == nil {
		return ""
	}
	if payload.Body != nil && payload.Body.Data != "" {
		return truncate(decodeBody(payload.Body.Data))
	}
	for _, part := range payload.Parts {
		if part.MimeType != "text/plain" || part.Body == nil || part.Body.Data == "" {
			continue
		}
		return truncate(decodeBody(part.Body.Data))
	}
	return ""
}

func decodeBody(data string) string {
	b, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		b, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return ""
		}
	}
	return string(b)
}

func truncate(s string) string {
	if len(s) > bodyLimit {
		return s[:bodyLimit]
	}
	return s
}
