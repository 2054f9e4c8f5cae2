package emails

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultBrevoAPI = "https://api.brevo.com/v3/smtp/email"

// BrevoSendRequest matches Brevo API v3 send transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoSender `json:"sender"`
	To          []BrevoTo   `json:"to"`
	Subject     string      `json:"subject"`
	HTMLContent string      `json:"htmlContent"`
}

type BrevoSender struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type BrevoTo struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Sender sends transactional emails. A nil Sender means no emails.
type Sender interface {
	SendWelcome(ctx context.Context, toEmail string) error
	SendNewThread(ctx context.Context, toEmail, listingTitle, threadID string) error
}

// BrevoClient sends emails via the Brevo (Sendinblue) API.
// With no APIKey every send is a no-op.
type BrevoClient struct {
	APIKey     string
	MailFrom   string
	AppBaseURL string
	APIURL     string
	Client     *http.Client
}

func (c *BrevoClient) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "noreply@homesocial.app"
}

func (c *BrevoClient) endpoint() string {
	if c.APIURL != "" {
		return c.APIURL
	}
	return defaultBrevoAPI
}

func (c *BrevoClient) link(path string) string {
	base := strings.TrimRight(c.AppBaseURL, "/")
	if base == "" {
		base = "http://localhost:3000"
	}
	return base + path
}

func (c *BrevoClient) send(ctx context.Context, toEmail, subject, html string) error {
	if c.APIKey == "" || toEmail == "" {
		return nil
	}
	body := BrevoSendRequest{
		Sender:      BrevoSender{Email: c.from(), Name: "HomeSocial"},
		To:          []BrevoTo{{Email: toEmail}},
		Subject:     subject,
		HTMLContent: html,
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	return nil
}

// SendWelcome is sent once after sign-up.
func (c *BrevoClient) SendWelcome(ctx context.Context, toEmail string) error {
	return c.send(ctx, toEmail, "Welcome to HomeSocial", EmailLayout(welcomeContent(c.link("/feed"))))
}

// SendNewThread tells a listing owner that someone opened a conversation.
func (c *BrevoClient) SendNewThread(ctx context.Context, toEmail, listingTitle, threadID string) error {
	subject := fmt.Sprintf("New message about %s", listingTitle)
	return c.send(ctx, toEmail, subject, EmailLayout(newThreadContent(listingTitle, c.link("/messages/"+threadID))))
}

func welcomeContent(feedURL string) string {
	return fmt.Sprintf(`
    <h1>Welcome to HomeSocial</h1>
    <p>Your account is ready. Browse homes near you, or post your own listing with photos and a video walkthrough.</p>
    <center><a href="%s" class="hs-button">Open the feed</a></center>
`, feedURL)
}

func newThreadContent(listingTitle, threadURL string) string {
	return fmt.Sprintf(`
    <h1>Someone is interested in %s</h1>
    <p>A buyer started a conversation about your listing. Reply to keep things moving.</p>
    <center><a href="%s" class="hs-button">Open conversation</a></center>
`, EscapeHTML(listingTitle), threadURL)
}
