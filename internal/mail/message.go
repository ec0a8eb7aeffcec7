package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	gomail "github.com/emersion/go-message/mail"
)

// Message is one rendered outbound email.
type Message struct {
	To       string
	Subject  string
	Heading  string
	Body     string
	Link     string
	LinkText string
	Date     time.Time
}

var bodyTemplate = template.Must(template.New("notification").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #4f46e5;">{{.Heading}}</h2>
  <p>{{.Body}}</p>
  <p style="color: #666; font-size: 14px;">{{.Date.Format "2006-01-02 15:04 MST"}}</p>
  {{- if .Link}}
  <p style="margin-top: 30px; padding-top: 20px; border-top: 1px solid #e5e7eb;">
    <a href="{{.Link}}" style="color: #4f46e5; text-decoration: none;">{{.LinkText}} &rarr;</a>
  </p>
  {{- end}}
</div>
`))

// Compose renders m as an RFC 5322 HTML message from the given sender
// ("Name <addr>" or a bare address).
func Compose(from string, m Message) ([]byte, error) {
	sender, err := gomail.ParseAddress(from)
	if err != nil {
		return nil, fmt.Errorf("parsing sender %q: %w", from, err)
	}
	rcpt, err := gomail.ParseAddress(m.To)
	if err != nil {
		return nil, fmt.Errorf("parsing recipient %q: %w", m.To, err)
	}
	if m.Date.IsZero() {
		m.Date = time.Now()
	}
	if m.LinkText == "" {
		m.LinkText = m.Link
	}

	var h gomail.Header
	h.SetDate(m.Date)
	h.SetSubject(m.Subject)
	h.SetAddressList("From", []*gomail.Address{sender})
	h.SetAddressList("To", []*gomail.Address{rcpt})
	h.SetContentType("text/html", map[string]string{"charset": "utf-8"})
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("generating message id: %w", err)
	}

	var buf bytes.Buffer
	w, err := gomail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating message writer: %w", err)
	}
	if err := bodyTemplate.Execute(w, m); err != nil {
		return nil, fmt.Errorf("rendering body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing message: %w", err)
	}
	return buf.Bytes(), nil
}

// envelopeAddress returns the bare address of a "Name <addr>" string.
func envelopeAddress(s string) (string, error) {
	a, err := gomail.ParseAddress(s)
	if err != nil {
		return "", err
	}
	return a.Address, nil
}
