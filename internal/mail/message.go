// Package mail lists and decodes the Gmail messages scanned for application updates.
package mail

import (
	"encoding/base64"
	"fmt"
	netmail "net/mail"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"google.golang.org/api/gmail/v1"
)

// Message is the decoded subset of an email the classifier needs.
type Message struct {
	ID       string
	Subject  string
	Sender   string
	Receiver string
	Date     string
	Body     string
}

// SourceLink is a stable link back to the message in the Gmail web UI.
func (m *Message) SourceLink() string {
	return fmt.Sprintf("https://mail.google.com/mail/u/%s/#inbox/%s", addressOf(m.Receiver), m.ID)
}

// BuildQuery returns the Gmail search query for messages newer than days before now.
func BuildQuery(now time.Time, days int, label, folder string) string {
	query := "after:" + now.AddDate(0, 0, -days).Format("2006/01/02")
	if label = strings.TrimSpace(label); label != "" {
		query += " label:" + label
	}
	if folder = strings.TrimSpace(folder); folder != "" {
		query += " in:" + folder
	}
	return query
}

// fromPayload builds a Message from a full-format Gmail payload.
func fromPayload(id string, payload *gmail.MessagePart) (*Message, error) {
	if payload == nil {
		return nil, &DecodeError{MessageID: id, Message: "message has no payload"}
	}

	msg := &Message{ID: id}
	for _, h := range payload.Headers {
		switch h.Name {
		case "Subject":
			msg.Subject = h.Value
		case "To":
			msg.Receiver = h.Value
		case "From":
			msg.Sender = addressOf(h.Value)
		case "Date":
			msg.Date = h.Value
		}
	}

	part := findBody(payload)
	if part == nil {
		return nil, &DecodeError{MessageID: id, Message: "no body data in any part"}
	}
	body, err := decodeBody(part.Body.Data)
	if err != nil {
		return nil, &DecodeError{MessageID: id, Message: "invalid base64 body", Cause: err}
	}
	if strings.HasPrefix(part.MimeType, "text/html") {
		if body, err = htmlToText(body); err != nil {
			return nil, &DecodeError{MessageID: id, Message: "invalid HTML body", Cause: err}
		}
	}

	msg.Body = cleanBody(body)
	if msg.Body == "" {
		return nil, &DecodeError{MessageID: id, Message: "empty body"}
	}
	return msg, nil
}

// findBody walks the MIME tree depth first and returns the first part with data,
// preferring text/plain over text/html among siblings.
func findBody(part *gmail.MessagePart) *gmail.MessagePart {
	if part == nil {
		return nil
	}
	if part.Body != nil && part.Body.Data != "" {
		return part
	}

	var fallback *gmail.MessagePart
	for _, child := range part.Parts {
		found := findBody(child)
		if found == nil {
			continue
		}
		if strings.HasPrefix(found.MimeType, "text/plain") {
			return found
		}
		if fallback == nil {
			fallback = found
		}
	}
	return fallback
}

// decodeBody decodes Gmail's base64url body data, padded or not.
func decodeBody(data string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func htmlToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style, head, noscript").Remove()
	return doc.Text(), nil
}

// cleanBody drops non-ASCII characters and collapses whitespace.
func cleanBody(body string) string {
	var sb strings.Builder
	sb.Grow(len(body))
	for _, r := range body {
		if r < 128 {
			sb.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// addressOf returns the bare address of "Name <addr>", or the input when it does not parse.
func addressOf(header string) string {
	addr, err := netmail.ParseAddress(header)
	if err != nil {
		return strings.TrimSpace(header)
	}
	return addr.Address
}
