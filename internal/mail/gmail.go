package mail

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const me = "me"

// Client reads messages from the authorized user's mailbox.
type Client struct {
	svc    *gmail.Service
	logger *zap.Logger
	now    func() time.Time
}

// NewClient builds a Gmail v1 client on top of an authorized HTTP client.
func NewClient(ctx context.Context, httpClient *http.Client, logger *zap.Logger) (*Client, error) {
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{svc: svc, logger: logger, now: time.Now}, nil
}

// ListMessages returns the ids of messages received in the last days, filtered by
// label and folder when set. All result pages are read.
func (c *Client) ListMessages(ctx context.Context, days int, label, folder string) ([]string, error) {
	query := BuildQuery(c.now(), days, label, folder)

	var ids []string
	err := c.svc.Users.Messages.List(me).Q(query).Pages(ctx, func(page *gmail.ListMessagesResponse) error {
		for _, m := range page.Messages {
			ids = append(ids, m.Id)
		}
		return nil
	})
	if err != nil {
		return nil, &APICallError{Message: fmt.Sprintf("list messages %q", query), Cause: err}
	}

	c.logger.Info("listed messages", zap.String("query", query), zap.Int("count", len(ids)))
	return ids, nil
}

// GetDetails fetches one message and decodes its headers and body. A message without
// a usable body yields a *DecodeError.
func (c *Client) GetDetails(ctx context.Context, id string) (*Message, error) {
	m, err := c.svc.Users.Messages.Get(me, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, &APICallError{Message: fmt.Sprintf("get message %s", id), Cause: err}
	}
	return fromPayload(m.Id, m.Payload)
}
