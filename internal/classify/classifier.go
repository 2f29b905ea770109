// Package classify turns a decoded email into a ClassifiedFact using the language model.
package classify

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jonathan/jobsheet/internal/llm"
	"github.com/jonathan/jobsheet/internal/mail"
	"github.com/jonathan/jobsheet/internal/prompts"
	"github.com/jonathan/jobsheet/internal/schemas"
	"github.com/jonathan/jobsheet/internal/similarity"
	"github.com/jonathan/jobsheet/internal/types"
	"go.uber.org/zap"
)

const promptFile = "classify.json"

// updateSchema is the object the model returns for an application email.
var updateSchema = llm.ExtractionSchema{
	Name: "ApplicationUpdate",
	Fields: []llm.SchemaField{
		{Name: "company", Description: "name of the company that sent the email", Required: true},
		{Name: "role", Description: "title of the position applied for", Required: true},
		{Name: "notes", Description: "details the recipient should remember", MaxWords: types.MaxNoteWords},
		{Name: "status", Enum: statusNames(), Required: true},
	},
}

type update struct {
	Company string `json:"company"`
	Role    string `json:"role"`
	Notes   string `json:"notes"`
	Status  string `json:"status"`
}

// Classifier asks the model whether a message is about an application and, if so,
// extracts the update it carries.
type Classifier struct {
	client llm.Client
	scorer similarity.Scorer
	logger *zap.Logger
}

// New creates a Classifier. A nil scorer falls back to lexical similarity for
// coercing the status.
func New(client llm.Client, scorer similarity.Scorer, logger *zap.Logger) *Classifier {
	if scorer == nil {
		scorer = similarity.NewLexical()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{client: client, scorer: scorer, logger: logger}
}

// Classify returns the fact carried by msg, or nil when msg is not about one of the
// recipient's applications.
func (c *Classifier) Classify(ctx context.Context, msg *mail.Message) (*types.ClassifiedFact, error) {
	ok, err := c.IsApplication(ctx, msg)
	if err != nil {
		return nil, err
	}
	if !ok {
		c.logger.Debug("not an application email", zap.String("message_id", msg.ID))
		return nil, nil
	}
	return c.Extract(ctx, msg)
}

// IsApplication runs the yes/no gate on the lite model tier.
func (c *Classifier) IsApplication(ctx context.Context, msg *mail.Message) (bool, error) {
	prompt := prompts.Format(prompts.MustGet(promptFile, "is-application"), messageFields(msg))

	answer, err := c.client.GenerateContent(ctx, prompt, llm.TierLite)
	if err != nil {
		return false, &ClassificationError{MessageID: msg.ID, Message: "gate request failed", Cause: err}
	}
	return isYes(answer), nil
}

// Extract asks the standard model tier for the update fields and builds a validated fact.
func (c *Classifier) Extract(ctx context.Context, msg *mail.Message) (*types.ClassifiedFact, error) {
	timestamp, err := types.ParseMailDate(msg.Date)
	if err != nil {
		return nil, &ClassificationError{MessageID: msg.ID, Message: "unusable Date header", Cause: err}
	}

	schema := updateSchema
	schema.Description = prompts.Format(prompts.MustGet(promptFile, "extract-update"), messageFields(msg))
	prompt := llm.BuildExtractionPrompt(schema, msg.Body)

	response, err := c.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, &ClassificationError{MessageID: msg.ID, Message: "extraction request failed", Cause: err}
	}

	raw := llm.CleanJSONBlock(response)
	if err := schemas.Validate(schemas.ApplicationUpdate, raw); err != nil {
		return nil, &ClassificationError{MessageID: msg.ID, Message: "response does not match schema", Cause: err}
	}

	var u update
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, &ClassificationError{MessageID: msg.ID, Message: "failed to parse response", Cause: err}
	}

	status := types.NearestStatus(u.Status, similarity.Func(ctx, c.scorer))
	if !strings.EqualFold(strings.TrimSpace(u.Status), string(status)) {
		c.logger.Debug("coerced status",
			zap.String("message_id", msg.ID),
			zap.String("raw", u.Status),
			zap.Stringer("status", status))
	}

	fact := &types.ClassifiedFact{
		MessageID: msg.ID,
		Company:   strings.TrimSpace(u.Company),
		Role:      strings.TrimSpace(u.Role),
		Notes:     types.TruncateWords(u.Notes, types.MaxNoteWords),
		Status:    status,
		Timestamp: timestamp,
		SourceRef: msg.SourceLink(),
	}
	if err := fact.Validate(); err != nil {
		return nil, &ClassificationError{MessageID: msg.ID, Message: "incomplete fact", Cause: err}
	}
	return fact, nil
}

func messageFields(msg *mail.Message) map[string]string {
	return map[string]string{
		"Subject": msg.Subject,
		"Sender":  msg.Sender,
		"Body":    msg.Body,
	}
}

// isYes reads the gate answer. Models sometimes add punctuation or a sentence after
// the verdict.
func isYes(answer string) bool {
	answer = strings.ToLower(strings.TrimSpace(answer))
	answer = strings.TrimLeft(answer, "'\"*`")
	return strings.HasPrefix(answer, "yes")
}

func statusNames() []string {
	names := make([]string, len(types.AllStatuses))
	for i, s := range types.AllStatuses {
		names[i] = string(s)
	}
	return names
}
