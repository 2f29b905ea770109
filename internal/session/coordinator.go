// Package session runs one scan of the inbox: list messages, then fetch, classify and
// reconcile each one on a bounded pool of workers.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/jobsheet/internal/classify"
	"github.com/jonathan/jobsheet/internal/mail"
	"github.com/jonathan/jobsheet/internal/reconcile"
	"github.com/jonathan/jobsheet/internal/sheets"
	"github.com/jonathan/jobsheet/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the pool size used when Options.Workers is not set.
const DefaultWorkers = 2

// Unit stages, as logged.
const (
	StageFetch     = "fetch"
	StageClassify  = "classify"
	StageReconcile = "reconcile"
)

// MailSource lists and fetches messages.
type MailSource interface {
	ListMessages(ctx context.Context, days int, label, folder string) ([]string, error)
	GetDetails(ctx context.Context, id string) (*mail.Message, error)
}

// Classifier turns a message into a fact; a nil fact means the message is not about an application.
type Classifier interface {
	Classify(ctx context.Context, msg *mail.Message) (*types.ClassifiedFact, error)
}

// Reconciler merges facts into the tracking sheet.
type Reconciler interface {
	Reconcile(ctx context.Context, fact *types.ClassifiedFact) (reconcile.Result, error)
	Counters() *reconcile.Counters
}

// Recorder keeps a history of finished sessions.
type Recorder interface {
	RecordSession(ctx context.Context, summary *types.SessionSummary, facts []types.FactRecord) error
}

// Options configures a Coordinator.
type Options struct {
	Workers  int
	Label    string
	Folder   string
	Logger   *zap.Logger
	Recorder Recorder // optional
}

// Coordinator drives a session.
type Coordinator struct {
	mail       MailSource
	classifier Classifier
	engine     Reconciler
	opts       Options
	logger     *zap.Logger
	now        func() time.Time
}

// NewCoordinator creates a Coordinator. mail and classifier may be nil when only
// ReconcileFacts is used.
func NewCoordinator(src MailSource, classifier Classifier, engine Reconciler, opts Options) *Coordinator {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		mail:       src,
		classifier: classifier,
		engine:     engine,
		opts:       opts,
		logger:     logger,
		now:        time.Now,
	}
}

// Run scans messages from the last days and reconciles every application update found.
// Unit failures are logged and counted; only a failure to list messages or a cancelled
// context ends the session with an error. The summary is returned in both cases.
func (c *Coordinator) Run(ctx context.Context, days int) (*types.SessionSummary, error) {
	if c.mail == nil || c.classifier == nil {
		return nil, errors.New("session: mail source and classifier are required")
	}

	t := c.start(days)

	ids, err := c.mail.ListMessages(ctx, days, c.opts.Label, c.opts.Folder)
	if err != nil {
		return c.finish(ctx, t), fmt.Errorf("failed to list messages: %w", err)
	}
	t.summary.Messages = len(ids)
	c.logger.Info("session started",
		zap.Stringer("session_id", t.summary.ID),
		zap.Int("days", days),
		zap.Int("messages", len(ids)),
		zap.Int("workers", c.opts.Workers))

	err = c.pool(ctx, len(ids), func(ctx context.Context, i int) {
		c.processMessage(ctx, t, ids[i])
	})
	return c.finish(ctx, t), err
}

// ReconcileFacts reconciles facts that were already classified.
func (c *Coordinator) ReconcileFacts(ctx context.Context, facts []*types.ClassifiedFact) (*types.SessionSummary, error) {
	t := c.start(0)
	t.summary.Messages = len(facts)

	err := c.pool(ctx, len(facts), func(ctx context.Context, i int) {
		c.reconcileFact(ctx, t, facts[i])
	})
	return c.finish(ctx, t), err
}

// pool runs n units on at most Workers goroutines. Units never fail the group; a
// cancelled context stops new units from starting.
func (c *Coordinator) pool(ctx context.Context, n int, unit func(context.Context, int)) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)

	for i := 0; i < n; i++ {
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gCtx.Err() != nil {
				return nil
			}
			unit(gCtx, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (c *Coordinator) processMessage(ctx context.Context, t *tally, id string) {
	msg, err := c.mail.GetDetails(ctx, id)
	if err != nil {
		c.unitFailed(t, id, StageFetch, err)
		return
	}

	fact, err := c.classifier.Classify(ctx, msg)
	if err != nil {
		c.unitFailed(t, id, StageClassify, err)
		return
	}
	if fact == nil {
		t.skip()
		return
	}

	c.reconcileFact(ctx, t, fact)
}

func (c *Coordinator) reconcileFact(ctx context.Context, t *tally, fact *types.ClassifiedFact) {
	res, err := c.engine.Reconcile(ctx, fact)
	if err != nil {
		c.unitFailed(t, fact.MessageID, StageReconcile, err,
			zap.String("company", fact.Company),
			zap.String("role", fact.Role))
		return
	}

	c.logger.Debug("fact reconciled",
		zap.String("message_id", fact.MessageID),
		zap.String("company", fact.Company),
		zap.String("role", fact.Role),
		zap.Stringer("status", fact.Status),
		zap.String("outcome", string(res.Outcome)),
		zap.String("range", res.Range.String()))

	t.record(types.FactRecord{
		MessageID: fact.MessageID,
		Company:   fact.Company,
		Role:      fact.Role,
		Status:    fact.Status,
		Outcome:   res.Outcome,
		Range:     res.Range.String(),
	})
}

func (c *Coordinator) unitFailed(t *tally, id, stage string, err error, fields ...zap.Field) {
	t.fail()
	if errors.Is(err, context.Canceled) {
		return
	}
	fields = append([]zap.Field{
		zap.String("message_id", id),
		zap.String("stage", stage),
		zap.String("kind", Kind(err)),
		zap.Error(err),
	}, fields...)
	c.logger.Warn("message skipped", fields...)
}

// Kind names the failure category of a unit error.
func Kind(err error) string {
	var (
		decodeErr *mail.DecodeError
		apiErr    *mail.APICallError
		classErr  *classify.ClassificationError
		parseErr  *types.ParseError
		storeErr  *sheets.StoreError
		lockErr   *reconcile.LockTimeoutError
		lookupErr *reconcile.LookupError
	)
	switch {
	case errors.As(err, &lockErr):
		return "lock_timeout"
	case errors.As(err, &storeErr):
		return "store_unavailable"
	case errors.As(err, &parseErr):
		return "parse_failure"
	case errors.As(err, &decodeErr):
		return "decode_failure"
	case errors.As(err, &classErr):
		return "classification_failure"
	case errors.As(err, &apiErr):
		return "mail_unavailable"
	case errors.As(err, &lookupErr):
		return "lookup_failure"
	default:
		return "unknown"
	}
}

func (c *Coordinator) start(days int) *tally {
	return &tally{
		started: c.now(),
		summary: types.SessionSummary{
			ID:        uuid.New(),
			Days:      days,
			StartedAt: c.now(),
		},
	}
}

// finish fills the summary from the engine counters and records it when a Recorder is set.
func (c *Coordinator) finish(ctx context.Context, t *tally) *types.SessionSummary {
	summary, records := t.snapshot()
	summary.Counts = c.engine.Counters().Snapshot()
	summary.Elapsed = c.now().Sub(t.started)

	c.logger.Info("session finished",
		zap.Stringer("session_id", summary.ID),
		zap.Int("updates", summary.Total()),
		zap.Int("inserted", summary.Inserted),
		zap.Int("updated", summary.Updated),
		zap.Int("stale", summary.Stale),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Duration("elapsed", summary.Elapsed))

	if c.opts.Recorder != nil {
		recordCtx := context.WithoutCancel(ctx)
		if err := c.opts.Recorder.RecordSession(recordCtx, summary, records); err != nil {
			c.logger.Warn("failed to record session", zap.Stringer("session_id", summary.ID), zap.Error(err))
		}
	}
	return summary
}

// tally accumulates unit outcomes across workers.
type tally struct {
	started time.Time

	mu      sync.Mutex
	summary types.SessionSummary
	records []types.FactRecord
}

func (t *tally) record(r types.FactRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch r.Outcome {
	case types.OutcomeInserted:
		t.summary.Inserted++
	case types.OutcomeUpdated:
		t.summary.Updated++
	case types.OutcomeStale:
		t.summary.Stale++
	}
	t.records = append(t.records, r)
}

func (t *tally) skip() {
	t.mu.Lock()
	t.summary.Skipped++
	t.mu.Unlock()
}

func (t *tally) fail() {
	t.mu.Lock()
	t.summary.Failed++
	t.mu.Unlock()
}

func (t *tally) snapshot() (*types.SessionSummary, []types.FactRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	summary := t.summary
	records := make([]types.FactRecord, len(t.records))
	copy(records, t.records)
	return &summary, records
}
