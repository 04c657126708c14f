// Package review stands in for the municipal analyst. Submissions are
// approved after a delay unless the document moved on in the meantime.
package review

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"alvara/internal/model"
	"alvara/internal/process"
)

const (
	AnalystActor    = "Analista"
	ApprovedComment = "Documento aprovado após conferência"
	ManualApproved  = "Aprovação simulada"
	ManualRejected  = "Reprovado (simulado)"

	DefaultDelay = 3 * time.Second
)

var (
	errStale  = errors.New("stale review ticket")
	errSeeded = errors.New("demo history already present")
)

// Store is the slice of the session the engine needs.
type Store interface {
	Update(ctx context.Context, fn func(ev *model.Event) error) (model.Event, error)
	Now() time.Time
}

// Ticket identifies one scheduled approval. Revision pins the document
// generation the ticket was issued for.
type Ticket struct {
	EventID    string `json:"event_id"`
	DocumentID string `json:"document_id"`
	Revision   uint64 `json:"revision"`
}

func (t Ticket) key() string {
	return t.EventID + "/" + t.DocumentID
}

type Scheduler interface {
	Schedule(t Ticket, delay time.Duration) error
}

type Submission struct {
	DocumentID string
	FileName   string
	Actor      string
	Comment    string
}

type Engine struct {
	store Store
	sched Scheduler
	delay time.Duration
	log   *zerolog.Logger
}

type Option func(*Engine)

func WithScheduler(s Scheduler) Option {
	return func(e *Engine) { e.sched = s }
}

func WithDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.delay = d
		}
	}
}

func WithLogger(log *zerolog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// NewEngine builds an engine. Without WithScheduler it fires tickets from
// in-process timers.
func NewEngine(store Store, opts ...Option) *Engine {
	nop := zerolog.Nop()
	e := &Engine{store: store, delay: DefaultDelay, log: &nop}
	for _, opt := range opts {
		opt(e)
	}
	if e.sched == nil {
		e.sched = NewTimerScheduler(func(t Ticket) {
			_, _ = e.Fire(context.Background(), t)
		})
	}
	return e
}

func (e *Engine) Scheduler() Scheduler {
	return e.sched
}

// SimulateSubmission sends the document to review now and schedules the
// analyst's approval.
func (e *Engine) SimulateSubmission(ctx context.Context, sub Submission) (model.Event, error) {
	now := e.store.Now()
	var ticket Ticket
	ev, err := e.store.Update(ctx, func(ev *model.Event) error {
		var err error
		if strings.TrimSpace(sub.FileName) != "" {
			err = process.SubmitUpload(ev, sub.DocumentID, sub.FileName, sub.Actor, sub.Comment, now)
		} else {
			err = process.SendToReview(ev, sub.DocumentID, sub.Actor, sub.Comment, now)
		}
		if err != nil {
			return err
		}
		doc := ev.Document(sub.DocumentID)
		ticket = Ticket{EventID: ev.ID, DocumentID: doc.ID, Revision: doc.Revision}
		return nil
	})
	if err != nil {
		return model.Event{}, err
	}

	if err := e.sched.Schedule(ticket, e.delay); err != nil {
		// The submission stands; the document waits for a manual decision.
		e.log.Error().Err(err).
			Str("document_id", ticket.DocumentID).
			Msg("failed to schedule simulated review")
		return ev, nil
	}
	e.log.Info().
		Str("event_id", ticket.EventID).
		Str("document_id", ticket.DocumentID).
		Uint64("revision", ticket.Revision).
		Dur("delay", e.delay).
		Msg("simulated review scheduled")
	return ev, nil
}

// Fire applies a scheduled approval if the ticket still describes the
// current state. A stale ticket is a silent no-op and reports false.
func (e *Engine) Fire(ctx context.Context, t Ticket) (bool, error) {
	now := e.store.Now()
	_, err := e.store.Update(ctx, func(ev *model.Event) error {
		if ev.ID != t.EventID {
			return errStale
		}
		doc := ev.Document(t.DocumentID)
		if doc == nil || doc.Status != model.DocumentUnderReview || doc.Revision != t.Revision {
			return errStale
		}
		return process.TransitionDocument(ev, t.DocumentID, model.DocumentApproved, AnalystActor, ApprovedComment, now)
	})
	switch {
	case errors.Is(err, errStale), errors.Is(err, process.ErrPreconditionFailed):
		e.log.Debug().
			Str("event_id", t.EventID).
			Str("document_id", t.DocumentID).
			Msg("review ticket discarded")
		return false, nil
	case err != nil:
		e.log.Error().Err(err).Str("document_id", t.DocumentID).Msg("simulated review failed")
		return false, err
	}
	e.log.Info().Str("document_id", t.DocumentID).Msg("document approved by simulated review")
	return true, nil
}

// ManualApprove settles a document at once. Payment items become paid.
func (e *Engine) ManualApprove(ctx context.Context, docID string) (model.Event, error) {
	now := e.store.Now()
	return e.store.Update(ctx, func(ev *model.Event) error {
		to := model.DocumentApproved
		if doc := ev.Document(docID); doc != nil {
			to = process.ApprovalStatus(doc)
		}
		return process.TransitionDocument(ev, docID, to, AnalystActor, ManualApproved, now)
	})
}

func (e *Engine) ManualReject(ctx context.Context, docID, comment string) (model.Event, error) {
	if strings.TrimSpace(comment) == "" {
		comment = ManualRejected
	}
	now := e.store.Now()
	return e.store.Update(ctx, func(ev *model.Event) error {
		return process.TransitionDocument(ev, docID, model.DocumentFlagged, AnalystActor, comment, now)
	})
}

// SeedCurrent applies SeedDemoHistory to the current event and persists it.
// It reports false when there is no event or it was seeded before.
func (e *Engine) SeedCurrent(ctx context.Context) (bool, error) {
	now := e.store.Now()
	ev, err := e.store.Update(ctx, func(ev *model.Event) error {
		if !SeedDemoHistory(ev, ev.Requester, now) {
			return errSeeded
		}
		return nil
	})
	switch {
	case errors.Is(err, errSeeded), errors.Is(err, process.ErrPreconditionFailed):
		return false, nil
	case err != nil:
		return false, err
	}
	e.log.Info().Str("event_id", ev.ID).Msg("demo review history seeded")
	return true, nil
}
