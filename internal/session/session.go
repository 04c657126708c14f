// Package session owns the loaded database for the lifetime of the process.
// It is the single writer: every mutation runs under one lock, is applied
// to a copy, persisted in full and only then made visible.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"alvara/internal/model"
	"alvara/internal/process"
	"alvara/internal/repo"
)

type Session struct {
	mu  sync.Mutex
	gw  repo.Gateway
	db  model.Database
	log *zerolog.Logger
	now func() time.Time
}

func New(gw repo.Gateway, log *zerolog.Logger) *Session {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Session{gw: gw, log: log, now: time.Now}
}

// Now is the clock used for history timestamps.
func (s *Session) Now() time.Time {
	return s.now()
}

// SetClock replaces the clock. Call it before the session is shared.
func (s *Session) SetClock(now func() time.Time) {
	s.now = now
}

// Load reads the database from the gateway, replacing whatever was held.
// Stored events are normalised whether or not a user is logged in.
// A missing user or event is not an error here; Current reports it.
func (s *Session) Load(ctx context.Context) error {
	raw, err := s.gw.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if raw == nil {
		raw = &model.Database{}
	}
	if raw.CurrentEvent != nil {
		process.Normalize(raw.CurrentEvent)
	}
	for i := range raw.Events {
		process.Normalize(&raw.Events[i])
	}
	s.db = *raw
	return nil
}

func (s *Session) User() (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db.User == nil {
		return model.User{}, process.ErrNoSession
	}
	return *s.db.User, nil
}

// Current returns a copy of the current event.
func (s *Session) Current() (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, err := s.currentLocked()
	if err != nil {
		return model.Event{}, err
	}
	return ev.Clone(), nil
}

// currentLocked applies the session preconditions. Initialize is idempotent
// on an already normalised event.
func (s *Session) currentLocked() (*model.Event, error) {
	return process.Initialize(&s.db)
}

// Update runs fn against a copy of the current event. When fn fails, or the
// save fails, nothing changes. On success both currentEvent and the matching
// entry in events are replaced and the whole database is written through.
func (s *Session) Update(ctx context.Context, fn func(ev *model.Event) error) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.currentLocked()
	if err != nil {
		return model.Event{}, err
	}

	next := cur.Clone()
	if err := fn(&next); err != nil {
		return model.Event{}, err
	}

	db := s.db.Clone()
	db.CurrentEvent = &next
	for i := range db.Events {
		if db.Events[i].ID == next.ID {
			db.Events[i] = next.Clone()
			break
		}
	}

	if err := s.gw.Save(ctx, &db); err != nil {
		s.log.Error().Err(err).Str("event_id", next.ID).Msg("failed to persist event, change discarded")
		return model.Event{}, fmt.Errorf("failed to save database: %w", err)
	}
	s.db = db
	return next.Clone(), nil
}

// Login sets the session user.
func (s *Session) Login(ctx context.Context, user model.User) (model.User, error) {
	user.Name = strings.TrimSpace(user.Name)
	user.Email = strings.TrimSpace(user.Email)
	if user.Name == "" {
		return model.User{}, fmt.Errorf("%w: user name is empty", process.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	db := s.db.Clone()
	db.User = &user
	if err := s.gw.Save(ctx, &db); err != nil {
		return model.User{}, fmt.Errorf("failed to save database: %w", err)
	}
	s.db = db
	return user, nil
}

// Start makes ev the current event and records it in events.
func (s *Session) Start(ctx context.Context, ev model.Event) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db.User == nil {
		return model.Event{}, process.ErrNoSession
	}

	db := s.db.Clone()
	cur := ev.Clone()
	db.CurrentEvent = &cur
	replaced := false
	for i := range db.Events {
		if db.Events[i].ID == ev.ID {
			db.Events[i] = ev.Clone()
			replaced = true
			break
		}
	}
	if !replaced {
		db.Events = append(db.Events, ev.Clone())
	}

	if err := s.gw.Save(ctx, &db); err != nil {
		return model.Event{}, fmt.Errorf("failed to save database: %w", err)
	}
	s.db = db
	s.log.Info().Str("event_id", ev.ID).Str("event", ev.Name).Msg("current event replaced")
	return ev.Clone(), nil
}
