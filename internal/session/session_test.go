package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alvara/internal/model"
	"alvara/internal/process"
	"alvara/internal/repo"
)

type failingStore struct {
	*repo.MemoryStore
	fail bool
}

func (f *failingStore) Save(ctx context.Context, db *model.Database) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.MemoryStore.Save(ctx, db)
}

func seeded(t *testing.T) (*Session, *failingStore) {
	t.Helper()
	ev, err := process.NewEvent(process.NewEventInput{
		Name:      "Festival",
		Documents: process.DefaultChecklist(1000),
	}, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)

	store := &failingStore{MemoryStore: repo.NewMemoryStore()}
	require.NoError(t, store.Save(context.Background(), &model.Database{
		User:         &model.User{Name: "Maria"},
		CurrentEvent: ev,
		Events:       []model.Event{{ID: "other"}, ev.Clone()},
	}))

	s := New(store, nil)
	require.NoError(t, s.Load(context.Background()))
	return s, store
}

func TestLoadPreconditions(t *testing.T) {
	s := New(repo.NewMemoryStore(), nil)
	require.NoError(t, s.Load(context.Background()))

	_, err := s.Current()
	assert.ErrorIs(t, err, process.ErrNoSession)

	_, err = s.Login(context.Background(), model.User{Name: "  "})
	assert.ErrorIs(t, err, process.ErrInvalidInput)

	_, err = s.Login(context.Background(), model.User{Name: "Maria"})
	require.NoError(t, err)

	_, err = s.Current()
	assert.ErrorIs(t, err, process.ErrNoEvent)
}

func TestUpdateWritesThrough(t *testing.T) {
	s, store := seeded(t)
	cur, err := s.Current()
	require.NoError(t, err)
	docID := cur.Documents[0].ID

	updated, err := s.Update(context.Background(), func(ev *model.Event) error {
		return process.TransitionDocument(ev, docID, model.DocumentApproved, "Analista", "", s.Now())
	})
	require.NoError(t, err)
	assert.Equal(t, model.DocumentApproved, updated.Documents[0].Status)

	saved, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.DocumentApproved, saved.CurrentEvent.Documents[0].Status)
	assert.Equal(t, model.DocumentApproved, saved.Events[1].Documents[0].Status)
	assert.Equal(t, "other", saved.Events[0].ID)
	assert.Equal(t, updated.Progress, saved.Events[1].Progress)
}

func TestUpdateFailureLeavesStateUntouched(t *testing.T) {
	s, store := seeded(t)
	before, err := s.Current()
	require.NoError(t, err)
	saves := store.Saves()

	_, err = s.Update(context.Background(), func(ev *model.Event) error {
		ev.Documents[0].Name = "mutated"
		return process.TransitionDocument(ev, "nonexistent-id", model.DocumentApproved, "Analista", "", s.Now())
	})
	assert.ErrorIs(t, err, process.ErrNotFound)

	after, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, saves, store.Saves())
}

func TestUpdateSaveFailureDiscardsChange(t *testing.T) {
	s, store := seeded(t)
	before, err := s.Current()
	require.NoError(t, err)

	store.fail = true
	_, err = s.Update(context.Background(), func(ev *model.Event) error {
		return process.MarkPaymentComplete(ev, "Maria", s.Now())
	})
	require.Error(t, err)

	after, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCurrentReturnsCopy(t *testing.T) {
	s, _ := seeded(t)
	ev, err := s.Current()
	require.NoError(t, err)
	ev.Documents[0].Name = "changed outside"

	again, err := s.Current()
	require.NoError(t, err)
	assert.NotEqual(t, "changed outside", again.Documents[0].Name)
}

func TestStartReplacesCurrentEvent(t *testing.T) {
	s, store := seeded(t)
	next, err := process.NewEvent(process.NewEventInput{Name: "Feira"}, s.Now())
	require.NoError(t, err)

	_, err = s.Start(context.Background(), *next)
	require.NoError(t, err)

	cur, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, next.ID, cur.ID)

	saved, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, saved.Events, 3)
}

func TestLoginServesNormalisedEventStoredWithoutUser(t *testing.T) {
	store := repo.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), &model.Database{
		CurrentEvent: &model.Event{
			ID: "ev",
			Documents: []model.Document{
				{ID: "a", Kind: model.KindUpload, Status: model.DocumentApproved},
				{ID: "b", Kind: model.KindUpload, Status: model.DocumentApproved},
			},
		},
	}))

	s := New(store, nil)
	require.NoError(t, s.Load(context.Background()))
	_, err := s.Login(context.Background(), model.User{Name: "Ana"})
	require.NoError(t, err)

	ev, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, model.EventApproved, ev.Status)
	assert.Equal(t, 100, ev.Progress)
	for _, d := range ev.Documents {
		assert.NotNil(t, d.History)
	}
}
