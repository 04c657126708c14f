package consumerWorker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alvara/internal/review"
)

type fakeFirer struct {
	mu      sync.Mutex
	fired   []review.Ticket
	applied bool
	err     error
}

func (f *fakeFirer) Fire(_ context.Context, t review.Ticket) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fired = append(f.fired, t)
	return f.applied, f.err
}

func (f *fakeFirer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fired)
}

// chanSource hands out bodies until ctx is cancelled, like the broker does.
type chanSource struct {
	bodies  chan []byte
	results chan error
}

func (s *chanSource) Consume(ctx context.Context, handler func([]byte) error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case b := <-s.bodies:
			s.results <- handler(b)
		}
	}
}

func TestHandleFiresDecodedTicket(t *testing.T) {
	firer := &fakeFirer{applied: true}
	r := NewReader(nil, firer)

	err := r.Handle(context.Background(), []byte(`{"event_id":"ev","document_id":"doc","revision":3}`))
	require.NoError(t, err)
	require.Equal(t, 1, firer.count())
	assert.Equal(t, review.Ticket{EventID: "ev", DocumentID: "doc", Revision: 3}, firer.fired[0])
}

func TestHandleDropsMalformedTicket(t *testing.T) {
	firer := &fakeFirer{}
	r := NewReader(nil, firer)

	assert.NoError(t, r.Handle(context.Background(), []byte(`not json`)))
	assert.Zero(t, firer.count())
}

func TestHandleReturnsFireError(t *testing.T) {
	firer := &fakeFirer{err: errors.New("disk full")}
	r := NewReader(nil, firer)

	err := r.Handle(context.Background(), []byte(`{"event_id":"ev","document_id":"doc","revision":1}`))
	assert.EqualError(t, err, "disk full")
}

func TestStartStop(t *testing.T) {
	src := &chanSource{bodies: make(chan []byte), results: make(chan error, 1)}
	firer := &fakeFirer{}
	r := NewReader(src, firer)

	r.Start(context.Background())
	src.bodies <- []byte(`{"event_id":"ev","document_id":"doc","revision":1}`)

	select {
	case err := <-src.results:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("ticket was not handled")
	}
	assert.Equal(t, 1, firer.count())

	r.Stop()
}
