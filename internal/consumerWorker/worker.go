package consumerWorker

import (
	"context"

	"github.com/wb-go/wbf/zlog"

	"alvara/internal/review"
)

// Source delivers raw ticket bodies; the RabbitMQ client is one.
type Source interface {
	Consume(ctx context.Context, handler func([]byte) error) error
}

// Firer applies a ticket; review.Engine is one.
type Firer interface {
	Fire(ctx context.Context, t review.Ticket) (bool, error)
}

// Reader pulls delayed review tickets off the queue and fires them.
type Reader struct {
	src    Source
	engine Firer
	done   chan struct{}
	cancel context.CancelFunc
}

func NewReader(src Source, engine Firer) *Reader {
	return &Reader{
		src:    src,
		engine: engine,
		done:   make(chan struct{}),
	}
}

// Handle processes one message body. Malformed tickets are dropped, not requeued.
func (r *Reader) Handle(ctx context.Context, body []byte) error {
	ticket, err := review.DecodeTicket(body)
	if err != nil {
		zlog.Logger.Error().Err(err).Msgf("Dropping malformed review ticket: %s", string(body))
		return nil
	}

	zlog.Logger.Info().
		Str("event_id", ticket.EventID).
		Str("document_id", ticket.DocumentID).
		Uint64("revision", ticket.Revision).
		Msg("📩 Review ticket received")

	applied, err := r.engine.Fire(ctx, ticket)
	if err != nil {
		return err
	}
	if !applied {
		zlog.Logger.Info().
			Str("document_id", ticket.DocumentID).
			Msg("⏳ Document changed since submission, skipping simulated approval")
	}
	return nil
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	zlog.Logger.Info().Msg("🐇 Review ticket reader started")

	go func() {
		defer close(r.done)
		err := r.src.Consume(cctx, func(body []byte) error {
			return r.Handle(cctx, body)
		})
		if err != nil {
			zlog.Logger.Error().Err(err).Msg("review ticket consumer stopped")
			return
		}
		zlog.Logger.Info().Msg("🛑 Review ticket reader stopped by context")
	}()
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}
