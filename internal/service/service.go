package service

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"alvara/internal/dto"
	"alvara/internal/mailer"
	"alvara/internal/model"
	"alvara/internal/process"
	"alvara/internal/render"
	"alvara/internal/review"
	"alvara/internal/session"
	"alvara/pkg/validator"
)

type Service interface {
	Login(ctx *ginext.Context)
	CreateEvent(ctx *ginext.Context)
	GetProcess(ctx *ginext.Context)
	GetDocument(ctx *ginext.Context)
	Submit(ctx *ginext.Context)
	SignDeclaration(ctx *ginext.Context)
	EditTitle(ctx *ginext.Context)
	Approve(ctx *ginext.Context)
	Reject(ctx *ginext.Context)
	Pay(ctx *ginext.Context)
	GetAlvara(ctx *ginext.Context)
	EmailAlvara(ctx *ginext.Context)
}

type Config struct {
	MailFrom string
	// SeedHistory gives each new event a demo review trail.
	SeedHistory bool
}

type service struct {
	sess   *session.Session
	engine *review.Engine
	log    *zerolog.Logger
	cfg    Config
}

func NewService(sess *session.Session, engine *review.Engine, logger *zerolog.Logger, cfg Config) Service {
	return &service{
		sess:   sess,
		engine: engine,
		log:    logger,
		cfg:    cfg,
	}
}

// bind decodes and validates the request body; it answers 400 itself on failure.
func (s *service) bind(ctx *ginext.Context, req any) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		s.log.Error().Err(err).Msg("failed to parse request")
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return false
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		s.log.Error().Msgf("validation failed: %v", verr)
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return false
	}
	return true
}

func (s *service) fail(ctx *ginext.Context, err error) {
	switch {
	case errors.Is(err, process.ErrNoSession):
		dto.PreconditionFailedError(ctx, dto.NoSession, "Log in first", dto.LoginPage)
	case errors.Is(err, process.ErrPreconditionFailed):
		dto.PreconditionFailedError(ctx, dto.NoActiveEvent, "Start a permit request first", dto.NewEventPage)
	case errors.Is(err, process.ErrNotFound):
		dto.DocumentNotFoundError(ctx, err.Error())
	case errors.Is(err, process.ErrInvalidInput):
		dto.BadResponseError(ctx, dto.InvalidTransition, err.Error())
	default:
		s.log.Error().Err(err).Msg("request failed")
		dto.InternalServerError(ctx)
	}
}

func (s *service) actor(ctx *ginext.Context) (string, bool) {
	user, err := s.sess.User()
	if err != nil {
		s.fail(ctx, err)
		return "", false
	}
	return user.Name, true
}

func (s *service) view(ev model.Event) render.View {
	return render.Build(ev, s.sess.Now())
}

func (s *service) Login(ctx *ginext.Context) {
	var req dto.LoginRequest
	if !s.bind(ctx, &req) {
		return
	}

	user, err := s.sess.Login(ctx.Request.Context(), model.User{Name: req.Name, Email: req.Email})
	if err != nil {
		s.fail(ctx, err)
		return
	}
	s.log.Info().Str("user", user.Name).Msg("user logged in")
	dto.SuccessResponse(ctx, user)
}

func (s *service) CreateEvent(ctx *ginext.Context) {
	var req dto.CreateEventRequest
	if !s.bind(ctx, &req) {
		return
	}
	requester, ok := s.actor(ctx)
	if !ok {
		return
	}

	docs := process.DefaultChecklist(req.Fee)
	if len(req.Documents) > 0 {
		docs = make([]process.DocumentInput, 0, len(req.Documents))
		for _, d := range req.Documents {
			docs = append(docs, process.DocumentInput{
				Name:      d.Name,
				Authority: d.Authority,
				Kind:      model.DocumentKind(d.Kind),
				Amount:    d.Amount,
			})
		}
	}

	ev, err := process.NewEvent(process.NewEventInput{
		Name:         req.Name,
		Location:     req.Location,
		Date:         req.Date,
		Attendance:   req.Attendance,
		Requester:    requester,
		AutoApproved: req.AutoApproved,
		Documents:    docs,
	}, s.sess.Now())
	if err != nil {
		s.fail(ctx, err)
		return
	}

	if s.cfg.SeedHistory {
		review.SeedDemoHistory(ev, requester, s.sess.Now())
	}

	started, err := s.sess.Start(ctx.Request.Context(), *ev)
	if err != nil {
		s.fail(ctx, err)
		return
	}
	s.log.Info().
		Str("event_id", started.ID).
		Int("documents", len(started.Documents)).
		Msg("permit request created")
	dto.SuccessCreatedResponse(ctx, s.view(started))
}

func (s *service) GetProcess(ctx *ginext.Context) {
	ev, err := s.sess.Current()
	if err != nil {
		s.fail(ctx, err)
		return
	}
	dto.SuccessResponse(ctx, s.view(ev))
}

func (s *service) GetDocument(ctx *ginext.Context) {
	ev, err := s.sess.Current()
	if err != nil {
		s.fail(ctx, err)
		return
	}
	doc := ev.Document(ctx.Param("id"))
	if doc == nil {
		dto.DocumentNotFoundError(ctx, "Document not found")
		return
	}
	dto.SuccessResponse(ctx, doc)
}

func (s *service) Submit(ctx *ginext.Context) {
	var req dto.SubmitRequest
	if !s.bind(ctx, &req) {
		return
	}
	actor, ok := s.actor(ctx)
	if !ok {
		return
	}

	comment := req.Comment
	if comment == "" {
		comment = process.SubmissionComment
	}
	ev, err := s.engine.SimulateSubmission(ctx.Request.Context(), review.Submission{
		DocumentID: ctx.Param("id"),
		FileName:   req.FileName,
		Actor:      actor,
		Comment:    comment,
	})
	if err != nil {
		s.fail(ctx, err)
		return
	}
	dto.SuccessResponse(ctx, s.view(ev))
}

func (s *service) SignDeclaration(ctx *ginext.Context) {
	var req dto.DeclarationRequest
	if !s.bind(ctx, &req) {
		return
	}
	actor, ok := s.actor(ctx)
	if !ok {
		return
	}

	docID := ctx.Param("id")
	now := s.sess.Now()
	ev, err := s.sess.Update(ctx.Request.Context(), func(ev *model.Event) error {
		return process.SignSelfDeclaration(ev, docID, req.Checks, actor, req.Comment, now)
	})
	if err != nil {
		s.fail(ctx, err)
		return
	}
	s.log.Info().Str("document_id", docID).Msg("self-declaration signed")
	dto.SuccessResponse(ctx, s.view(ev))
}

func (s *service) EditTitle(ctx *ginext.Context) {
	var req dto.TitleRequest
	if !s.bind(ctx, &req) {
		return
	}
	actor, ok := s.actor(ctx)
	if !ok {
		return
	}

	docID := ctx.Param("id")
	now := s.sess.Now()
	ev, err := s.sess.Update(ctx.Request.Context(), func(ev *model.Event) error {
		return process.EditDocumentTitle(ev, docID, req.Title, actor, now)
	})
	if err != nil {
		s.fail(ctx, err)
		return
	}
	dto.SuccessResponse(ctx, s.view(ev))
}

func (s *service) Approve(ctx *ginext.Context) {
	ev, err := s.engine.ManualApprove(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		s.fail(ctx, err)
		return
	}
	dto.SuccessResponse(ctx, s.view(ev))
}

func (s *service) Reject(ctx *ginext.Context) {
	var req dto.RejectRequest
	// Chunked bodies report ContentLength -1.
	if ctx.Request.ContentLength != 0 && !s.bind(ctx, &req) {
		return
	}

	ev, err := s.engine.ManualReject(ctx.Request.Context(), ctx.Param("id"), req.Comment)
	if err != nil {
		s.fail(ctx, err)
		return
	}
	dto.SuccessResponse(ctx, s.view(ev))
}

func (s *service) Pay(ctx *ginext.Context) {
	actor, ok := s.actor(ctx)
	if !ok {
		return
	}

	now := s.sess.Now()
	ev, err := s.sess.Update(ctx.Request.Context(), func(ev *model.Event) error {
		return process.MarkPaymentComplete(ev, actor, now)
	})
	if err != nil {
		s.fail(ctx, err)
		return
	}
	s.log.Info().Str("event_id", ev.ID).Msg("payment confirmed")
	dto.SuccessResponse(ctx, s.view(ev))
}

func (s *service) summary(ctx *ginext.Context) (render.Summary, bool) {
	ev, err := s.sess.Current()
	if err != nil {
		s.fail(ctx, err)
		return render.Summary{}, false
	}
	sum, issued := render.AlvaraSummary(ev, s.sess.Now())
	if !issued {
		dto.AlvaraNotIssuedError(ctx)
		return render.Summary{}, false
	}
	return sum, true
}

func (s *service) GetAlvara(ctx *ginext.Context) {
	sum, ok := s.summary(ctx)
	if !ok {
		return
	}
	dto.SuccessResponse(ctx, sum)
}

func (s *service) EmailAlvara(ctx *ginext.Context) {
	var req dto.EmailRequest
	if !s.bind(ctx, &req) {
		return
	}
	sum, ok := s.summary(ctx)
	if !ok {
		return
	}

	msg, err := mailer.SendAlvaraEmail(s.log, s.cfg.MailFrom, req.Email, sum)
	if err != nil {
		dto.FieldIncorrectError(ctx, "email")
		return
	}
	dto.SuccessResponse(ctx, dto.EmailResponse{To: msg.To, Subject: msg.Subject, Body: msg.Body})
}
