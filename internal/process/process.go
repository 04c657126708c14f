// Package process holds the mutation rules for a permit request and its
// document checklist. Every function works on the *model.Event it is given;
// callers own the state and decide when to persist it.
package process

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"alvara/internal/model"
)

const (
	PaymentComment     = "Pagamento confirmado"
	DeclarationComment = "Autodeclaração assinada"
	TitleEditComment   = "Título editado pelo solicitante"
	SubmissionComment  = "Envio via plataforma"
)

// Declarations are the statements a requester must accept to sign a self-declaration.
var Declarations = []string{
	"Declaro que o evento não apresenta risco à segurança pública.",
	"Declaro estar ciente das responsabilidades legais.",
	"Declaro que o local atende às normas de som e segurança.",
}

// Initialize checks the loaded record and normalises its current event.
func Initialize(db *model.Database) (*model.Event, error) {
	if db == nil || db.User == nil {
		return nil, ErrNoSession
	}
	if db.CurrentEvent == nil {
		return nil, ErrNoEvent
	}
	Normalize(db.CurrentEvent)
	return db.CurrentEvent, nil
}

// Normalize fills defaults left out of stored data and recomputes the
// derived fields.
func Normalize(ev *model.Event) {
	for i := range ev.Documents {
		if ev.Documents[i].History == nil {
			ev.Documents[i].History = []model.HistoryEntry{}
		}
		if ev.Documents[i].Status == "" {
			ev.Documents[i].Status = model.DocumentPending
		}
	}
	if ev.Status == "" {
		ev.Status = model.EventPending
	}
	RecomputeDerived(ev)
}

// Tally counts documents in approved or paid status.
func Tally(ev *model.Event) (completed, total int) {
	for _, d := range ev.Documents {
		if d.Completed() {
			completed++
		}
	}
	return completed, len(ev.Documents)
}

// RecomputeDerived refreshes progress and status from the documents.
// auto_approved is an external override and survives recomputation.
func RecomputeDerived(ev *model.Event) {
	completed, total := Tally(ev)
	allDone := total > 0 && completed == total

	progress := 0
	if total > 0 {
		progress = int(math.Round(100 * float64(completed) / float64(total)))
	}
	if ev.Status == model.EventAutoApproved || allDone {
		progress = 100
	}
	ev.Progress = progress

	if ev.Status == model.EventAutoApproved {
		return
	}
	switch {
	case allDone:
		ev.Status = model.EventApproved
	case completed > 0:
		ev.Status = model.EventUnderReview
	default:
		ev.Status = model.EventPending
	}
}

// TransitionDocument logs the move into status `to` and applies it.
// On error the event is left exactly as it was.
func TransitionDocument(ev *model.Event, docID string, to model.DocumentStatus, actor, comment string, at time.Time) error {
	doc := ev.Document(docID)
	if doc == nil {
		return notFound(docID)
	}
	action, err := actionFor(doc, to)
	if err != nil {
		return err
	}

	Append(doc, action, actor, comment, at)
	doc.Status = to
	doc.Revision++
	RecomputeDerived(ev)
	return nil
}

func EditDocumentTitle(ev *model.Event, docID, title, actor string, at time.Time) error {
	doc := ev.Document(docID)
	if doc == nil {
		return notFound(docID)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return invalid("document title is empty")
	}

	doc.Name = title
	Append(doc, model.ActionEdited, actor, TitleEditComment, at)
	return nil
}

// PaymentDocument returns the event's payment item, or nil.
func PaymentDocument(ev *model.Event) *model.Document {
	for i := range ev.Documents {
		if ev.Documents[i].Kind == model.KindPayment {
			return &ev.Documents[i]
		}
	}
	return nil
}

// MarkPaymentComplete settles the fee. Events without a payment item are left alone.
func MarkPaymentComplete(ev *model.Event, actor string, at time.Time) error {
	doc := PaymentDocument(ev)
	if doc == nil {
		return nil
	}
	return TransitionDocument(ev, doc.ID, model.DocumentPaid, actor, PaymentComment, at)
}

// SubmitUpload records the selected file name and sends the document to review.
func SubmitUpload(ev *model.Event, docID, fileName, actor, comment string, at time.Time) error {
	doc := ev.Document(docID)
	if doc == nil {
		return notFound(docID)
	}
	if doc.Kind != model.KindUpload {
		return invalid("document %q does not take uploads", docID)
	}
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return invalid("no file selected")
	}
	if strings.TrimSpace(comment) == "" {
		comment = SubmissionComment
	}

	prev := doc.PendingFile
	doc.PendingFile = fileName
	if err := TransitionDocument(ev, docID, model.DocumentUnderReview, actor, comment, at); err != nil {
		doc.PendingFile = prev
		return err
	}
	return nil
}

// SendToReview moves an upload item to under_review without a file name.
// Payment and self-declaration items have their own operations.
func SendToReview(ev *model.Event, docID, actor, comment string, at time.Time) error {
	doc := ev.Document(docID)
	if doc == nil {
		return notFound(docID)
	}
	if doc.Kind != model.KindUpload {
		return invalid("document %q does not take uploads", docID)
	}
	return TransitionDocument(ev, docID, model.DocumentUnderReview, actor, comment, at)
}

// ApprovalStatus is the status an analyst approval moves doc into.
func ApprovalStatus(doc *model.Document) model.DocumentStatus {
	if doc.Kind == model.KindPayment {
		return model.DocumentPaid
	}
	return model.DocumentApproved
}

// SignSelfDeclaration approves a self-declaration once every statement in
// Declarations has been accepted.
func SignSelfDeclaration(ev *model.Event, docID string, checks []bool, actor, comment string, at time.Time) error {
	doc := ev.Document(docID)
	if doc == nil {
		return notFound(docID)
	}
	if doc.Kind != model.KindSelfDeclaration {
		return invalid("document %q is not a self-declaration", docID)
	}
	if len(checks) != len(Declarations) {
		return invalid("expected %d declarations, got %d", len(Declarations), len(checks))
	}
	for i, ok := range checks {
		if !ok {
			return invalid("declaration %d not accepted", i+1)
		}
	}
	if strings.TrimSpace(comment) == "" {
		comment = DeclarationComment
	}
	return TransitionDocument(ev, docID, model.DocumentApproved, actor, comment, at)
}

type DocumentInput struct {
	Name      string
	Authority string
	Kind      model.DocumentKind
	Amount    *float64
}

type NewEventInput struct {
	Name         string
	Location     string
	Date         time.Time
	Attendance   int
	Requester    string
	AutoApproved bool
	Documents    []DocumentInput
}

// DefaultChecklist is the set of items a Londrina event permit usually asks for.
// The fee item is left out when fee is not positive.
func DefaultChecklist(fee float64) []DocumentInput {
	docs := []DocumentInput{
		{Name: "Vistoria do Corpo de Bombeiros", Authority: "Corpo de Bombeiros", Kind: model.KindUpload},
		{Name: "Plano de Segurança", Authority: "Polícia Militar", Kind: model.KindUpload},
		{Name: "Plano de Trânsito", Authority: "CMTU", Kind: model.KindUpload},
		{Name: "Licença Ambiental", Authority: "SEMA", Kind: model.KindSelfDeclaration},
		{Name: "Autorização de Direitos Autorais", Authority: "ECAD", Kind: model.KindUpload},
		{Name: "Alvará do Juizado da Infância", Authority: "Vara da Infância e Juventude", Kind: model.KindSelfDeclaration},
	}
	if fee > 0 {
		amount := fee
		docs = append(docs, DocumentInput{
			Name:      "Taxa de Licenciamento",
			Authority: "Secretaria da Fazenda",
			Kind:      model.KindPayment,
			Amount:    &amount,
		})
	}
	return docs
}

// NewEvent builds a permit request with fresh identifiers.
func NewEvent(in NewEventInput, now time.Time) (*model.Event, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, invalid("event name is empty")
	}
	ev := &model.Event{
		ID:         uuid.NewString(),
		Name:       strings.TrimSpace(in.Name),
		Location:   strings.TrimSpace(in.Location),
		Date:       in.Date,
		Attendance: in.Attendance,
		Requester:  strings.TrimSpace(in.Requester),
		Status:     model.EventPending,
		Documents:  make([]model.Document, 0, len(in.Documents)),
		CreatedAt:  now,
	}
	if in.AutoApproved {
		ev.Status = model.EventAutoApproved
	}

	payments := 0
	for _, d := range in.Documents {
		if !d.Kind.Valid() {
			return nil, invalid("unknown document kind %q", d.Kind)
		}
		if strings.TrimSpace(d.Name) == "" {
			return nil, invalid("document name is empty")
		}
		if d.Kind == model.KindPayment {
			payments++
			if d.Amount == nil || *d.Amount < 0 {
				return nil, invalid("payment %q needs a non-negative amount", d.Name)
			}
		}
		doc := model.Document{
			ID:        uuid.NewString(),
			Name:      strings.TrimSpace(d.Name),
			Authority: strings.TrimSpace(d.Authority),
			Kind:      d.Kind,
			Status:    model.DocumentPending,
			History:   []model.HistoryEntry{},
		}
		if d.Amount != nil {
			v := *d.Amount
			doc.Amount = &v
		}
		ev.Documents = append(ev.Documents, doc)
	}
	if payments > 1 {
		return nil, invalid("at most one payment item per request, got %d", payments)
	}

	RecomputeDerived(ev)
	return ev, nil
}
