package process

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alvara/internal/model"
)

var t0 = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func amount(v float64) *float64 { return &v }

func testEvent(statuses ...model.DocumentStatus) *model.Event {
	ev := &model.Event{ID: "ev-1", Name: "Festival", Status: model.EventPending}
	for i, s := range statuses {
		ev.Documents = append(ev.Documents, model.Document{
			ID:      string(rune('a' + i)),
			Name:    "doc",
			Kind:    model.KindUpload,
			Status:  s,
			History: []model.HistoryEntry{},
		})
	}
	return ev
}

func TestRecomputeDerivedPartialProgress(t *testing.T) {
	ev := testEvent(model.DocumentApproved, model.DocumentApproved, model.DocumentPaid, model.DocumentPending)

	RecomputeDerived(ev)

	completed, total := Tally(ev)
	assert.Equal(t, 3, completed)
	assert.Equal(t, 4, total)
	assert.Equal(t, 75, ev.Progress)
	assert.Equal(t, model.EventUnderReview, ev.Status)
}

func TestRecomputeDerivedAllApproved(t *testing.T) {
	ev := testEvent(model.DocumentApproved, model.DocumentApproved, model.DocumentApproved)

	RecomputeDerived(ev)

	assert.Equal(t, 100, ev.Progress)
	assert.Equal(t, model.EventApproved, ev.Status)
}

func TestRecomputeDerivedRounding(t *testing.T) {
	ev := testEvent(model.DocumentApproved, model.DocumentPending, model.DocumentPending)
	RecomputeDerived(ev)
	assert.Equal(t, 33, ev.Progress)

	ev = testEvent(model.DocumentApproved, model.DocumentApproved, model.DocumentPending)
	RecomputeDerived(ev)
	assert.Equal(t, 67, ev.Progress)
}

func TestRecomputeDerivedKeepsAutoApproved(t *testing.T) {
	ev := testEvent(model.DocumentPending, model.DocumentFlagged)
	ev.Status = model.EventAutoApproved

	RecomputeDerived(ev)

	assert.Equal(t, model.EventAutoApproved, ev.Status)
	assert.Equal(t, 100, ev.Progress)
}

func TestRecomputeDerivedNoDocuments(t *testing.T) {
	ev := testEvent()
	RecomputeDerived(ev)
	assert.Equal(t, 0, ev.Progress)
	assert.Equal(t, model.EventPending, ev.Status)
}

func TestRecomputeDerivedIdempotent(t *testing.T) {
	cases := [][]model.DocumentStatus{
		{},
		{model.DocumentPending},
		{model.DocumentApproved, model.DocumentFlagged},
		{model.DocumentPaid, model.DocumentApproved},
		{model.DocumentSelfDeclared, model.DocumentUnderReview, model.DocumentApproved},
	}
	for _, statuses := range cases {
		ev := testEvent(statuses...)
		RecomputeDerived(ev)
		once := ev.Clone()
		RecomputeDerived(ev)
		assert.Equal(t, once, *ev)
	}
}

func TestTransitionDocumentActions(t *testing.T) {
	cases := []struct {
		to     model.DocumentStatus
		action model.Action
	}{
		{model.DocumentApproved, model.ActionApproved},
		{model.DocumentFlagged, model.ActionRejected},
		{model.DocumentUnderReview, model.ActionSubmitted},
		{model.DocumentSelfDeclared, model.ActionApproved},
		{model.DocumentPaid, model.ActionApproved},
	}
	for _, tc := range cases {
		t.Run(string(tc.to), func(t *testing.T) {
			ev := testEvent(model.DocumentPending)
			require.NoError(t, TransitionDocument(ev, "a", tc.to, "Maria", "ok", t0))

			doc := ev.Document("a")
			require.Len(t, doc.History, 1)
			assert.Equal(t, tc.action, doc.History[0].Action)
			assert.Equal(t, "Maria", doc.History[0].Actor)
			assert.Equal(t, t0, doc.History[0].At)
			assert.Equal(t, tc.to, doc.Status)
			assert.Equal(t, uint64(1), doc.Revision)
		})
	}
}

func TestTransitionDocumentResubmission(t *testing.T) {
	ev := testEvent(model.DocumentPending)
	require.NoError(t, TransitionDocument(ev, "a", model.DocumentUnderReview, "Maria", "", t0))
	require.NoError(t, TransitionDocument(ev, "a", model.DocumentFlagged, "Analista", "sem assinatura", t0))
	require.NoError(t, TransitionDocument(ev, "a", model.DocumentUnderReview, "Maria", "", t0))

	doc := ev.Document("a")
	require.Len(t, doc.History, 3)
	assert.Equal(t, model.ActionResubmitted, doc.History[2].Action)
	assert.Equal(t, model.DocumentUnderReview, doc.Status)
}

func TestTransitionDocumentSubmitAfterApprovalIsNotResubmission(t *testing.T) {
	ev := testEvent(model.DocumentPending)
	doc := ev.Document("a")
	doc.History = []model.HistoryEntry{
		{Action: model.ActionSubmitted},
		{Action: model.ActionRejected},
		{Action: model.ActionResubmitted},
		{Action: model.ActionApproved},
	}

	require.NoError(t, TransitionDocument(ev, "a", model.DocumentUnderReview, "Maria", "", t0))
	assert.Equal(t, model.ActionSubmitted, ev.Document("a").History[4].Action)
}

func TestTransitionDocumentNotFound(t *testing.T) {
	ev := testEvent(model.DocumentApproved, model.DocumentPending)
	RecomputeDerived(ev)
	before := ev.Clone()

	err := TransitionDocument(ev, "nonexistent-id", model.DocumentApproved, "Analista", "", t0)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, before, *ev)
}

func TestTransitionDocumentIntoPendingIsRejected(t *testing.T) {
	ev := testEvent(model.DocumentFlagged)
	before := ev.Clone()

	err := TransitionDocument(ev, "a", model.DocumentPending, "Maria", "", t0)

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, before, *ev)
}

func TestTransitionDocumentRecomputes(t *testing.T) {
	ev := testEvent(model.DocumentApproved, model.DocumentApproved, model.DocumentUnderReview)
	RecomputeDerived(ev)
	require.Equal(t, 67, ev.Progress)

	require.NoError(t, TransitionDocument(ev, "c", model.DocumentApproved, "Analista", "", t0))

	assert.Equal(t, 100, ev.Progress)
	assert.Equal(t, model.EventApproved, ev.Status)
}

func TestEditDocumentTitle(t *testing.T) {
	ev := testEvent(model.DocumentPending)

	require.NoError(t, EditDocumentTitle(ev, "a", "  Plano de Evacuação  ", "Maria", t0))

	doc := ev.Document("a")
	assert.Equal(t, "Plano de Evacuação", doc.Name)
	require.Len(t, doc.History, 1)
	assert.Equal(t, model.ActionEdited, doc.History[0].Action)
	assert.Equal(t, model.DocumentPending, doc.Status)
}

func TestEditDocumentTitleBlankIsNoop(t *testing.T) {
	ev := testEvent(model.DocumentPending)
	before := ev.Clone()

	err := EditDocumentTitle(ev, "a", "   ", "Maria", t0)

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, before, *ev)

	assert.ErrorIs(t, EditDocumentTitle(ev, "zz", "x", "Maria", t0), ErrNotFound)
}

func TestMarkPaymentComplete(t *testing.T) {
	ev := testEvent(model.DocumentApproved)
	ev.Documents = append(ev.Documents, model.Document{
		ID: "fee", Kind: model.KindPayment, Status: model.DocumentPending, Amount: amount(1000), History: []model.HistoryEntry{},
	})
	RecomputeDerived(ev)
	require.Equal(t, 50, ev.Progress)

	require.NoError(t, MarkPaymentComplete(ev, "Maria", t0))

	fee := ev.Document("fee")
	assert.Equal(t, model.DocumentPaid, fee.Status)
	require.Len(t, fee.History, 1)
	assert.Equal(t, model.ActionApproved, fee.History[0].Action)
	assert.Equal(t, PaymentComment, fee.History[0].Comment)
	assert.Equal(t, 100, ev.Progress)
	assert.Equal(t, model.EventApproved, ev.Status)
}

func TestMarkPaymentCompleteWithoutPaymentIsNoop(t *testing.T) {
	ev := testEvent(model.DocumentPending)
	before := ev.Clone()

	require.NoError(t, MarkPaymentComplete(ev, "Maria", t0))
	assert.Equal(t, before, *ev)
}

func TestSubmitUpload(t *testing.T) {
	ev := testEvent(model.DocumentPending)

	require.NoError(t, SubmitUpload(ev, "a", "vistoria.pdf", "Maria", "", t0))

	doc := ev.Document("a")
	assert.Equal(t, "vistoria.pdf", doc.PendingFile)
	assert.Equal(t, model.DocumentUnderReview, doc.Status)
	assert.Equal(t, SubmissionComment, doc.History[0].Comment)
}

func TestSubmitUploadValidation(t *testing.T) {
	ev := testEvent(model.DocumentPending)
	ev.Documents[0].Kind = model.KindSelfDeclaration
	before := ev.Clone()

	assert.ErrorIs(t, SubmitUpload(ev, "a", "x.pdf", "Maria", "", t0), ErrInvalidInput)

	ev.Documents[0].Kind = model.KindUpload
	before.Documents[0].Kind = model.KindUpload
	assert.ErrorIs(t, SubmitUpload(ev, "a", " ", "Maria", "", t0), ErrInvalidInput)
	assert.ErrorIs(t, SubmitUpload(ev, "nope", "x.pdf", "Maria", "", t0), ErrNotFound)
	assert.Equal(t, before, *ev)
}

func TestSignSelfDeclaration(t *testing.T) {
	ev := testEvent(model.DocumentPending)
	ev.Documents[0].Kind = model.KindSelfDeclaration

	err := SignSelfDeclaration(ev, "a", []bool{true, false, true}, "Maria", "", t0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, ev.Document("a").History)

	require.NoError(t, SignSelfDeclaration(ev, "a", []bool{true, true, true}, "Maria", "", t0))

	doc := ev.Document("a")
	assert.Equal(t, model.DocumentApproved, doc.Status)
	assert.Equal(t, DeclarationComment, doc.History[0].Comment)
	assert.Equal(t, 100, ev.Progress)
}

func TestInitialize(t *testing.T) {
	_, err := Initialize(nil)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	_, err = Initialize(&model.Database{User: &model.User{Name: "Maria"}})
	assert.ErrorIs(t, err, ErrNoEvent)

	raw := testEvent(model.DocumentApproved, model.DocumentPending)
	raw.Documents[0].History = nil
	raw.Documents[1].History = nil
	db := &model.Database{User: &model.User{Name: "Maria"}, CurrentEvent: raw}

	ev, err := Initialize(db)
	require.NoError(t, err)
	for _, d := range ev.Documents {
		assert.NotNil(t, d.History)
	}
	assert.Equal(t, 50, ev.Progress)
	assert.Equal(t, model.EventUnderReview, ev.Status)
}

func TestNewEvent(t *testing.T) {
	ev, err := NewEvent(NewEventInput{
		Name:       "Festival de Inverno",
		Location:   "Zerão",
		Date:       t0.AddDate(0, 1, 0),
		Attendance: 3000,
		Requester:  "Maria",
		Documents:  DefaultChecklist(1000),
	}, t0)
	require.NoError(t, err)

	assert.NotEmpty(t, ev.ID)
	assert.Len(t, ev.Documents, 7)
	seen := map[string]bool{}
	for _, d := range ev.Documents {
		assert.False(t, seen[d.ID], "duplicate id %s", d.ID)
		seen[d.ID] = true
		assert.Equal(t, model.DocumentPending, d.Status)
	}
	require.NotNil(t, PaymentDocument(ev))
	assert.Equal(t, 1000.0, *PaymentDocument(ev).Amount)
	assert.Equal(t, model.EventPending, ev.Status)
	assert.Equal(t, 0, ev.Progress)
}

func TestNewEventRejectsSecondPayment(t *testing.T) {
	docs := append(DefaultChecklist(10), DocumentInput{Name: "Outra taxa", Kind: model.KindPayment, Amount: amount(5)})
	_, err := NewEvent(NewEventInput{Name: "Show", Documents: docs}, t0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNewEventAutoApproved(t *testing.T) {
	ev, err := NewEvent(NewEventInput{Name: "Feira", AutoApproved: true, Documents: DefaultChecklist(0)}, t0)
	require.NoError(t, err)
	assert.Equal(t, model.EventAutoApproved, ev.Status)
	assert.Equal(t, 100, ev.Progress)
	assert.Nil(t, PaymentDocument(ev))
}
