// Package render turns an event snapshot into the values a page displays.
// Nothing here mutates the event.
package render

import (
	"math"
	"time"

	"alvara/internal/model"
	"alvara/internal/process"
)

const (
	issShare        = 0.6
	expedienteShare = 0.4
)

type Progress struct {
	Percent   int `json:"percent"`
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

type Badge struct {
	Status model.EventStatus `json:"status"`
	Label  string            `json:"label"`
	Icon   string            `json:"icon"`
}

type Card struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Authority    string               `json:"authority"`
	Kind         model.DocumentKind   `json:"kind"`
	Status       model.DocumentStatus `json:"status"`
	Label        string               `json:"label"`
	Tone         string               `json:"tone"`
	Amount       *float64             `json:"amount,omitempty"`
	Actions      []string             `json:"actions"`
	HistoryCount int                  `json:"history_count"`
	Completed    bool                 `json:"completed"`
}

type Milestone struct {
	Text  string `json:"text"`
	When  string `json:"when"`
	Icon  string `json:"icon"`
	State string `json:"state"`
}

type TaxBreakdown struct {
	ISS        float64 `json:"iss"`
	Expediente float64 `json:"expediente"`
	Total      float64 `json:"total"`
	Paid       bool    `json:"paid"`
}

type View struct {
	EventID   string        `json:"event_id"`
	Name      string        `json:"name"`
	Progress  Progress      `json:"progress"`
	Badge     Badge         `json:"badge"`
	Cards     []Card        `json:"cards"`
	Timeline  []Milestone   `json:"timeline"`
	Taxes     *TaxBreakdown `json:"taxes,omitempty"`
	FastTrack bool          `json:"fast_track"`
	Alvara    *Summary      `json:"alvara,omitempty"`
}

// Build renders every section of the process page.
func Build(ev model.Event, now time.Time) View {
	v := View{
		EventID:   ev.ID,
		Name:      ev.Name,
		Progress:  ProgressOf(ev),
		Badge:     BadgeOf(ev.Status),
		Cards:     Cards(ev),
		Timeline:  Timeline(ev.Status),
		Taxes:     Taxes(ev),
		FastTrack: ev.Status == model.EventAutoApproved,
	}
	if s, ok := AlvaraSummary(ev, now); ok {
		v.Alvara = &s
	}
	return v
}

func ProgressOf(ev model.Event) Progress {
	completed, total := process.Tally(&ev)
	return Progress{Percent: ev.Progress, Completed: completed, Total: total}
}

var badges = map[model.EventStatus]Badge{
	model.EventAutoApproved: {Status: model.EventAutoApproved, Label: "Aprovado Automaticamente", Icon: "zap"},
	model.EventUnderReview:  {Status: model.EventUnderReview, Label: "Em Análise", Icon: "clock"},
	model.EventApproved:     {Status: model.EventApproved, Label: "Aprovado", Icon: "check-circle"},
	model.EventPending:      {Status: model.EventPending, Label: "Pendente", Icon: "alert-circle"},
}

func BadgeOf(status model.EventStatus) Badge {
	if b, ok := badges[status]; ok {
		return b
	}
	return badges[model.EventPending]
}

type statusStyle struct {
	label string
	tone  string
}

var documentStyles = map[model.DocumentStatus]statusStyle{
	model.DocumentPending:      {"Pendente", "neutral"},
	model.DocumentUnderReview:  {"Em Análise", "warning"},
	model.DocumentApproved:     {"Aprovado", "success"},
	model.DocumentSelfDeclared: {"Autodeclaração", "info"},
	model.DocumentPaid:         {"Pago", "success"},
	model.DocumentFlagged:      {"Requer Atenção", "danger"},
}

// Card actions.
const (
	ActionAttach  = "attach"
	ActionPay     = "pay"
	ActionDeclare = "declare"
	ActionHistory = "history"
)

func Cards(ev model.Event) []Card {
	cards := make([]Card, 0, len(ev.Documents))
	for _, d := range ev.Documents {
		style, ok := documentStyles[d.Status]
		if !ok {
			style = documentStyles[model.DocumentPending]
		}
		c := Card{
			ID:           d.ID,
			Name:         d.Name,
			Authority:    d.Authority,
			Kind:         d.Kind,
			Status:       d.Status,
			Label:        style.label,
			Tone:         style.tone,
			Amount:       d.Amount,
			HistoryCount: len(d.History),
			Completed:    d.Completed(),
		}
		if c.Completed {
			c.Actions = []string{ActionHistory}
		} else {
			c.Actions = []string{primaryAction(d.Kind), ActionHistory}
		}
		cards = append(cards, c)
	}
	return cards
}

func primaryAction(kind model.DocumentKind) string {
	switch kind {
	case model.KindPayment:
		return ActionPay
	case model.KindSelfDeclaration:
		return ActionDeclare
	default:
		return ActionAttach
	}
}

// Timeline gives the coarse milestones of the request.
func Timeline(status model.EventStatus) []Milestone {
	if status == model.EventAutoApproved {
		return []Milestone{
			{Text: "Aprovado automaticamente", When: "Agora", Icon: "zap", State: "done"},
			{Text: "Alvará disponível", When: "Concluído", Icon: "check-circle", State: "done"},
		}
	}

	steps := []Milestone{
		{Text: "Solicitação criada", When: "Agora", Icon: "plus-circle", State: "done"},
		{Text: "Análise documental", When: "Em breve", Icon: "search", State: "upcoming"},
		{Text: "Emissão do alvará", When: "Pendente", Icon: "award", State: "upcoming"},
	}
	switch status {
	case model.EventUnderReview:
		steps[1].State = "current"
		steps[1].When = "Em andamento"
	case model.EventApproved:
		steps[1].State, steps[1].When = "done", "Concluído"
		steps[2].State, steps[2].When = "done", "Concluído"
	}
	return steps
}

// Taxes splits the fee of the payment item, or returns nil when there is none.
func Taxes(ev model.Event) *TaxBreakdown {
	doc := process.PaymentDocument(&ev)
	if doc == nil {
		return nil
	}
	total := 0.0
	if doc.Amount != nil {
		total = *doc.Amount
	}
	return &TaxBreakdown{
		ISS:        roundCents(total * issShare),
		Expediente: roundCents(total * expedienteShare),
		Total:      roundCents(total),
		Paid:       doc.Status == model.DocumentPaid,
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
