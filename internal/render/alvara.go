package render

import (
	"time"

	"alvara/internal/model"
)

type ApprovedItem struct {
	Name      string `json:"name"`
	Authority string `json:"authority"`
}

type EventData struct {
	Name       string    `json:"name"`
	Location   string    `json:"location"`
	Date       time.Time `json:"date"`
	Attendance int       `json:"attendance"`
	Requester  string    `json:"requester"`
}

// Summary is the permit page shown once every document is settled.
type Summary struct {
	Declaration string               `json:"declaration"`
	Approved    []ApprovedItem       `json:"approved"`
	History     []model.HistoryEntry `json:"history"`
	Event       EventData            `json:"event"`
}

// AlvaraSummary reports false while the permit cannot be issued yet.
func AlvaraSummary(ev model.Event, now time.Time) (Summary, bool) {
	if ev.Status != model.EventApproved && ev.Status != model.EventAutoApproved {
		return Summary{}, false
	}

	s := Summary{
		Declaration: "Declaro, para os devidos fins, que a Prefeitura de Londrina concede permissão para a realização do evento " +
			ev.Name + " no local " + ev.Location + ", na data " + ev.Date.Format("02/01/2006") +
			", conforme a documentação aprovada.",
		Approved: []ApprovedItem{},
		Event: EventData{
			Name:       ev.Name,
			Location:   ev.Location,
			Date:       ev.Date,
			Attendance: ev.Attendance,
			Requester:  ev.Requester,
		},
	}
	for _, d := range ev.Documents {
		if d.Completed() {
			s.Approved = append(s.Approved, ApprovedItem{Name: d.Name, Authority: d.Authority})
		}
	}
	s.History = PermitHistory(ev, now)
	return s, true
}

// PermitHistory is the coarse trail of the permit itself, derived from the event status.
func PermitHistory(ev model.Event, now time.Time) []model.HistoryEntry {
	requester := ev.Requester
	if requester == "" {
		requester = "Solicitante"
	}
	created := ev.CreatedAt
	if created.IsZero() {
		created = ev.Date
	}

	out := []model.HistoryEntry{
		{Action: model.ActionRequested, Actor: requester, Comment: "Solicitação criada", At: created},
	}
	switch ev.Status {
	case model.EventUnderReview, model.EventApproved:
		out = append(out, model.HistoryEntry{Action: model.ActionSubmitted, Actor: "Sistema", Comment: "Análise documental", At: now})
	}
	if ev.Status == model.EventApproved || ev.Status == model.EventAutoApproved {
		out = append(out, model.HistoryEntry{Action: model.ActionApproved, Actor: "Prefeitura", Comment: "Emissão do alvará", At: now})
	}
	return out
}
