package review

import (
	"time"

	"alvara/internal/model"
	"alvara/internal/process"
)

// SeedDemoHistory gives the first upload document a rejected-then-resubmitted
// trail so the history view has something to show. It only touches a
// document whose history is still empty and reports whether it did.
func SeedDemoHistory(ev *model.Event, requester string, now time.Time) bool {
	var doc *model.Document
	for i := range ev.Documents {
		if ev.Documents[i].Kind == model.KindUpload {
			doc = &ev.Documents[i]
			break
		}
	}
	if doc == nil || len(doc.History) > 0 {
		return false
	}

	doc.History = []model.HistoryEntry{
		{Action: model.ActionSubmitted, Actor: requester, Comment: "Documento enviado para análise", At: now.Add(-24 * time.Hour)},
		{Action: model.ActionRejected, Actor: AnalystActor, Comment: "Assinatura ausente - favor reenviar com assinatura digital", At: now.Add(-12 * time.Hour)},
		{Action: model.ActionResubmitted, Actor: requester, Comment: "Reenvio com assinatura digital", At: now.Add(-6 * time.Hour)},
		{Action: model.ActionApproved, Actor: AnalystActor, Comment: "Documento conferido e aprovado", At: now},
	}
	doc.Status = model.DocumentApproved
	doc.Revision += 4
	process.RecomputeDerived(ev)
	return true
}
