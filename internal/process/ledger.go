package process

import (
	"time"

	"alvara/internal/model"
)

// Append pushes one entry onto the document's history. Earlier entries are never touched.
func Append(doc *model.Document, action model.Action, actor, comment string, at time.Time) {
	doc.History = append(doc.History, model.HistoryEntry{
		Action:  action,
		Actor:   actor,
		Comment: comment,
		At:      at,
	})
}

// HasUnresolvedRejection reports whether the history holds a rejection with
// no approval after it. Repeated rejections count as one unresolved rejection.
func HasUnresolvedRejection(history []model.HistoryEntry) bool {
	for i := len(history) - 1; i >= 0; i-- {
		switch history[i].Action {
		case model.ActionApproved:
			return false
		case model.ActionRejected:
			return true
		}
	}
	return false
}

// actionFor maps a target status to the ledger action recorded for it.
func actionFor(doc *model.Document, to model.DocumentStatus) (model.Action, error) {
	switch to {
	case model.DocumentApproved, model.DocumentSelfDeclared, model.DocumentPaid:
		return model.ActionApproved, nil
	case model.DocumentFlagged:
		return model.ActionRejected, nil
	case model.DocumentUnderReview:
		if HasUnresolvedRejection(doc.History) {
			return model.ActionResubmitted, nil
		}
		return model.ActionSubmitted, nil
	default:
		return "", invalid("no transition into status %q", to)
	}
}
