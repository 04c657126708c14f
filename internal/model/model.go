package model

import "time"

type User struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type Event struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Location   string      `json:"location"`
	Date       time.Time   `json:"date"`
	Attendance int         `json:"attendance"`
	Requester  string      `json:"requester"`
	Status     EventStatus `json:"status"`
	Progress   int         `json:"progress"`
	Documents  []Document  `json:"documents"`
	CreatedAt  time.Time   `json:"created_at,omitempty"`
}

type Document struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Authority   string         `json:"authority"`
	Kind        DocumentKind   `json:"kind"`
	Status      DocumentStatus `json:"status"`
	Amount      *float64       `json:"amount,omitempty"`
	History     []HistoryEntry `json:"history"`
	PendingFile string         `json:"pending_file,omitempty"`
	Revision    uint64         `json:"revision"`
}

type HistoryEntry struct {
	Action  Action    `json:"action"`
	Actor   string    `json:"by"`
	Comment string    `json:"comment"`
	At      time.Time `json:"date"`
}

// Database is the whole persisted record. It is always read and written as one value.
type Database struct {
	User         *User   `json:"user"`
	CurrentEvent *Event  `json:"currentEvent"`
	Events       []Event `json:"events"`
}

// Document returns a pointer into ev.Documents, or nil when id is unknown.
func (ev *Event) Document(id string) *Document {
	for i := range ev.Documents {
		if ev.Documents[i].ID == id {
			return &ev.Documents[i]
		}
	}
	return nil
}

// Clone returns a deep copy; mutations of the copy never reach ev.
func (ev Event) Clone() Event {
	out := ev
	if ev.Documents != nil {
		out.Documents = make([]Document, len(ev.Documents))
		for i, d := range ev.Documents {
			out.Documents[i] = d.Clone()
		}
	}
	return out
}

func (d Document) Clone() Document {
	out := d
	if d.Amount != nil {
		v := *d.Amount
		out.Amount = &v
	}
	if d.History != nil {
		out.History = make([]HistoryEntry, len(d.History))
		copy(out.History, d.History)
	}
	return out
}

// Completed reports whether the document counts towards progress.
func (d Document) Completed() bool {
	return d.Status == DocumentApproved || d.Status == DocumentPaid
}

func (db Database) Clone() Database {
	out := Database{}
	if db.User != nil {
		u := *db.User
		out.User = &u
	}
	if db.CurrentEvent != nil {
		ev := db.CurrentEvent.Clone()
		out.CurrentEvent = &ev
	}
	if db.Events != nil {
		out.Events = make([]Event, len(db.Events))
		for i, ev := range db.Events {
			out.Events[i] = ev.Clone()
		}
	}
	return out
}
