package model

import "fmt"

type EventStatus string

const (
	EventPending      EventStatus = "pending"
	EventUnderReview  EventStatus = "under_review"
	EventApproved     EventStatus = "approved"
	EventAutoApproved EventStatus = "auto_approved"
)

type DocumentKind string

const (
	KindUpload          DocumentKind = "upload"
	KindPayment         DocumentKind = "payment"
	KindSelfDeclaration DocumentKind = "self_declaration"
)

type DocumentStatus string

const (
	DocumentPending      DocumentStatus = "pending"
	DocumentUnderReview  DocumentStatus = "under_review"
	DocumentApproved     DocumentStatus = "approved"
	DocumentSelfDeclared DocumentStatus = "self_declared"
	DocumentPaid         DocumentStatus = "paid"
	DocumentFlagged      DocumentStatus = "flagged"
)

type Action string

const (
	ActionSubmitted   Action = "submitted"
	ActionRejected    Action = "rejected"
	ActionResubmitted Action = "resubmitted"
	ActionApproved    Action = "approved"
	ActionEdited      Action = "edited"
	ActionRequested   Action = "requested"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventPending, EventUnderReview, EventApproved, EventAutoApproved:
		return true
	}
	return false
}

func (k DocumentKind) Valid() bool {
	switch k {
	case KindUpload, KindPayment, KindSelfDeclaration:
		return true
	}
	return false
}

func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentPending, DocumentUnderReview, DocumentApproved,
		DocumentSelfDeclared, DocumentPaid, DocumentFlagged:
		return true
	}
	return false
}

func (a Action) Valid() bool {
	switch a {
	case ActionSubmitted, ActionRejected, ActionResubmitted,
		ActionApproved, ActionEdited, ActionRequested:
		return true
	}
	return false
}

// The text codecs reject values outside the enumerations, so a record
// holding an unknown status never makes it past decoding.

func (s *EventStatus) UnmarshalText(b []byte) error {
	v := EventStatus(b)
	if v == "" {
		v = EventPending
	}
	if !v.Valid() {
		return fmt.Errorf("unknown event status %q", string(b))
	}
	*s = v
	return nil
}

func (k *DocumentKind) UnmarshalText(b []byte) error {
	v := DocumentKind(b)
	if !v.Valid() {
		return fmt.Errorf("unknown document kind %q", string(b))
	}
	*k = v
	return nil
}

func (s *DocumentStatus) UnmarshalText(b []byte) error {
	v := DocumentStatus(b)
	if v == "" {
		v = DocumentPending
	}
	if !v.Valid() {
		return fmt.Errorf("unknown document status %q", string(b))
	}
	*s = v
	return nil
}

func (a *Action) UnmarshalText(b []byte) error {
	v := Action(b)
	if !v.Valid() {
		return fmt.Errorf("unknown history action %q", string(b))
	}
	*a = v
	return nil
}
