// Package drafterr defines the error taxonomy shared by the draft engine and
// its transports.
package drafterr

import (
	"errors"
	"fmt"
)

// Class groups kinds by how they are reported.
type Class string

const (
	ClassValidation  Class = "validation"
	ClassTiming      Class = "timing"
	ClassPersistence Class = "persistence"
	ClassTransport   Class = "transport"
	ClassRequest     Class = "request"
	ClassInternal    Class = "internal"
)

// Kind is the specific reason a submission was rejected.
type Kind string

const (
	KindNotYourTurn          Kind = "NotYourTurn"
	KindPlayerAlreadyDrafted Kind = "PlayerAlreadyDrafted"
	KindRosterFull           Kind = "RosterFull"
	KindInsufficientBudget   Kind = "InsufficientBudget"
	KindBidTooLow            Kind = "BidTooLow"
	KindNoOpenNomination     Kind = "NoOpenNomination"
	KindUnknownPlayer        Kind = "UnknownPlayer"

	KindDraftNotStarted Kind = "DraftNotStarted"
	KindDraftCompleted  Kind = "DraftCompleted"
	KindDraftPaused     Kind = "DraftPaused"
	KindWrongPhase      Kind = "WrongPhase"

	KindPersistence Kind = "PersistenceError"
	KindFatal       Kind = "FatalDraftError"

	KindSlowConsumer Kind = "SlowConsumer"

	KindInvalidRequest Kind = "InvalidRequest"
	KindDraftNotFound  Kind = "DraftNotFound"
	KindUnavailable    Kind = "Unavailable"
)

var classes = map[Kind]Class{
	KindNotYourTurn:          ClassValidation,
	KindPlayerAlreadyDrafted: ClassValidation,
	KindRosterFull:           ClassValidation,
	KindInsufficientBudget:   ClassValidation,
	KindBidTooLow:            ClassValidation,
	KindNoOpenNomination:     ClassValidation,
	KindUnknownPlayer:        ClassValidation,
	KindDraftNotStarted:      ClassTiming,
	KindDraftCompleted:       ClassTiming,
	KindDraftPaused:          ClassTiming,
	KindWrongPhase:           ClassTiming,
	KindPersistence:          ClassPersistence,
	KindFatal:                ClassPersistence,
	KindSlowConsumer:         ClassTransport,
	KindInvalidRequest:       ClassRequest,
	KindDraftNotFound:        ClassRequest,
	KindUnavailable:          ClassInternal,
}

// ClassOf returns the class a kind belongs to.
func ClassOf(k Kind) Class {
	if c, ok := classes[k]; ok {
		return c
	}
	return ClassInternal
}

// Error is a classified draft error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message == "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Class returns the error's class.
func (e *Error) Class() Class { return ClassOf(e.Kind) }

// New returns an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from err, or KindUnavailable when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnavailable
}

var (
	ErrNotYourTurn          = New(KindNotYourTurn, "team is not on the clock")
	ErrPlayerAlreadyDrafted = New(KindPlayerAlreadyDrafted, "player already drafted")
	ErrRosterFull           = New(KindRosterFull, "no open roster slot for player")
	ErrInsufficientBudget   = New(KindInsufficientBudget, "bid exceeds available budget")
	ErrBidTooLow            = New(KindBidTooLow, "bid too low")
	ErrNoOpenNomination     = New(KindNoOpenNomination, "player is not open for bidding")
	ErrUnknownPlayer        = New(KindUnknownPlayer, "unknown player")
	ErrDraftNotStarted      = New(KindDraftNotStarted, "draft has not started")
	ErrDraftCompleted       = New(KindDraftCompleted, "draft already completed")
	ErrDraftPaused          = New(KindDraftPaused, "draft is paused")
	ErrWrongPhase           = New(KindWrongPhase, "operation not allowed in current phase")
	ErrPersistence          = New(KindPersistence, "failed to persist pick")
	ErrFatal                = New(KindFatal, "draft state rolled back")
	ErrSlowConsumer         = New(KindSlowConsumer, "subscriber buffer overflow")
	ErrInvalidRequest       = New(KindInvalidRequest, "invalid request")
	ErrDraftNotFound        = New(KindDraftNotFound, "draft not found")
	ErrUnavailable          = New(KindUnavailable, "draft unavailable")
)
