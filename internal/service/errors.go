package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/yeiden10/licitaph-sub000/internal/model"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrLifecycleLocked        = errors.New("structural fields are locked")
	ErrGateClosed             = errors.New("proposals are sealed until the closing instant")
	ErrDuplicateProposal      = errors.New("bidder already has an active proposal")
	ErrProposalNotEligible    = errors.New("proposal not eligible")
	ErrAlreadyAwarded         = errors.New("solicitation already awarded")
	ErrBusy                   = errors.New("another adjudication is in flight")
	ErrEvaluatorUnavailable   = errors.New("evaluator unavailable")
)

// GateClosedError carries the closing instant so clients can render a
// countdown instead of the sealed proposals.
type GateClosedError struct {
	ClosingAt time.Time
	State     model.SolicitationState
}

func (e *GateClosedError) Error() string {
	return fmt.Sprintf("%v (closes %s)", ErrGateClosed, e.ClosingAt.Format(time.RFC3339))
}

func (e *GateClosedError) Is(target error) bool { return target == ErrGateClosed }

// TransitionError reports the state the solicitation is actually in, so
// issuer UIs can reconcile.
type TransitionError struct {
	Action string
	State  model.SolicitationState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%v: cannot %s while %s", ErrInvalidStateTransition, e.Action, e.State)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidStateTransition }

// LockedError is returned for structural edits after publish.
type LockedError struct {
	Field string
	State model.SolicitationState
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%v: %s (state %s)", ErrLifecycleLocked, e.Field, e.State)
}

func (e *LockedError) Is(target error) bool { return target == ErrLifecycleLocked }
