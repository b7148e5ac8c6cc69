// Package reconerrors provides the typed boundary-error contract used
// wherever a discovery plugin, probe, or engine call fails outright
// before it can produce a result object. Per-query and per-probe
// failures are not modeled here: those are recorded as string fields on
// DiscoveryResult/ProbeResult, never returned as errors.
package reconerrors

import (
	"context"
	"errors"
	"strings"
)

// ReconError is the common interface satisfied by every error this
// package constructs.
type ReconError interface {
	// Title is the canonical identifier for the error.
	// Must be short and concise, and not depend on context.
	// Should not produce styled output.
	Title() string
	// Error is the underlying error detail.
	// Should not produce styled output.
	Error() string
	// ShouldPrintUsage indicates whether the error should print usage
	// information for the offending command when this error occurs.
	ShouldPrintUsage() bool
}

var _ error = ReconError(nil)

type reconError struct {
	err error
}

// New wraps err in a ReconError. If err is already a ReconError it is
// returned unchanged to avoid double-wrapping.
func New(err error) ReconError {
	if err == nil {
		return nil
	}
	var re ReconError
	if errors.As(err, &re) {
		return re
	}
	return &reconError{err: err}
}

func (e *reconError) Error() string {
	return e.err.Error()
}

func (e *reconError) Unwrap() error {
	return e.err
}

func (e *reconError) Title() string {
	return "Unknown Error"
}

func (e *reconError) ShouldPrintUsage() bool {
	return false
}

// PartialError wraps a ReconError that occurred after some results were
// already gathered — e.g. a verification run interrupted mid-batch that
// still has partial VerificationResult entries worth reporting.
type PartialError interface {
	ReconError
}

type partialError struct {
	err ReconError
}

// ToPartialError wraps a ReconError in a PartialError.
// If err is nil, it returns nil.
func ToPartialError(err ReconError) PartialError {
	if err == nil {
		return nil
	}
	return &partialError{err: err}
}

func (e *partialError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.err.Error())
	sb.WriteString("\n\nsome results were successfully gathered before this error occurred")
	return sb.String()
}

func (e *partialError) Title() string {
	return e.err.Title() + " (partial results)"
}

func (e *partialError) ShouldPrintUsage() bool {
	return e.err.ShouldPrintUsage()
}

func (e *partialError) Unwrap() error {
	return e.err
}

// NewUsageError creates a ReconError for command usage errors: invalid
// flags, missing arguments, and the like. These trigger usage
// information to be printed.
func NewUsageError(err error) ReconError {
	if err == nil {
		return nil
	}
	return &usageError{err: err}
}

type usageError struct {
	err error
}

func (e *usageError) Error() string {
	return e.err.Error()
}

func (e *usageError) Title() string {
	return "Usage Error"
}

func (e *usageError) ShouldPrintUsage() bool {
	return true
}

func (e *usageError) Unwrap() error {
	return e.err
}

// NewInterruptedError creates a ReconError for interrupted operations.
// Used exclusively for context.Canceled errors.
func NewInterruptedError() ReconError {
	return &interruptedError{}
}

type interruptedError struct{}

func (e *interruptedError) Error() string {
	return "the operation's context was cancelled before it completed"
}

func (e *interruptedError) Title() string {
	return "Interrupted"
}

func (e *interruptedError) ShouldPrintUsage() bool {
	return false
}

func (e *interruptedError) Unwrap() error {
	return context.Canceled
}

// NewDeadlineExceededError creates a ReconError for deadline exceeded
// errors. Used exclusively for context.DeadlineExceeded errors.
func NewDeadlineExceededError() ReconError {
	return &deadlineExceededError{}
}

type deadlineExceededError struct{}

func (e *deadlineExceededError) Error() string {
	return "the operation timed out before it could be completed"
}

func (e *deadlineExceededError) Title() string {
	return "Timeout"
}

func (e *deadlineExceededError) ShouldPrintUsage() bool {
	return false
}

func (e *deadlineExceededError) Unwrap() error {
	return context.DeadlineExceeded
}

// ParseContextError parses a context error into a ReconError.
// Should only be called on errors returned from ctx.Err().
func ParseContextError(err error) ReconError {
	switch {
	case errors.Is(err, context.Canceled):
		return NewInterruptedError()
	case errors.Is(err, context.DeadlineExceeded):
		return NewDeadlineExceededError()
	default:
		return New(err)
	}
}

type unwrappableReconError interface {
	ReconError
	Unwrap() error
}

// IsDeadlineExceeded checks if an error is due to a deadline exceeded error.
func IsDeadlineExceeded(err error) bool {
	if err == nil {
		return false
	}

	var domainError unwrappableReconError
	if errors.As(err, &domainError) {
		return errors.Is(domainError.Unwrap(), context.DeadlineExceeded)
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// IsInterrupted checks if an error is due to interruption (signal or context cancellation).
func IsInterrupted(err error) bool {
	if err == nil {
		return false
	}
	var domainError unwrappableReconError
	if errors.As(err, &domainError) {
		return errors.Is(domainError.Unwrap(), context.Canceled)
	}
	return errors.Is(err, context.Canceled)
}

// ErrRateLimited is the typed sentinel a discovery plugin's page-fetch
// helper returns when the upstream source signals it is throttling
// requests. Callers check for it with errors.Is rather than matching a
// substring against the upstream error text.
var ErrRateLimited = errors.New("upstream source reported rate limiting")
