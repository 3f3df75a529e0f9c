package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNodeNotFound is returned when an operation names a node that does not exist.
	ErrNodeNotFound = errors.New("node not found")
	// ErrEdgeNotFound is returned when an operation names an edge that does not exist.
	ErrEdgeNotFound = errors.New("edge not found")
	// ErrOptionNotFound is returned when an option index is out of range.
	ErrOptionNotFound = errors.New("option not found")
	// ErrInvalidHandle is returned for source handles that cannot be parsed.
	ErrInvalidHandle = errors.New("invalid source handle")
	// ErrInvalidFormat is returned when an imported document lacks nodes or edges.
	ErrInvalidFormat = errors.New("invalid questionnaire format")

	// ErrDraftNotFound is returned when a draft id is unknown.
	ErrDraftNotFound = errors.New("draft not found")
	// ErrTemplateNotFound is returned when a library template id is unknown.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrSessionNotFound is returned when a session ID cannot be found in the store.
	ErrSessionNotFound = errors.New("session not found")
	// ErrKeyNotFound is returned by key-value stores for missing keys.
	ErrKeyNotFound = errors.New("key not found")

	// ErrNoQuestions is returned when saving an empty questionnaire.
	ErrNoQuestions = errors.New("please add at least one question before saving")
	// ErrMetadataRequired is returned when template metadata is missing or incomplete.
	ErrMetadataRequired = errors.New("please fill out all required fields in the start dialog (Template Name, Facility Types, Service Lines)")
	// ErrTemplateNameRequired is returned when a question is added before naming the template.
	ErrTemplateNameRequired = errors.New("template name is required")
	// ErrSaveInProgress is returned when a save is requested while another is in flight.
	ErrSaveInProgress = errors.New("save already in progress")
	// ErrViewOnly is returned when a mutation is attempted on a read-only questionnaire.
	ErrViewOnly = errors.New("questionnaire is opened read-only")
	// ErrRemoteUnavailable is returned when an operation needs the remote service and none is configured.
	ErrRemoteUnavailable = errors.New("remote service not configured")
	// ErrStaleLoad is returned when a scenario load was superseded by a newer one.
	ErrStaleLoad = errors.New("scenario load superseded by a newer request")
)

// ValidationError describes one rejected field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// AggregateError collects several validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// IsValidation reports whether err is a ValidationError or an AggregateError.
func IsValidation(err error) bool {
	var ve *ValidationError
	var ae *AggregateError
	return errors.As(err, &ve) || errors.As(err, &ae)
}

// PreconditionError is returned when an operation is refused before any work is done.
// ReopenDialog tells the caller to show the start dialog again.
type PreconditionError struct {
	Err          error
	ReopenDialog bool
}

func (e *PreconditionError) Error() string {
	return e.Err.Error()
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// RemoteErrorKind classifies a failed remote call.
type RemoteErrorKind string

const (
	RemoteNetwork    RemoteErrorKind = "network"
	RemoteValidation RemoteErrorKind = "validation"
	RemoteGeneric    RemoteErrorKind = "generic"
)

// NetworkErrorMessage is shown for transport failures.
const NetworkErrorMessage = "Network error - please check your connection and try again"

// RemoteError is a failed call to the remote scenario or user service.
type RemoteError struct {
	Op         string
	Kind       RemoteErrorKind
	Message    string
	StatusCode int
	Err        error
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
