package services

import (
	"errors"
	"strings"
)

// Failure classes. Every error a backend returns should carry one of these
// markers so callers can decide whether to retry.
var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// ServiceError tags a failure with a class marker and where it happened.
type ServiceError struct {
	Marker    error
	Stage     string
	Operation string
	Message   string
	Err       error
}

func (e *ServiceError) Error() string {
	var b strings.Builder
	b.WriteString(e.Marker.Error())
	b.WriteString(": ")
	wrote := false
	for _, part := range []string{e.Stage, e.Operation, e.Message} {
		if part == "" {
			continue
		}
		if wrote {
			b.WriteString(": ")
		}
		b.WriteString(part)
		wrote = true
	}
	if !wrote {
		b.WriteString("service failure")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the marker and the cause to errors.Is and errors.As.
func (e *ServiceError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Marker}
	}
	return []error{e.Marker, e.Err}
}

// Wrap returns a ServiceError. A nil marker means ErrTransient.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	return &ServiceError{
		Marker:    marker,
		Stage:     strings.TrimSpace(stage),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Err:       err,
	}
}

// IsRetryable reports whether another attempt could succeed. Only transient
// and timeout failures qualify.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration), errors.Is(err, ErrNotFound):
		return false
	}
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrTimeout)
}

// FailureKind returns "transient" or "permanent" for logs.
func FailureKind(err error) string {
	if IsRetryable(err) {
		return "transient"
	}
	return "permanent"
}
