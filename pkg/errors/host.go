package errors

import (
	"errors"
	"fmt"
)

// HostFailure classifies a failure raised while talking to a registry host.
type HostFailure int

const (
	// HostFailureNone means the error did not come from a host at all.
	HostFailureNone HostFailure = iota
	// HostFailureSoft is any failure that should move on to the next registry.
	HostFailureSoft
	// HostFailureDisabled means requests to the host are disabled by configuration.
	HostFailureDisabled
	// HostFailureHard means the host failed and the whole lookup must stop.
	HostFailureHard
)

// String returns the lower-case name used in logs and metric labels.
func (k HostFailure) String() string {
	switch k {
	case HostFailureSoft:
		return "soft"
	case HostFailureDisabled:
		return "disabled"
	case HostFailureHard:
		return "hard"
	default:
		return "none"
	}
}

// HostError is a classified registry host failure.
type HostError struct {
	Kind HostFailure
	Host string
	Err  error
}

// Error implements the error interface.
func (e *HostError) Error() string {
	switch e.Kind {
	case HostFailureDisabled:
		return fmt.Sprintf("%s: host %s is disabled", e.Code(), e.Host)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Code(), e.Host, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Code(), e.Host)
	}
}

// Unwrap returns the underlying cause.
func (e *HostError) Unwrap() error {
	return e.Err
}

// Code maps the failure kind onto the error code table.
func (e *HostError) Code() Code {
	switch e.Kind {
	case HostFailureDisabled:
		return ErrCodeHostDisabled
	case HostFailureHard:
		return ErrCodeExternalHost
	default:
		return ErrCodeNetwork
	}
}

// HostDisabled returns the error raised when requests to host are blocked.
func HostDisabled(host string) error {
	return &HostError{Kind: HostFailureDisabled, Host: host}
}

// ExternalHost returns a hard failure for host that aborts a lookup.
func ExternalHost(host string, err error) error {
	return &HostError{Kind: HostFailureHard, Host: host, Err: err}
}

// HostFailureOf classifies err. A nil error is HostFailureNone; any error
// that does not carry a *HostError is HostFailureSoft.
func HostFailureOf(err error) HostFailure {
	if err == nil {
		return HostFailureNone
	}
	var h *HostError
	if errors.As(err, &h) {
		if h.Kind == HostFailureNone {
			return HostFailureSoft
		}
		return h.Kind
	}
	return HostFailureSoft
}
