package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestHostFailureOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want HostFailure
	}{
		{"nil", nil, HostFailureNone},
		{"plain error", errors.New("boom"), HostFailureSoft},
		{"structured error", New(ErrCodeNetwork, "status 500"), HostFailureSoft},
		{"disabled", HostDisabled("registry.example.com"), HostFailureDisabled},
		{"external host", ExternalHost("registry.example.com", errors.New("502")), HostFailureHard},
		{"wrapped external host", fmt.Errorf("lookup: %w", ExternalHost("h", nil)), HostFailureHard},
		{"wrapped in Error", Wrap(ErrCodeInternal, HostDisabled("h"), "failed"), HostFailureDisabled},
		{"zero kind", &HostError{Host: "h"}, HostFailureSoft},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HostFailureOf(tt.err); got != tt.want {
				t.Errorf("HostFailureOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHostErrorCodes(t *testing.T) {
	disabled := HostDisabled("pypi.org")
	if !Is(disabled, ErrCodeHostDisabled) {
		t.Errorf("Is(disabled, HOST_DISABLED) = false")
	}
	if got := disabled.Error(); got != "HOST_DISABLED: host pypi.org is disabled" {
		t.Errorf("Error() = %q", got)
	}

	cause := errors.New("connection reset")
	hard := ExternalHost("pypi.org", cause)
	if GetCode(hard) != ErrCodeExternalHost {
		t.Errorf("GetCode() = %v, want %v", GetCode(hard), ErrCodeExternalHost)
	}
	if !errors.Is(hard, cause) {
		t.Error("errors.Is(hard, cause) = false, want true")
	}
}

func TestHostFailureString(t *testing.T) {
	for kind, want := range map[HostFailure]string{
		HostFailureNone:     "none",
		HostFailureSoft:     "soft",
		HostFailureDisabled: "disabled",
		HostFailureHard:     "hard",
	} {
		if got := kind.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
