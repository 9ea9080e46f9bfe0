package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf_Wrapped(t *testing.T) {
	base := NotFound("namaste.lookup", "code %q not found", "NAM999")
	wrapped := fmt.Errorf("map source: %w", base)

	if got := KindOf(wrapped); got != KindNotFound {
		t.Errorf("KindOf = %v, want %v", got, KindNotFound)
	}
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("expected errors.Is(wrapped, ErrNotFound)")
	}
	if errors.Is(wrapped, ErrInvalidInput) {
		t.Error("did not expect errors.Is(wrapped, ErrInvalidInput)")
	}
}

func TestKindOf_Plain(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != KindUnknown {
		t.Errorf("KindOf = %v, want unknown", got)
	}
	if got := KindOf(nil); got != KindUnknown {
		t.Errorf("KindOf(nil) = %v, want unknown", got)
	}
}

func TestWrap_Nil(t *testing.T) {
	if err := Wrap(KindUpstreamUnavailable, "icd11.search", nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestError_Message(t *testing.T) {
	err := Upstream("icd11.search", errors.New("status 503"))
	if err.Error() != "icd11.search: status 503" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Error("expected upstream sentinel match")
	}
}

func TestKind_String(t *testing.T) {
	tests := map[Kind]string{
		KindNotFound:            "not-found",
		KindInvalidInput:        "invalid-input",
		KindUpstreamUnavailable: "upstream-unavailable",
		KindValidationFailed:    "validation-failed",
		KindUnknown:             "unknown",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", k, got, want)
		}
	}
}
