package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestRejectionError(t *testing.T) {
	t.Run("message carries kind", func(t *testing.T) {
		err := Reject(RejectPriceOutOfBand, "price %d outside %d..%d", 130, 80, 120)
		expected := "price_out_of_band: price 130 outside 80..120"
		if err.Error() != expected {
			t.Errorf("Error message = %q, want %q", err.Error(), expected)
		}
	})

	t.Run("KindOf unwraps", func(t *testing.T) {
		wrapped := fmt.Errorf("submit: %w", Reject(RejectInsufficientCash, "need 500"))
		if got := KindOf(wrapped); got != RejectInsufficientCash {
			t.Errorf("KindOf = %v, want %v", got, RejectInsufficientCash)
		}
		if got := KindOf(errors.New("plain error")); got != 0 {
			t.Errorf("KindOf(plain) = %v, want 0", got)
		}
	})
}

func TestIntegrityError(t *testing.T) {
	err := &IntegrityError{Op: "clear", PlayerID: "p1", ItemID: "steel"}
	expected := `integrity violation in clear: player="p1" item="steel"`
	if err.Error() != expected {
		t.Errorf("Error message = %q, want %q", err.Error(), expected)
	}
}

func TestConfigError(t *testing.T) {
	baseErr := errors.New("missing value")
	err := &ConfigError{Field: "items[0].base_price", Err: baseErr}

	expected := "config error [items[0].base_price]: missing value"
	if err.Error() != expected {
		t.Errorf("Error message = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, baseErr) {
		t.Error("Expected error to wrap baseErr")
	}
}
