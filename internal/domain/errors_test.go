package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"not found", NotFoundError("snapshot", "2024-01-01"), KindNotFound},
		{"wrapped conflict", fmt.Errorf("creating: %w", ConflictError("snapshot", "2024-01-01", "exists")), KindConflict},
		{"validation", ValidationError("amount", "-1", "must be positive"), KindValidation},
		{"upstream", UpstreamError("BTC", errors.New("timeout")), KindUpstream},
		{"no data", fmt.Errorf("valuing: %w", ErrNoData), KindNotFound},
		{"plain", errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorMessageCarriesIdentifier(t *testing.T) {
	err := ValidationError("target", "BTC", "duplicate key")
	want := `target "BTC" validation: duplicate key`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	cause := errors.New("429")
	up := UpstreamError("ETH", cause)
	if !errors.Is(up, cause) {
		t.Error("UpstreamError should unwrap to its cause")
	}
}
