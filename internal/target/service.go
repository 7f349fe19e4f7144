package target

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mtlprog/networth/internal/domain"
)

// Service validates and stores the allocation target set.
type Service struct {
	repo Repository
}

// NewService creates a target service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the stored targets in their saved order.
func (s *Service) List(ctx context.Context) ([]domain.AllocationTarget, error) {
	return s.repo.ListAllocationTargets(ctx)
}

// Replace validates targets and, if they pass, replaces the stored set with them as a whole.
// Keys are normalized, types inferred when missing and fresh IDs assigned.
func (s *Service) Replace(ctx context.Context, targets []domain.AllocationTarget, allowInvalidSum bool) ([]domain.AllocationTarget, domain.TargetValidation, error) {
	normalized := make([]domain.AllocationTarget, len(targets))
	for i, t := range targets {
		t.ID = uuid.New()
		t.Key = domain.NormalizeSymbol(t.Key)
		if t.Type == "" {
			t.Type = domain.InferTargetType(t.Key)
		}
		t.Type = domain.TargetType(domain.NormalizeSymbol(string(t.Type)))
		normalized[i] = t
	}

	validation, err := Validate(normalized, allowInvalidSum)
	if err != nil {
		return nil, domain.TargetValidation{}, err
	}

	if err := s.repo.ReplaceAllocationTargets(ctx, normalized); err != nil {
		return nil, domain.TargetValidation{}, fmt.Errorf("replacing allocation targets: %w", err)
	}

	if !validation.Valid {
		slog.Warn("allocation targets saved with invalid sum", "sum", validation.Sum.String())
	}
	slog.Info("allocation targets replaced", "count", len(normalized))
	return normalized, validation, nil
}
