package app

import (
	"context"

	"github.com/neomorfeo/retailledger/internal/domain"
)

// SequenceService mints per-tenant sequence numbers and their display codes.
type SequenceService struct {
	allocator domain.SequenceAllocator
}

// NewSequenceService creates a service backed by the given allocator.
func NewSequenceService(allocator domain.SequenceAllocator) *SequenceService {
	return &SequenceService{allocator: allocator}
}

// Next returns the next value of the named series for the tenant.
func (s *SequenceService) Next(ctx context.Context, tenantID, series string) (int64, error) {
	_, seq, err := s.next(ctx, tenantID, series)
	return seq, err
}

func (s *SequenceService) next(ctx context.Context, tenantID, series string) (domain.Series, int64, error) {
	sr, err := domain.ParseSeries(series)
	if err != nil {
		return "", 0, err
	}
	if tenantID == "" {
		return "", 0, &domain.ValidationError{Field: "tenant", Reason: "is required"}
	}
	seq, err := s.allocator.Next(ctx, tenantID, sr)
	if err != nil {
		return "", 0, err
	}
	return sr, seq, nil
}

// NextCode allocates the next value and formats it, e.g. INV-0007-ab12.
func (s *SequenceService) NextCode(ctx context.Context, tenantID, series string) (string, int64, error) {
	sr, seq, err := s.next(ctx, tenantID, series)
	if err != nil {
		return "", 0, err
	}
	return domain.FormatCode(sr.Prefix(), seq, tenantID), seq, nil
}
