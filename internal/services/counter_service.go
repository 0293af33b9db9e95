package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/motorunner/api/internal/repositories"
)

const orderCounterID = "orders"

// ErrCounterUnavailable indicates the sequence backend is unreachable.
var ErrCounterUnavailable = errors.New("counter: repository unavailable")

// CounterServiceDeps bundles dependencies for the order-number counter.
type CounterServiceDeps struct {
	Counters repositories.CounterRepository
	// Prefix is the order-number prefix, e.g. "MR" yields MR-2026-000042.
	Prefix string
}

type counterService struct {
	counters repositories.CounterRepository
	prefix   string
}

// NewCounterService wires a CounterService backed by the provided counter repository.
func NewCounterService(deps CounterServiceDeps) (CounterService, error) {
	if deps.Counters == nil {
		return nil, errors.New("counter service: counter repository is required")
	}
	prefix := strings.TrimSpace(deps.Prefix)
	if prefix == "" {
		prefix = "MR"
	}
	return &counterService{counters: deps.Counters, prefix: prefix}, nil
}

// NextOrderNumber allocates the next sequence value and renders it as
// <prefix>-<year>-<zero-padded sequence>. The counter is global, not
// per-year, so numbers stay unique across year boundaries.
func (s *counterService) NextOrderNumber(ctx context.Context, now time.Time) (string, error) {
	seq, err := s.counters.Next(ctx, orderCounterID, 1)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsUnavailable() {
			return "", fmt.Errorf("%w: %v", ErrCounterUnavailable, err)
		}
		return "", err
	}
	return fmt.Sprintf("%s-%04d-%06d", s.prefix, now.UTC().Year(), seq), nil
}
