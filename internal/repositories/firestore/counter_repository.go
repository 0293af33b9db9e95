package firestore

import (
	"context"
	"fmt"

	fs "cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	platform "github.com/motorunner/api/internal/platform/firestore"
)

type counterDoc struct {
	Value int64 `firestore:"value"`
}

// CounterRepository issues monotonically increasing sequence values via a
// transactional read-modify-write on a single counter document.
type CounterRepository struct {
	provider *platform.Provider
	base     *platform.BaseRepository[counterDoc]
}

func newCounterRepository(provider *platform.Provider) *CounterRepository {
	return &CounterRepository{
		provider: provider,
		base:     platform.NewBaseRepository[counterDoc](provider, collectionCounters),
	}
}

// Next increments the named counter by step and returns the new value. A
// missing counter document starts at zero.
func (r *CounterRepository) Next(ctx context.Context, counterID string, step int64) (int64, error) {
	if step <= 0 {
		return 0, platform.WrapError("counters.next", fmt.Errorf("step must be positive, got %d", step))
	}

	ref, err := r.base.DocumentRef(ctx, counterID)
	if err != nil {
		return 0, err
	}

	var next int64
	err = r.provider.RunTransaction(ctx, func(_ context.Context, tx *fs.Transaction) error {
		var current int64
		snapshot, err := tx.Get(ref)
		switch {
		case err == nil:
			doc, err := platform.DecodeSnapshot[counterDoc](snapshot)
			if err != nil {
				return err
			}
			current = doc.Data.Value
		case status.Code(err) == codes.NotFound:
			current = 0
		default:
			return err
		}

		next = current + step
		return tx.Set(ref, counterDoc{Value: next})
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}
