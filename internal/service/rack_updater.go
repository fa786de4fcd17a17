package service

import (
	"errors"
	"fmt"

	"go-rackstock-ws/internal/model"
	"go-rackstock-ws/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrPersistenceConflict means a rack write kept missing even after
// re-deriving current stock once. Surfaced, never silently skipped.
var ErrPersistenceConflict = errors.New("rack update conflicted with a concurrent write")

// RackUpdater funnels every rack stock mutation through one
// read-apply-write path so movements, order completion and adjustment
// approval all share the same matching and retry behavior.
//
// Each call re-reads the rack immediately before writing, applies the change
// in memory via the model's matcher, and writes back with a version
// compare-and-set. A missed write gets exactly one retry with freshly
// re-derived stock.
type RackUpdater struct {
	rackRepo repository.RackRepository
}

func NewRackUpdater(rackRepo repository.RackRepository) *RackUpdater {
	return &RackUpdater{rackRepo: rackRepo}
}

// ApplyDelta applies one movement delta to a rack and persists it through
// the given handle. Returns the stock before and after the write.
func (u *RackUpdater) ApplyDelta(tx *gorm.DB, rackID, productID uuid.UUID, direction model.TransactionDirection, qty int) (previous, current int, err error) {
	for attempt := 0; attempt < 2; attempt++ {
		rack, err := u.rackRepo.FindByIDTx(tx, rackID)
		if err != nil {
			return 0, 0, fmt.Errorf("rack not found: %w", err)
		}

		previous, current, err = rack.ApplyDelta(productID, direction, qty)
		if err != nil {
			return previous, current, err
		}

		err = u.rackRepo.UpdateProducts(tx, rack)
		if err == nil {
			return previous, current, nil
		}
		if !errors.Is(err, repository.ErrStaleRack) {
			return 0, 0, err
		}
		// Stale version: fall through to the single retry with re-read stock.
	}
	return 0, 0, ErrPersistenceConflict
}

// SetStock overwrites a product's on-hand quantity on a rack, inserting an
// entry when none exists. Same retry contract as ApplyDelta.
func (u *RackUpdater) SetStock(tx *gorm.DB, rackID, productID uuid.UUID, qty int) (previous int, err error) {
	for attempt := 0; attempt < 2; attempt++ {
		rack, err := u.rackRepo.FindByIDTx(tx, rackID)
		if err != nil {
			return 0, fmt.Errorf("rack not found: %w", err)
		}

		previous = rack.SetStock(productID, qty)

		err = u.rackRepo.UpdateProducts(tx, rack)
		if err == nil {
			return previous, nil
		}
		if !errors.Is(err, repository.ErrStaleRack) {
			return 0, err
		}
	}
	return 0, ErrPersistenceConflict
}
