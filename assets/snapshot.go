package assets

import (
	"context"
	"time"

	"github.com/tsiemasilo/pulse-app-system-sub000/models"
)

// Synchronizer keeps the per-date HistoricalAssetRecord in step with the live
// daily state rows. It only ever rebuilds the record wholesale from
// asset_daily_states and asset_loss_records; it never patches incrementally,
// so the snapshot can drift at most until the next booking write and can
// always be regenerated.
type Synchronizer struct {
	store Store
}

func NewSynchronizer(store Store) *Synchronizer {
	return &Synchronizer{store: store}
}

// Sync recomputes and upserts the historical record for the date.
func (sy *Synchronizer) Sync(ctx context.Context, date string) error {
	states, err := sy.store.ListDailyStatesByDate(ctx, date)
	if err != nil {
		return err
	}

	bookIn := make(map[string]models.BookingSnapshot)
	bookOut := make(map[string]models.BookingSnapshot)
	for _, state := range states {
		key := state.UserID.Hex()
		if IsBookInState(state.CurrentState) {
			addToSnapshot(bookIn, key, state)
		} else if IsBookOutState(state.CurrentState) {
			// A booked-out asset was necessarily collected first, so it
			// appears on both sides of the record.
			collected := state
			collected.CurrentState = models.StateCollected
			addToSnapshot(bookIn, key, collected)
			addToSnapshot(bookOut, key, state)
		}
	}

	losses, err := sy.store.ListLossRecordsByDate(ctx, date)
	if err != nil {
		return err
	}
	lostAssets := make([]models.LostAssetEntry, 0, len(losses))
	for _, loss := range losses {
		lostAssets = append(lostAssets, models.LostAssetEntry{
			UserID:    loss.UserID,
			AgentName: loss.AgentName,
			AssetType: loss.AssetType,
			Reason:    loss.Reason,
		})
	}

	return sy.store.UpsertHistoricalRecord(ctx, &models.HistoricalAssetRecord{
		Date:           date,
		BookInRecords:  bookIn,
		BookOutRecords: bookOut,
		LostAssets:     lostAssets,
		UpdatedAt:      time.Now().UTC(),
	})
}

// Record returns the stored snapshot for the date, or nil if none exists yet.
func (sy *Synchronizer) Record(ctx context.Context, date string) (*models.HistoricalAssetRecord, error) {
	return sy.store.GetHistoricalRecord(ctx, date)
}

func addToSnapshot(m map[string]models.BookingSnapshot, key string, state models.AssetDailyState) {
	snap, ok := m[key]
	if !ok {
		snap = models.BookingSnapshot{
			UserID:    state.UserID,
			AgentName: state.AgentName,
			States:    make(map[string]string),
		}
	}
	snap.States[state.AssetType] = state.CurrentState
	if state.ConfirmedAt.After(snap.ConfirmedAt) {
		snap.ConfirmedAt = state.ConfirmedAt
		snap.ConfirmedBy = state.ConfirmedBy
	}
	m[key] = snap
}
