package assets

import (
	"github.com/tsiemasilo/pulse-app-system-sub000/models"
)

// Pure transition rules for the per-(user, date, assetType) state machine:
//
//	ready_for_collection -> collected | not_collected
//	collected            -> returned | not_returned | lost
//	not_returned | lost  -> returned (mark-found correction)
//
// A row that does not exist yet is treated as ready_for_collection.

// IsBookInState reports whether s is a book-in outcome.
func IsBookInState(s string) bool {
	return s == models.StateCollected || s == models.StateNotCollected
}

// IsBookOutState reports whether s is a book-out outcome.
func IsBookOutState(s string) bool {
	switch s {
	case models.StateReturned, models.StateNotReturned, models.StateLost:
		return true
	}
	return false
}

// CanBookIn reports whether a book-in may be recorded over the current state.
// Book-in can be repeated (to correct collected vs not_collected) but never
// after a book-out has been recorded for the same day.
func CanBookIn(current string) bool {
	switch current {
	case models.StateReadyForCollection, models.StateCollected, models.StateNotCollected:
		return true
	}
	return false
}

// CanBookOut reports whether a book-out may be recorded over the current
// state. Only an asset that was actually collected can be booked out, and
// only once.
func CanBookOut(current string) bool {
	return current == models.StateCollected
}

// CanMarkFound reports whether a mark-found correction applies.
func CanMarkFound(current string) bool {
	return current == models.StateNotReturned || current == models.StateLost
}

// clearsLossRecord reports whether writing newState must delete any existing
// loss record for the same (user, assetType, date). Returning or re-collecting
// an asset corrects a previous lost/not-returned marking.
func clearsLossRecord(newState string) bool {
	return newState == models.StateReturned || newState == models.StateCollected
}
