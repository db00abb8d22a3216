package assets

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jonboulle/clockwork"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tsiemasilo/pulse-app-system-sub000/models"
)

// Reset detail actions.
const (
	ResetActionForceClosed    = "force_closed"
	ResetActionCarriedForward = "carried_forward"
	ResetActionIncidentExists = "incident_exists"
)

// ResetDetail is one per-row decision in a daily reset run.
type ResetDetail struct {
	AgentName string `json:"agentName"`
	AssetType string `json:"assetType"`
	Action    string `json:"action"`
}

// ResetResult is the structured outcome of a daily reset run.
type ResetResult struct {
	Date             string        `json:"date"`
	Performed        bool          `json:"performed"`
	ResetCount       int           `json:"resetCount"`
	IncidentsCreated int           `json:"incidentsCreated"`
	Details          []ResetDetail `json:"details"`
}

// ResetStatus describes whether a date has been processed and what its live
// state rows look like.
type ResetStatus struct {
	Date           string         `json:"date"`
	ResetPerformed bool           `json:"resetPerformed"`
	TotalStates    int            `json:"totalStates"`
	StateBreakdown map[string]int `json:"stateBreakdown"`
}

// ResetEngine resolves every asset left dangling from the previous day so the
// new day starts from a clean baseline. It owns all automatic incident
// creation. Runs are idempotent per date: completion is recorded as a marker
// audit row and subsequent runs for the same date are no-ops.
type ResetEngine struct {
	store Store
	clock clockwork.Clock
}

func NewResetEngine(store Store, clock clockwork.Clock) *ResetEngine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ResetEngine{store: store, clock: clock}
}

// Run processes the day before date. Collected-but-never-booked-out assets
// are force-closed with a not_returned incident; not_returned and lost assets
// carry forward as open incidents until resolved via mark-found; returned and
// not_collected rows are terminal and skipped. Per-row failures are logged
// and do not abort the batch.
func (e *ResetEngine) Run(ctx context.Context, actorID primitive.ObjectID, date string) (*ResetResult, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}

	done, err := e.store.HasDailyResetMarker(ctx, date)
	if err != nil {
		return nil, err
	}
	if done {
		log.Printf("daily reset already performed for %s, skipping", date)
		return &ResetResult{Date: date, Performed: false, Details: []ResetDetail{}}, nil
	}

	day, _ := time.Parse(dateLayout, date)
	previousDate := day.AddDate(0, 0, -1).Format(dateLayout)

	states, err := e.store.ListDailyStatesByDate(ctx, previousDate)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now().UTC()
	result := &ResetResult{Date: date, Performed: true, Details: []ResetDetail{}}

	for _, state := range states {
		switch state.CurrentState {
		case models.StateCollected:
			// Still out at day's end: force-close with an incident. The
			// historical row already reflects the last known state, so it is
			// left alone and the new day starts with no row.
			incident := &models.AssetIncident{
				UserID:       state.UserID,
				AssetType:    state.AssetType,
				IncidentType: models.IncidentNotReturned,
				Description: fmt.Sprintf("%s did not book out %s collected on %s",
					state.AgentName, state.AssetType, previousDate),
				ReportedBy: actorID,
				Status:     models.IncidentOpen,
				CreatedAt:  now,
			}
			if err := e.store.InsertIncident(ctx, incident); err != nil {
				log.Printf("daily reset: failed to raise incident for %s/%s: %v", state.UserID.Hex(), state.AssetType, err)
				continue
			}
			result.ResetCount++
			result.IncidentsCreated++
			result.Details = append(result.Details, ResetDetail{
				AgentName: state.AgentName,
				AssetType: state.AssetType,
				Action:    ResetActionForceClosed,
			})

		case models.StateNotReturned, models.StateLost:
			// Carry forward as an open issue, never silently cleared.
			action := ResetActionIncidentExists
			open, err := e.store.FindOpenIncident(ctx, state.UserID, state.AssetType)
			if err != nil {
				log.Printf("daily reset: incident lookup failed for %s/%s: %v", state.UserID.Hex(), state.AssetType, err)
				continue
			}
			if open == nil {
				incidentType := models.IncidentNotReturned
				if state.CurrentState == models.StateLost {
					incidentType = models.IncidentLost
				}
				incident := &models.AssetIncident{
					UserID:       state.UserID,
					AssetType:    state.AssetType,
					IncidentType: incidentType,
					Description: fmt.Sprintf("%s's %s was %s on %s and remains unresolved",
						state.AgentName, state.AssetType, state.CurrentState, previousDate),
					ReportedBy: actorID,
					Status:     models.IncidentOpen,
					CreatedAt:  now,
				}
				if err := e.store.InsertIncident(ctx, incident); err != nil {
					log.Printf("daily reset: failed to raise carry-forward incident for %s/%s: %v", state.UserID.Hex(), state.AssetType, err)
					continue
				}
				result.IncidentsCreated++
				action = ResetActionCarriedForward
			}
			result.ResetCount++
			result.Details = append(result.Details, ResetDetail{
				AgentName: state.AgentName,
				AssetType: state.AssetType,
				Action:    action,
			})

		case models.StateReturned, models.StateNotCollected:
			// Terminal for that day.
		}
	}

	marker := &models.AssetStateAudit{
		UserID:        actorID,
		Date:          date,
		AssetType:     models.DailyResetMarkerType,
		PreviousState: previousDate,
		NewState:      "completed",
		Reason:        fmt.Sprintf("daily reset: %d states processed, %d incidents created", result.ResetCount, result.IncidentsCreated),
		ChangedBy:     actorID,
		ChangedAt:     now,
	}
	if err := e.store.InsertAudit(ctx, marker); err != nil {
		// Without the marker a rerun would repeat the incidents, so this one
		// is fatal for the run's reported success.
		return nil, err
	}

	log.Printf("daily reset for %s complete: %d reset, %d incidents", date, result.ResetCount, result.IncidentsCreated)
	return result, nil
}

// Status reports whether the date has been processed plus a breakdown of its
// live rows.
func (e *ResetEngine) Status(ctx context.Context, date string) (*ResetStatus, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}

	performed, err := e.store.HasDailyResetMarker(ctx, date)
	if err != nil {
		return nil, err
	}
	states, err := e.store.ListDailyStatesByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	breakdown := make(map[string]int)
	for _, state := range states {
		breakdown[state.CurrentState]++
	}
	return &ResetStatus{
		Date:           date,
		ResetPerformed: performed,
		TotalStates:    len(states),
		StateBreakdown: breakdown,
	}, nil
}
