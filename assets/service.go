package assets

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tsiemasilo/pulse-app-system-sub000/models"
)

const dateLayout = "2006-01-02"

// Asset event types pushed to the notification fan-out after state-changing
// operations.
const (
	EventAssetLost        = "asset_lost"
	EventAssetNotReturned = "asset_not_returned"
	EventAssetFound       = "asset_found"
)

// AssetEvent is the payload handed to the external notification layer.
type AssetEvent struct {
	EventID   string    `json:"eventId"`
	Type      string    `json:"type"`
	OrgID     string    `json:"-"`
	UserID    string    `json:"userId"`
	AgentName string    `json:"agentName"`
	AssetType string    `json:"assetType"`
	Date      string    `json:"date"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier is the outbound notification surface. Implementations must not
// block; failures are theirs to log.
type Notifier interface {
	PublishAssetEvent(event AssetEvent)
}

// Service orchestrates book-in, book-out, mark-found and agent-day reset
// operations: it validates transitions, persists the new state, appends the
// audit row and keeps the historical snapshot in sync. It owns all writes to
// asset_daily_states and asset_state_audits.
type Service struct {
	store     Store
	snapshots *Synchronizer
	notifier  Notifier
	clock     clockwork.Clock
}

func NewService(store Store, notifier Notifier, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		store:     store,
		snapshots: NewSynchronizer(store),
		notifier:  notifier,
		clock:     clock,
	}
}

// Snapshots exposes the synchronizer for read endpoints.
func (s *Service) Snapshots() *Synchronizer { return s.snapshots }

// Store exposes the underlying store for read-only handler queries.
func (s *Service) Store() Store { return s.store }

func validateDate(date string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return validationf("invalid date %q, expected YYYY-MM-DD", date)
	}
	return nil
}

// BookIn records an agent collecting (or failing to collect) an asset at
// shift start. Status must be collected or not_collected. Book-in may be
// repeated to correct itself but is rejected once a book-out exists for the
// same day.
func (s *Service) BookIn(ctx context.Context, actorID, userID primitive.ObjectID, assetType, date, status, reason string) (*models.AssetDailyState, error) {
	if !models.ValidAssetType(assetType) {
		return nil, validationf("unknown asset type %q", assetType)
	}
	if err := validateDate(date); err != nil {
		return nil, err
	}
	if !IsBookInState(status) {
		return nil, validationf("invalid book-in status %q, expected collected or not_collected", status)
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &NotFoundError{Message: "user not found"}
	}

	existing, err := s.store.GetDailyState(ctx, userID, date, assetType)
	if err != nil {
		return nil, err
	}
	previousState := models.StateReadyForCollection
	if existing != nil {
		previousState = existing.CurrentState
	}
	if !CanBookIn(previousState) {
		return nil, validationf("cannot book in %s for %s: already booked out as %s", assetType, date, previousState)
	}

	state := &models.AssetDailyState{
		UserID:       userID,
		Date:         date,
		AssetType:    assetType,
		CurrentState: status,
		ConfirmedBy:  actorID,
		ConfirmedAt:  s.clock.Now().UTC(),
		Reason:       reason,
		AgentName:    user.FullName(),
	}
	if err := s.store.UpsertDailyState(ctx, state); err != nil {
		return nil, err
	}

	s.appendAudit(ctx, state, previousState, status, reason, actorID)
	s.clearLossRecordIfCorrected(ctx, userID, assetType, date, status)
	s.resyncSnapshot(ctx, date)
	return state, nil
}

// BookOut records an agent returning (or not returning) an asset at shift
// end. The asset must currently be collected. A lost outcome additionally
// creates a loss record; lost and not_returned outcomes are pushed to the
// notification layer.
func (s *Service) BookOut(ctx context.Context, actorID, userID primitive.ObjectID, assetType, date, status, reason string) (*models.AssetDailyState, error) {
	if !models.ValidAssetType(assetType) {
		return nil, validationf("unknown asset type %q", assetType)
	}
	if err := validateDate(date); err != nil {
		return nil, err
	}
	if !IsBookOutState(status) {
		return nil, validationf("invalid book-out status %q, expected returned, not_returned or lost", status)
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &NotFoundError{Message: "user not found"}
	}

	existing, err := s.store.GetDailyState(ctx, userID, date, assetType)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, validationf("cannot book out %s for %s: asset was never booked in", assetType, date)
	}
	if !CanBookOut(existing.CurrentState) {
		return nil, validationf("cannot book out %s for %s: current state is %s, expected collected", assetType, date, existing.CurrentState)
	}
	previousState := existing.CurrentState

	state := &models.AssetDailyState{
		UserID:       userID,
		Date:         date,
		AssetType:    assetType,
		CurrentState: status,
		ConfirmedBy:  actorID,
		ConfirmedAt:  s.clock.Now().UTC(),
		Reason:       reason,
		AgentName:    user.FullName(),
	}
	if err := s.store.UpsertDailyState(ctx, state); err != nil {
		return nil, err
	}

	s.appendAudit(ctx, state, previousState, status, reason, actorID)

	switch status {
	case models.StateLost:
		record := &models.AssetLossRecord{
			UserID:     userID,
			AssetType:  assetType,
			DateLost:   date,
			AgentName:  user.FullName(),
			Reason:     reason,
			ReportedBy: actorID,
			CreatedAt:  s.clock.Now().UTC(),
		}
		if err := s.store.UpsertLossRecord(ctx, record); err != nil {
			log.Printf("book-out: failed to record loss for %s/%s on %s: %v", userID.Hex(), assetType, date, err)
		}
		s.publish(EventAssetLost, user, assetType, date, reason)
	case models.StateNotReturned:
		s.publish(EventAssetNotReturned, user, assetType, date, reason)
	case models.StateReturned:
		s.clearLossRecordIfCorrected(ctx, userID, assetType, date, status)
	}

	s.resyncSnapshot(ctx, date)
	return state, nil
}

// MarkFound corrects a not_returned or lost asset to returned, removes the
// loss record for that day and resolves any open incidents for the
// (user, assetType) pair.
func (s *Service) MarkFound(ctx context.Context, actorID, userID primitive.ObjectID, assetType, date, recoveryReason string) (*models.AssetDailyState, error) {
	if !models.ValidAssetType(assetType) {
		return nil, validationf("unknown asset type %q", assetType)
	}
	if err := validateDate(date); err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &NotFoundError{Message: "user not found"}
	}

	existing, err := s.store.GetDailyState(ctx, userID, date, assetType)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, validationf("no asset state for %s on %s", assetType, date)
	}
	if !CanMarkFound(existing.CurrentState) {
		return nil, validationf("cannot mark %s found for %s: current state is %s, expected not_returned or lost", assetType, date, existing.CurrentState)
	}
	previousState := existing.CurrentState

	now := s.clock.Now().UTC()
	state := &models.AssetDailyState{
		UserID:       userID,
		Date:         date,
		AssetType:    assetType,
		CurrentState: models.StateReturned,
		ConfirmedBy:  actorID,
		ConfirmedAt:  now,
		Reason:       recoveryReason,
		AgentName:    user.FullName(),
	}
	if err := s.store.UpsertDailyState(ctx, state); err != nil {
		return nil, err
	}

	s.appendAudit(ctx, state, previousState, models.StateReturned, recoveryReason, actorID)

	if err := s.store.DeleteLossRecord(ctx, userID, assetType, date); err != nil {
		log.Printf("mark-found: failed to clear loss record for %s/%s on %s: %v", userID.Hex(), assetType, date, err)
	}
	resolution := "Asset found: " + recoveryReason
	if resolved, err := s.store.ResolveOpenIncidents(ctx, userID, assetType, resolution, actorID, now); err != nil {
		log.Printf("mark-found: failed to resolve incidents for %s/%s: %v", userID.Hex(), assetType, err)
	} else if resolved > 0 {
		log.Printf("mark-found: resolved %d open incident(s) for %s/%s", resolved, user.FullName(), assetType)
	}

	s.publish(EventAssetFound, user, assetType, date, recoveryReason)
	s.resyncSnapshot(ctx, date)
	return state, nil
}

// ResetAgentDay wipes every daily state the agent has for the date, purging
// the audit rows first, and raises one maintenance incident per wiped state
// so the override itself stays visible. Team leaders may only reset members
// of their own team; admins may reset anyone. Password re-authentication of
// the acting leader happens at the handler.
func (s *Service) ResetAgentDay(ctx context.Context, leader *models.User, agentID primitive.ObjectID, date string) (int, error) {
	if err := validateDate(date); err != nil {
		return 0, err
	}
	if leader.Role != models.RoleTeamLeader && leader.Role != models.RoleAdmin {
		return 0, &AuthorizationError{Message: "only team leaders and admins may reset agent records"}
	}

	agent, err := s.store.GetUser(ctx, agentID)
	if err != nil {
		return 0, err
	}
	if agent == nil {
		return 0, &NotFoundError{Message: "agent not found"}
	}
	if leader.Role == models.RoleTeamLeader && agent.TeamLeaderID != leader.ID {
		return 0, &AuthorizationError{Message: "agent is not a member of your team"}
	}

	states, err := s.store.ListDailyStatesForUserDate(ctx, agentID, date)
	if err != nil {
		return 0, err
	}
	if len(states) == 0 {
		return 0, nil
	}

	// Audits reference the daily states, so purge them first.
	if _, err := s.store.DeleteAuditsForUserDate(ctx, agentID, date); err != nil {
		return 0, err
	}

	now := s.clock.Now().UTC()
	reset := 0
	for _, state := range states {
		if err := s.store.DeleteDailyState(ctx, state.ID); err != nil {
			log.Printf("reset-agent: failed to delete state %s: %v", state.ID.Hex(), err)
			continue
		}
		incident := &models.AssetIncident{
			UserID:       agentID,
			AssetType:    state.AssetType,
			IncidentType: models.IncidentMaintenance,
			Description: fmt.Sprintf("Asset record reset: %s was %s on %s, wiped by %s",
				state.AssetType, state.CurrentState, date, leader.FullName()),
			ReportedBy: leader.ID,
			Status:     models.IncidentOpen,
			CreatedAt:  now,
		}
		if err := s.store.InsertIncident(ctx, incident); err != nil {
			log.Printf("reset-agent: failed to record incident for %s/%s: %v", agentID.Hex(), state.AssetType, err)
		}
		reset++
	}

	s.resyncSnapshot(ctx, date)
	return reset, nil
}

func (s *Service) appendAudit(ctx context.Context, state *models.AssetDailyState, previousState, newState, reason string, actorID primitive.ObjectID) {
	audit := &models.AssetStateAudit{
		DailyStateID:  state.ID,
		UserID:        state.UserID,
		Date:          state.Date,
		AssetType:     state.AssetType,
		PreviousState: previousState,
		NewState:      newState,
		Reason:        reason,
		ChangedBy:     actorID,
		ChangedAt:     s.clock.Now().UTC(),
	}
	if err := s.store.InsertAudit(ctx, audit); err != nil {
		log.Printf("failed to append audit for %s/%s on %s: %v", state.UserID.Hex(), state.AssetType, state.Date, err)
	}
}

// clearLossRecordIfCorrected enforces the auto-removal rule: marking an asset
// collected or returned deletes any loss record for the same key.
func (s *Service) clearLossRecordIfCorrected(ctx context.Context, userID primitive.ObjectID, assetType, date, newState string) {
	if !clearsLossRecord(newState) {
		return
	}
	if err := s.store.DeleteLossRecord(ctx, userID, assetType, date); err != nil {
		log.Printf("failed to clear loss record for %s/%s on %s: %v", userID.Hex(), assetType, date, err)
	}
}

// resyncSnapshot rebuilds the historical record for the date. Failures are
// logged and swallowed: the snapshot is a derived view and must never turn a
// successful state transition into a failure.
func (s *Service) resyncSnapshot(ctx context.Context, date string) {
	if err := s.snapshots.Sync(ctx, date); err != nil {
		log.Printf("historical snapshot sync failed for %s: %v", date, err)
	}
}

func (s *Service) publish(eventType string, user *models.User, assetType, date, reason string) {
	if s.notifier == nil {
		return
	}
	s.notifier.PublishAssetEvent(AssetEvent{
		EventID:   uuid.NewString(),
		Type:      eventType,
		OrgID:     user.OrganizationID.Hex(),
		UserID:    user.ID.Hex(),
		AgentName: user.FullName(),
		AssetType: assetType,
		Date:      date,
		Reason:    reason,
		Timestamp: s.clock.Now().UTC(),
	})
}
