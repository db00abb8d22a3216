package assets

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tsiemasilo/pulse-app-system-sub000/models"
)

const testDate = "2024-06-01"

type serviceFixture struct {
	svc      *Service
	store    *memStore
	notifier *capturingNotifier
	agent    models.User
	leader   models.User
	admin    models.User
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	store := newMemStore()
	notifier := &capturingNotifier{}

	orgID := primitive.NewObjectID()
	leader := models.User{
		ID:             primitive.NewObjectID(),
		FirstName:      "Lindiwe",
		LastName:       "Dlamini",
		Email:          "lindiwe@example.com",
		Role:           models.RoleTeamLeader,
		OrganizationID: orgID,
	}
	agent := models.User{
		ID:             primitive.NewObjectID(),
		FirstName:      "Thabo",
		LastName:       "Nkosi",
		Email:          "thabo@example.com",
		Role:           models.RoleAgent,
		TeamLeaderID:   leader.ID,
		OrganizationID: orgID,
	}
	admin := models.User{
		ID:             primitive.NewObjectID(),
		FirstName:      "Ayesha",
		LastName:       "Khan",
		Email:          "ayesha@example.com",
		Role:           models.RoleAdmin,
		OrganizationID: orgID,
	}
	store.addUser(leader)
	store.addUser(agent)
	store.addUser(admin)

	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	return &serviceFixture{
		svc:      NewService(store, notifier, clock),
		store:    store,
		notifier: notifier,
		agent:    agent,
		leader:   leader,
		admin:    admin,
	}
}

func TestBookInThenBookOutThenMarkFound(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	state, err := f.svc.BookIn(ctx, f.leader.ID, f.agent.ID, models.AssetTypeLaptop, testDate, models.StateCollected, "")
	require.NoError(t, err)
	assert.Equal(t, models.StateCollected, state.CurrentState)
	assert.Equal(t, "Thabo Nkosi", state.AgentName)

	state, err = f.svc.BookOut(ctx, f.leader.ID, f.agent.ID, models.AssetTypeLaptop, testDate, models.StateNotReturned, "did not hand in")
	require.NoError(t, err)
	assert.Equal(t, models.StateNotReturned, state.CurrentState)

	// Only lost creates a loss record.
	assert.Nil(t, f.store.lossRecord(f.agent.ID, models.AssetTypeLaptop, testDate))

	state, err = f.svc.MarkFound(ctx, f.leader.ID, f.agent.ID, models.AssetTypeLaptop, testDate, "found under desk")
	require.NoError(t, err)
	assert.Equal(t, models.StateReturned, state.CurrentState)

	audits, err := f.store.ListAuditsByUser(ctx, f.agent.ID)
	require.NoError(t, err)
	require.Len(t, audits, 3)
	assert.Equal(t, models.StateReadyForCollection, audits[0].PreviousState)
	assert.Equal(t, models.StateCollected, audits[0].NewState)
	assert.Equal(t, models.StateNotReturned, audits[1].NewState)
	assert.Equal(t, models.StateReturned, audits[2].NewState)
}

func TestBookOutWithoutBookInFails(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.BookOut(context.Background(), f.leader.ID, f.agent.ID, models.AssetTypeLaptop, testDate, models.StateReturned, "")
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	state, err := f.store.GetDailyState(context.Background(), f.agent.ID, testDate, models.AssetTypeLaptop)
	require.NoError(t, err)
	assert.Nil(t, state, "no state row may be created by a rejected book-out")
}

func TestBookInAfterBookOutFails(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.BookIn(ctx, f.leader.ID, f.agent.ID, models.AssetTypeHeadsets, testDate, models.StateCollected, "")
	require.NoError(t, err)
	_, err = f.svc.BookOut(ctx, f.leader.ID, f.agent.ID, models.AssetTypeHeadsets, testDate, models.StateReturned, "")
	require.NoError(t, err)

	_, err = f.svc.BookIn(ctx, f.leader.ID, f.agent.ID, models.AssetTypeHeadsets, testDate, models.StateCollected, "")
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestBookOutRequiresCollectedState(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.BookIn(ctx, f.leader.ID, f.agent.ID, models.AssetTypeDongle, testDate, models.StateNotCollected, "off sick")
	require.NoError(t, err)

	_, err = f.svc.BookOut(ctx, f.leader.ID, f.agent.ID, models.AssetTypeDongle, testDate, models.StateReturned, "")
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestRepeatedBookInUpsertsSingleRow(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	first, err := f.svc.BookIn(ctx, f.leader.ID, f.agent.ID, models.AssetTypeLaptop, testDate, models.StateNotCollected, "late")
	require.NoError(t, err)
	second, err := f.svc.BookIn(ctx, f.leader.ID, f.agent.ID, models.AssetTypeLaptop, testDate, models.StateCollected, "arrived")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "upsert must reuse the row")

	states, err := f.store.ListDailyStatesForUserDate(ctx, f.agent.ID, testDate)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, models.StateCollected, states[0].CurrentState)
}

func TestBookOutLostCreatesLossRecordAndNotifies(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.BookIn(ctx, f.leader.ID, f.agent.ID, models.AssetTypeDongle, testDate, models.StateCollected, "")
	require.NoError(t, err)
	_, err = f.svc.BookOut(ctx, f.leader.ID, f.agent.ID, models.AssetTypeDongle, testDate, models.StateLost, "left in taxi")
	require.NoError(t, err)

	loss := f.store.lossRecord(f.agent.ID, models.AssetTypeDongle, testDate)
	require.NotNil(t, loss)
	assert.Equal(t, "left in taxi", loss.Reason)
	assert.Equal(t, "Thabo Nkosi", loss.AgentName)

	events := f.notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, EventAssetLost, events[0].Type)
	assert.Equal(t, f.agent.OrganizationID.Hex(), events[0].OrgID)
	assert.NotEmpty(t, events[0].EventID)
}

func TestBookOutNotReturnedNotifies(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.BookIn(ctx, f.leader.ID, f.agent.ID, models.AssetTypeLaptop, testDate, models.StateCollected, "")
	require.NoError(t, err)
	_, err = f.svc.BookOut(ctx, f.leader.ID, f.agent.ID, models.AssetTypeLaptop, testDate, models.StateNotReturned, "")
	require.NoError(t, err)

	events := f.notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, EventAssetNotReturned, events[0].Type)
}

func TestMarkFoundClearsLossRecordAndResolvesIncidents(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.BookIn(ctx, f.leader.ID, f.agent.ID, models.AssetTypeLaptop, testDate, models.StateCollected, "")
	require.NoError(t, err)
	_, err = f.svc.BookOut(ctx, f.leader.ID, f.agent.ID, models.AssetTypeLaptop, testDate, models.StateLost, "missing")
	require.NoError(t, err)

	require.NoError(t, f.store.InsertIncident(ctx, &models.AssetIncident{
		UserID:       f.agent.ID,
		AssetType:    models.AssetTypeLaptop,
		IncidentType: models.IncidentLost,
		Description:  "laptop missing",
		ReportedBy:   f.leader.ID,
		Status:       models.IncidentOpen,
		CreatedAt:    time.Now().UTC(),
	}))

	state, err := f.svc.MarkFound(ctx, f.leader.ID, f.agent.ID, models.AssetTypeLaptop, testDate, "found in storeroom")
	require.NoError(t, err)
	assert.Equal(t, models.StateReturned, state.CurrentState)

	assert.Nil(t, f.store.lossRecord(f.agent.ID, models.AssetTypeLaptop, testDate))

	open, err := f.store.FindOpenIncident(ctx, f.agent.ID, models.AssetTypeLaptop)
	require.NoError(t, err)
	assert.Nil(t, open, "mark-found must resolve open incidents")
}

func TestMarkFoundRequiresUnresolvedState(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.BookIn(ctx, f.leader.ID, f.agent.ID, models.AssetTypeLaptop, testDate, models.StateCollected, "")
	require.NoError(t, err)

	_, err = f.svc.MarkFound(ctx, f.leader.ID, f.agent.ID, models.AssetTypeLaptop, testDate, "n/a")
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestCorrectiveBookInClearsStaleLossRecord(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	// A stale loss record can survive an agent-day reset; a fresh collected
	// book-in for the same key must clear it.
	require.NoError(t, f.store.UpsertLossRecord(ctx, &models.AssetLossRecord{
		UserID:    f.agent.ID,
		AssetType: models.AssetTypeHeadsets,
		DateLost:  testDate,
		AgentName: "Thabo Nkosi",
		CreatedAt: time.Now().UTC(),
	}))

	_, err := f.svc.BookIn(ctx, f.leader.ID, f.agent.ID, models.AssetTypeHeadsets, testDate, models.StateCollected, "")
	require.NoError(t, err)

	assert.Nil(t, f.store.lossRecord(f.agent.ID, models.AssetTypeHeadsets, testDate))
}

func TestBookingValidation(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	var validationErr *ValidationError

	_, err := f.svc.BookIn(ctx, f.leader.ID, f.agent.ID, "keyboard", testDate, models.StateCollected, "")
	require.ErrorAs(t, err, &validationErr)

	_, err = f.svc.BookIn(ctx, f.leader.ID, f.agent.ID, models.AssetTypeLaptop, "01-06-2024", models.StateCollected, "")
	require.ErrorAs(t, err, &validationErr)

	_, err = f.svc.BookIn(ctx, f.leader.ID, f.agent.ID, models.AssetTypeLaptop, testDate, models.StateReturned, "")
	require.ErrorAs(t, err, &validationErr)

	_, err = f.svc.BookOut(ctx, f.leader.ID, f.agent.ID, models.AssetTypeLaptop, testDate, models.StateCollected, "")
	require.ErrorAs(t, err, &validationErr)

	var notFoundErr *NotFoundError
	_, err = f.svc.BookIn(ctx, f.leader.ID, primitive.NewObjectID(), models.AssetTypeLaptop, testDate, models.StateCollected, "")
	require.ErrorAs(t, err, &notFoundErr)
}

func TestResetAgentDay(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.BookIn(ctx, f.leader.ID, f.agent.ID, models.AssetTypeLaptop, testDate, models.StateCollected, "")
	require.NoError(t, err)
	_, err = f.svc.BookIn(ctx, f.leader.ID, f.agent.ID, models.AssetTypeHeadsets, testDate, models.StateNotCollected, "")
	require.NoError(t, err)

	statesReset, err := f.svc.ResetAgentDay(ctx, &f.leader, f.agent.ID, testDate)
	require.NoError(t, err)
	assert.Equal(t, 2, statesReset)

	states, err := f.store.ListDailyStatesForUserDate(ctx, f.agent.ID, testDate)
	require.NoError(t, err)
	assert.Empty(t, states)

	audits, err := f.store.ListAuditsByUser(ctx, f.agent.ID)
	require.NoError(t, err)
	assert.Empty(t, audits, "reset must purge the day's audit rows")

	incidents, err := f.store.ListIncidents(ctx, models.IncidentOpen)
	require.NoError(t, err)
	require.Len(t, incidents, 2)
	for _, inc := range incidents {
		assert.Equal(t, models.IncidentMaintenance, inc.IncidentType)
		assert.Equal(t, f.leader.ID, inc.ReportedBy)
	}
}

func TestResetAgentDayAuthorization(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	otherLeader := models.User{
		ID:             primitive.NewObjectID(),
		FirstName:      "Sipho",
		LastName:       "Mokoena",
		Role:           models.RoleTeamLeader,
		OrganizationID: f.leader.OrganizationID,
	}
	f.store.addUser(otherLeader)

	_, err := f.svc.BookIn(ctx, f.leader.ID, f.agent.ID, models.AssetTypeLaptop, testDate, models.StateCollected, "")
	require.NoError(t, err)

	var authErr *AuthorizationError
	_, err = f.svc.ResetAgentDay(ctx, &otherLeader, f.agent.ID, testDate)
	require.ErrorAs(t, err, &authErr, "leader of another team may not reset the agent")

	_, err = f.svc.ResetAgentDay(ctx, &f.agent, f.agent.ID, testDate)
	require.ErrorAs(t, err, &authErr, "agents may not reset records")

	// Admins bypass the team check.
	statesReset, err := f.svc.ResetAgentDay(ctx, &f.admin, f.agent.ID, testDate)
	require.NoError(t, err)
	assert.Equal(t, 1, statesReset)
}

func TestResetAgentDayNoStates(t *testing.T) {
	f := newServiceFixture(t)

	statesReset, err := f.svc.ResetAgentDay(context.Background(), &f.leader, f.agent.ID, testDate)
	require.NoError(t, err)
	assert.Zero(t, statesReset)
	assert.Zero(t, f.store.incidentCount())
}
