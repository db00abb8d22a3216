package assets

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tsiemasilo/pulse-app-system-sub000/models"
)

// memStore is an in-memory Store double for tests.
type memStore struct {
	mu         sync.Mutex
	states     map[string]*models.AssetDailyState // userId|date|assetType
	audits     []models.AssetStateAudit
	incidents  map[primitive.ObjectID]*models.AssetIncident
	losses     map[string]*models.AssetLossRecord // userId|assetType|dateLost
	historical map[string]*models.HistoricalAssetRecord
	users      map[primitive.ObjectID]*models.User
}

func newMemStore() *memStore {
	return &memStore{
		states:     make(map[string]*models.AssetDailyState),
		incidents:  make(map[primitive.ObjectID]*models.AssetIncident),
		losses:     make(map[string]*models.AssetLossRecord),
		historical: make(map[string]*models.HistoricalAssetRecord),
		users:      make(map[primitive.ObjectID]*models.User),
	}
}

func stateKey(userID primitive.ObjectID, date, assetType string) string {
	return userID.Hex() + "|" + date + "|" + assetType
}

func lossKey(userID primitive.ObjectID, assetType, dateLost string) string {
	return userID.Hex() + "|" + assetType + "|" + dateLost
}

func (m *memStore) addUser(user models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := user
	m.users[user.ID] = &u
}

func (m *memStore) GetDailyState(_ context.Context, userID primitive.ObjectID, date, assetType string) (*models.AssetDailyState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.states[stateKey(userID, date, assetType)]; ok {
		copied := *st
		return &copied, nil
	}
	return nil, nil
}

func (m *memStore) UpsertDailyState(_ context.Context, state *models.AssetDailyState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := stateKey(state.UserID, state.Date, state.AssetType)
	if existing, ok := m.states[key]; ok {
		state.ID = existing.ID
	} else if state.ID.IsZero() {
		state.ID = primitive.NewObjectID()
	}
	copied := *state
	m.states[key] = &copied
	return nil
}

func (m *memStore) ListDailyStatesByDate(_ context.Context, date string) ([]models.AssetDailyState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AssetDailyState
	for _, st := range m.states {
		if st.Date == date {
			out = append(out, *st)
		}
	}
	return out, nil
}

func (m *memStore) ListDailyStatesForUserDate(_ context.Context, userID primitive.ObjectID, date string) ([]models.AssetDailyState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AssetDailyState
	for _, st := range m.states {
		if st.UserID == userID && st.Date == date {
			out = append(out, *st)
		}
	}
	return out, nil
}

func (m *memStore) ListDailyStatesInStates(_ context.Context, states []string) ([]models.AssetDailyState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	match := make(map[string]bool, len(states))
	for _, s := range states {
		match[s] = true
	}
	var out []models.AssetDailyState
	for _, st := range m.states {
		if match[st.CurrentState] {
			out = append(out, *st)
		}
	}
	return out, nil
}

func (m *memStore) DeleteDailyState(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, st := range m.states {
		if st.ID == id {
			delete(m.states, key)
			return nil
		}
	}
	return nil
}

func (m *memStore) InsertAudit(_ context.Context, audit *models.AssetStateAudit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if audit.ID.IsZero() {
		audit.ID = primitive.NewObjectID()
	}
	m.audits = append(m.audits, *audit)
	return nil
}

func (m *memStore) ListAuditsByUser(_ context.Context, userID primitive.ObjectID) ([]models.AssetStateAudit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AssetStateAudit
	for _, a := range m.audits {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) DeleteAuditsForUserDate(_ context.Context, userID primitive.ObjectID, date string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []models.AssetStateAudit
	var deleted int64
	for _, a := range m.audits {
		if a.UserID == userID && a.Date == date {
			deleted++
			continue
		}
		kept = append(kept, a)
	}
	m.audits = kept
	return deleted, nil
}

func (m *memStore) HasDailyResetMarker(_ context.Context, date string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.audits {
		if a.AssetType == models.DailyResetMarkerType && a.Date == date {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) InsertIncident(_ context.Context, incident *models.AssetIncident) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if incident.ID.IsZero() {
		incident.ID = primitive.NewObjectID()
	}
	copied := *incident
	m.incidents[incident.ID] = &copied
	return nil
}

func (m *memStore) GetIncident(_ context.Context, id primitive.ObjectID) (*models.AssetIncident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inc, ok := m.incidents[id]; ok {
		copied := *inc
		return &copied, nil
	}
	return nil, nil
}

func (m *memStore) ListIncidents(_ context.Context, status string) ([]models.AssetIncident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AssetIncident
	for _, inc := range m.incidents {
		if status == "" || inc.Status == status {
			out = append(out, *inc)
		}
	}
	return out, nil
}

func (m *memStore) FindOpenIncident(_ context.Context, userID primitive.ObjectID, assetType string) (*models.AssetIncident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inc := range m.incidents {
		if inc.UserID == userID && inc.AssetType == assetType && inc.Status == models.IncidentOpen {
			copied := *inc
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memStore) ResolveIncident(_ context.Context, id primitive.ObjectID, resolution string, resolvedBy primitive.ObjectID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc, ok := m.incidents[id]
	if !ok || inc.Status != models.IncidentOpen {
		return &NotFoundError{Message: "open incident not found"}
	}
	inc.Status = models.IncidentResolved
	inc.Resolution = resolution
	inc.ResolvedBy = resolvedBy
	inc.ResolvedAt = &at
	return nil
}

func (m *memStore) ResolveOpenIncidents(_ context.Context, userID primitive.ObjectID, assetType, resolution string, resolvedBy primitive.ObjectID, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var resolved int64
	for _, inc := range m.incidents {
		if inc.UserID == userID && inc.AssetType == assetType && inc.Status == models.IncidentOpen {
			inc.Status = models.IncidentResolved
			inc.Resolution = resolution
			inc.ResolvedBy = resolvedBy
			inc.ResolvedAt = &at
			resolved++
		}
	}
	return resolved, nil
}

func (m *memStore) UpsertLossRecord(_ context.Context, record *models.AssetLossRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	copied := *record
	m.losses[lossKey(record.UserID, record.AssetType, record.DateLost)] = &copied
	return nil
}

func (m *memStore) DeleteLossRecord(_ context.Context, userID primitive.ObjectID, assetType, dateLost string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.losses, lossKey(userID, assetType, dateLost))
	return nil
}

func (m *memStore) ListLossRecordsByDate(_ context.Context, dateLost string) ([]models.AssetLossRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AssetLossRecord
	for _, loss := range m.losses {
		if loss.DateLost == dateLost {
			out = append(out, *loss)
		}
	}
	return out, nil
}

func (m *memStore) UpsertHistoricalRecord(_ context.Context, record *models.HistoricalAssetRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.historical[record.Date]; ok {
		record.ID = existing.ID
	} else if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	copied := *record
	m.historical[record.Date] = &copied
	return nil
}

func (m *memStore) GetHistoricalRecord(_ context.Context, date string) (*models.HistoricalAssetRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.historical[date]; ok {
		copied := *rec
		return &copied, nil
	}
	return nil, nil
}

func (m *memStore) GetUser(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, nil
}

func (m *memStore) lossRecord(userID primitive.ObjectID, assetType, dateLost string) *models.AssetLossRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if loss, ok := m.losses[lossKey(userID, assetType, dateLost)]; ok {
		copied := *loss
		return &copied
	}
	return nil
}

func (m *memStore) incidentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.incidents)
}

// capturingNotifier records published events for assertions.
type capturingNotifier struct {
	mu     sync.Mutex
	events []AssetEvent
}

func (n *capturingNotifier) PublishAssetEvent(event AssetEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *capturingNotifier) Events() []AssetEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]AssetEvent, len(n.events))
	copy(out, n.events)
	return out
}
