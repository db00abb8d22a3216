package assets

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tsiemasilo/pulse-app-system-sub000/models"
)

// MongoStore implements Store on top of the shared MongoDB database.
type MongoStore struct {
	dailyStates *mongo.Collection
	audits      *mongo.Collection
	incidents   *mongo.Collection
	lossRecords *mongo.Collection
	historical  *mongo.Collection
	users       *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		dailyStates: db.Collection("asset_daily_states"),
		audits:      db.Collection("asset_state_audits"),
		incidents:   db.Collection("asset_incidents"),
		lossRecords: db.Collection("asset_loss_records"),
		historical:  db.Collection("historical_asset_records"),
		users:       db.Collection("users"),
	}
}

func (s *MongoStore) GetDailyState(ctx context.Context, userID primitive.ObjectID, date, assetType string) (*models.AssetDailyState, error) {
	var state models.AssetDailyState
	err := s.dailyStates.FindOne(ctx, bson.M{"userId": userID, "date": date, "assetType": assetType}).Decode(&state)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, persistence("find daily state", err)
	}
	return &state, nil
}

func (s *MongoStore) UpsertDailyState(ctx context.Context, state *models.AssetDailyState) error {
	filter := bson.M{"userId": state.UserID, "date": state.Date, "assetType": state.AssetType}
	update := bson.M{"$set": bson.M{
		"currentState": state.CurrentState,
		"confirmedBy":  state.ConfirmedBy,
		"confirmedAt":  state.ConfirmedAt,
		"reason":       state.Reason,
		"agentName":    state.AgentName,
	}, "$setOnInsert": filter}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var updated models.AssetDailyState
	if err := s.dailyStates.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		return persistence("upsert daily state", err)
	}
	state.ID = updated.ID
	return nil
}

func (s *MongoStore) ListDailyStatesByDate(ctx context.Context, date string) ([]models.AssetDailyState, error) {
	return s.findDailyStates(ctx, bson.M{"date": date})
}

func (s *MongoStore) ListDailyStatesForUserDate(ctx context.Context, userID primitive.ObjectID, date string) ([]models.AssetDailyState, error) {
	return s.findDailyStates(ctx, bson.M{"userId": userID, "date": date})
}

func (s *MongoStore) ListDailyStatesInStates(ctx context.Context, states []string) ([]models.AssetDailyState, error) {
	return s.findDailyStates(ctx, bson.M{"currentState": bson.M{"$in": states}})
}

func (s *MongoStore) findDailyStates(ctx context.Context, filter bson.M) ([]models.AssetDailyState, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "agentName", Value: 1}})
	cursor, err := s.dailyStates.Find(ctx, filter, opts)
	if err != nil {
		return nil, persistence("find daily states", err)
	}
	defer cursor.Close(ctx)

	var states []models.AssetDailyState
	if err = cursor.All(ctx, &states); err != nil {
		return nil, persistence("decode daily states", err)
	}
	return states, nil
}

func (s *MongoStore) DeleteDailyState(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.dailyStates.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return persistence("delete daily state", err)
	}
	return nil
}

func (s *MongoStore) InsertAudit(ctx context.Context, audit *models.AssetStateAudit) error {
	if audit.ID.IsZero() {
		audit.ID = primitive.NewObjectID()
	}
	if _, err := s.audits.InsertOne(ctx, audit); err != nil {
		return persistence("insert audit", err)
	}
	return nil
}

func (s *MongoStore) ListAuditsByUser(ctx context.Context, userID primitive.ObjectID) ([]models.AssetStateAudit, error) {
	opts := options.Find().SetSort(bson.D{{Key: "changedAt", Value: 1}})
	cursor, err := s.audits.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, persistence("find audits", err)
	}
	defer cursor.Close(ctx)

	var audits []models.AssetStateAudit
	if err = cursor.All(ctx, &audits); err != nil {
		return nil, persistence("decode audits", err)
	}
	return audits, nil
}

func (s *MongoStore) DeleteAuditsForUserDate(ctx context.Context, userID primitive.ObjectID, date string) (int64, error) {
	res, err := s.audits.DeleteMany(ctx, bson.M{"userId": userID, "date": date})
	if err != nil {
		return 0, persistence("delete audits", err)
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) HasDailyResetMarker(ctx context.Context, date string) (bool, error) {
	count, err := s.audits.CountDocuments(ctx, bson.M{
		"assetType": models.DailyResetMarkerType,
		"date":      date,
	})
	if err != nil {
		return false, persistence("count reset markers", err)
	}
	return count > 0, nil
}

func (s *MongoStore) InsertIncident(ctx context.Context, incident *models.AssetIncident) error {
	if incident.ID.IsZero() {
		incident.ID = primitive.NewObjectID()
	}
	if _, err := s.incidents.InsertOne(ctx, incident); err != nil {
		return persistence("insert incident", err)
	}
	return nil
}

func (s *MongoStore) GetIncident(ctx context.Context, id primitive.ObjectID) (*models.AssetIncident, error) {
	var incident models.AssetIncident
	err := s.incidents.FindOne(ctx, bson.M{"_id": id}).Decode(&incident)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, persistence("find incident", err)
	}
	return &incident, nil
}

func (s *MongoStore) ListIncidents(ctx context.Context, status string) ([]models.AssetIncident, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.incidents.Find(ctx, filter, opts)
	if err != nil {
		return nil, persistence("find incidents", err)
	}
	defer cursor.Close(ctx)

	var incidents []models.AssetIncident
	if err = cursor.All(ctx, &incidents); err != nil {
		return nil, persistence("decode incidents", err)
	}
	return incidents, nil
}

func (s *MongoStore) FindOpenIncident(ctx context.Context, userID primitive.ObjectID, assetType string) (*models.AssetIncident, error) {
	var incident models.AssetIncident
	err := s.incidents.FindOne(ctx, bson.M{
		"userId":    userID,
		"assetType": assetType,
		"status":    models.IncidentOpen,
	}).Decode(&incident)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, persistence("find open incident", err)
	}
	return &incident, nil
}

func (s *MongoStore) ResolveIncident(ctx context.Context, id primitive.ObjectID, resolution string, resolvedBy primitive.ObjectID, at time.Time) error {
	res, err := s.incidents.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.IncidentOpen},
		bson.M{"$set": bson.M{
			"status":     models.IncidentResolved,
			"resolution": resolution,
			"resolvedBy": resolvedBy,
			"resolvedAt": at,
		}})
	if err != nil {
		return persistence("resolve incident", err)
	}
	if res.MatchedCount == 0 {
		return &NotFoundError{Message: "open incident not found"}
	}
	return nil
}

func (s *MongoStore) ResolveOpenIncidents(ctx context.Context, userID primitive.ObjectID, assetType, resolution string, resolvedBy primitive.ObjectID, at time.Time) (int64, error) {
	res, err := s.incidents.UpdateMany(ctx,
		bson.M{"userId": userID, "assetType": assetType, "status": models.IncidentOpen},
		bson.M{"$set": bson.M{
			"status":     models.IncidentResolved,
			"resolution": resolution,
			"resolvedBy": resolvedBy,
			"resolvedAt": at,
		}})
	if err != nil {
		return 0, persistence("resolve open incidents", err)
	}
	return res.ModifiedCount, nil
}

func (s *MongoStore) UpsertLossRecord(ctx context.Context, record *models.AssetLossRecord) error {
	filter := bson.M{"userId": record.UserID, "assetType": record.AssetType, "dateLost": record.DateLost}
	update := bson.M{"$set": bson.M{
		"agentName":  record.AgentName,
		"reason":     record.Reason,
		"reportedBy": record.ReportedBy,
		"createdAt":  record.CreatedAt,
	}, "$setOnInsert": filter}
	opts := options.Update().SetUpsert(true)
	if _, err := s.lossRecords.UpdateOne(ctx, filter, update, opts); err != nil {
		return persistence("upsert loss record", err)
	}
	return nil
}

func (s *MongoStore) DeleteLossRecord(ctx context.Context, userID primitive.ObjectID, assetType, dateLost string) error {
	_, err := s.lossRecords.DeleteMany(ctx, bson.M{"userId": userID, "assetType": assetType, "dateLost": dateLost})
	if err != nil {
		return persistence("delete loss record", err)
	}
	return nil
}

func (s *MongoStore) ListLossRecordsByDate(ctx context.Context, dateLost string) ([]models.AssetLossRecord, error) {
	cursor, err := s.lossRecords.Find(ctx, bson.M{"dateLost": dateLost})
	if err != nil {
		return nil, persistence("find loss records", err)
	}
	defer cursor.Close(ctx)

	var records []models.AssetLossRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, persistence("decode loss records", err)
	}
	return records, nil
}

func (s *MongoStore) UpsertHistoricalRecord(ctx context.Context, record *models.HistoricalAssetRecord) error {
	filter := bson.M{"date": record.Date}
	update := bson.M{"$set": bson.M{
		"bookInRecords":  record.BookInRecords,
		"bookOutRecords": record.BookOutRecords,
		"lostAssets":     record.LostAssets,
		"updatedAt":      record.UpdatedAt,
	}, "$setOnInsert": filter}
	opts := options.Update().SetUpsert(true)
	if _, err := s.historical.UpdateOne(ctx, filter, update, opts); err != nil {
		return persistence("upsert historical record", err)
	}
	return nil
}

func (s *MongoStore) GetHistoricalRecord(ctx context.Context, date string) (*models.HistoricalAssetRecord, error) {
	var record models.HistoricalAssetRecord
	err := s.historical.FindOne(ctx, bson.M{"date": date}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, persistence("find historical record", err)
	}
	return &record, nil
}

func (s *MongoStore) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, persistence("find user", err)
	}
	return &user, nil
}
