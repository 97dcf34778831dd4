package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/okian/talentscore/internal/domain/model"
	"github.com/okian/talentscore/pkg/metrics"
)

// Collection names.
const (
	collAssessments = "assessments"
	collInterviews  = "interviews"
	collCandidates  = "candidates"
)

// MongoStore is the MongoDB backend.
type MongoStore struct {
	client      *mongo.Client
	assessments *mongo.Collection
	interviews  *mongo.Collection
	candidates  *mongo.Collection
	now         func() time.Time
}

// OpenMongo connects to MongoDB, verifies the connection and ensures the
// query indexes exist.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo: %w", ErrMissingDSN)
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	s := NewMongoStore(client, database)
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// NewMongoStore binds the store to database on an existing client.
func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	db := client.Database(database)
	return &MongoStore{
		client:      client,
		assessments: db.Collection(collAssessments),
		interviews:  db.Collection(collInterviews),
		candidates:  db.Collection(collCandidates),
		now:         time.Now,
	}
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.assessments.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "candidateId", Value: 1}, {Key: "completedAt", Value: 1}}},
		{Keys: bson.D{{Key: "candidateId", Value: 1}, {Key: "type", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo: assessment indexes: %w", err)
	}
	_, err = s.interviews.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "candidateId", Value: 1}, {Key: "scheduledAt", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("mongo: interview indexes: %w", err)
	}
	return nil
}

// groupPipeline matches the candidate's valid completed assessments and
// groups them by type.
func groupPipeline(candidateID string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "candidateId", Value: candidateID},
			{Key: "completedAt", Value: bson.D{{Key: "$ne", Value: nil}}},
		}}},
		{{Key: "$match", Value: bson.D{
			{Key: "score", Value: bson.D{
				{Key: "$gte", Value: model.MinScore},
				{Key: "$lte", Value: model.MaxScore},
			}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$type"},
			{Key: "avgScore", Value: bson.D{{Key: "$avg", Value: "$score"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "lastCompletedAt", Value: bson.D{{Key: "$max", Value: "$completedAt"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
}

// GroupCompletedByType implements AssessmentProvider.
func (s *MongoStore) GroupCompletedByType(ctx context.Context, candidateID string) ([]model.TypeGroup, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(BackendMongo, float64(time.Since(start).Milliseconds())) }()

	cur, err := s.assessments.Aggregate(ctx, groupPipeline(candidateID))
	if err != nil {
		return nil, fmt.Errorf("mongo: group assessments: %w", err)
	}
	var rows []model.TypeGroup
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("mongo: decode groups: %w", err)
	}
	return rows, nil
}

// CountAssessments implements AssessmentProvider.
func (s *MongoStore) CountAssessments(ctx context.Context, candidateID string) (int, error) {
	n, err := s.assessments.CountDocuments(ctx, bson.M{"candidateId": candidateID})
	if err != nil {
		return 0, fmt.Errorf("mongo: count assessments: %w", err)
	}
	return int(n), nil
}

// ListInterviews implements InterviewProvider.
func (s *MongoStore) ListInterviews(ctx context.Context, candidateID string) ([]model.Interview, error) {
	cur, err := s.interviews.Find(ctx, bson.M{"candidateId": candidateID},
		options.Find().SetSort(bson.D{{Key: "scheduledAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo: list interviews: %w", err)
	}
	var out []model.Interview
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("mongo: decode interviews: %w", err)
	}
	return out, nil
}

// ListAssessments implements RecordLister.
func (s *MongoStore) ListAssessments(ctx context.Context, candidateID string) ([]model.Assessment, error) {
	cur, err := s.assessments.Find(ctx, bson.M{"candidateId": candidateID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo: list assessments: %w", err)
	}
	var out []model.Assessment
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("mongo: decode assessments: %w", err)
	}
	return out, nil
}

// GetCandidate implements CandidateProvider.
func (s *MongoStore) GetCandidate(ctx context.Context, candidateID string) (model.Candidate, error) {
	var c model.Candidate
	err := s.candidates.FindOne(ctx, bson.M{"_id": candidateID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Candidate{}, ErrNotFound
	}
	if err != nil {
		return model.Candidate{}, fmt.Errorf("mongo: get candidate: %w", err)
	}
	return c, nil
}

// assessmentUpdate sets every field and stamps createdAt only on insert.
func assessmentUpdate(a model.Assessment, now time.Time) bson.D {
	created := a.CreatedAt
	if created.IsZero() {
		created = now
	}
	return bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "candidateId", Value: a.CandidateID},
			{Key: "type", Value: a.Type},
			{Key: "score", Value: a.Score},
			{Key: "completedAt", Value: a.CompletedAt},
			{Key: "updatedAt", Value: now},
		}},
		{Key: "$setOnInsert", Value: bson.D{{Key: "createdAt", Value: created}}},
	}
}

// SaveAssessment implements Writer.
func (s *MongoStore) SaveAssessment(ctx context.Context, a model.Assessment) error {
	_, err := s.assessments.UpdateOne(ctx, bson.M{"_id": a.ID}, assessmentUpdate(a, s.now()),
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo: save assessment %s: %w", a.ID, err)
	}
	return nil
}

// SaveInterview implements Writer.
func (s *MongoStore) SaveInterview(ctx context.Context, i model.Interview) error {
	_, err := s.interviews.ReplaceOne(ctx, bson.M{"_id": i.ID}, i, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo: save interview %s: %w", i.ID, err)
	}
	return nil
}

// SaveCandidate implements Writer.
func (s *MongoStore) SaveCandidate(ctx context.Context, c model.Candidate) error {
	_, err := s.candidates.ReplaceOne(ctx, bson.M{"_id": c.ID}, c, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo: save candidate %s: %w", c.ID, err)
	}
	return nil
}

// Stats implements Store. Counts come from collection metadata and may lag.
func (s *MongoStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	for _, c := range []struct {
		coll *mongo.Collection
		dst  *int
	}{
		{s.candidates, &st.Candidates},
		{s.assessments, &st.Assessments},
		{s.interviews, &st.Interviews},
	} {
		n, err := c.coll.EstimatedDocumentCount(ctx)
		if err != nil {
			return Stats{}, fmt.Errorf("mongo: count %s: %w", c.coll.Name(), err)
		}
		*c.dst = int(n)
	}
	return st, nil
}

// Close implements Store.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
