package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/talentscore/internal/domain/model"
	"github.com/okian/talentscore/pkg/metrics"
)

// GormStore is the PostgreSQL backend.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an already opened gorm handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// OpenPostgres connects to PostgreSQL and migrates the record tables.
func OpenPostgres(ctx context.Context, dsn string, debug bool) (*GormStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres: %w", ErrMissingDSN)
	}

	level := gormlogger.Silent
	if debug {
		level = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(
		&model.Candidate{},
		&model.Assessment{},
		&model.Interview{},
	); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return NewGormStore(db), nil
}

// groupQuery builds the per-type aggregate over valid completed records.
func (s *GormStore) groupQuery(ctx context.Context, candidateID string) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&model.Assessment{}).
		Select("type, AVG(score) AS avg_score, COUNT(*) AS count, MAX(completed_at) AS last_completed_at").
		Where("candidate_id = ? AND completed_at IS NOT NULL", candidateID).
		Where("score BETWEEN ? AND ?", model.MinScore, model.MaxScore).
		Group("type").
		Order("type")
}

// GroupCompletedByType implements AssessmentProvider.
func (s *GormStore) GroupCompletedByType(ctx context.Context, candidateID string) ([]model.TypeGroup, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(BackendPostgres, float64(time.Since(start).Milliseconds())) }()

	var rows []model.TypeGroup
	if err := s.groupQuery(ctx, candidateID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("postgres: group assessments: %w", err)
	}
	return rows, nil
}

// CountAssessments implements AssessmentProvider.
func (s *GormStore) CountAssessments(ctx context.Context, candidateID string) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&model.Assessment{}).
		Where("candidate_id = ?", candidateID).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("postgres: count assessments: %w", err)
	}
	return int(n), nil
}

// ListInterviews implements InterviewProvider.
func (s *GormStore) ListInterviews(ctx context.Context, candidateID string) ([]model.Interview, error) {
	var out []model.Interview
	err := s.db.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		Order("scheduled_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("postgres: list interviews: %w", err)
	}
	return out, nil
}

// ListAssessments implements RecordLister.
func (s *GormStore) ListAssessments(ctx context.Context, candidateID string) ([]model.Assessment, error) {
	var out []model.Assessment
	err := s.db.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("postgres: list assessments: %w", err)
	}
	return out, nil
}

// GetCandidate implements CandidateProvider.
func (s *GormStore) GetCandidate(ctx context.Context, candidateID string) (model.Candidate, error) {
	var c model.Candidate
	err := s.db.WithContext(ctx).Where("id = ?", candidateID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Candidate{}, ErrNotFound
	}
	if err != nil {
		return model.Candidate{}, fmt.Errorf("postgres: get candidate: %w", err)
	}
	return c, nil
}

// upsert inserts value or overwrites the listed columns of the existing row.
func (s *GormStore) upsert(ctx context.Context, value any, columns ...string) *gorm.DB {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(columns),
		}).
		Create(value)
}

// SaveAssessment implements Writer. The creation time of an existing row is kept.
func (s *GormStore) SaveAssessment(ctx context.Context, a model.Assessment) error {
	err := s.upsert(ctx, &a, "candidate_id", "type", "score", "completed_at", "updated_at").Error
	if err != nil {
		return fmt.Errorf("postgres: save assessment %s: %w", a.ID, err)
	}
	return nil
}

// SaveInterview implements Writer.
func (s *GormStore) SaveInterview(ctx context.Context, i model.Interview) error {
	err := s.upsert(ctx, &i, "candidate_id", "scheduled_at", "type", "status", "score", "interviewer_name").Error
	if err != nil {
		return fmt.Errorf("postgres: save interview %s: %w", i.ID, err)
	}
	return nil
}

// SaveCandidate implements Writer.
func (s *GormStore) SaveCandidate(ctx context.Context, c model.Candidate) error {
	if err := s.upsert(ctx, &c, "name", "email").Error; err != nil {
		return fmt.Errorf("postgres: save candidate %s: %w", c.ID, err)
	}
	return nil
}

// Stats implements Store.
func (s *GormStore) Stats(ctx context.Context) (Stats, error) {
	var c, a, i int64
	db := s.db.WithContext(ctx)
	if err := db.Model(&model.Candidate{}).Count(&c).Error; err != nil {
		return Stats{}, fmt.Errorf("postgres: count candidates: %w", err)
	}
	if err := db.Model(&model.Assessment{}).Count(&a).Error; err != nil {
		return Stats{}, fmt.Errorf("postgres: count assessments: %w", err)
	}
	if err := db.Model(&model.Interview{}).Count(&i).Error; err != nil {
		return Stats{}, fmt.Errorf("postgres: count interviews: %w", err)
	}
	return Stats{Candidates: int(c), Assessments: int(a), Interviews: int(i)}, nil
}

// Close implements Store.
func (s *GormStore) Close(_ context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("postgres: close: %w", err)
	}
	return sqlDB.Close()
}
