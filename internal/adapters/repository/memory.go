package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/talentscore/internal/domain/model"
	"github.com/okian/talentscore/pkg/metrics"
)

// entry keeps insertion order next to a stored record.
type entry[T any] struct {
	seq uint64
	rec T
}

// records indexes one record kind by candidate and by id.
type records[T any] struct {
	byCandidate map[string]map[string]entry[T]
	owner       map[string]string // record id -> candidate id
}

func newRecords[T any]() records[T] {
	return records[T]{
		byCandidate: make(map[string]map[string]entry[T]),
		owner:       make(map[string]string),
	}
}

// get returns the record stored under id.
func (r *records[T]) get(id string) (T, bool) {
	e, ok := r.byCandidate[r.owner[id]][id]
	return e.rec, ok
}

// put stores rec under id, moving it if its candidate changed. A replaced
// record keeps its original position.
func (r *records[T]) put(candidateID, id string, seq uint64, rec T) {
	if old, ok := r.owner[id]; ok {
		if e, ok := r.byCandidate[old][id]; ok {
			seq = e.seq
		}
		if old != candidateID {
			delete(r.byCandidate[old], id)
			if len(r.byCandidate[old]) == 0 {
				delete(r.byCandidate, old)
			}
		}
	}
	m, ok := r.byCandidate[candidateID]
	if !ok {
		m = make(map[string]entry[T])
		r.byCandidate[candidateID] = m
	}
	m[id] = entry[T]{seq: seq, rec: rec}
	r.owner[id] = candidateID
}

// list returns the candidate's records in insertion order.
func (r *records[T]) list(candidateID string) []T {
	m := r.byCandidate[candidateID]
	entries := make([]entry[T], 0, len(m))
	for _, e := range m {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	out := make([]T, len(entries))
	for i, e := range entries {
		out[i] = e.rec
	}
	return out
}

// MemoryStore keeps all records in process memory. It is the default
// backend and the one used by tests.
type MemoryStore struct {
	mu          sync.RWMutex
	closed      bool
	seq         uint64
	now         func() time.Time
	candidates  map[string]model.Candidate
	assessments records[model.Assessment]
	interviews  records[model.Interview]
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:         time.Now,
		candidates:  make(map[string]model.Candidate),
		assessments: newRecords[model.Assessment](),
		interviews:  newRecords[model.Interview](),
	}
}

// GroupCompletedByType implements AssessmentProvider.
func (s *MemoryStore) GroupCompletedByType(ctx context.Context, candidateID string) ([]model.TypeGroup, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(BackendMemory, float64(time.Since(start).Milliseconds())) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	type acc struct {
		sum   float64
		count int
		last  *time.Time
	}
	groups := make(map[string]*acc)
	for _, e := range s.assessments.byCandidate[candidateID] {
		a := e.rec
		if !a.ValidCompleted() {
			continue
		}
		g, ok := groups[a.Type]
		if !ok {
			g = &acc{}
			groups[a.Type] = g
		}
		g.sum += a.Score
		g.count++
		if g.last == nil || a.CompletedAt.After(*g.last) {
			t := *a.CompletedAt
			g.last = &t
		}
	}

	out := make([]model.TypeGroup, 0, len(groups))
	for typ, g := range groups {
		out = append(out, model.TypeGroup{
			Type:            typ,
			AvgScore:        g.sum / float64(g.count),
			Count:           g.count,
			LastCompletedAt: g.last,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

// CountAssessments implements AssessmentProvider.
func (s *MemoryStore) CountAssessments(ctx context.Context, candidateID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return 0, err
	}
	return len(s.assessments.byCandidate[candidateID]), nil
}

// ListInterviews implements InterviewProvider.
func (s *MemoryStore) ListInterviews(ctx context.Context, candidateID string) ([]model.Interview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	out := s.interviews.list(candidateID)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

// ListAssessments implements RecordLister.
func (s *MemoryStore) ListAssessments(ctx context.Context, candidateID string) ([]model.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return s.assessments.list(candidateID), nil
}

// GetCandidate implements CandidateProvider.
func (s *MemoryStore) GetCandidate(ctx context.Context, candidateID string) (model.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return model.Candidate{}, err
	}
	c, ok := s.candidates[candidateID]
	if !ok {
		return model.Candidate{}, ErrNotFound
	}
	return c, nil
}

// SaveAssessment implements Writer.
func (s *MemoryStore) SaveAssessment(ctx context.Context, a model.Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	now := s.now()
	if prev, ok := s.assessments.get(a.ID); ok {
		a.CreatedAt = prev.CreatedAt
	} else if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	s.seq++
	s.assessments.put(a.CandidateID, a.ID, s.seq, a)
	return nil
}

// SaveInterview implements Writer.
func (s *MemoryStore) SaveInterview(ctx context.Context, i model.Interview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	s.seq++
	s.interviews.put(i.CandidateID, i.ID, s.seq, i)
	return nil
}

// SaveCandidate implements Writer.
func (s *MemoryStore) SaveCandidate(ctx context.Context, c model.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	s.candidates[c.ID] = c
	return nil
}

// Stats implements Store.
func (s *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return Stats{}, err
	}
	return Stats{
		Candidates:  len(s.candidates),
		Assessments: len(s.assessments.owner),
		Interviews:  len(s.interviews.owner),
	}, nil
}

// Close implements Store. Further calls fail with ErrClosed.
func (s *MemoryStore) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// check must be called with s.mu held.
func (s *MemoryStore) check(ctx context.Context) error {
	if s.closed {
		return ErrClosed
	}
	return ctx.Err()
}
