package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a process-local Store. It backs local runs without a
// database and the package tests of its callers. It follows the same
// revision rules as PostgresStore.
type MemoryStore struct {
	mu          sync.RWMutex
	rubrics     map[uuid.UUID]*Rubric
	submissions map[uuid.UUID]*Submission
	scores      map[uuid.UUID][]*RawScore
	consensus   map[uuid.UUID]map[string]*Consensus
	prequals    map[string]*Prequalification
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rubrics:     make(map[uuid.UUID]*Rubric),
		submissions: make(map[uuid.UUID]*Submission),
		scores:      make(map[uuid.UUID][]*RawScore),
		consensus:   make(map[uuid.UUID]map[string]*Consensus),
		prequals:    make(map[string]*Prequalification),
	}
}

func (m *MemoryStore) CreateRubric(_ context.Context, r *Rubric) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool, len(r.Criteria))
	for _, c := range r.Criteria {
		if seen[c.Key] {
			return fmt.Errorf("insert criterion %s: duplicate key", c.Key)
		}
		seen[c.Key] = true
	}

	now := time.Now().UTC()
	r.ID = uuid.New()
	r.CreatedAt, r.UpdatedAt = now, now
	for i := range r.Criteria {
		r.Criteria[i].RubricID = r.ID
		r.Criteria[i].Position = i
	}
	cp := *r
	cp.Criteria = append([]Criterion(nil), r.Criteria...)
	m.rubrics[r.ID] = &cp
	return nil
}

func (m *MemoryStore) GetRubric(_ context.Context, id uuid.UUID) (*Rubric, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rubrics[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	cp.Criteria = append([]Criterion(nil), r.Criteria...)
	return &cp, nil
}

func (m *MemoryStore) ListCriteria(_ context.Context, rubricID uuid.UUID) ([]Criterion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rubrics[rubricID]
	if !ok {
		return nil, nil
	}
	return append([]Criterion(nil), r.Criteria...), nil
}

func (m *MemoryStore) CreateSubmission(_ context.Context, s *Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rubrics[s.RubricID]; !ok {
		return fmt.Errorf("insert submission: rubric %s does not exist", s.RubricID)
	}
	if s.Status == "" {
		s.Status = SubmissionSubmitted
	}
	now := time.Now().UTC()
	s.ID = uuid.New()
	s.Revision = 0
	s.ScoredRevision = -1
	s.Aggregates = nil
	s.ScoredAt = nil
	s.CreatedAt, s.UpdatedAt = now, now
	cp := *s
	m.submissions[s.ID] = &cp
	return nil
}

func (m *MemoryStore) GetSubmission(_ context.Context, id uuid.UUID) (*Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.submissions[id]
	if !ok {
		return nil, nil
	}
	return copySubmission(s), nil
}

func (m *MemoryStore) ListSubmissions(_ context.Context, filter SubmissionFilter) ([]*Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Submission
	for _, s := range m.submissions {
		if filter.RubricID != nil && s.RubricID != *filter.RubricID {
			continue
		}
		if filter.VendorID != "" && s.VendorID != filter.VendorID {
			continue
		}
		if filter.Status != nil && s.Status != *filter.Status {
			continue
		}
		out = append(out, copySubmission(s))
	}
	sortSubmissions(out, func(s *Submission) time.Time { return s.CreatedAt })

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) SaveSubmissionScores(_ context.Context, id uuid.UUID, agg SubmissionAggregates, revision int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[id]
	if !ok || s.ScoredRevision >= revision {
		return false, nil
	}
	a := agg
	now := time.Now().UTC()
	s.Aggregates = &a
	s.ScoredRevision = revision
	s.ScoredAt = &now
	return true, nil
}

func (m *MemoryStore) ListStaleSubmissions(_ context.Context, limit int) ([]*Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}
	var out []*Submission
	for _, s := range m.submissions {
		if s.ScoredRevision < s.Revision {
			out = append(out, copySubmission(s))
		}
	}
	sortSubmissions(out, func(s *Submission) time.Time { return s.UpdatedAt })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// bump must be called with the write lock held.
func (m *MemoryStore) bump(id uuid.UUID) (int, error) {
	s, ok := m.submissions[id]
	if !ok {
		return 0, fmt.Errorf("submission %s not found", id)
	}
	s.Revision++
	s.UpdatedAt = time.Now().UTC()
	return s.Revision, nil
}

func (m *MemoryStore) RecordScore(_ context.Context, sc *RawScore) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.submissions[sc.SubmissionID]; !ok {
		return 0, fmt.Errorf("submission %s not found", sc.SubmissionID)
	}

	now := time.Now().UTC()
	existing := m.scores[sc.SubmissionID]
	found := false
	for _, e := range existing {
		if e.EvaluatorID == sc.EvaluatorID && e.CriterionKey == sc.CriterionKey {
			e.Value = sc.Value
			e.Comment = sc.Comment
			e.UpdatedAt = now
			sc.ID, sc.CreatedAt, sc.UpdatedAt = e.ID, e.CreatedAt, now
			found = true
			break
		}
	}
	if !found {
		sc.ID = uuid.New()
		sc.CreatedAt, sc.UpdatedAt = now, now
		cp := *sc
		m.scores[sc.SubmissionID] = append(existing, &cp)
	}
	return m.bump(sc.SubmissionID)
}

func (m *MemoryStore) ListScores(_ context.Context, submissionID uuid.UUID) ([]*RawScore, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*RawScore
	for _, sc := range m.scores[submissionID] {
		cp := *sc
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryStore) UpsertConsensus(_ context.Context, c *Consensus) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.submissions[c.SubmissionID]; !ok {
		return 0, fmt.Errorf("submission %s not found", c.SubmissionID)
	}
	if m.consensus[c.SubmissionID] == nil {
		m.consensus[c.SubmissionID] = make(map[string]*Consensus)
	}
	c.UpdatedAt = time.Now().UTC()
	cp := *c
	m.consensus[c.SubmissionID][c.CriterionKey] = &cp
	return m.bump(c.SubmissionID)
}

func (m *MemoryStore) DeleteConsensus(_ context.Context, submissionID uuid.UUID, criterionKey string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.submissions[submissionID]; !ok {
		return 0, fmt.Errorf("submission %s not found", submissionID)
	}
	delete(m.consensus[submissionID], criterionKey)
	return m.bump(submissionID)
}

// ListConsensus orders entries by criterion position, orphans last.
func (m *MemoryStore) ListConsensus(_ context.Context, submissionID uuid.UUID) ([]*Consensus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	position := map[string]int{}
	if s, ok := m.submissions[submissionID]; ok {
		if r, ok := m.rubrics[s.RubricID]; ok {
			for _, c := range r.Criteria {
				position[c.Key] = c.Position
			}
		}
	}

	var out []*Consensus
	for _, c := range m.consensus[submissionID] {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		pi, iok := position[out[i].CriterionKey]
		pj, jok := position[out[j].CriterionKey]
		if iok != jok {
			return iok
		}
		if pi != pj {
			return pi < pj
		}
		return out[i].CriterionKey < out[j].CriterionKey
	})
	return out, nil
}

func (m *MemoryStore) SavePrequalification(_ context.Context, p *Prequalification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.prequals[p.VendorID]; ok {
		p.ID = existing.ID
	} else {
		p.ID = uuid.New()
	}
	p.SubmittedAt = time.Now().UTC()
	cp := *p
	m.prequals[p.VendorID] = &cp
	return nil
}

func (m *MemoryStore) GetPrequalification(_ context.Context, vendorID string) (*Prequalification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.prequals[vendorID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) Close() error { return nil }

func copySubmission(s *Submission) *Submission {
	cp := *s
	if s.Aggregates != nil {
		a := *s.Aggregates
		cp.Aggregates = &a
	}
	if s.ScoredAt != nil {
		t := *s.ScoredAt
		cp.ScoredAt = &t
	}
	return &cp
}

func sortSubmissions(subs []*Submission, key func(*Submission) time.Time) {
	sort.Slice(subs, func(i, j int) bool {
		ki, kj := key(subs[i]), key(subs[j])
		if !ki.Equal(kj) {
			return ki.Before(kj)
		}
		return subs[i].ID.String() < subs[j].ID.String()
	})
}
