package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// --- Rubrics ---

func (s *PostgresStore) CreateRubric(ctx context.Context, r *Rubric) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO tally_rubrics (rfp_id, name, description)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		r.RFPID, r.Name, r.Description,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert rubric: %w", err)
	}

	for i := range r.Criteria {
		c := &r.Criteria[i]
		c.RubricID = r.ID
		c.Position = i
		if _, err := tx.Exec(ctx, `
			INSERT INTO tally_criteria (rubric_id, key, label, section, weight, scale_min, scale_max, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			c.RubricID, c.Key, c.Label, c.Section, c.Weight, c.ScaleMin, c.ScaleMax, c.Position,
		); err != nil {
			return fmt.Errorf("insert criterion %s: %w", c.Key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit rubric: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetRubric(ctx context.Context, id uuid.UUID) (*Rubric, error) {
	r := &Rubric{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, rfp_id, name, description, created_at, updated_at
		FROM tally_rubrics WHERE id = $1`, id,
	).Scan(&r.ID, &r.RFPID, &r.Name, &r.Description, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	r.Criteria, err = s.ListCriteria(ctx, id)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *PostgresStore) ListCriteria(ctx context.Context, rubricID uuid.UUID) ([]Criterion, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT rubric_id, key, label, section, weight, scale_min, scale_max, position
		FROM tally_criteria WHERE rubric_id = $1
		ORDER BY position ASC`, rubricID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Criterion
	for rows.Next() {
		var c Criterion
		if err := rows.Scan(&c.RubricID, &c.Key, &c.Label, &c.Section, &c.Weight, &c.ScaleMin, &c.ScaleMax, &c.Position); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- Submissions ---

const submissionColumns = `id, rubric_id, vendor_id, title, status,
	revision, scored_revision,
	total_score, max_possible_score, average_score, score_percentage, scored_at,
	created_at, updated_at`

func (s *PostgresStore) CreateSubmission(ctx context.Context, sub *Submission) error {
	if sub.Status == "" {
		sub.Status = SubmissionSubmitted
	}
	return s.pool.QueryRow(ctx, `
		INSERT INTO tally_submissions (rubric_id, vendor_id, title, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, revision, scored_revision, created_at, updated_at`,
		sub.RubricID, sub.VendorID, sub.Title, sub.Status,
	).Scan(&sub.ID, &sub.Revision, &sub.ScoredRevision, &sub.CreatedAt, &sub.UpdatedAt)
}

func (s *PostgresStore) GetSubmission(ctx context.Context, id uuid.UUID) (*Submission, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+submissionColumns+`
		FROM tally_submissions WHERE id = $1`, id)
	sub, err := scanSubmission(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return sub, err
}

func (s *PostgresStore) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]*Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM tally_submissions WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.RubricID != nil {
		n++
		query += fmt.Sprintf(" AND rubric_id = $%d", n)
		args = append(args, *filter.RubricID)
	}
	if filter.VendorID != "" {
		n++
		query += fmt.Sprintf(" AND vendor_id = $%d", n)
		args = append(args, filter.VendorID)
	}
	if filter.Status != nil {
		n++
		query += fmt.Sprintf(" AND status = $%d", n)
		args = append(args, string(*filter.Status))
	}

	query += " ORDER BY created_at ASC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	n++
	query += fmt.Sprintf(" LIMIT $%d", n)
	args = append(args, limit)

	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubmissions(rows)
}

// SaveSubmissionScores stores aggregates computed at the given revision and
// reports whether scored_revision moved forward. A write for a revision that
// is already scored, or older, is ignored.
func (s *PostgresStore) SaveSubmissionScores(ctx context.Context, id uuid.UUID, agg SubmissionAggregates, revision int) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tally_submissions SET
			total_score = $2, max_possible_score = $3, average_score = $4, score_percentage = $5,
			scored_revision = $6, scored_at = now()
		WHERE id = $1 AND scored_revision < $6`,
		id, agg.TotalScore, agg.MaxPossibleScore, agg.AverageScore, agg.ScorePercentage, revision,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) ListStaleSubmissions(ctx context.Context, limit int) ([]*Submission, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+submissionColumns+`
		FROM tally_submissions WHERE scored_revision < revision
		ORDER BY updated_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubmissions(rows)
}

func (s *PostgresStore) bumpRevision(ctx context.Context, tx pgx.Tx, submissionID uuid.UUID) (int, error) {
	var rev int
	err := tx.QueryRow(ctx, `
		UPDATE tally_submissions SET revision = revision + 1, updated_at = now()
		WHERE id = $1
		RETURNING revision`, submissionID,
	).Scan(&rev)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("submission %s not found", submissionID)
	}
	return rev, err
}

// --- Raw scores ---

// RecordScore upserts an evaluator's score and returns the submission's new revision.
func (s *PostgresStore) RecordScore(ctx context.Context, sc *RawScore) (int, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO tally_scores (submission_id, evaluator_id, criterion_key, value, comment)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (submission_id, evaluator_id, criterion_key) DO UPDATE SET
			value = EXCLUDED.value, comment = EXCLUDED.comment, updated_at = now()
		RETURNING id, created_at, updated_at`,
		sc.SubmissionID, sc.EvaluatorID, sc.CriterionKey, sc.Value, sc.Comment,
	).Scan(&sc.ID, &sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("upsert score: %w", err)
	}

	rev, err := s.bumpRevision(ctx, tx, sc.SubmissionID)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit score: %w", err)
	}
	return rev, nil
}

func (s *PostgresStore) ListScores(ctx context.Context, submissionID uuid.UUID) ([]*RawScore, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, submission_id, evaluator_id, criterion_key, value, comment, created_at, updated_at
		FROM tally_scores WHERE submission_id = $1
		ORDER BY created_at ASC`, submissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*RawScore
	for rows.Next() {
		sc := &RawScore{}
		if err := rows.Scan(&sc.ID, &sc.SubmissionID, &sc.EvaluatorID, &sc.CriterionKey, &sc.Value, &sc.Comment, &sc.CreatedAt, &sc.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// --- Consensus ---

// UpsertConsensus records the reconciled value for one criterion and returns
// the submission's new revision.
func (s *PostgresStore) UpsertConsensus(ctx context.Context, c *Consensus) (int, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO tally_consensus (submission_id, criterion_key, score_value, reconciled_by, notes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (submission_id, criterion_key) DO UPDATE SET
			score_value = EXCLUDED.score_value, reconciled_by = EXCLUDED.reconciled_by,
			notes = EXCLUDED.notes, updated_at = now()
		RETURNING updated_at`,
		c.SubmissionID, c.CriterionKey, c.ScoreValue, c.ReconciledBy, c.Notes,
	).Scan(&c.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("upsert consensus: %w", err)
	}

	rev, err := s.bumpRevision(ctx, tx, c.SubmissionID)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit consensus: %w", err)
	}
	return rev, nil
}

func (s *PostgresStore) DeleteConsensus(ctx context.Context, submissionID uuid.UUID, criterionKey string) (int, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		DELETE FROM tally_consensus WHERE submission_id = $1 AND criterion_key = $2`,
		submissionID, criterionKey,
	); err != nil {
		return 0, fmt.Errorf("delete consensus: %w", err)
	}

	rev, err := s.bumpRevision(ctx, tx, submissionID)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit consensus: %w", err)
	}
	return rev, nil
}

func (s *PostgresStore) ListConsensus(ctx context.Context, submissionID uuid.UUID) ([]*Consensus, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.submission_id, c.criterion_key, c.score_value, c.reconciled_by, c.notes, c.updated_at
		FROM tally_consensus c
		LEFT JOIN tally_submissions s ON s.id = c.submission_id
		LEFT JOIN tally_criteria k ON k.rubric_id = s.rubric_id AND k.key = c.criterion_key
		WHERE c.submission_id = $1
		ORDER BY k.position ASC NULLS LAST, c.criterion_key ASC`, submissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Consensus
	for rows.Next() {
		c := &Consensus{}
		if err := rows.Scan(&c.SubmissionID, &c.CriterionKey, &c.ScoreValue, &c.ReconciledBy, &c.Notes, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- Prequalification ---

func (s *PostgresStore) SavePrequalification(ctx context.Context, p *Prequalification) error {
	responsesJSON, err := json.Marshal(p.Responses)
	if err != nil {
		return fmt.Errorf("marshal responses: %w", err)
	}
	perQuestionJSON, err := json.Marshal(p.PerQuestion)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	missing := p.MissingRequired
	if missing == nil {
		missing = []string{}
	}

	return s.pool.QueryRow(ctx, `
		INSERT INTO tally_prequalifications
			(vendor_id, responses, per_question_scores, missing_required, total_percentage, tier, complete)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (vendor_id) DO UPDATE SET
			responses = EXCLUDED.responses, per_question_scores = EXCLUDED.per_question_scores,
			missing_required = EXCLUDED.missing_required, total_percentage = EXCLUDED.total_percentage,
			tier = EXCLUDED.tier, complete = EXCLUDED.complete, submitted_at = now()
		RETURNING id, submitted_at`,
		p.VendorID, responsesJSON, perQuestionJSON, missing, p.TotalPercentage, p.Tier, p.Complete,
	).Scan(&p.ID, &p.SubmittedAt)
}

func (s *PostgresStore) GetPrequalification(ctx context.Context, vendorID string) (*Prequalification, error) {
	p := &Prequalification{}
	var responsesJSON, perQuestionJSON []byte
	err := s.pool.QueryRow(ctx, `
		SELECT id, vendor_id, responses, per_question_scores, missing_required,
			total_percentage, tier, complete, submitted_at
		FROM tally_prequalifications WHERE vendor_id = $1`, vendorID,
	).Scan(&p.ID, &p.VendorID, &responsesJSON, &perQuestionJSON, &p.MissingRequired,
		&p.TotalPercentage, &p.Tier, &p.Complete, &p.SubmittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := decodePrequalJSON(p, responsesJSON, perQuestionJSON); err != nil {
		return nil, fmt.Errorf("prequalification %s: %w", vendorID, err)
	}
	return p, nil
}

func decodePrequalJSON(p *Prequalification, responsesJSON, perQuestionJSON []byte) error {
	if responsesJSON != nil {
		if err := json.Unmarshal(responsesJSON, &p.Responses); err != nil {
			return fmt.Errorf("decode responses: %w", err)
		}
	}
	if perQuestionJSON != nil {
		if err := json.Unmarshal(perQuestionJSON, &p.PerQuestion); err != nil {
			return fmt.Errorf("decode per_question_scores: %w", err)
		}
	}
	return nil
}

func scanSubmission(row pgx.Row) (*Submission, error) {
	sub := &Submission{}
	var total, maxScore, avg, pct *float64
	if err := row.Scan(
		&sub.ID, &sub.RubricID, &sub.VendorID, &sub.Title, &sub.Status,
		&sub.Revision, &sub.ScoredRevision,
		&total, &maxScore, &avg, &pct, &sub.ScoredAt,
		&sub.CreatedAt, &sub.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if total != nil && maxScore != nil && avg != nil && pct != nil {
		sub.Aggregates = &SubmissionAggregates{
			TotalScore:       *total,
			MaxPossibleScore: *maxScore,
			AverageScore:     *avg,
			ScorePercentage:  *pct,
		}
	}
	return sub, nil
}

func scanSubmissions(rows pgx.Rows) ([]*Submission, error) {
	var out []*Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}
