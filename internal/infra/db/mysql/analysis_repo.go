package mysql

import (
	"context"
	"database/sql"
	"fmt"

	domain "github.com/bryanwahyu/draft-analyzer/internal/domain/drafts"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

const analysisColumns = `id, draft_id, analysis_text, status, error_message, share_token, is_public, created_at, updated_at`

// Create inserts a pending analysis and fills in its ID
func (r *AnalysisRepository) Create(ctx context.Context, a *domain.Analysis) error {
	const q = `
INSERT INTO analyses
  (draft_id, status, share_token, is_public, created_at)
VALUES (?,?,?,?,?);
`
	a.CreatedAt = nowIfZero(a.CreatedAt)
	res, err := r.db.ExecContext(ctx, q, a.DraftID, string(a.Status), a.ShareToken, a.IsPublic, a.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("insert analysis: share token collision: %w", err)
		}
		return fmt.Errorf("insert analysis: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	a.ID = domain.ID(id)
	return nil
}

// Finish writes the terminal status; only a pending row can be finished.
func (r *AnalysisRepository) Finish(ctx context.Context, a *domain.Analysis) error {
	const q = `
UPDATE analyses
SET status=?, analysis_text=?, error_message=?, updated_at=?
WHERE id=? AND status='pending';
`
	res, err := r.db.ExecContext(ctx, q,
		string(a.Status), nullString(a.AnalysisText), nullString(a.ErrorMessage), a.UpdatedAt, a.ID)
	if err != nil {
		return fmt.Errorf("finish analysis %d: %w", a.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrAlreadyFinished
	}
	return nil
}

// Get by ID
func (r *AnalysisRepository) Get(ctx context.Context, id domain.ID) (*domain.Analysis, error) {
	const q = `SELECT ` + analysisColumns + ` FROM analyses WHERE id=? LIMIT 1;`
	a, err := scanAnalysis(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// ListByDraft returns a draft's analyses ordered by created_at desc
func (r *AnalysisRepository) ListByDraft(ctx context.Context, draftID domain.ID) ([]*domain.Analysis, error) {
	const q = `SELECT ` + analysisColumns + ` FROM analyses WHERE draft_id=? ORDER BY created_at DESC, id DESC;`
	rows, err := r.db.QueryContext(ctx, q, draftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// MarkPublic flips is_public on; rows that are already public are left alone.
func (r *AnalysisRepository) MarkPublic(ctx context.Context, id domain.ID) error {
	const q = `UPDATE analyses SET is_public=TRUE, updated_at=UTC_TIMESTAMP(6) WHERE id=? AND is_public=FALSE;`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// GetShared looks up a public, completed analysis by share token
func (r *AnalysisRepository) GetShared(ctx context.Context, token string) (*domain.Analysis, error) {
	const q = `
SELECT ` + analysisColumns + `
FROM analyses
WHERE share_token=? AND is_public=TRUE AND status='completed'
LIMIT 1;`
	a, err := scanAnalysis(r.db.QueryRowContext(ctx, q, token))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func scanAnalysis(row rowScanner) (*domain.Analysis, error) {
	var a domain.Analysis
	var text, msg sql.NullString
	var updated sql.NullTime
	if err := row.Scan(&a.ID, &a.DraftID, &text, &a.Status, &msg, &a.ShareToken, &a.IsPublic, &a.CreatedAt, &updated); err != nil {
		return nil, err
	}
	a.AnalysisText = stringPtr(text)
	a.ErrorMessage = stringPtr(msg)
	a.UpdatedAt = timePtr(updated)
	return &a, nil
}
