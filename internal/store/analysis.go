package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dogsub/Open-Source-TermP/core/db"
	"github.com/dogsub/Open-Source-TermP/internal/model"
)

const analysisColumns = `id, repo_url, owner, name, status, skip_readme, skip_tags, skip_image, attempts,
	readme, tags, raw_tags, provider_tags, image_url, step_errors, error,
	created_at, updated_at, completed_at`

type analysisStore struct {
	q db.Querier
}

func NewAnalysisStore(q db.Querier) AnalysisStore {
	return &analysisStore{q: q}
}

func (s *analysisStore) Create(ctx context.Context, a *model.Analysis) error {
	if a.Status == "" {
		a.Status = model.AnalysisStatusQueued
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now

	_, err := s.q.Exec(ctx, `
		INSERT INTO analyses (id, repo_url, owner, name, status, skip_readme, skip_tags, skip_image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.RepoURL, a.Owner, a.Name, string(a.Status),
		a.SkipReadme, a.SkipTags, a.SkipImage, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting analysis: %w", err)
	}
	return nil
}

func (s *analysisStore) GetByID(ctx context.Context, id int64) (*model.Analysis, error) {
	row := s.q.QueryRow(ctx, `SELECT `+analysisColumns+` FROM analyses WHERE id = $1`, id)
	a, err := scanAnalysis(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading analysis: %w", err)
	}
	return a, nil
}

func (s *analysisStore) MarkRunning(ctx context.Context, id int64) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE analyses SET status = $2, attempts = attempts + 1, error = NULL, updated_at = now()
		WHERE id = $1`, id, string(model.AnalysisStatusRunning))
	if err != nil {
		return fmt.Errorf("marking analysis running: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *analysisStore) Complete(ctx context.Context, a *model.Analysis) error {
	tags, err := marshalJSON(a.Tags)
	if err != nil {
		return err
	}
	providerTags, err := marshalJSON(a.ProviderTags)
	if err != nil {
		return err
	}
	stepErrors, err := marshalJSON(a.StepErrors)
	if err != nil {
		return err
	}

	status := model.AnalysisStatusCompleted
	if a.Failed() {
		status = model.AnalysisStatusFailed
	}
	now := time.Now().UTC()

	tag, err := s.q.Exec(ctx, `
		UPDATE analyses SET status = $2, readme = $3, tags = $4, raw_tags = $5, provider_tags = $6,
			image_url = $7, step_errors = $8, error = $9, updated_at = $10, completed_at = $10
		WHERE id = $1`,
		a.ID, string(status), a.Readme, tags, a.RawTags, providerTags,
		a.ImageURL, stepErrors, a.Error, now)
	if err != nil {
		return fmt.Errorf("completing analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	a.Status = status
	a.UpdatedAt = now
	a.CompletedAt = &now
	return nil
}

func (s *analysisStore) Fail(ctx context.Context, id int64, errMsg string) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE analyses SET status = $2, error = $3, updated_at = now(), completed_at = now()
		WHERE id = $1`, id, string(model.AnalysisStatusFailed), errMsg)
	if err != nil {
		return fmt.Errorf("failing analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAnalysis(row pgx.Row) (*model.Analysis, error) {
	var (
		a                              model.Analysis
		status                         string
		tags, providerTags, stepErrors []byte
	)
	err := row.Scan(
		&a.ID, &a.RepoURL, &a.Owner, &a.Name, &status,
		&a.SkipReadme, &a.SkipTags, &a.SkipImage, &a.Attempts,
		&a.Readme, &tags, &a.RawTags, &providerTags, &a.ImageURL, &stepErrors, &a.Error,
		&a.CreatedAt, &a.UpdatedAt, &a.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = model.AnalysisStatus(status)

	if err := unmarshalJSON(tags, &a.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags: %w", err)
	}
	if err := unmarshalJSON(providerTags, &a.ProviderTags); err != nil {
		return nil, fmt.Errorf("decoding provider tags: %w", err)
	}
	if err := unmarshalJSON(stepErrors, &a.StepErrors); err != nil {
		return nil, fmt.Errorf("decoding step errors: %w", err)
	}
	return &a, nil
}

// marshalJSON encodes v for a JSONB column. Nil maps and slices become NULL.
func marshalJSON[T any](v T) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding jsonb: %w", err)
	}
	if string(data) == "null" {
		return nil, nil
	}
	return data, nil
}

func unmarshalJSON(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
