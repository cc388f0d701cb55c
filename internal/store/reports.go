package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/pgrep/reputation-api/internal/models"
)

// HasApprovedReport reports whether the target already has an approved report.
func (s *Store) HasApprovedReport(ctx context.Context, targetSteamID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM overwatch_reports WHERE target_steam_id = $1 AND status = 'approved'
		)
	`, targetSteamID).Scan(&exists)
	return exists, eris.Wrap(err, "store: check approved report")
}

// InsertReport stores a new report and fills in its id and creation time.
func (s *Store) InsertReport(ctx context.Context, r *models.Report) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO overwatch_reports (
			target_steam_id, target_persona_name, reporter_steam_id, reporter_persona_name,
			demo_url, cheat_type, occurred_at, status
		) VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), $5, $6, $7, $8)
		RETURNING id, created_at
	`, r.TargetSteamID, r.TargetPersonaName, r.ReporterSteamID, r.ReporterPersonaName,
		r.DemoURL, r.CheatType, r.OccurredAt, string(r.Status)).Scan(&r.ID, &r.CreatedAt)
	return eris.Wrap(err, "store: insert report")
}

// ListReports returns one page of reports and the total matching the filter.
func (s *Store) ListReports(ctx context.Context, f ReportFilter) ([]models.Report, int, error) {
	where, args, err := buildReportWhere(f)
	if err != nil {
		return nil, 0, eris.Wrap(err, "store: list reports")
	}
	var total int
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM overwatch_reports"+where, args...).Scan(&total); err != nil {
		return nil, 0, eris.Wrap(err, "store: count reports")
	}

	query, args, err := buildReportListQuery(f)
	if err != nil {
		return nil, 0, eris.Wrap(err, "store: list reports")
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, eris.Wrap(err, "store: list reports")
	}
	defer rows.Close()

	out := make([]models.Report, 0)
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, eris.Wrap(err, "store: iterate reports")
	}
	return out, total, nil
}

// CountReports returns per-status totals plus the viewer's own tabs.
func (s *Store) CountReports(ctx context.Context, viewerID string) (models.ReportCounts, error) {
	var c models.ReportCounts
	err := s.db.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'approved'),
			COUNT(*) FILTER (WHERE status = 'declined'),
			COUNT(*),
			COUNT(*) FILTER (WHERE $1 <> '' AND reporter_steam_id = $1),
			COUNT(*) FILTER (WHERE $1 <> '' AND target_steam_id = $1)
		FROM overwatch_reports
	`, viewerID).Scan(&c.Pending, &c.Approved, &c.Declined, &c.All, &c.Mine, &c.Against)
	return c, eris.Wrap(err, "store: count reports")
}

// GetReport loads a report by id.
func (s *Store) GetReport(ctx context.Context, id int64) (*models.Report, error) {
	row := s.db.QueryRow(ctx, "SELECT "+reportColumns+" FROM overwatch_reports WHERE id = $1", id)
	r, err := scanReport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// ResolveReport records an admin decision.
func (s *Store) ResolveReport(ctx context.Context, id int64, status models.ReportStatus, resolvedBy string, at time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE overwatch_reports
		SET status = $2, resolved_at = $3, resolved_by = NULLIF($4, '')
		WHERE id = $1
	`, id, string(status), at, resolvedBy)
	if err != nil {
		return eris.Wrap(err, "store: resolve report")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanReport(row pgx.Row) (*models.Report, error) {
	var r models.Report
	var status string
	if err := row.Scan(&r.ID, &r.TargetSteamID, &r.TargetPersonaName, &r.ReporterSteamID,
		&r.ReporterPersonaName, &r.DemoURL, &r.CheatType, &r.OccurredAt, &status, &r.CreatedAt,
		&r.ResolvedAt, &r.ResolvedBy); err != nil {
		return nil, eris.Wrap(err, "store: scan report")
	}
	r.Status = models.ReportStatus(status)
	return &r, nil
}
