package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Report struct {
	ID           string
	PostID       string
	ReporterID   string
	ReportTypeID string
	Detail       *string
	Status       string
	ResolvedBy   *string
	ResolvedAt   *time.Time
	CreatedAt    time.Time

	// Denormalized for authorization: the group the reported post
	// belongs to.
	GroupID string
}

type ReportType struct {
	ID          string
	Name        string
	Description *string
}

// ReportFilters narrows a report listing. OnlyReporterID restricts to
// the requester's own reports (non-moderator tier).
type ReportFilters struct {
	GroupID        string
	PostID         string
	Status         string
	ReportTypeID   string
	OnlyReporterID string
	Limit          int
	Offset         int
}

type ReportRepository interface {
	Create(ctx context.Context, report *Report) error
	FindByID(ctx context.Context, id string) (*Report, error)
	FindAll(ctx context.Context, f *ReportFilters) ([]*Report, int, error)
	Resolve(ctx context.Context, id, status, resolverID string) (*Report, error)

	// Report types (read-only enumeration, seeded at startup)
	FindAllTypes(ctx context.Context) ([]*ReportType, error)
	FindTypeByID(ctx context.Context, id string) (*ReportType, error)
	EnsureType(ctx context.Context, name, description string) error
}

type pgReportRepository struct {
	pool *pgxpool.Pool
}

func NewReportRepository(pool *pgxpool.Pool) ReportRepository {
	return &pgReportRepository{pool: pool}
}

func (r *pgReportRepository) Create(ctx context.Context, report *Report) error {
	query := `
		INSERT INTO reports (post_id, reporter_id, report_type_id, detail, status)
		VALUES ($1, $2, $3, $4, 'open')
		RETURNING id, status, created_at
	`
	return r.pool.QueryRow(ctx, query,
		report.PostID, report.ReporterID, report.ReportTypeID, report.Detail,
	).Scan(&report.ID, &report.Status, &report.CreatedAt)
}

func (r *pgReportRepository) FindByID(ctx context.Context, id string) (*Report, error) {
	query := `
		SELECT rp.id, rp.post_id, rp.reporter_id, rp.report_type_id, rp.detail,
		       rp.status, rp.resolved_by, rp.resolved_at, rp.created_at, p.group_id
		FROM reports rp
		INNER JOIN posts p ON rp.post_id = p.id
		WHERE rp.id = $1
	`
	report := &Report{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&report.ID, &report.PostID, &report.ReporterID, &report.ReportTypeID,
		&report.Detail, &report.Status, &report.ResolvedBy, &report.ResolvedAt,
		&report.CreatedAt, &report.GroupID,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (r *pgReportRepository) FindAll(ctx context.Context, f *ReportFilters) ([]*Report, int, error) {
	args := []interface{}{}
	var conditions []string

	if f.GroupID != "" {
		args = append(args, f.GroupID)
		conditions = append(conditions, fmt.Sprintf("p.group_id = $%d", len(args)))
	}
	if f.PostID != "" {
		args = append(args, f.PostID)
		conditions = append(conditions, fmt.Sprintf("rp.post_id = $%d", len(args)))
	}
	if f.OnlyReporterID != "" {
		args = append(args, f.OnlyReporterID)
		conditions = append(conditions, fmt.Sprintf("rp.reporter_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conditions = append(conditions, fmt.Sprintf("rp.status = $%d", len(args)))
	}
	if f.ReportTypeID != "" {
		args = append(args, f.ReportTypeID)
		conditions = append(conditions, fmt.Sprintf("rp.report_type_id = $%d", len(args)))
	}

	where := "TRUE"
	if len(conditions) > 0 {
		where = strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := `
		SELECT COUNT(*)
		FROM reports rp
		INNER JOIN posts p ON rp.post_id = p.id
		WHERE ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`
		SELECT rp.id, rp.post_id, rp.reporter_id, rp.report_type_id, rp.detail,
		       rp.status, rp.resolved_by, rp.resolved_at, rp.created_at, p.group_id
		FROM reports rp
		INNER JOIN posts p ON rp.post_id = p.id
		WHERE %s
		ORDER BY rp.id ASC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var reports []*Report
	for rows.Next() {
		report := &Report{}
		if err := rows.Scan(
			&report.ID, &report.PostID, &report.ReporterID, &report.ReportTypeID,
			&report.Detail, &report.Status, &report.ResolvedBy, &report.ResolvedAt,
			&report.CreatedAt, &report.GroupID,
		); err != nil {
			return nil, 0, err
		}
		reports = append(reports, report)
	}
	return reports, total, nil
}

// Resolve closes an open report. Like the member-request transitions,
// the conditional UPDATE makes resolution race-safe: a report can be
// decided once.
func (r *pgReportRepository) Resolve(ctx context.Context, id, status, resolverID string) (*Report, error) {
	report := &Report{}
	err := r.pool.QueryRow(ctx, `
		UPDATE reports
		SET status = $2, resolved_by = $3, resolved_at = NOW()
		WHERE id = $1 AND status = 'open'
		RETURNING id, post_id, reporter_id, report_type_id, detail, status,
		          resolved_by, resolved_at, created_at
	`, id, status, resolverID).Scan(
		&report.ID, &report.PostID, &report.ReporterID, &report.ReportTypeID,
		&report.Detail, &report.Status, &report.ResolvedBy, &report.ResolvedAt,
		&report.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, ErrNotPending
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

// ============================================
// Report Types
// ============================================

func (r *pgReportRepository) FindAllTypes(ctx context.Context) ([]*ReportType, error) {
	query := `SELECT id, name, description FROM report_types ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reportTypes []*ReportType
	for rows.Next() {
		rt := &ReportType{}
		if err := rows.Scan(&rt.ID, &rt.Name, &rt.Description); err != nil {
			return nil, err
		}
		reportTypes = append(reportTypes, rt)
	}
	return reportTypes, nil
}

func (r *pgReportRepository) FindTypeByID(ctx context.Context, id string) (*ReportType, error) {
	query := `SELECT id, name, description FROM report_types WHERE id = $1`
	rt := &ReportType{}
	err := r.pool.QueryRow(ctx, query, id).Scan(&rt.ID, &rt.Name, &rt.Description)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (r *pgReportRepository) EnsureType(ctx context.Context, name, description string) error {
	query := `
		INSERT INTO report_types (name, description)
		VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query, name, description)
	return err
}
