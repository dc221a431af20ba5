package request

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Save(ctx context.Context, r *BloodRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*BloodRequest, error)
	ListOpen(ctx context.Context) ([]BloodRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
}

type postgresRepo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

const requestColumns = `id, requester_id, blood_type, hospital, location, zone,
	patient_problem, bag_needed, needed_date, needed_time, hemoglobin_point,
	additional_info, status, created_at, updated_at`

func (r *postgresRepo) Save(ctx context.Context, br *BloodRequest) error {
	if br.CreatedAt.IsZero() {
		br.CreatedAt = time.Now()
	}
	br.UpdatedAt = time.Now()

	query := `
		INSERT INTO blood_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			status = $13,
			updated_at = $15
	`
	_, err := r.db.ExecContext(ctx, query,
		br.ID, br.RequesterID, br.BloodType, br.Hospital, br.Location, br.Zone,
		br.PatientProblem, br.BagNeeded, br.NeededDate, br.NeededTime,
		br.HemoglobinPoint, br.AdditionalInfo, br.Status, br.CreatedAt, br.UpdatedAt)
	return err
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*BloodRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM blood_requests WHERE id = $1`

	var br BloodRequest
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&br.ID, &br.RequesterID, &br.BloodType, &br.Hospital, &br.Location, &br.Zone,
		&br.PatientProblem, &br.BagNeeded, &br.NeededDate, &br.NeededTime,
		&br.HemoglobinPoint, &br.AdditionalInfo, &br.Status, &br.CreatedAt, &br.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("blood request not found")
		}
		return nil, err
	}
	return &br, nil
}

func (r *postgresRepo) ListOpen(ctx context.Context) ([]BloodRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM blood_requests WHERE status = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, StatusOpen)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BloodRequest
	for rows.Next() {
		var br BloodRequest
		if err := rows.Scan(
			&br.ID, &br.RequesterID, &br.BloodType, &br.Hospital, &br.Location, &br.Zone,
			&br.PatientProblem, &br.BagNeeded, &br.NeededDate, &br.NeededTime,
			&br.HemoglobinPoint, &br.AdditionalInfo, &br.Status, &br.CreatedAt, &br.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, br)
	}
	return out, rows.Err()
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	query := `UPDATE blood_requests SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("blood request not found")
	}
	return nil
}
