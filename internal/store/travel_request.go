package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/viajesoeste/apiserver/types"
)

const travelRequestColumns = `id, client_dni, client_name, client_email, origin, destination, trip_type, departure_date_time, return_date_time, status, created_at, updated_at`

// TravelRequestRepository handles persistence for travel requests in Postgres.
type TravelRequestRepository struct {
	db *sql.DB
}

func NewTravelRequestRepository(db *sql.DB) *TravelRequestRepository {
	return &TravelRequestRepository{db: db}
}

func (r *TravelRequestRepository) List(ctx context.Context) ([]types.TravelRequest, error) {
	query := `SELECT ` + travelRequestColumns + ` FROM travel_requests ORDER BY id`
	return r.query(ctx, query)
}

func (r *TravelRequestRepository) Get(ctx context.Context, id int) (types.TravelRequest, error) {
	query := `SELECT ` + travelRequestColumns + ` FROM travel_requests WHERE id = $1`
	return scanTravelRequest(r.db.QueryRowContext(ctx, query, id))
}

func (r *TravelRequestRepository) ListByClientDNI(ctx context.Context, dni string) ([]types.TravelRequest, error) {
	query := `SELECT ` + travelRequestColumns + ` FROM travel_requests WHERE client_dni = $1 ORDER BY id`
	return r.query(ctx, query, dni)
}

func (r *TravelRequestRepository) Create(ctx context.Context, req types.TravelRequest) (types.TravelRequest, error) {
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now

	const query = `
		INSERT INTO travel_requests (client_dni, client_name, client_email, origin, destination, trip_type, departure_date_time, return_date_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		req.ClientDNI,
		req.ClientName,
		req.ClientEmail,
		req.Origin,
		req.Destination,
		req.TripType,
		req.DepartureDateTime,
		req.ReturnDateTime,
		req.Status,
		req.CreatedAt,
		req.UpdatedAt,
	).Scan(&req.ID); err != nil {
		return types.TravelRequest{}, err
	}
	return req, nil
}

func (r *TravelRequestRepository) Update(ctx context.Context, req types.TravelRequest) (types.TravelRequest, error) {
	req.UpdatedAt = time.Now().UTC()

	const query = `
		UPDATE travel_requests
		SET client_dni = $1,
			client_name = $2,
			client_email = $3,
			origin = $4,
			destination = $5,
			trip_type = $6,
			departure_date_time = $7,
			return_date_time = $8,
			status = $9,
			updated_at = $10
		WHERE id = $11
		RETURNING created_at`
	err := r.db.QueryRowContext(
		ctx,
		query,
		req.ClientDNI,
		req.ClientName,
		req.ClientEmail,
		req.Origin,
		req.Destination,
		req.TripType,
		req.DepartureDateTime,
		req.ReturnDateTime,
		req.Status,
		req.UpdatedAt,
		req.ID,
	).Scan(&req.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.TravelRequest{}, ErrNotFound
		}
		return types.TravelRequest{}, err
	}
	return req, nil
}

func (r *TravelRequestRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM travel_requests WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TravelRequestRepository) query(ctx context.Context, query string, args ...any) ([]types.TravelRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []types.TravelRequest{}
	for rows.Next() {
		req, err := scanTravelRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

func scanTravelRequest(row rowScanner) (types.TravelRequest, error) {
	var req types.TravelRequest
	err := row.Scan(
		&req.ID,
		&req.ClientDNI,
		&req.ClientName,
		&req.ClientEmail,
		&req.Origin,
		&req.Destination,
		&req.TripType,
		&req.DepartureDateTime,
		&req.ReturnDateTime,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.TravelRequest{}, ErrNotFound
		}
		return types.TravelRequest{}, err
	}
	return req, nil
}
