package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/bright-dela/alx-project-nexus/internal/database"
	"github.com/bright-dela/alx-project-nexus/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const loginHistoryColumns = `id, user_id, ip_address, user_agent, country, country_code, city, region,
	latitude, longitude, login_successful, failure_reason, created_at`

// LoginHistoryRepository handles database operations for login history
type LoginHistoryRepository struct {
	db *database.DB
}

func NewLoginHistoryRepository(db *database.DB) *LoginHistoryRepository {
	return &LoginHistoryRepository{db: db}
}

func scanLoginHistoryRow(scanner rowScanner) (*models.LoginHistory, error) {
	var h models.LoginHistory
	err := scanner.Scan(
		&h.ID, &h.UserID, &h.IPAddress, &h.UserAgent,
		&h.Location.Country, &h.Location.CountryCode, &h.Location.City, &h.Location.Region,
		&h.Location.Latitude, &h.Location.Longitude,
		&h.LoginSuccessful, &h.FailureReason, &h.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &h, nil
}

// Create appends a login record
func (r *LoginHistoryRepository) Create(ctx context.Context, h *models.LoginHistory) (*models.LoginHistory, error) {
	h.ID = uuid.New().String()
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO login_history (id, user_id, ip_address, user_agent, country, country_code, city, region,
			latitude, longitude, login_successful, failure_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + loginHistoryColumns

	return scanLoginHistoryRow(r.db.Pool.QueryRow(ctx, query,
		h.ID, h.UserID, h.IPAddress, h.UserAgent,
		h.Location.Country, h.Location.CountryCode, h.Location.City, h.Location.Region,
		h.Location.Latitude, h.Location.Longitude,
		h.LoginSuccessful, h.FailureReason, h.CreatedAt,
	))
}

// ListByUser returns the most recent records first
func (r *LoginHistoryRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.LoginHistory, error) {
	query := `SELECT ` + loginHistoryColumns + `
		FROM login_history WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2`

	rows, err := r.db.Pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query login history: %w", err)
	}
	defer rows.Close()

	records := make([]*models.LoginHistory, 0)
	for rows.Next() {
		h, err := scanLoginHistoryRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan login history: %w", err)
		}
		records = append(records, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}

// DistinctPlacesSince returns the distinct (country, city) pairs of the user's
// successful logins at or after since, skipping records without a country.
// excludeID, when non-empty, leaves out one record (the login being evaluated).
func (r *LoginHistoryRepository) DistinctPlacesSince(ctx context.Context, userID string, since time.Time, excludeID string) ([]models.Place, error) {
	query := `
		SELECT DISTINCT country, city FROM login_history
		WHERE user_id = $1 AND login_successful AND created_at >= $2
			AND country <> '' AND ($3 = '' OR id::text <> $3)`

	rows, err := r.db.Pool.Query(ctx, query, userID, since, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query login locations: %w", err)
	}

	places, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Place, error) {
		var p models.Place
		err := row.Scan(&p.Country, &p.City)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan login locations: %w", err)
	}

	return places, nil
}
