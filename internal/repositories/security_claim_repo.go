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

const securityClaimColumns = `id, user_id, claim_type, description, ip_address, resolved, created_at`

type SecurityClaimRepository struct {
	db *database.DB
}

func NewSecurityClaimRepository(db *database.DB) *SecurityClaimRepository {
	return &SecurityClaimRepository{db: db}
}

func scanSecurityClaimRow(scanner rowScanner) (*models.SecurityClaim, error) {
	var c models.SecurityClaim
	var ip *string
	err := scanner.Scan(&c.ID, &c.UserID, &c.ClaimType, &c.Description, &ip, &c.Resolved, &c.CreatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	if ip != nil {
		c.IPAddress = *ip
	}
	return &c, nil
}

func collectClaims(rows pgx.Rows) ([]*models.SecurityClaim, error) {
	defer rows.Close()

	claims := make([]*models.SecurityClaim, 0)
	for rows.Next() {
		c, err := scanSecurityClaimRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan security claim: %w", err)
		}
		claims = append(claims, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return claims, nil
}

// Create inserts a new unresolved claim
func (r *SecurityClaimRepository) Create(ctx context.Context, c *models.SecurityClaim) (*models.SecurityClaim, error) {
	c.ID = uuid.New().String()
	c.Resolved = false
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	var ip *string
	if c.IPAddress != "" {
		ip = &c.IPAddress
	}

	query := `
		INSERT INTO security_claims (id, user_id, claim_type, description, ip_address, resolved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + securityClaimColumns

	return scanSecurityClaimRow(r.db.Pool.QueryRow(ctx, query,
		c.ID, c.UserID, c.ClaimType, c.Description, ip, c.Resolved, c.CreatedAt,
	))
}

func (r *SecurityClaimRepository) ListUnresolvedByUser(ctx context.Context, userID string) ([]*models.SecurityClaim, error) {
	query := `SELECT ` + securityClaimColumns + `
		FROM security_claims WHERE user_id = $1 AND NOT resolved
		ORDER BY created_at DESC`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query security claims: %w", err)
	}
	return collectClaims(rows)
}

// ListUnresolved returns the newest unresolved claims across all users
func (r *SecurityClaimRepository) ListUnresolved(ctx context.Context, limit int) ([]*models.SecurityClaim, error) {
	query := `SELECT ` + securityClaimColumns + `
		FROM security_claims WHERE NOT resolved
		ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query security claims: %w", err)
	}
	return collectClaims(rows)
}

// SetResolved flips the resolved flag. It is the only mutation a claim allows.
func (r *SecurityClaimRepository) SetResolved(ctx context.Context, id string, resolved bool) (*models.SecurityClaim, error) {
	query := `UPDATE security_claims SET resolved = $1 WHERE id = $2 RETURNING ` + securityClaimColumns
	return scanSecurityClaimRow(r.db.Pool.QueryRow(ctx, query, resolved, id))
}
