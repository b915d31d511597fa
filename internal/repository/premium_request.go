package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/taskpilot/internal/model"
)

var (
	ErrPremiumRequestNotFound = errors.New("premium request not found")
)

type PremiumRequestRepository interface {
	Create(req *model.PremiumRequest) error
	ByID(id string) (*model.PremiumRequest, error)
	ByProviderRef(providerRef string) (*model.PremiumRequest, error)
	ByUserID(userID string) ([]*model.PremiumRequest, error)
	HasVerified(userID string) (bool, error)
	Pending() ([]*model.PremiumRequest, error)
	SetProviderRef(id, providerRef string) error
	UpdateStatus(id, status string) error
}

type premiumRequestRepository struct {
	db *sqlx.DB
}

func NewPremiumRequestRepository(db *sqlx.DB) PremiumRequestRepository {
	return &premiumRequestRepository{db: db}
}

func (r *premiumRequestRepository) Create(req *model.PremiumRequest) error {
	query := `
		INSERT INTO premium_requests (
			id, user_id, method, transaction_ref, provider_ref, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(
		query,
		req.ID,
		req.UserID,
		req.Method,
		req.TransactionRef,
		req.ProviderRef,
		req.Status,
		req.CreatedAt,
		req.UpdatedAt,
	)

	return err
}

func (r *premiumRequestRepository) ByID(id string) (*model.PremiumRequest, error) {
	return r.getOne(`SELECT * FROM premium_requests WHERE id = $1`, id)
}

func (r *premiumRequestRepository) ByProviderRef(providerRef string) (*model.PremiumRequest, error) {
	return r.getOne(`SELECT * FROM premium_requests WHERE provider_ref = $1`, providerRef)
}

func (r *premiumRequestRepository) getOne(query, arg string) (*model.PremiumRequest, error) {
	req := &model.PremiumRequest{}

	err := r.db.Get(req, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPremiumRequestNotFound
	}
	if err != nil {
		return nil, err
	}

	return req, nil
}

func (r *premiumRequestRepository) ByUserID(userID string) ([]*model.PremiumRequest, error) {
	reqs := []*model.PremiumRequest{}
	query := `SELECT * FROM premium_requests WHERE user_id = $1 ORDER BY created_at DESC`

	err := r.db.Select(&reqs, query, userID)
	if err != nil {
		return nil, err
	}

	return reqs, nil
}

func (r *premiumRequestRepository) HasVerified(userID string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM premium_requests WHERE user_id = $1 AND status = $2`
	err := r.db.QueryRow(query, userID, model.PremiumStatusVerified).Scan(&count)
	return count > 0, err
}

func (r *premiumRequestRepository) Pending() ([]*model.PremiumRequest, error) {
	reqs := []*model.PremiumRequest{}
	query := `SELECT * FROM premium_requests WHERE status = $1 ORDER BY created_at ASC`

	err := r.db.Select(&reqs, query, model.PremiumStatusPending)
	if err != nil {
		return nil, err
	}

	return reqs, nil
}

func (r *premiumRequestRepository) SetProviderRef(id, providerRef string) error {
	query := `UPDATE premium_requests SET provider_ref = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.Exec(query, providerRef, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectRow(result, ErrPremiumRequestNotFound)
}

func (r *premiumRequestRepository) UpdateStatus(id, status string) error {
	query := `UPDATE premium_requests SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.Exec(query, status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectRow(result, ErrPremiumRequestNotFound)
}
