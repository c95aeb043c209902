package repository

import (
	"context"
	"database/sql"

	appErrors "github.com/unclebandit/hubmailer/internal/errors"
	"github.com/unclebandit/hubmailer/internal/model"
)

// UserRepositoryInterface resolves the user -> hub association the
// dispatcher traverses to find a campaign's sending hub.
type UserRepositoryInterface interface {
	GetByID(ctx context.Context, id int) (*model.User, error)
}

// UserRepository is the concrete implementation
type UserRepository struct {
	DB *sql.DB
}

// GetByID fetches a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int) (*model.User, error) {
	query := `SELECT id, email, hub_id FROM users WHERE id=$1`
	row := r.DB.QueryRowContext(ctx, query, id)

	var u model.User
	if err := row.Scan(&u.ID, &u.Email, &u.HubID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewUserNotFound(id)
		}
		return nil, err
	}
	return &u, nil
}

var _ UserRepositoryInterface = (*UserRepository)(nil)
