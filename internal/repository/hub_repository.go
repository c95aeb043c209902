package repository

import (
	"context"
	"database/sql"

	appErrors "github.com/unclebandit/hubmailer/internal/errors"
	"github.com/unclebandit/hubmailer/internal/model"
)

// HubRepositoryInterface defines methods used by the dispatcher and the
// reply correlator. Hubs are read-only to the delivery core.
type HubRepositoryInterface interface {
	GetByID(ctx context.Context, id int) (*model.Hub, error)
	List(ctx context.Context) ([]model.Hub, error)
}

// HubRepository is the concrete implementation
type HubRepository struct {
	DB *sql.DB
}

const hubColumns = `id, name, login, password, sender, smtp_server, smtp_port,
       imap_server, imap_port, email_template, created_at, updated_at`

// GetByID fetches a hub by ID
func (r *HubRepository) GetByID(ctx context.Context, id int) (*model.Hub, error) {
	query := `SELECT ` + hubColumns + ` FROM hubs WHERE id=$1`
	row := r.DB.QueryRowContext(ctx, query, id)

	var h model.Hub
	if err := scanHub(row.Scan, &h); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewHubNotFound(id)
		}
		return nil, err
	}
	return &h, nil
}

// List fetches all hubs; the reply correlator sweeps each one in turn.
func (r *HubRepository) List(ctx context.Context) ([]model.Hub, error) {
	query := `SELECT ` + hubColumns + ` FROM hubs ORDER BY id`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hubs := []model.Hub{}
	for rows.Next() {
		var h model.Hub
		if err := scanHub(rows.Scan, &h); err != nil {
			return nil, err
		}
		hubs = append(hubs, h)
	}
	return hubs, rows.Err()
}

func scanHub(scan func(dest ...any) error, h *model.Hub) error {
	return scan(
		&h.ID, &h.Name, &h.Login, &h.Password, &h.Sender,
		&h.SMTPServer, &h.SMTPPort, &h.IMAPServer, &h.IMAPPort,
		&h.EmailTemplate, &h.CreatedAt, &h.UpdatedAt,
	)
}

var _ HubRepositoryInterface = (*HubRepository)(nil)
