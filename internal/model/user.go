package model

// User owns campaigns. The dispatcher resolves the sending hub through the
// user's hub association; a user without a hub cannot dispatch.
type User struct {
	ID    int    `db:"id" json:"id"`
	Email string `db:"email" json:"email"`
	HubID *int   `db:"hub_id" json:"hub_id,omitempty"`
}
