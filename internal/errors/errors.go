package appErrors

import "fmt"

// ErrEmailNotFound is a sentinel error
type ErrEmailNotFound struct {
	EmailID int
}

func (e *ErrEmailNotFound) Error() string {
	return fmt.Sprintf("email with ID %d not found", e.EmailID)
}

// Helper constructor
func NewEmailNotFound(id int) error {
	return &ErrEmailNotFound{EmailID: id}
}

// ErrHubNotFound is a sentinel error
type ErrHubNotFound struct {
	HubID int
}

func (e *ErrHubNotFound) Error() string {
	return fmt.Sprintf("hub with ID %d not found", e.HubID)
}

func NewHubNotFound(id int) error {
	return &ErrHubNotFound{HubID: id}
}

// ErrUserNotFound is a sentinel error
type ErrUserNotFound struct {
	UserID int
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("user with ID %d not found", e.UserID)
}

func NewUserNotFound(id int) error {
	return &ErrUserNotFound{UserID: id}
}

// ErrMissingHubConfig aborts a dispatch job or a correlator pass when the
// hub lacks the credentials the operation needs.
type ErrMissingHubConfig struct {
	HubID int
	What  string // "smtp" or "imap"
}

func (e *ErrMissingHubConfig) Error() string {
	return fmt.Sprintf("hub %d is missing %s configuration", e.HubID, e.What)
}

func NewMissingHubConfig(hubID int, what string) error {
	return &ErrMissingHubConfig{HubID: hubID, What: what}
}
