package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	appErrors "github.com/unclebandit/hubmailer/internal/errors"
	"github.com/unclebandit/hubmailer/internal/model"
)

// fakeEmailRepo is an in-memory EmailRepositoryInterface that applies the
// same transitions as the SQL implementation, including counter recounts.
type fakeEmailRepo struct {
	mu         sync.Mutex
	emails     map[int]*model.Email
	recipients map[int]*model.EmailRecipient
	hubByEmail map[int]int
}

func newFakeEmailRepo() *fakeEmailRepo {
	return &fakeEmailRepo{
		emails:     map[int]*model.Email{},
		recipients: map[int]*model.EmailRecipient{},
		hubByEmail: map[int]int{},
	}
}

func (f *fakeEmailRepo) GetByID(_ context.Context, id int) (*model.Email, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.emails[id]
	if !ok {
		return nil, appErrors.NewEmailNotFound(id)
	}
	copied := *e
	return &copied, nil
}

func (f *fakeEmailRepo) SetEmailSentStatus(_ context.Context, emailID int, status bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.emails[emailID]
	if !ok {
		return appErrors.NewEmailNotFound(emailID)
	}
	e.IsSent = status
	return nil
}

func (f *fakeEmailRepo) ResetEmailStatus(ctx context.Context, emailID int) error {
	if err := f.SetEmailSentStatus(ctx, emailID, false); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.recipients {
		if r.EmailID == emailID {
			r.IsSent = false
			r.Opened = false
		}
	}
	return nil
}

func (f *fakeEmailRepo) RecomputeCounter(_ context.Context, emailID int, kind model.CounterKind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.emails[emailID]
	if !ok {
		return appErrors.NewEmailNotFound(emailID)
	}
	count := 0
	for _, r := range f.recipients {
		if r.EmailID != emailID {
			continue
		}
		switch kind {
		case model.CounterSent:
			if r.IsSent {
				count++
			}
		case model.CounterOpened:
			if r.Opened {
				count++
			}
		case model.CounterReplied:
			if r.Replied {
				count++
			}
		}
	}
	switch kind {
	case model.CounterSent:
		e.NumSent = count
	case model.CounterOpened:
		e.NumOpened = count
	case model.CounterReplied:
		e.NumReplied = count
	default:
		return fmt.Errorf("unknown counter kind: %s", kind)
	}
	return nil
}

func (f *fakeEmailRepo) GetRecipients(_ context.Context, emailID int) ([]model.EmailRecipient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.EmailRecipient{}
	for _, r := range f.recipients {
		if r.EmailID == emailID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeEmailRepo) GetRecipient(_ context.Context, recipientID int) (*model.EmailRecipient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.recipients[recipientID]
	if !ok {
		return nil, nil
	}
	copied := *r
	return &copied, nil
}

func (f *fakeEmailRepo) GetHubRecipientsNotReplied(_ context.Context, hubID int) ([]model.EmailRecipient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.EmailRecipient{}
	for _, r := range f.recipients {
		if f.hubByEmail[r.EmailID] == hubID && !r.Replied {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeEmailRepo) SetRecipientSentStatus(_ context.Context, recipientID int, status bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.recipients[recipientID]
	if !ok {
		return fmt.Errorf("recipient %d not found", recipientID)
	}
	r.IsSent = status
	return nil
}

func (f *fakeEmailRepo) SetRecipientOpenedStatus(_ context.Context, recipientID int, status bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.recipients[recipientID]
	if !ok {
		return fmt.Errorf("recipient %d not found", recipientID)
	}
	r.Opened = status
	return nil
}

func (f *fakeEmailRepo) SetRecipientRepliedStatus(ctx context.Context, emailID, recipientID int) error {
	f.mu.Lock()
	r, ok := f.recipients[recipientID]
	if !ok {
		f.mu.Unlock()
		return fmt.Errorf("recipient %d not found", recipientID)
	}
	r.Replied = true
	r.IsSent = true
	r.Opened = true
	f.mu.Unlock()
	return f.SetEmailSentStatus(ctx, emailID, true)
}

// fakeHubRepo serves hubs from a map.
type fakeHubRepo struct {
	hubs map[int]*model.Hub
}

func (f *fakeHubRepo) GetByID(_ context.Context, id int) (*model.Hub, error) {
	h, ok := f.hubs[id]
	if !ok {
		return nil, appErrors.NewHubNotFound(id)
	}
	return h, nil
}

func (f *fakeHubRepo) List(_ context.Context) ([]model.Hub, error) {
	out := []model.Hub{}
	for _, h := range f.hubs {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// fakeUserRepo serves users from a map.
type fakeUserRepo struct {
	users map[int]*model.User
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, appErrors.NewUserNotFound(id)
	}
	return u, nil
}

// fakeSender records attempted sends and fails the configured recipients.
type fakeSender struct {
	mu      sync.Mutex
	sent    []int
	failIDs map[int]bool
}

func (f *fakeSender) Send(_ context.Context, _ *model.Hub, _ *model.Email, recipient *model.EmailRecipient) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIDs[recipient.ID] {
		return fmt.Errorf("smtp send failed for %s", recipient.Address)
	}
	f.sent = append(f.sent, recipient.ID)
	return nil
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func testHub(id int) *model.Hub {
	return &model.Hub{
		ID:         id,
		Name:       "Test Hub",
		Login:      strPtr("sender@example.com"),
		Password:   strPtr("secret"),
		Sender:     strPtr("Test Sender"),
		SMTPServer: strPtr("smtp.example.com"),
		SMTPPort:   intPtr(465),
		IMAPServer: strPtr("imap.example.com"),
		IMAPPort:   intPtr(993),
	}
}
