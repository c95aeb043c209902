package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unclebandit/hubmailer/internal/model"
)

type headerSearch struct {
	name  string
	value string
}

// fakeSession returns hits for the configured header values and records
// every search and the final logout.
type fakeSession struct {
	hits      map[string][]uint32
	failOn    map[string]bool
	searches  []headerSearch
	loggedOut bool
}

func (s *fakeSession) SearchHeader(name, value string) ([]uint32, error) {
	s.searches = append(s.searches, headerSearch{name: name, value: value})
	if s.failOn[value] {
		return nil, fmt.Errorf("search failed")
	}
	return s.hits[value], nil
}

func (s *fakeSession) Logout() error {
	s.loggedOut = true
	return nil
}

type fakeDialer struct {
	session *fakeSession
	dialed  int
	err     error
}

func (d *fakeDialer) Dial(server string, port int, login, password string) (MailboxSession, error) {
	d.dialed++
	if d.err != nil {
		return nil, d.err
	}
	return d.session, nil
}

func newTestCorrelator(emails *fakeEmailRepo, hubs *fakeHubRepo, dialer MailboxDialer) *Correlator {
	log := zap.NewNop()
	return &Correlator{
		Hubs:    hubs,
		Emails:  emails,
		Tracker: NewStatusTracker(emails, log),
		Dialer:  dialer,
		Domain:  "example.com",
		Logger:  log,
	}
}

func seedHubCampaign(emails *fakeEmailRepo, hubID int) {
	emails.emails[7] = &model.Email{ID: 7, UserID: 1, Message: "hello"}
	emails.hubByEmail[7] = hubID
	emails.recipients[101] = &model.EmailRecipient{ID: 101, EmailID: 7, Address: "alice@example.org"}
	emails.recipients[102] = &model.EmailRecipient{ID: 102, EmailID: 7, Address: "bob@example.org"}
}

func TestInReplyToID(t *testing.T) {
	assert.Equal(t, "<42@example.com>", InReplyToID(42, "example.com"))
}

func TestSweepMarksReply(t *testing.T) {
	emails := newFakeEmailRepo()
	seedHubCampaign(emails, 3)
	hubs := &fakeHubRepo{hubs: map[int]*model.Hub{3: testHub(3)}}
	session := &fakeSession{hits: map[string][]uint32{"<101@example.com>": {17}}}
	dialer := &fakeDialer{session: session}

	c := newTestCorrelator(emails, hubs, dialer)
	require.NoError(t, c.Sweep(context.Background()))

	// The search predicate is exactly the In-Reply-To header with the
	// deterministic Message-ID in angle brackets.
	require.Len(t, session.searches, 2)
	assert.Equal(t, headerSearch{name: "In-Reply-To", value: "<101@example.com>"}, session.searches[0])
	assert.Equal(t, headerSearch{name: "In-Reply-To", value: "<102@example.com>"}, session.searches[1])

	r101, _ := emails.GetRecipient(context.Background(), 101)
	assert.True(t, r101.Replied)
	assert.True(t, r101.Opened, "reply forces opened")
	assert.True(t, r101.IsSent, "reply forces is_sent")

	r102, _ := emails.GetRecipient(context.Background(), 102)
	assert.False(t, r102.Replied)

	email, _ := emails.GetByID(context.Background(), 7)
	assert.True(t, email.IsSent)
	assert.Equal(t, 1, email.NumReplied)

	assert.True(t, session.loggedOut, "session is logged out at the end of the pass")
}

func TestSweepSkipsRepliedRecipients(t *testing.T) {
	emails := newFakeEmailRepo()
	seedHubCampaign(emails, 3)
	emails.recipients[101].Replied = true
	hubs := &fakeHubRepo{hubs: map[int]*model.Hub{3: testHub(3)}}
	session := &fakeSession{}
	dialer := &fakeDialer{session: session}

	c := newTestCorrelator(emails, hubs, dialer)
	require.NoError(t, c.Sweep(context.Background()))

	require.Len(t, session.searches, 1)
	assert.Equal(t, "<102@example.com>", session.searches[0].value)
}

func TestSweepSkipsHubWithoutIMAPConfig(t *testing.T) {
	emails := newFakeEmailRepo()
	seedHubCampaign(emails, 3)
	hub := testHub(3)
	hub.IMAPServer = nil
	hubs := &fakeHubRepo{hubs: map[int]*model.Hub{3: hub}}
	dialer := &fakeDialer{session: &fakeSession{}}

	c := newTestCorrelator(emails, hubs, dialer)
	require.NoError(t, c.Sweep(context.Background()))

	assert.Zero(t, dialer.dialed, "hub without IMAP config is skipped")
}

func TestSweepContinuesPastSearchFailure(t *testing.T) {
	emails := newFakeEmailRepo()
	seedHubCampaign(emails, 3)
	hubs := &fakeHubRepo{hubs: map[int]*model.Hub{3: testHub(3)}}
	session := &fakeSession{
		failOn: map[string]bool{"<101@example.com>": true},
		hits:   map[string][]uint32{"<102@example.com>": {4}},
	}
	dialer := &fakeDialer{session: session}

	c := newTestCorrelator(emails, hubs, dialer)
	require.NoError(t, c.Sweep(context.Background()))

	// 101 stays unresolved for the next sweep, 102 is still processed.
	r101, _ := emails.GetRecipient(context.Background(), 101)
	assert.False(t, r101.Replied)
	r102, _ := emails.GetRecipient(context.Background(), 102)
	assert.True(t, r102.Replied)
	assert.True(t, session.loggedOut)
}

func TestSweepContinuesPastDialFailure(t *testing.T) {
	emails := newFakeEmailRepo()
	seedHubCampaign(emails, 3)
	hub4 := testHub(4)
	hubs := &fakeHubRepo{hubs: map[int]*model.Hub{3: testHub(3), 4: hub4}}
	dialer := &fakeDialer{err: fmt.Errorf("connection refused")}

	c := newTestCorrelator(emails, hubs, dialer)
	require.NoError(t, c.Sweep(context.Background()), "a failed hub never aborts the sweep")
	assert.Equal(t, 2, dialer.dialed)
}
