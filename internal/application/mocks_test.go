package application_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ericfisherdev/clinicauth/internal/domain/model"
	"github.com/ericfisherdev/clinicauth/internal/domain/port/driven"
)

// --- Mock implementations ---

type mockAccountStore struct {
	mu        sync.Mutex
	byEmail   map[string]model.Account
	nextID    int
	getErr    error
	createErr error
	creates   int
}

func newMockAccountStore(accounts ...model.Account) *mockAccountStore {
	m := &mockAccountStore{byEmail: make(map[string]model.Account)}
	for _, a := range accounts {
		m.byEmail[a.Email] = a
	}
	return m
}

func (m *mockAccountStore) GetByEmail(_ context.Context, email string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	a, ok := m.byEmail[email]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *mockAccountStore) GetByID(_ context.Context, id string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byEmail {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, nil
}

func (m *mockAccountStore) Create(_ context.Context, account model.Account) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.createErr != nil {
		return model.Account{}, m.createErr
	}
	if _, ok := m.byEmail[account.Email]; ok {
		return model.Account{}, fmt.Errorf("create %q: %w", account.Email, driven.ErrAccountAlreadyExists)
	}
	m.nextID++
	account.ID = fmt.Sprintf("acct-%d", m.nextID)
	m.byEmail[account.Email] = account
	return account, nil
}

func (m *mockAccountStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byEmail)
}

type mockLedger struct {
	mu       sync.Mutex
	entries  map[string]model.OTPEntry
	deletes  []string
	putErr   error
	purgeErr error
}

func newMockLedger() *mockLedger {
	return &mockLedger{entries: make(map[string]model.OTPEntry)}
}

func (m *mockLedger) Put(_ context.Context, entry model.OTPEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.entries[entry.Email] = entry
	return nil
}

func (m *mockLedger) Get(_ context.Context, email string) (*model.OTPEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[email]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *mockLedger) Delete(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, email)
	delete(m.entries, email)
	return nil
}

func (m *mockLedger) Consume(_ context.Context, email, codeHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[email]
	if !ok || e.CodeHash != codeHash {
		return false, nil
	}
	delete(m.entries, email)
	return true, nil
}

func (m *mockLedger) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.purgeErr != nil {
		return 0, m.purgeErr
	}
	var n int64
	for email, e := range m.entries {
		if e.ExpiresAt.Before(now) {
			delete(m.entries, email)
			n++
		}
	}
	return n, nil
}

func (m *mockLedger) entry(email string) (model.OTPEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[email]
	return e, ok
}

type sentCode struct {
	Email string
	Code  string
}

type mockNotifier struct {
	mu   sync.Mutex
	sent []sentCode
	err  error
}

func (m *mockNotifier) Send(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentCode{Email: email, Code: code})
	return nil
}

func (m *mockNotifier) lastCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1].Code
}

// mockSigner issues opaque tokens and remembers them.
type mockSigner struct {
	mu       sync.Mutex
	sessions map[string]model.Session
	issued   int
	err      error
}

func newMockSigner() *mockSigner {
	return &mockSigner{sessions: make(map[string]model.Session)}
}

func (m *mockSigner) Issue(_ context.Context, account model.Account) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.issued++
	s := model.Session{
		Token:     fmt.Sprintf("token-%s-%d", account.ID, m.issued),
		AccountID: account.ID,
		Email:     account.Email,
		Name:      account.DisplayName,
	}
	m.sessions[s.Token] = s
	return &s, nil
}

func (m *mockSigner) Parse(_ context.Context, token string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return nil, driven.ErrInvalidSession
	}
	return &s, nil
}

type mockProvider struct {
	name     string
	identity *model.FederatedIdentity
	err      error
	codes    []string
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) AuthCodeURL(state string) string {
	return "https://" + m.name + ".example/authorize?state=" + state
}

func (m *mockProvider) Exchange(_ context.Context, code string) (*model.FederatedIdentity, error) {
	m.codes = append(m.codes, code)
	if m.err != nil {
		return nil, m.err
	}
	id := *m.identity
	return &id, nil
}

type mockLinkStore struct {
	links map[string]model.ProviderLink
	err   error
}

func newMockLinkStore() *mockLinkStore {
	return &mockLinkStore{links: make(map[string]model.ProviderLink)}
}

func (m *mockLinkStore) Upsert(_ context.Context, link model.ProviderLink) error {
	if m.err != nil {
		return m.err
	}
	m.links[link.Provider+"/"+link.Subject] = link
	return nil
}

func (m *mockLinkStore) Get(_ context.Context, provider, subject string) (*model.ProviderLink, error) {
	l, ok := m.links[provider+"/"+subject]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

// clock is a settable time source shared by services under test.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var errBoom = errors.New("boom")
