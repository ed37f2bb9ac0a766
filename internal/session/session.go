package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"bytefinance/internal/api"
	"bytefinance/internal/tokenstore"
)

// Validation failures are detected before any network call and are never
// logged remotely.
var (
	ErrMissingFields    = errors.New("all fields are required")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

const minPasswordLen = 8

// AuthAPI is the slice of the backend client the manager needs.
type AuthAPI interface {
	Login(ctx context.Context, email, password string, remember bool) (api.AuthResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (api.AuthResponse, error)
	Me(ctx context.Context) (api.User, error)
	Logout(ctx context.Context) error
}

// State is a snapshot of the authentication state. Invariant: an absent
// token implies an absent user.
type State struct {
	Token   string
	User    *api.User
	Loading bool
	Err     string
	// Ready is false until Initialize (or any mutating operation) has
	// resolved once. Guards wait rather than redirect while unready.
	Ready bool
}

func (s State) Authenticated() bool { return s.Token != "" }

func (s State) Admin() bool { return s.User != nil && s.User.IsAdmin() }

// Manager is the single source of truth for "is the user authenticated,
// and as whom". Mutating operations are serialized through one mutex so
// overlapping calls apply in submission order, not completion order.
// Consumers receive the manager by injection and observe changes through
// Subscribe; there is no ambient singleton.
type Manager struct {
	backend AuthAPI
	tokens  tokenstore.Store

	opMu sync.Mutex // single-writer discipline for mutating operations

	mu     sync.Mutex
	state  State
	subs   map[int]func(State)
	nextID int
}

func NewManager(backend AuthAPI, tokens tokenstore.Store) *Manager {
	return &Manager{
		backend: backend,
		tokens:  tokens,
		subs:    make(map[int]func(State)),
	}
}

// State returns the current snapshot.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers fn to run on every state change and returns a
// cancel func. fn is invoked synchronously with the new snapshot.
func (m *Manager) Subscribe(fn func(State)) (cancel func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Manager) publish(mutate func(*State)) {
	m.mu.Lock()
	mutate(&m.state)
	snapshot := m.state
	fns := make([]func(State), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn(snapshot)
	}
}

// Initialize reads the persisted token at startup. Without a token the
// session is unauthenticated and no network call is made. With one, the
// identity is fetched. A failed fetch keeps the token and leaves the
// user empty; only an unauthorized response clears the token, through
// the API client's 401 handling.
func (m *Manager) Initialize(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	token, err := m.tokens.Token()
	if err != nil {
		return err
	}
	if token == "" {
		m.publish(func(s *State) { *s = State{Ready: true} })
		return nil
	}
	return m.refresh(ctx, token)
}

// CheckAuth re-derives the user from the current token without a full
// login.
func (m *Manager) CheckAuth(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	token, err := m.tokens.Token()
	if err != nil {
		return err
	}
	if token == "" {
		m.publish(func(s *State) { *s = State{Ready: true} })
		return nil
	}
	return m.refresh(ctx, token)
}

func (m *Manager) refresh(ctx context.Context, token string) error {
	m.publish(func(s *State) {
		s.Token = token
		s.Loading = true
		s.Err = ""
	})

	user, err := m.backend.Me(ctx)

	// The 401 path clears the store inside the API client; re-reading
	// here keeps the token-absent-implies-user-absent invariant intact.
	current, storeErr := m.tokens.Token()
	if storeErr != nil {
		current = token
	}
	m.publish(func(s *State) {
		s.Loading = false
		s.Ready = true
		s.Token = current
		if err != nil || current == "" {
			s.User = nil
			return
		}
		s.User = &user
	})
	if err != nil {
		return err
	}
	return nil
}

// Login validates, then exchanges credentials for a token. On success
// the token is persisted and the user populated; on failure the error
// message from the server payload is surfaced and the failure re-raised.
func (m *Manager) Login(ctx context.Context, email, password string, remember bool) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return ErrMissingFields
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.publish(func(s *State) {
		s.Loading = true
		s.Err = ""
	})

	resp, err := m.backend.Login(ctx, email, password, remember)
	if err != nil {
		m.publish(func(s *State) {
			s.Loading = false
			s.Ready = true
			s.Err = userMessage(err, "Login failed")
		})
		return err
	}
	if err := m.tokens.SetToken(resp.Token); err != nil {
		m.publish(func(s *State) {
			s.Loading = false
			s.Ready = true
		})
		return err
	}
	user := resp.User
	m.publish(func(s *State) {
		s.Loading = false
		s.Ready = true
		s.Token = resp.Token
		s.User = &user
		s.Err = ""
	})
	return nil
}

// Register validates all fields client side before any network call,
// then behaves like Login.
func (m *Manager) Register(ctx context.Context, name, email, password, confirmation string) error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" ||
		password == "" || confirmation == "" {
		return ErrMissingFields
	}
	if len(password) < minPasswordLen {
		return ErrPasswordTooShort
	}
	if password != confirmation {
		return ErrPasswordMismatch
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.publish(func(s *State) {
		s.Loading = true
		s.Err = ""
	})

	resp, err := m.backend.Register(ctx, api.RegisterRequest{
		Name:                 name,
		Email:                strings.TrimSpace(email),
		Password:             password,
		PasswordConfirmation: confirmation,
	})
	if err != nil {
		m.publish(func(s *State) {
			s.Loading = false
			s.Ready = true
			s.Err = userMessage(err, "Registration failed")
		})
		return err
	}
	if err := m.tokens.SetToken(resp.Token); err != nil {
		m.publish(func(s *State) {
			s.Loading = false
			s.Ready = true
		})
		return err
	}
	user := resp.User
	m.publish(func(s *State) {
		s.Loading = false
		s.Ready = true
		s.Token = resp.Token
		s.User = &user
		s.Err = ""
	})
	return nil
}

// Logout revokes the token server side, best effort, then always clears
// the persisted token and in-memory state. A failed revocation call must
// not leave a local session behind.
func (m *Manager) Logout(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.publish(func(s *State) { s.Loading = true })

	_ = m.backend.Logout(ctx) // best effort

	clearErr := m.tokens.Clear()
	m.publish(func(s *State) { *s = State{Ready: true} })
	return clearErr
}

func userMessage(err error, fallback string) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage(fallback)
	}
	return fallback
}
