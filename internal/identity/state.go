package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// User is the signed-in account as seen by the client.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Snapshot is the auth state delivered to subscribers.
type Snapshot struct {
	User    *User
	Loading bool
}

// SignedIn reports whether a user is present.
func (s Snapshot) SignedIn() bool {
	return s.User != nil
}

// State is an observable holder of the current user. It starts in the
// loading state until the first SetUser call.
type State struct {
	mu     sync.Mutex
	snap   Snapshot
	nextID int
	subs   map[int]func(Snapshot)
}

// NewState constructs a State in the loading state.
func NewState() *State {
	return &State{
		snap: Snapshot{Loading: true},
		subs: make(map[int]func(Snapshot)),
	}
}

// Current returns the latest snapshot.
func (s *State) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Subscribe registers fn and calls it with the current snapshot. The returned
// function removes the subscription and is safe to call more than once.
func (s *State) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	snap := s.snap
	s.mu.Unlock()

	fn(snap)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// SetUser publishes a new user (nil when signed out) and ends loading.
func (s *State) SetUser(u *User) {
	s.mu.Lock()
	s.snap = Snapshot{User: u}
	snap := s.snap
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// ErrUnauthorized is returned by an Authenticator for a rejected token.
var ErrUnauthorized = errors.New("identity: unauthorized")

// Authenticator talks to the Aurora server on behalf of a Session.
type Authenticator interface {
	LoginWithGoogle(ctx context.Context, code string) (string, User, error)
	Me(ctx context.Context, token string) (User, error)
	Logout(ctx context.Context, token string) error
}

// Session ties the auth state to a token store and the server.
type Session struct {
	state  *State
	tokens TokenStore
	auth   Authenticator
}

// NewSession constructs a Session.
func NewSession(state *State, tokens TokenStore, auth Authenticator) *Session {
	return &Session{state: state, tokens: tokens, auth: auth}
}

// State returns the observable auth state.
func (s *Session) State() *State {
	return s.state
}

// Restore resolves the stored token into a user. A rejected token is dropped.
func (s *Session) Restore(ctx context.Context) error {
	token, err := s.tokens.Load()
	if errors.Is(err, ErrNoToken) {
		s.state.SetUser(nil)
		return nil
	}
	if err != nil {
		s.state.SetUser(nil)
		return err
	}
	user, errMe := s.auth.Me(ctx, token)
	if errMe != nil {
		s.state.SetUser(nil)
		if errors.Is(errMe, ErrUnauthorized) {
			_ = s.tokens.Delete()
			return nil
		}
		return errMe
	}
	s.state.SetUser(&user)
	return nil
}

// SignIn exchanges a Google authorization code and stores the session token.
func (s *Session) SignIn(ctx context.Context, code string) (User, error) {
	token, user, err := s.auth.LoginWithGoogle(ctx, code)
	if err != nil {
		return User{}, err
	}
	if errSave := s.tokens.Save(token); errSave != nil {
		return User{}, errSave
	}
	s.state.SetUser(&user)
	return user, nil
}

// SignOut drops the local token and notifies subscribers.
func (s *Session) SignOut(ctx context.Context) error {
	token, err := s.tokens.Load()
	if err == nil {
		if errLogout := s.auth.Logout(ctx, token); errLogout != nil && !errors.Is(errLogout, ErrUnauthorized) {
			return errLogout
		}
	}
	if errDelete := s.tokens.Delete(); errDelete != nil && !errors.Is(errDelete, ErrNoToken) {
		return errDelete
	}
	s.state.SetUser(nil)
	return nil
}

// Token returns the stored session token, or ErrNoToken when signed out.
func (s *Session) Token() (string, error) {
	token, err := s.tokens.Load()
	if err != nil {
		if errors.Is(err, ErrNoToken) {
			return "", err
		}
		return "", fmt.Errorf("identity: load token: %w", err)
	}
	return token, nil
}
