package authctx

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/farahmhedhbi/fleet-management-sub000/internal/authsvc"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/session"
)

// Navigation targets
const (
	DashboardPath = "/dashboard"
	LoginPath     = "/login"
	ExpiredPath   = "/login?expired=true"
)

// ErrSuperseded marks a submission that lost to a newer one from the same caller
var ErrSuperseded = errors.New("superseded by a newer request")

// Status is the authentication state of a Provider
type Status int

const (
	StatusLoading Status = iota
	StatusAnonymous
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Snapshot is a consistent copy of the provider state
type Snapshot struct {
	Status Status       `json:"status"`
	User   session.User `json:"user"`
}

// Authenticated reports whether the snapshot carries a signed-in user
func (s Snapshot) Authenticated() bool {
	return s.Status == StatusAuthenticated
}

// Result is what the form-facing operations report back
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`

	// Superseded is set when a newer request from the same browser won
	Superseded bool `json:"-"`
}

// Store is the session persistence the provider drives
type Store interface {
	Save(token string, user session.User) error
	Read() (session.Session, bool)
	Clear() error
	Token() string
}

// Authenticator is the network side of authentication
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*authsvc.AuthResponse, error)
	Register(ctx context.Context, req authsvc.RegisterRequest) (*authsvc.AuthResponse, error)
	Logout(store authsvc.SessionClearer) error
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) (string, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) (string, error)
}

// Navigator moves the caller to another page
type Navigator func(path string)

// Option configures a Provider
type Option func(*Provider)

// WithNavigator sets the function used to move the user after a state change
func WithNavigator(nav Navigator) Option {
	return func(p *Provider) {
		p.navigate = nav
	}
}

// WithSequencer makes login and register submissions for key supersede each other
func WithSequencer(seq *Sequencer, key string) Option {
	return func(p *Provider) {
		p.seq = seq
		p.seqKey = key
	}
}

// WithLogger sets the provider logger
func WithLogger(log zerolog.Logger) Option {
	return func(p *Provider) {
		p.log = log
	}
}

// Provider owns the authentication state for one browser or CLI session.
// It starts in StatusLoading until Hydrate reads the session store.
type Provider struct {
	mu     sync.Mutex
	status Status
	user   session.User

	store    Store
	svc      Authenticator
	navigate Navigator
	seq      *Sequencer
	seqKey   string
	log      zerolog.Logger

	hydrateOnce sync.Once
}

// NewProvider creates a provider in the Loading state
func NewProvider(store Store, svc Authenticator, opts ...Option) *Provider {
	p := &Provider{
		status:   StatusLoading,
		store:    store,
		svc:      svc,
		navigate: func(string) {},
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Hydrate performs the one transition out of Loading from persisted state.
// Later calls are no-ops.
func (p *Provider) Hydrate() {
	p.hydrateOnce.Do(func() {
		sess, ok := p.store.Read()

		p.mu.Lock()
		defer p.mu.Unlock()

		// A login that settled first already decided the state
		if p.status != StatusLoading {
			return
		}
		if ok {
			p.status = StatusAuthenticated
			p.user = sess.User
		} else {
			p.status = StatusAnonymous
		}
	})
}

// Snapshot returns the current state
func (p *Provider) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{Status: p.status, User: p.user}
}

// IsAuthenticated reports whether a user is signed in
func (p *Provider) IsAuthenticated() bool {
	return p.Snapshot().Authenticated()
}

// HasAnyRole reports whether the signed-in user holds one of roles.
// With no roles it only requires authentication.
func (p *Provider) HasAnyRole(roles ...session.Role) bool {
	snap := p.Snapshot()
	if !snap.Authenticated() {
		return false
	}
	return session.NewRoleSet(roles...).Allows(snap.User.Role)
}

// Token returns the bearer token of the current session
func (p *Provider) Token() string {
	return p.store.Token()
}

// Login authenticates with email and password
func (p *Provider) Login(ctx context.Context, email, password string) Result {
	return p.authenticate(ctx, "login", "Login failed", func(ctx context.Context) (*authsvc.AuthResponse, error) {
		return p.svc.Login(ctx, email, password)
	})
}

// Register creates an account and signs it in
func (p *Provider) Register(ctx context.Context, req authsvc.RegisterRequest) Result {
	return p.authenticate(ctx, "register", "Registration failed", func(ctx context.Context) (*authsvc.AuthResponse, error) {
		return p.svc.Register(ctx, req)
	})
}

func (p *Provider) authenticate(ctx context.Context, op, fallback string, call func(context.Context) (*authsvc.AuthResponse, error)) Result {
	var ticket *Ticket
	if p.seq != nil {
		ctx, ticket = p.seq.Begin(ctx, p.seqKey)
	}

	resp, err := call(ctx)

	var (
		result   Result
		navigate bool
	)
	commit := func() {
		result, navigate = p.settle(op, fallback, resp, err)
	}

	if ticket != nil {
		if !p.seq.Finish(ticket, commit) {
			p.log.Info().Str("op", op).Msg("Discarding superseded authentication result")
			return Result{Success: false, Message: ErrSuperseded.Error(), Superseded: true}
		}
	} else {
		commit()
	}

	if navigate {
		p.navigate(DashboardPath)
	}
	return result
}

// settle applies the outcome of a login or register call. It reports
// whether the caller should navigate to the dashboard.
func (p *Provider) settle(op, fallback string, resp *authsvc.AuthResponse, err error) (Result, bool) {
	if err != nil {
		p.dropSession(op)
		p.log.Info().Err(err).Str("op", op).Msg("Authentication failed")
		return Result{Success: false, Message: authsvc.MessageOf(err, fallback)}, false
	}

	role, roleErr := session.ParseRole(resp.Role)
	if roleErr != nil {
		p.dropSession(op)
		p.log.Error().Err(roleErr).Str("op", op).Msg("API returned an unusable role")
		return Result{Success: false, Message: fallback}, false
	}

	user := session.User{
		ID:        resp.ID,
		FirstName: resp.FirstName,
		LastName:  resp.LastName,
		Email:     resp.Email,
		Role:      role,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if saveErr := p.store.Save(resp.Token, user); saveErr != nil {
		p.status = StatusAnonymous
		p.user = session.User{}
		p.log.Error().Err(saveErr).Str("op", op).Msg("Failed to persist session")
		return Result{Success: false, Message: fallback}, false
	}

	p.status = StatusAuthenticated
	p.user = user
	p.log.Info().Str("op", op).Int64("user_id", user.ID).Str("role", string(role)).Msg("Session established")
	return Result{Success: true}, true
}

// dropSession moves to Anonymous after a failed sign-in. Any session stored
// by an earlier sign-in goes too, so the next read agrees with the state.
func (p *Provider) dropSession(op string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.svc.Logout(p.store); err != nil {
		p.log.Error().Err(err).Str("op", op).Msg("Failed to clear session")
	}
	p.status = StatusAnonymous
	p.user = session.User{}
}

// Logout ends the session and sends the user to the login page
func (p *Provider) Logout() {
	p.endSession("logout")
	p.navigate(LoginPath)
}

// ExpireSession ends a session the API no longer accepts
func (p *Provider) ExpireSession() {
	p.endSession("expired")
	p.navigate(ExpiredPath)
}

func (p *Provider) endSession(reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.svc.Logout(p.store); err != nil {
		p.log.Error().Err(err).Str("reason", reason).Msg("Failed to clear session")
	}
	p.status = StatusAnonymous
	p.user = session.User{}
	p.log.Info().Str("reason", reason).Msg("Session ended")
}

// ForgotPassword requests a reset link
func (p *Provider) ForgotPassword(ctx context.Context, email string) Result {
	msg, err := p.svc.ForgotPassword(ctx, email)
	if err != nil {
		return Result{Success: false, Message: authsvc.MessageOf(err, "Request failed")}
	}
	return Result{Success: true, Message: msg}
}

// ResetPassword sets a new password from a mailed token
func (p *Provider) ResetPassword(ctx context.Context, token, newPassword string) Result {
	msg, err := p.svc.ResetPassword(ctx, token, newPassword)
	if err != nil {
		return Result{Success: false, Message: authsvc.MessageOf(err, "Password reset failed")}
	}
	return Result{Success: true, Message: msg}
}

// ChangePassword changes the password and, on success, logs out before
// returning so the user signs in again with the new credentials.
func (p *Provider) ChangePassword(ctx context.Context, oldPassword, newPassword string) Result {
	msg, err := p.svc.ChangePassword(ctx, oldPassword, newPassword)
	if err != nil {
		return Result{Success: false, Message: authsvc.MessageOf(err, "Password change failed")}
	}

	p.Logout()
	return Result{Success: true, Message: msg}
}
