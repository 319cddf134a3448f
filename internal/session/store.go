package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Storage keys and cookie names. The cookie mirrors exist so the edge gate
// can see the session without reading storage.
const (
	KeyToken    = "token"
	KeyUser     = "user"
	CookieToken = "token"
	CookieRole  = "role"

	// CookieMaxAge is seven days in seconds
	CookieMaxAge = 60 * 60 * 24 * 7
)

var (
	ErrEmptyToken       = errors.New("empty token")
	ErrMalformedSession = errors.New("malformed session")
)

// CookieJar gives the store access to the edge-visible cookie mirror
type CookieJar interface {
	Cookie(name string) (string, bool)
	SetCookie(name, value string, maxAge int)
	DeleteCookie(name string)
}

// Store is the single writer of session artifacts: token and user in
// Storage, plus the token/role cookie mirror when a CookieJar is attached.
type Store struct {
	storage Storage
	cookies CookieJar
	log     zerolog.Logger
}

// NewStore creates a store over storage. cookies may be nil when there is
// no edge layer (the CLI).
func NewStore(storage Storage, cookies CookieJar, log zerolog.Logger) *Store {
	return &Store{
		storage: storage,
		cookies: cookies,
		log:     log,
	}
}

// Save writes token and user together. A failure on the user write rolls
// back the token so no partial session is left behind.
func (s *Store) Save(token string, user User) error {
	if token == "" {
		return ErrEmptyToken
	}
	if !user.Role.Valid() {
		return fmt.Errorf("%w: invalid role %q", ErrMalformedSession, user.Role)
	}

	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	if err := s.storage.Set(KeyToken, token); err != nil {
		return err
	}
	if err := s.storage.Set(KeyUser, string(payload)); err != nil {
		if delErr := s.storage.Delete(KeyToken); delErr != nil {
			s.log.Error().Err(delErr).Msg("Failed to roll back token after user write failure")
		}
		return err
	}

	if s.cookies != nil {
		s.cookies.SetCookie(CookieToken, token, CookieMaxAge)
		s.cookies.SetCookie(CookieRole, string(user.Role), CookieMaxAge)
	}

	return nil
}

// Read returns the stored session. Partial or corrupt state is reported as
// absent and the stale artifacts are cleared.
func (s *Store) Read() (Session, bool) {
	sess, err := s.load()
	if err == nil {
		return sess, true
	}

	if errors.Is(err, ErrMalformedSession) {
		s.log.Warn().Err(err).Msg("Discarding malformed session")
		if clearErr := s.Clear(); clearErr != nil {
			s.log.Error().Err(clearErr).Msg("Failed to clear malformed session")
		}
	} else if !errors.Is(err, errNoSession) {
		s.log.Error().Err(err).Msg("Failed to read session")
	}

	return Session{}, false
}

// Token returns the stored bearer token, or "" when there is no session
func (s *Store) Token() string {
	sess, ok := s.Read()
	if !ok {
		return ""
	}
	return sess.Token
}

// Clear removes the token, the user and both cookies
func (s *Store) Clear() error {
	var errs []error
	if err := s.storage.Delete(KeyToken); err != nil {
		errs = append(errs, err)
	}
	if err := s.storage.Delete(KeyUser); err != nil {
		errs = append(errs, err)
	}

	if s.cookies != nil {
		s.cookies.DeleteCookie(CookieToken)
		s.cookies.DeleteCookie(CookieRole)
	}

	return errors.Join(errs...)
}

var errNoSession = errors.New("no session")

func (s *Store) load() (Session, error) {
	token, hasToken, err := s.storage.Get(KeyToken)
	if err != nil {
		return Session{}, err
	}
	raw, hasUser, err := s.storage.Get(KeyUser)
	if err != nil {
		return Session{}, err
	}

	switch {
	case !hasToken && !hasUser:
		return Session{}, errNoSession
	case !hasToken || token == "":
		return Session{}, fmt.Errorf("%w: user without token", ErrMalformedSession)
	case !hasUser:
		return Session{}, fmt.Errorf("%w: token without user", ErrMalformedSession)
	}

	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrMalformedSession, err)
	}
	role, err := ParseRole(string(user.Role))
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrMalformedSession, err)
	}
	user.Role = role

	if s.cookies != nil {
		cookieToken, ok := s.cookies.Cookie(CookieToken)
		if !ok {
			return Session{}, fmt.Errorf("%w: token cookie missing", ErrMalformedSession)
		}
		if cookieToken != token {
			return Session{}, fmt.Errorf("%w: token cookie does not match storage", ErrMalformedSession)
		}
	}

	return Session{Token: token, User: user}, nil
}
