package portal

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	"github.com/farahmhedhbi/fleet-management-sub000/internal/api"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/authctx"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/authsvc"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/session"
)

const (
	browserIDCookie = "bid"
	browserIDKey    = "portal.bid"
	requestAuthKey  = "portal.auth"

	// one year
	browserIDMaxAge = 60 * 60 * 24 * 365
)

// requestAuth is the auth context of one request
type requestAuth struct {
	provider *authctx.Provider
	client   *api.Client
	nav      *redirector
}

// redirector records the last navigation the provider asked for
type redirector struct {
	target string
}

func (r *redirector) navigate(path string) {
	r.target = path
}

// browserIDMiddleware gives every browser a stable id that scopes its
// persisted session state
func (s *Server) browserIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		bid, err := c.Cookie(browserIDCookie)
		if err != nil {
			bid = ""
		}
		if _, perr := ulid.ParseStrict(bid); perr != nil {
			bid = ulid.Make().String()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(browserIDCookie, bid, browserIDMaxAge, "/", "", s.config.Portal.CookieSecure, true)
		}

		c.Set(browserIDKey, bid)
		c.Next()
	}
}

// sessionMiddleware builds the auth context for the request and hydrates it
// from the browser's persisted session
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		bid := c.GetString(browserIDKey)
		log := s.logger.With().Str("bid", bid).Logger()

		jar := newGinCookieJar(c, s.config.Portal.CookieSecure)
		store := session.NewStore(session.NewGormStorage(s.db, bid), jar, log)
		nav := &redirector{}

		var provider *authctx.Provider
		client := s.api.WithSession(store.Token, func() {
			provider.ExpireSession()
		})
		provider = authctx.NewProvider(store, authsvc.New(client, log),
			authctx.WithNavigator(nav.navigate),
			authctx.WithSequencer(s.seq, bid),
			authctx.WithLogger(log),
		)
		provider.Hydrate()

		c.Set(requestAuthKey, &requestAuth{
			provider: provider,
			client:   client,
			nav:      nav,
		})
		c.Next()
	}
}

func authFromContext(c *gin.Context) (*requestAuth, bool) {
	v, ok := c.Get(requestAuthKey)
	if !ok {
		return nil, false
	}
	ra, ok := v.(*requestAuth)
	return ra, ok
}

func providerFromContext(c *gin.Context) (*authctx.Provider, bool) {
	ra, ok := authFromContext(c)
	if !ok {
		return nil, false
	}
	return ra.provider, true
}

// mustAuth returns the request auth context. Routes are only registered
// behind sessionMiddleware, so a missing value is a wiring bug.
func mustAuth(c *gin.Context) *requestAuth {
	ra, ok := authFromContext(c)
	if !ok {
		panic("portal: session middleware not installed")
	}
	return ra
}
