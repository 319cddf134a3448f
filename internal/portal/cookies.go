package portal

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ginCookieJar adapts a gin request/response pair to session.CookieJar.
// Writes are remembered so a read later in the same request sees them.
type ginCookieJar struct {
	c       *gin.Context
	secure  bool
	pending map[string]*string
}

func newGinCookieJar(c *gin.Context, secure bool) *ginCookieJar {
	return &ginCookieJar{
		c:       c,
		secure:  secure,
		pending: make(map[string]*string),
	}
}

func (j *ginCookieJar) Cookie(name string) (string, bool) {
	if v, ok := j.pending[name]; ok {
		if v == nil {
			return "", false
		}
		return *v, true
	}

	v, err := j.c.Cookie(name)
	if err != nil || v == "" {
		return "", false
	}
	return v, true
}

func (j *ginCookieJar) SetCookie(name, value string, maxAge int) {
	j.c.SetSameSite(http.SameSiteLaxMode)
	j.c.SetCookie(name, value, maxAge, "/", "", j.secure, true)
	j.pending[name] = &value
}

func (j *ginCookieJar) DeleteCookie(name string) {
	j.c.SetSameSite(http.SameSiteLaxMode)
	j.c.SetCookie(name, "", -1, "/", "", j.secure, true)
	j.pending[name] = nil
}
