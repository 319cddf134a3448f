package session

import "sync"

// MemoryCookieJar is an in-process CookieJar, used where there is no HTTP
// response to carry cookies (tests, embedded use)
type MemoryCookieJar struct {
	mu      sync.Mutex
	cookies map[string]string
	maxAge  map[string]int
}

func NewMemoryCookieJar() *MemoryCookieJar {
	return &MemoryCookieJar{
		cookies: make(map[string]string),
		maxAge:  make(map[string]int),
	}
}

func (j *MemoryCookieJar) Cookie(name string) (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	v, ok := j.cookies[name]
	return v, ok
}

func (j *MemoryCookieJar) SetCookie(name, value string, maxAge int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cookies[name] = value
	j.maxAge[name] = maxAge
}

func (j *MemoryCookieJar) DeleteCookie(name string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.cookies, name)
	delete(j.maxAge, name)
}

// MaxAge returns the max-age the cookie was last set with
func (j *MemoryCookieJar) MaxAge(name string) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.maxAge[name]
}
