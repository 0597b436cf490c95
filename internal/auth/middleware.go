package auth

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CtxSessionKey = "auth_session"
	TokenCookie   = "token"
)

type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectHome
)

// GatePolicy decides which paths need a session. Public paths win over
// protected ones, and paths in neither list pass through.
type GatePolicy struct {
	PublicExact    []string
	PublicPrefixes []string
	Protected      []string
	Admin          []string
	LoginPath      string
	HomePath       string
}

func DefaultPolicy() GatePolicy {
	return GatePolicy{
		PublicExact:    []string{"/", "/login"},
		PublicPrefixes: []string{"/torrent/", "/api/torrents", "/api/tmdb"},
		Protected:      []string{"/profile", "/settings", "/admin", "/upload", "/api/upload"},
		Admin:          []string{"/admin"},
		LoginPath:      "/login",
		HomePath:       "/",
	}
}

func (p GatePolicy) Public(path string) bool {
	if slices.Contains(p.PublicExact, path) {
		return true
	}
	for _, prefix := range p.PublicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Decide applies the policy to path for an optional session.
func (p GatePolicy) Decide(path string, s *Session) Decision {
	if p.Public(path) || !matchesAny(path, p.Protected) {
		return Allow
	}
	if s == nil {
		return RedirectLogin
	}
	if matchesAny(path, p.Admin) && !s.IsAdmin {
		return RedirectHome
	}
	return Allow
}

// matchesAny matches whole path segments, so /admin covers /admin/x but
// not /administrator.
func matchesAny(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// TokenFromRequest reads the session token from the cookie, then from a
// bearer Authorization header.
func TokenFromRequest(c *gin.Context) string {
	if v, err := c.Cookie(TokenCookie); err == nil && v != "" {
		return v
	}
	h := c.GetHeader("Authorization")
	if len(h) > len("Bearer ") && strings.EqualFold(h[:len("Bearer ")], "bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	return ""
}

// Gate attaches the session (when valid) to the context and enforces the
// policy. API paths get JSON errors, page paths get redirects.
func Gate(tokens TokenService, policy GatePolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		s := tokens.Verify(TokenFromRequest(c))
		if s != nil {
			c.Set(CtxSessionKey, s)
		}

		switch policy.Decide(path, s) {
		case RedirectLogin:
			if isAPI(path) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
				return
			}
			c.Redirect(http.StatusFound, policy.LoginPath)
			c.Abort()
			return
		case RedirectHome:
			if isAPI(path) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
				return
			}
			c.Redirect(http.StatusFound, policy.HomePath)
			c.Abort()
			return
		}
		c.Next()
	}
}

func isAPI(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

func MustGetSession(c *gin.Context) *Session {
	v, ok := c.Get(CtxSessionKey)
	if !ok {
		return nil
	}
	s, _ := v.(*Session)
	return s
}
