// Package session stores the authenticated principal inside the signed
// session cookie and reads it back on later requests. Expiry is carried in
// the principal itself so activity never extends it.
package session

import (
	"encoding/gob"
	"time"

	"github.com/identra/identra/config"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const principalKey = "LOGIN_PRINCIPAL"

// Claim keys for the issuance timestamps; attribute keys come from the
// configured claim mapping.
const (
	issuedAtClaim  = "iat"
	expiresAtClaim = "exp"
)

var (
	claimCfg  config.ClaimOptions
	cookieCfg config.CookieOptions

	// overridable for expiry tests
	now = time.Now
)

func init() {
	gob.Register(map[string]any{})
	gob.Register([]string{})
}

// Init installs the claim mapping and cookie options. Called once while the
// server wires its router.
func Init(claims config.ClaimOptions, cookie config.CookieOptions) {
	claimCfg = claims
	cookieCfg = cookie
}

// Principal is the authenticated identity attached to a request after the
// cookie has been verified.
type Principal struct {
	UserID        string
	UserName      string
	GivenName     string
	Surname       string
	SecurityStamp string
	Roles         []string
	IssuedAt      time.Time
	ExpiresAt     time.Time
}

// HasRole reports whether the principal carries the given role name.
func (p *Principal) HasRole(name string) bool {
	for _, role := range p.Roles {
		if role == name {
			return true
		}
	}
	return false
}

// SetPrincipal serializes the principal into the session cookie. The cookie
// is persistent, scoped by the configured options, and marked Secure when
// the request itself came over TLS.
func SetPrincipal(c *gin.Context, p *Principal) error {
	s := sessions.Default(c)
	s.Options(sessions.Options{
		Path:     cookieCfg.Path,
		MaxAge:   int(cookieCfg.MaxAge().Seconds()),
		HttpOnly: cookieCfg.HTTPOnly,
		SameSite: cookieCfg.SameSiteMode(),
		Secure:   c.Request.TLS != nil,
	})
	s.Set(principalKey, toClaims(p))
	return s.Save()
}

// GetPrincipal deserializes the principal from the session cookie. Returns
// nil when the cookie is absent, malformed or past its expiry.
func GetPrincipal(c *gin.Context) *Principal {
	s := sessions.Default(c)
	obj := s.Get(principalKey)
	if obj == nil {
		return nil
	}
	claims, ok := obj.(map[string]any)
	if !ok {
		return nil
	}
	p := fromClaims(claims)
	if p == nil || !p.ExpiresAt.After(now()) {
		return nil
	}
	return p
}

// IsAuthenticated reports whether the request carries a valid, unexpired
// principal. It never touches the store.
func IsAuthenticated(c *gin.Context) bool {
	return GetPrincipal(c) != nil
}

// Clear drops the session and expires the cookie on the client.
func Clear(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{
		Path:   cookieCfg.Path,
		MaxAge: -1,
	})
	if err := s.Save(); err != nil {
		return err
	}
	c.SetCookie(cookieCfg.Name, "", -1, cookieCfg.Path, "", false, true)
	return nil
}

func toClaims(p *Principal) map[string]any {
	return map[string]any{
		claimCfg.UserID:        p.UserID,
		claimCfg.UserName:      p.UserName,
		claimCfg.GivenName:     p.GivenName,
		claimCfg.Surname:       p.Surname,
		claimCfg.SecurityStamp: p.SecurityStamp,
		claimCfg.Roles:         p.Roles,
		issuedAtClaim:          p.IssuedAt.Unix(),
		expiresAtClaim:         p.ExpiresAt.Unix(),
	}
}

func fromClaims(claims map[string]any) *Principal {
	userID, ok := claims[claimCfg.UserID].(string)
	if !ok || userID == "" {
		return nil
	}
	issuedAt, ok := claims[issuedAtClaim].(int64)
	if !ok {
		return nil
	}
	expiresAt, ok := claims[expiresAtClaim].(int64)
	if !ok {
		return nil
	}

	p := &Principal{
		UserID:    userID,
		IssuedAt:  time.Unix(issuedAt, 0),
		ExpiresAt: time.Unix(expiresAt, 0),
	}
	p.UserName, _ = claims[claimCfg.UserName].(string)
	p.GivenName, _ = claims[claimCfg.GivenName].(string)
	p.Surname, _ = claims[claimCfg.Surname].(string)
	p.SecurityStamp, _ = claims[claimCfg.SecurityStamp].(string)
	if roles, ok := claims[claimCfg.Roles].([]string); ok {
		p.Roles = roles
	}
	return p
}
