package config

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// PasswordOptions control password acceptance on registration. Every check
// defaults to off: the API accepts any non-empty password.
type PasswordOptions struct {
	RequireDigit           bool `toml:"require_digit"`
	RequireLowercase       bool `toml:"require_lowercase"`
	RequireUppercase       bool `toml:"require_uppercase"`
	RequireNonAlphanumeric bool `toml:"require_non_alphanumeric"`
	RequiredLength         int  `toml:"required_length"`
}

// LockoutOptions control failed-login lockout.
type LockoutOptions struct {
	MaxFailedAttempts  int  `toml:"max_failed_attempts"`
	WindowMinutes      int  `toml:"window_minutes"`
	EnabledForNewUsers bool `toml:"enabled_for_new_users"`
}

func (o LockoutOptions) Window() time.Duration {
	return time.Duration(o.WindowMinutes) * time.Minute
}

// CookieOptions describe the session cookie. Expiry is fixed at issuance and
// never extended by activity.
type CookieOptions struct {
	Name       string `toml:"name"`
	Path       string `toml:"path"`
	HTTPOnly   bool   `toml:"http_only"`
	SameSite   string `toml:"same_site"` // "lax", "strict" or "none"
	MaxAgeDays int    `toml:"max_age_days"`
}

func (o CookieOptions) MaxAge() time.Duration {
	return time.Duration(o.MaxAgeDays) * 24 * time.Hour
}

func (o CookieOptions) SameSiteMode() http.SameSite {
	switch strings.ToLower(o.SameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// ClaimOptions map principal attributes to the claim keys they are stored
// under inside the session cookie.
type ClaimOptions struct {
	UserID        string `toml:"user_id"`
	UserName      string `toml:"user_name"`
	GivenName     string `toml:"given_name"`
	Surname       string `toml:"surname"`
	SecurityStamp string `toml:"security_stamp"`
	Roles         string `toml:"roles"`
}

// IdentityOptions is the immutable identity configuration built once in main
// and passed to the web server.
type IdentityOptions struct {
	Password PasswordOptions `toml:"password"`
	Lockout  LockoutOptions  `toml:"lockout"`
	Cookie   CookieOptions   `toml:"cookie"`
	Claims   ClaimOptions    `toml:"claims"`
}

func DefaultIdentityOptions() IdentityOptions {
	return IdentityOptions{
		Password: PasswordOptions{},
		Lockout: LockoutOptions{
			MaxFailedAttempts:  5,
			WindowMinutes:      5,
			EnabledForNewUsers: true,
		},
		Cookie: CookieOptions{
			Name:       "identra_session",
			Path:       "/",
			HTTPOnly:   true,
			SameSite:   "lax",
			MaxAgeDays: 30,
		},
		Claims: ClaimOptions{
			UserID:        "sub",
			UserName:      "name",
			GivenName:     "given_name",
			Surname:       "family_name",
			SecurityStamp: "stamp",
			Roles:         "roles",
		},
	}
}

// LoadFile overlays options from a TOML file. A missing file is not an
// error; defaults stay in effect.
func (o *IdentityOptions) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return toml.Unmarshal(data, o)
}

// CheckValid validates the options before the server starts.
func (o *IdentityOptions) CheckValid() error {
	if o.Cookie.Name == "" {
		return errors.New("cookie name can not be empty")
	}
	if !strings.HasPrefix(o.Cookie.Path, "/") {
		return errors.New("cookie path must start with /: " + o.Cookie.Path)
	}
	if o.Cookie.MaxAgeDays <= 0 {
		return errors.New("cookie max age must be positive")
	}
	switch strings.ToLower(o.Cookie.SameSite) {
	case "lax", "strict", "none":
	default:
		return errors.New("unknown same-site mode: " + o.Cookie.SameSite)
	}
	if o.Lockout.MaxFailedAttempts < 0 || o.Lockout.WindowMinutes < 0 {
		return errors.New("lockout thresholds can not be negative")
	}
	if o.Password.RequiredLength < 0 {
		return errors.New("required password length can not be negative")
	}
	claims := []string{
		o.Claims.UserID, o.Claims.UserName, o.Claims.GivenName,
		o.Claims.Surname, o.Claims.SecurityStamp, o.Claims.Roles,
	}
	seen := make(map[string]bool, len(claims))
	for _, key := range claims {
		if key == "" {
			return errors.New("claim keys can not be empty")
		}
		if seen[key] {
			return errors.New("duplicate claim key: " + key)
		}
		seen[key] = true
	}
	return nil
}
