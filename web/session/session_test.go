package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/identra/identra/config"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func newTestEngine(t *testing.T, opts config.IdentityOptions, p *Principal) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	Init(opts.Claims, opts.Cookie)
	t.Cleanup(func() {
		defaults := config.DefaultIdentityOptions()
		Init(defaults.Claims, defaults.Cookie)
		now = time.Now
	})

	engine := gin.New()
	store := cookie.NewStore([]byte("test-secret"))
	engine.Use(sessions.Sessions(opts.Cookie.Name, store))

	engine.POST("/in", func(c *gin.Context) {
		if err := SetPrincipal(c, p); err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})
	engine.GET("/check", func(c *gin.Context) {
		c.JSON(http.StatusOK, IsAuthenticated(c))
	})
	engine.GET("/who", func(c *gin.Context) {
		got := GetPrincipal(c)
		if got == nil {
			c.Status(http.StatusUnauthorized)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":    got.UserID,
			"name":  got.UserName,
			"given": got.GivenName,
			"sur":   got.Surname,
			"stamp": got.SecurityStamp,
			"roles": got.Roles,
		})
	})
	engine.POST("/out", func(c *gin.Context) {
		if err := Clear(c); err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})
	return engine
}

func testPrincipal(issued time.Time, ttl time.Duration) *Principal {
	return &Principal{
		UserID:        "u-1",
		UserName:      "alice@example.com",
		GivenName:     "Alice",
		Surname:       "Smith",
		SecurityStamp: "stamp-1",
		Roles:         []string{"admin", "member"},
		IssuedAt:      issued,
		ExpiresAt:     issued.Add(ttl),
	}
}

func issueCookies(t *testing.T, engine *gin.Engine) []*http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/in", nil)
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("issue failed: %d", w.Code)
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie issued")
	}
	return cookies
}

func TestPrincipalRoundTrip(t *testing.T) {
	opts := config.DefaultIdentityOptions()
	p := testPrincipal(time.Now(), opts.Cookie.MaxAge())
	engine := newTestEngine(t, opts, p)

	cookies := issueCookies(t, engine)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"u-1", "alice@example.com", "Alice", "Smith", "stamp-1", "admin", "member"} {
		if !strings.Contains(body, want) {
			t.Errorf("round-tripped principal missing %q in %s", want, body)
		}
	}
}

func TestCustomClaimMapping(t *testing.T) {
	opts := config.DefaultIdentityOptions()
	opts.Claims = config.ClaimOptions{
		UserID:        "uid",
		UserName:      "uname",
		GivenName:     "first",
		Surname:       "last",
		SecurityStamp: "serial",
		Roles:         "groups",
	}
	p := testPrincipal(time.Now(), opts.Cookie.MaxAge())
	engine := newTestEngine(t, opts, p)

	cookies := issueCookies(t, engine)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with custom claim keys, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "u-1") {
		t.Errorf("principal not recovered: %s", w.Body.String())
	}
}

func TestIsAuthenticatedWithoutCookie(t *testing.T) {
	opts := config.DefaultIdentityOptions()
	engine := newTestEngine(t, opts, testPrincipal(time.Now(), opts.Cookie.MaxAge()))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/check", nil))

	if got := w.Body.String(); got != "false" {
		t.Errorf("expected false, got %s", got)
	}
}

func TestExpiryIsFixedAtIssuance(t *testing.T) {
	opts := config.DefaultIdentityOptions()
	issued := time.Now()
	engine := newTestEngine(t, opts, testPrincipal(issued, opts.Cookie.MaxAge()))

	cookies := issueCookies(t, engine)

	check := func() string {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/check", nil)
		for _, ck := range cookies {
			req.AddCookie(ck)
		}
		engine.ServeHTTP(w, req)
		return w.Body.String()
	}

	if got := check(); got != "true" {
		t.Fatalf("fresh session: expected true, got %s", got)
	}

	// one day before the deadline the session is still valid
	now = func() time.Time { return issued.Add(29 * 24 * time.Hour) }
	if got := check(); got != "true" {
		t.Errorf("day 29: expected true, got %s", got)
	}

	// past the deadline it is rejected, activity never extended it
	now = func() time.Time { return issued.Add(31 * 24 * time.Hour) }
	if got := check(); got != "false" {
		t.Errorf("day 31: expected false, got %s", got)
	}
}

func TestClearDropsSession(t *testing.T) {
	opts := config.DefaultIdentityOptions()
	engine := newTestEngine(t, opts, testPrincipal(time.Now(), opts.Cookie.MaxAge()))

	cookies := issueCookies(t, engine)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/out", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("clear failed: %d", w.Code)
	}

	// the response must expire the cookie on the client
	expired := false
	for _, ck := range w.Result().Cookies() {
		if ck.Name == opts.Cookie.Name && ck.MaxAge < 0 {
			expired = true
		}
	}
	if !expired {
		t.Error("expected an expiring Set-Cookie for the session")
	}
}
