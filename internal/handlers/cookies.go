package handlers

import (
	"net/http"
	"time"

	"github.com/SscSPs/storefront_auth/internal/platform/config"
	"github.com/gin-gonic/gin"
)

const oauthStateCookie = "oauthState"

// refreshCookie writes and clears the HttpOnly cookie carrying the raw refresh token.
type refreshCookie struct {
	name   string
	path   string
	domain string
	secure bool
	maxAge int
}

func newRefreshCookie(cfg *config.Config) refreshCookie {
	return refreshCookie{
		name:   cfg.RefreshTokenCookieName,
		path:   cfg.RefreshTokenCookiePath,
		domain: cfg.RefreshTokenCookieDomain,
		secure: cfg.CookieSecure(),
		maxAge: int(cfg.RefreshTokenExpiryDuration.Seconds()),
	}
}

// set writes the cookie so that it lapses together with the token it carries.
func (rc refreshCookie) set(c *gin.Context, rawToken string, expiresAt time.Time) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(rc.name, rawToken, rc.maxAgeUntil(expiresAt), rc.path, rc.domain, rc.secure, true)
}

// maxAgeUntil never exceeds the configured TTL and never drops to zero,
// which browsers would treat as a session cookie.
func (rc refreshCookie) maxAgeUntil(expiresAt time.Time) int {
	if expiresAt.IsZero() {
		return rc.maxAge
	}
	secs := int(time.Until(expiresAt).Round(time.Second).Seconds())
	switch {
	case secs > rc.maxAge:
		return rc.maxAge
	case secs < 1:
		return 1
	}
	return secs
}

func (rc refreshCookie) clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(rc.name, "", -1, rc.path, rc.domain, rc.secure, true)
}

// read returns the presented refresh token, empty when absent.
func (rc refreshCookie) read(c *gin.Context) string {
	raw, err := c.Cookie(rc.name)
	if err != nil {
		return ""
	}
	return raw
}
