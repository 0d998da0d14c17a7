package auth

import (
	"net/http"
	"time"
)

// TokenCookieName is the cookie carrying the identity token on both transports.
const TokenCookieName = "jwt"

// TokenFromCookieHeader extracts the token from a raw Cookie header,
// as found in the realtime handshake metadata.
func TokenFromCookieHeader(header string) string {
	if header == "" {
		return ""
	}
	r := http.Request{Header: http.Header{"Cookie": {header}}}
	cookie, err := r.Cookie(TokenCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// TokenFromHandshake reads the token of an upgrade request.
// The cookie wins; the token query parameter serves clients that cannot set cookies.
func TokenFromHandshake(r *http.Request) string {
	if token := TokenFromCookieHeader(r.Header.Get("Cookie")); token != "" {
		return token
	}
	return r.URL.Query().Get("token")
}

// CookieOptions mirrors the attributes the browser client needs for a cross-site session.
type CookieOptions struct {
	Secure bool
	Domain string
}

// NewTokenCookie builds the session cookie. A zero maxAge with an empty value clears it.
func NewTokenCookie(value string, maxAge time.Duration, opts CookieOptions) *http.Cookie {
	cookie := &http.Cookie{
		Name:     TokenCookieName,
		Value:    value,
		Path:     "/",
		Domain:   opts.Domain,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		cookie.MaxAge = -1
	}
	if opts.Secure {
		cookie.SameSite = http.SameSiteNoneMode
		cookie.Partitioned = true
	}
	return cookie
}
