package auth

import (
	"net/http"
	"strings"
)

// TokenCookieName is the cookie the login endpoint sets.
const TokenCookieName = "token"

// TokenExtractor pulls a raw token out of a request.
type TokenExtractor interface {
	Extract(r *http.Request) (string, bool)
}

// CookieExtractor reads the token from a named cookie.
type CookieExtractor struct {
	Name string
}

func (e CookieExtractor) Extract(r *http.Request) (string, bool) {
	c, err := r.Cookie(e.Name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// BearerExtractor reads the token from "Authorization: Bearer <token>".
type BearerExtractor struct{}

func (BearerExtractor) Extract(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// ExtractorChain tries each extractor in order; the first hit wins.
type ExtractorChain []TokenExtractor

func (c ExtractorChain) Extract(r *http.Request) (string, bool) {
	for _, e := range c {
		if token, ok := e.Extract(r); ok {
			return token, true
		}
	}
	return "", false
}

// DefaultExtractors checks the token cookie first, then the bearer header.
// A present cookie wins even if a header is also sent.
func DefaultExtractors() ExtractorChain {
	return ExtractorChain{
		CookieExtractor{Name: TokenCookieName},
		BearerExtractor{},
	}
}
