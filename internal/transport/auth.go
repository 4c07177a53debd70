package transport

import (
	"net/http"
)

// Authenticator applies authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request)
}

// NoAuth implements no authentication, for NetBox instances with anonymous read access.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request) {}

// TokenAuth implements NetBox API token authentication ("Authorization: Token <value>").
type TokenAuth struct {
	Token string
}

// Apply implements the Authenticator interface for TokenAuth.
func (a *TokenAuth) Apply(req *http.Request) {
	if a.Token == "" {
		return
	}
	req.Header.Set("Authorization", "Token "+a.Token)
}

// ForToken returns TokenAuth for a non-empty token and NoAuth otherwise.
func ForToken(token string) Authenticator {
	if token == "" {
		return &NoAuth{}
	}
	return &TokenAuth{Token: token}
}
