// Package campus implements the cookie/session login against the
// campus skin site. The provider is a classic server rendered web
// app: auth works through browser style cookies, a CSRF form token
// and an XSRF header for AJAX calls, with a server driven "bind your
// player name" sub step for accounts that never picked one. The flow
// has three caller visible steps, each in its own numbered file.
package campus

import (
	"net/http"
	"strings"
)

// Client drives the campus login flow against one provider
type Client struct {
	// BaseURL of the provider website, e.g. https://skin.campus.example
	BaseURL string
	// HTTP must not follow redirects: the flow classifies them itself
	HTTP *http.Client
}

// New creates a campus client. The passed http client is shallow
// copied with redirect following disabled.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	noRedirect := *httpClient
	noRedirect.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &noRedirect,
	}
}

// YggdrasilURL is the identity API root of the provider
func (c *Client) YggdrasilURL() string {
	return c.BaseURL + "/api/yggdrasil"
}

// AuthState is the ephemeral state of one in-progress login. Created
// by Login, optionally mutated by BindPlayerName, consumed by
// Authenticate. It is never persisted.
type AuthState struct {
	// ExternalID is what the user logs into the campus portal with
	// (e.g. a student number)
	ExternalID string
	// Cookies is the accumulated jar, last write wins per name
	Cookies []Cookie
	// RequiresBind is true when the account has no player name yet
	RequiresBind bool
	// XSRFToken is the decoded XSRF-TOKEN cookie, may be empty
	XSRFToken string
	// PlayerName is the resolved display name, may be empty
	PlayerName string
}

// Cookie is one name/value pair of the session jar
type Cookie struct {
	Name  string
	Value string
}
