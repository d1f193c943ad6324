// Package authlib talks to third party (authlib-injector style)
// identity servers: metadata discovery, the OpenID device flow and
// the password grant with its profile binding rules.
package authlib

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/craftling/craftling/internals/merrors"
)

// apiLocationHeader points at the real API root when the user entered
// the server's website address instead
const apiLocationHeader = "X-Authlib-Injector-Api-Location"

// ServerInfo is the metadata document of a third party identity
// server
type ServerInfo struct {
	// AuthURL is the canonical API root the document was fetched from.
	// It is the dedup key for the server registry.
	AuthURL string `json:"-"`
	Meta    struct {
		ServerName             string `json:"serverName"`
		ImplementationName     string `json:"implementationName"`
		ImplementationVersion  string `json:"implementationVersion"`
		NonEmailLogin          bool   `json:"feature.non_email_login"`
		OpenIDConfigurationURL string `json:"feature.openid_configuration_url"`
		ClientID               string `json:"feature.openid_client_id"`
		Links                  struct {
			Homepage string `json:"homepage"`
			Register string `json:"register"`
		} `json:"links"`
	} `json:"meta"`
	SkinDomains []string `json:"skinDomains"`
}

// FetchAuthURL resolves what the user typed into the canonical API
// root. A missing scheme defaults to https, and the api location
// header indirection is followed once.
func FetchAuthURL(ctx context.Context, client *http.Client, raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" {
		parsed, err = url.Parse("https://" + raw)
		if err != nil {
			return "", merrors.ErrInvalid.Because("%q is not a valid server address", raw)
		}
	}

	req, err := http.NewRequestWithContext(ctx, "GET", parsed.String(), nil)
	if err != nil {
		return "", err
	}
	res, err := client.Do(req)
	if err != nil {
		return "", merrors.ErrNetwork.With(err)
	}
	defer res.Body.Close()

	location := res.Header.Get(apiLocationHeader)
	if location == "" {
		return strings.TrimRight(parsed.String(), "/"), nil
	}

	// the header value may be relative to the queried url
	resolved, err := parsed.Parse(location)
	if err != nil {
		return "", merrors.ErrParse.Because("server points at an invalid api location %q", location)
	}
	return strings.TrimRight(resolved.String(), "/"), nil
}

// FetchServerInfo downloads the metadata document of the server at
// authURL
func FetchServerInfo(ctx context.Context, client *http.Client, authURL string) (*ServerInfo, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", authURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return nil, merrors.ErrNetwork.With(err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, merrors.ErrInvalid.Because("server info request failed with status %d", res.StatusCode)
	}

	info := ServerInfo{}
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return nil, merrors.ErrParse.With(err)
	}
	info.AuthURL = strings.TrimRight(authURL, "/")
	return &info, nil
}
