// Package yggdrasil is a client for Yggdrasil shaped identity servers
// (authenticate, refresh and profile endpoints). Both the fixed vendor
// compatible servers and authlib-injector style third party servers
// speak this protocol.
package yggdrasil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/craftling/craftling/internals/merrors"
)

// Client talks to one identity server
type Client struct {
	// BaseURL is the API root, e.g. https://example.com/api/yggdrasil
	BaseURL string
	HTTP    *http.Client
}

// New returns a client for the identity server at baseURL
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: httpClient}
}

// Authenticate performs a password grant. The response may contain
// multiple available profiles; when the server already bound the
// token to one of them SelectedProfile is set.
func (c *Client) Authenticate(ctx context.Context, username string, password string) (*AuthResponse, error) {
	payload := yggLogin{
		Agent:    yggAgent{Name: "Minecraft", Version: 1},
		Username: username,
		Password: password,
	}

	auth := AuthResponse{}
	if err := c.post(ctx, c.BaseURL+"/authserver/authenticate", payload, &auth); err != nil {
		return nil, err
	}
	return &auth, nil
}

// Refresh exchanges an access token for a fresh one. Passing a
// profile binds the new token to exactly that profile, which is the
// mandatory follow-up for password logins whose token came back
// unbound.
func (c *Client) Refresh(ctx context.Context, accessToken string, profile *Profile) (*AuthResponse, error) {
	payload := yggRefresh{AccessToken: accessToken}
	if profile != nil {
		// the refresh endpoint rejects profiles with properties attached
		payload.SelectedProfile = &Profile{ID: profile.ID, Name: profile.Name}
	}

	auth := AuthResponse{}
	if err := c.post(ctx, c.BaseURL+"/authserver/refresh", payload, &auth); err != nil {
		return nil, err
	}
	return &auth, nil
}

// Validate reports whether an access token is still usable
func (c *Client) Validate(ctx context.Context, accessToken string) bool {
	payload := yggRefresh{AccessToken: accessToken}
	err := c.post(ctx, c.BaseURL+"/authserver/validate", payload, nil)
	return err == nil
}

// Profile fetches the full profile (including textures) for a UUID
func (c *Client) Profile(ctx context.Context, id string) (*Profile, error) {
	url := c.BaseURL + "/sessionserver/session/minecraft/profile/" + id
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, merrors.ErrNetwork.With(err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNoContent, res.StatusCode == http.StatusNotFound:
		return nil, merrors.ErrNotFound.Because("no profile with uuid %s", id)
	case res.StatusCode != http.StatusOK:
		return nil, statusError(res)
	}

	profile := Profile{}
	if err := json.NewDecoder(res.Body).Decode(&profile); err != nil {
		return nil, merrors.ErrParse.With(err)
	}
	return &profile, nil
}

func (c *Client) post(ctx context.Context, url string, payload interface{}, v interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return merrors.ErrNetwork.With(err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return statusError(res)
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return merrors.ErrParse.With(err)
	}
	return nil
}

// statusError maps an error response to an account error kind. Client
// errors are credential problems, everything else is the server
// misbehaving.
func statusError(res *http.Response) error {
	yerr := yggError{}
	if err := json.NewDecoder(res.Body).Decode(&yerr); err == nil && yerr.Error() != "" {
		if res.StatusCode >= 400 && res.StatusCode < 500 {
			return merrors.ErrInvalid.With(yerr)
		}
		return merrors.ErrNetwork.With(yerr)
	}
	if res.StatusCode >= 400 && res.StatusCode < 500 {
		return merrors.ErrInvalid.Because("identity server rejected the request with status %d", res.StatusCode)
	}
	return merrors.ErrNetwork.Because("identity server answered with status %d", res.StatusCode)
}
