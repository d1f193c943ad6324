// Package deviceauth implements the OAuth2 device authorization grant
// (RFC 8628). Both the Microsoft login and third party identity
// servers with an OpenID configuration use the same two step shape:
// request a user code, then poll the token endpoint until the user
// finished authorizing in their browser.
package deviceauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/craftling/craftling/internals/merrors"
	"golang.org/x/oauth2"
)

// ErrCancelled is returned by Poll when the caller flipped the
// cancellation check between two polls
var ErrCancelled = merrors.ErrInvalid.Because("login cancelled")

// Session is one in-flight device authorization. It is ephemeral
// state: created by Request, consumed by Poll, never persisted.
type Session struct {
	ClientID        string
	Scopes          []string
	TokenURL        string
	DeviceCode      string
	UserCode        string
	VerificationURI string
	Interval        time.Duration
	ExpiresAt       time.Time
}

type deviceCodeResponse struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ErrorCode    string `json:"error"`
}

// Request starts a device authorization at the given endpoint and
// returns the session the caller has to display to the user
// (user code + verification URI) and later pass to Poll.
func Request(ctx context.Context, client *http.Client, deviceEndpoint, tokenEndpoint, clientID string, scopes []string) (*Session, error) {
	form := url.Values{
		"client_id": {clientID},
		"scope":     {strings.Join(scopes, " ")},
	}

	res, err := postForm(ctx, client, deviceEndpoint, form)
	if err != nil {
		return nil, merrors.ErrNetwork.With(err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, merrors.ErrInvalid.Because("device authorization failed with status %d", res.StatusCode)
	}

	dc := deviceCodeResponse{}
	if err := json.NewDecoder(res.Body).Decode(&dc); err != nil {
		return nil, merrors.ErrParse.With(err)
	}
	if dc.DeviceCode == "" || dc.UserCode == "" {
		return nil, merrors.ErrParse.Because("device authorization response misses codes")
	}

	interval := time.Duration(dc.Interval) * time.Second
	if interval == 0 {
		interval = 5 * time.Second
	}

	return &Session{
		ClientID:        clientID,
		Scopes:          scopes,
		TokenURL:        tokenEndpoint,
		DeviceCode:      dc.DeviceCode,
		UserCode:        dc.UserCode,
		VerificationURI: dc.VerificationURI,
		Interval:        interval,
		ExpiresAt:       time.Now().Add(time.Duration(dc.ExpiresIn) * time.Second),
	}, nil
}

// Poll polls the token endpoint at the session interval until the
// user approved, denied or the session expired. cancelled is checked
// between polls; returning true aborts with ErrCancelled and without
// side effects. There is no timeout beyond what the remote session
// enforces.
func (s *Session) Poll(ctx context.Context, client *http.Client, cancelled func() bool) (*oauth2.Token, error) {
	interval := s.Interval
	for {
		if cancelled != nil && cancelled() {
			return nil, ErrCancelled
		}
		if !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt) {
			return nil, merrors.ErrInvalid.Because("device code expired, please log in again")
		}

		select {
		case <-ctx.Done():
			return nil, ErrCancelled
		case <-time.After(interval):
		}

		token, retry, err := s.pollOnce(ctx, client)
		switch {
		case err == errSlowDown:
			// RFC 8628 5s back off
			interval += 5 * time.Second
		case err != nil:
			return nil, err
		case retry:
			// authorization still pending
		default:
			return token, nil
		}
	}
}

var errSlowDown = merrors.ErrNetwork.Because("token endpoint asked to slow down")

func (s *Session) pollOnce(ctx context.Context, client *http.Client) (*oauth2.Token, bool, error) {
	form := url.Values{
		"client_id":   {s.ClientID},
		"grant_type":  {"urn:ietf:params:oauth:grant-type:device_code"},
		"device_code": {s.DeviceCode},
	}

	res, err := postForm(ctx, client, s.TokenURL, form)
	if err != nil {
		return nil, false, merrors.ErrNetwork.With(err)
	}
	defer res.Body.Close()

	tr := tokenResponse{}
	if err := json.NewDecoder(res.Body).Decode(&tr); err != nil {
		return nil, false, merrors.ErrParse.With(err)
	}

	switch tr.ErrorCode {
	case "":
	case "authorization_pending":
		return nil, true, nil
	case "slow_down":
		return nil, true, errSlowDown
	case "access_denied":
		return nil, false, merrors.ErrInvalid.Because("authorization was denied")
	case "expired_token":
		return nil, false, merrors.ErrInvalid.Because("device code expired, please log in again")
	default:
		return nil, false, merrors.ErrInvalid.Because("token endpoint answered with %q", tr.ErrorCode)
	}

	if tr.AccessToken == "" {
		return nil, false, merrors.ErrParse.Because("token response misses access_token")
	}

	return &oauth2.Token{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		TokenType:    tr.TokenType,
		Expiry:       time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}, false, nil
}

func postForm(ctx context.Context, client *http.Client, endpoint string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if client == nil {
		client = http.DefaultClient
	}
	return client.Do(req)
}
