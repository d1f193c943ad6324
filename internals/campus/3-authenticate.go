package campus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/craftling/craftling/internals/merrors"
	"github.com/craftling/craftling/internals/yggdrasil"
)

type campusAuthResponse struct {
	AccessToken       string              `json:"accessToken"`
	SelectedProfile   *yggdrasil.Profile  `json:"selectedProfile"`
	AvailableProfiles []yggdrasil.Profile `json:"availableProfiles"`
}

// Authenticate is step 3: finalize the login against the provider's
// identity endpoint using the campus password. Candidate usernames
// are tried in order (bound display name first, external id as
// fallback); a credential rejection moves on to the next candidate,
// any other failure aborts. The resolved profiles are returned with
// their textures; alreadySelected reports whether the server itself
// designated one profile.
func (c *Client) Authenticate(ctx context.Context, state *AuthState, password string) (profiles []yggdrasil.Profile, accessToken string, alreadySelected bool, err error) {
	candidates := state.candidateUsernames()

	var auth *campusAuthResponse
	lastErr := error(merrors.ErrInvalid)
	for _, username := range candidates {
		auth, err = c.authRequest(ctx, state, username, password)
		if err == nil {
			break
		}
		if !errors.Is(err, merrors.ErrInvalid) {
			return nil, "", false, err
		}
		log.Printf("campus: credentials rejected for %q, trying fallback", username)
		lastErr = err
		auth = nil
	}
	if auth == nil {
		return nil, "", false, lastErr
	}

	ygg := yggdrasil.New(c.YggdrasilURL(), c.HTTP)

	if auth.SelectedProfile != nil {
		profile, err := ygg.Profile(ctx, auth.SelectedProfile.ID)
		if err != nil {
			return nil, "", false, err
		}
		return []yggdrasil.Profile{*profile}, auth.AccessToken, true, nil
	}

	if len(auth.AvailableProfiles) == 0 {
		return nil, "", false, merrors.ErrNotFound.Because("this account owns no profiles")
	}

	resolved := make([]yggdrasil.Profile, 0, len(auth.AvailableProfiles))
	for _, offered := range auth.AvailableProfiles {
		profile, err := ygg.Profile(ctx, offered.ID)
		if err != nil {
			// no partial result: one failed profile aborts the login
			return nil, "", false, err
		}
		resolved = append(resolved, *profile)
	}
	return resolved, auth.AccessToken, false, nil
}

// candidateUsernames builds the ordered list of usernames to try:
// the resolved display name when present, the external id as
// fallback. The list is never empty.
func (s *AuthState) candidateUsernames() []string {
	candidates := []string{}
	if name := strings.TrimSpace(s.PlayerName); name != "" {
		candidates = append(candidates, name)
	}
	for _, existing := range candidates {
		if strings.EqualFold(existing, s.ExternalID) {
			return candidates
		}
	}
	return append(candidates, s.ExternalID)
}

func (c *Client) authRequest(ctx context.Context, state *AuthState, username string, password string) (*campusAuthResponse, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"username": username,
		"password": password,
		"agent":    map[string]interface{}{"name": "Minecraft", "version": 1},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.YggdrasilURL()+"/authserver/authenticate", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cookie", cookieHeader(state.Cookies))
	req.Header.Set("Origin", c.BaseURL)
	req.Header.Set("Referer", c.BaseURL+"/")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if state.XSRFToken != "" {
		req.Header.Set("X-XSRF-TOKEN", state.XSRFToken)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, merrors.ErrNetwork.With(err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		io.Copy(io.Discard, res.Body)
		if res.StatusCode >= 400 && res.StatusCode < 500 {
			return nil, merrors.ErrInvalid.Because("identity server rejected username %q", username)
		}
		return nil, merrors.ErrNetwork.Because("identity server answered with status %d", res.StatusCode)
	}

	auth := campusAuthResponse{}
	if err := json.NewDecoder(res.Body).Decode(&auth); err != nil {
		return nil, merrors.ErrParse.With(err)
	}
	return &auth, nil
}
