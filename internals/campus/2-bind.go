package campus

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/craftling/craftling/internals/merrors"
)

// BindPlayerName is step 2: register the chosen display name with
// the provider. Only reachable when step 1 reported RequiresBind. On
// success the held state is updated in place.
func (c *Client) BindPlayerName(ctx context.Context, state *AuthState, playerName string) error {
	bindURL := c.BaseURL + bindPath

	payload, err := json.Marshal(map[string]string{"player": playerName})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", bindURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cookie", cookieHeader(state.Cookies))
	req.Header.Set("Origin", c.BaseURL)
	req.Header.Set("Referer", bindURL)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if state.XSRFToken != "" {
		req.Header.Set("X-XSRF-TOKEN", state.XSRFToken)
	} else {
		log.Println("campus: binding player name without XSRF token")
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return merrors.ErrNetwork.With(err)
	}
	io.Copy(io.Discard, res.Body)
	res.Body.Close()

	// the provider answers with 2xx or a redirect back into the user
	// area, everything else is a rejected name
	if res.StatusCode >= 400 {
		return merrors.ErrInvalid.Because("binding player name failed with status %d", res.StatusCode)
	}

	state.PlayerName = playerName
	return nil
}
