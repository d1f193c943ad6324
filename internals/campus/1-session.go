package campus

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/craftling/craftling/internals/merrors"
)

// Login is step 1: establish a cookie session with the campus
// portal. It harvests the CSRF token from the login page, posts the
// credentials and classifies the response to find out whether the
// account still needs a player name bound.
func (c *Client) Login(ctx context.Context, externalID string, password string) (*AuthState, error) {
	loginURL := c.BaseURL + "/auth/eduroam/login"

	// fetch the login page for initial cookies and the CSRF token
	pageRes, err := c.get(ctx, loginURL, nil)
	if err != nil {
		return nil, merrors.ErrNetwork.With(err)
	}
	jar := mergeCookies(nil, pageRes)
	pageHTML, err := readBody(pageRes)
	if err != nil {
		return nil, merrors.ErrNetwork.With(err)
	}

	csrfToken, ok := extractCSRFToken(pageHTML)
	if !ok {
		return nil, merrors.ErrParse.Because("login page carries no csrf token")
	}

	// post the credentials with the accumulated cookies attached
	form := url.Values{
		"student_number": {externalID},
		"password":       {password},
		"_token":         {csrfToken},
	}
	req, err := http.NewRequestWithContext(ctx, "POST", loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Cookie", cookieHeader(jar))

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, merrors.ErrNetwork.With(err)
	}
	jar = mergeCookies(jar, res)

	state := &AuthState{
		ExternalID: externalID,
		Cookies:    jar,
		XSRFToken:  decodedXSRFToken(jar),
	}
	if state.XSRFToken == "" {
		// tolerated, the later ajax calls are still attempted
		log.Println("campus: no XSRF-TOKEN cookie after login")
	}

	switch {
	case res.StatusCode >= 300 && res.StatusCode < 400:
		io.Copy(io.Discard, res.Body)
		res.Body.Close()
		return c.classifyLanding(ctx, state, res.Header.Get("Location"))

	case res.StatusCode == http.StatusOK:
		// ajax style success: the redirect target hides in a JSON body
		body, err := readBody(res)
		if err != nil {
			return nil, merrors.ErrNetwork.With(err)
		}
		var payload struct {
			Redirect string `json:"redirect"`
		}
		if err := json.Unmarshal([]byte(body), &payload); err != nil || payload.Redirect == "" {
			return nil, merrors.ErrInvalid.Because("campus login answered 200 without a redirect")
		}
		return c.classifyLanding(ctx, state, payload.Redirect)

	default:
		io.Copy(io.Discard, res.Body)
		res.Body.Close()
		// bad credentials and unknown provider behavior look the same here
		return nil, merrors.ErrInvalid.Because("campus login failed with status %d", res.StatusCode)
	}
}

// classifyLanding decides from the post-login redirect target whether
// the account needs a player name bound, scraping the current name
// when it should already have one
func (c *Client) classifyLanding(ctx context.Context, state *AuthState, location string) (*AuthState, error) {
	if redirectNeedsBind(location) {
		state.RequiresBind = true
		return state, nil
	}

	// landed in the authenticated area: try to recover the name
	name, err := c.scrapePlayerName(ctx, state)
	if err != nil {
		log.Printf("campus: could not scrape player name: %v", err)
	}
	if name == "" {
		// an authenticated account without a discoverable name has
		// never been bound
		state.RequiresBind = true
		return state, nil
	}

	state.PlayerName = name
	return state, nil
}

// scrapePlayerName fetches the user page and extracts the display
// name marker
func (c *Client) scrapePlayerName(ctx context.Context, state *AuthState) (string, error) {
	res, err := c.get(ctx, c.BaseURL+"/user", state.Cookies)
	if err != nil {
		return "", merrors.ErrNetwork.With(err)
	}
	html, err := readBody(res)
	if err != nil {
		return "", merrors.ErrNetwork.With(err)
	}

	name, ok := extractNickname(html)
	if !ok {
		return "", nil
	}
	return name, nil
}

func (c *Client) get(ctx context.Context, url string, jar []Cookie) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	if len(jar) > 0 {
		req.Header.Set("Cookie", cookieHeader(jar))
	}
	return c.HTTP.Do(req)
}

func readBody(res *http.Response) (string, error) {
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
