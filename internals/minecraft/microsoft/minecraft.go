package microsoft

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/craftling/craftling/internals/merrors"
)

// XboxLoginResponse is the Minecraft services token response
type XboxLoginResponse struct {
	// Username is not the Minecraft username!
	Username string `json:"username"`
	// AccessToken should be used for all future requests
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// GetProfileResponse is the Minecraft profile of the logged in user
type GetProfileResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Skins []struct {
		ID      string `json:"id"`
		State   string `json:"state"`
		URL     string `json:"url"`
		Variant string `json:"variant"`
		Alias   string `json:"alias"`
	} `json:"skins"`
}

// ActiveSkin returns the url and variant of the currently active skin
func (g *GetProfileResponse) ActiveSkin() (url string, variant string) {
	for _, skin := range g.Skins {
		if skin.State == "ACTIVE" {
			return skin.URL, skin.Variant
		}
	}
	return "", ""
}

func (c *Client) loginWithXbox(ctx context.Context, userHash string, xstsToken string) (*XboxLoginResponse, error) {
	payload := map[string]string{
		"identityToken": fmt.Sprintf("XBL3.0 x=%s;%s", userHash, xstsToken),
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, "POST", MC_API_XBOX_LOGIN, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.Do(req)
	if err != nil {
		return nil, merrors.ErrNetwork.With(err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, merrors.ErrInvalid.Because("minecraft login failed with status %d", res.StatusCode)
	}

	authRes := XboxLoginResponse{}
	if err := json.NewDecoder(res.Body).Decode(&authRes); err != nil {
		return nil, merrors.ErrParse.With(err)
	}
	return &authRes, nil
}

func (c *Client) profile(ctx context.Context, token string) (*GetProfileResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", MC_API_PROFILE, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := c.Do(req)
	if err != nil {
		return nil, merrors.ErrNetwork.With(err)
	}
	defer res.Body.Close()

	// accounts without a (paid) profile answer with 404
	if res.StatusCode == http.StatusNotFound {
		return nil, merrors.ErrNotFound.Because("this microsoft account has no minecraft profile")
	}
	if res.StatusCode != http.StatusOK {
		return nil, merrors.ErrInvalid.Because("profile request failed with status %d", res.StatusCode)
	}

	profile := GetProfileResponse{}
	if err := json.NewDecoder(res.Body).Decode(&profile); err != nil {
		return nil, merrors.ErrParse.With(err)
	}
	return &profile, nil
}
