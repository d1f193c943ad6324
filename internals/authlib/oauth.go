package authlib

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/craftling/craftling/internals/deviceauth"
	"github.com/craftling/craftling/internals/merrors"
	"golang.org/x/oauth2"
)

// openIDConfiguration is the subset of the discovery document needed
// for the device flow
type openIDConfiguration struct {
	DeviceAuthorizationEndpoint string `json:"device_authorization_endpoint"`
	TokenEndpoint               string `json:"token_endpoint"`
}

func fetchOpenIDConfiguration(ctx context.Context, client *http.Client, configURL string) (*openIDConfiguration, error) {
	if configURL == "" {
		return nil, merrors.ErrInvalid.Because("this server does not support oauth login")
	}

	req, err := http.NewRequestWithContext(ctx, "GET", configURL, nil)
	if err != nil {
		return nil, err
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, merrors.ErrNetwork.With(err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, merrors.ErrInvalid.Because("openid configuration request failed with status %d", res.StatusCode)
	}

	config := openIDConfiguration{}
	if err := json.NewDecoder(res.Body).Decode(&config); err != nil {
		return nil, merrors.ErrParse.With(err)
	}
	if config.DeviceAuthorizationEndpoint == "" || config.TokenEndpoint == "" {
		return nil, merrors.ErrInvalid.Because("this server does not support the device authorization grant")
	}
	return &config, nil
}

// DeviceAuthorization starts a device flow against the server's
// discovered OpenID endpoints
func DeviceAuthorization(ctx context.Context, client *http.Client, openidConfigURL string, clientID string) (*deviceauth.Session, error) {
	config, err := fetchOpenIDConfiguration(ctx, client, openidConfigURL)
	if err != nil {
		return nil, err
	}
	return deviceauth.Request(
		ctx, client,
		config.DeviceAuthorizationEndpoint,
		config.TokenEndpoint,
		clientID,
		[]string{"openid", "offline_access", "Yggdrasil.PlayerProfiles.Select"},
	)
}

// OAuthLogin polls the device session and resolves the resulting
// token into a profile via the server's Minecraft services
// compatible profile endpoint
func OAuthLogin(ctx context.Context, client *http.Client, authURL string, session *deviceauth.Session, cancelled func() bool) (*oauth2.Token, *MinecraftProfile, error) {
	token, err := session.Poll(ctx, client, cancelled)
	if err != nil {
		return nil, nil, err
	}

	profile, err := fetchMinecraftProfile(ctx, client, authURL, token.AccessToken)
	if err != nil {
		return nil, nil, err
	}
	return token, profile, nil
}

// OAuthRefresh re-runs the refresh token leg against the server's
// token endpoint and resolves the profile again
func OAuthRefresh(ctx context.Context, client *http.Client, authURL string, openidConfigURL string, clientID string, refreshToken string) (*oauth2.Token, *MinecraftProfile, error) {
	if refreshToken == "" {
		return nil, nil, merrors.ErrInvalid.Because("no refresh token stored, please log in again")
	}
	config, err := fetchOpenIDConfiguration(ctx, client, openidConfigURL)
	if err != nil {
		return nil, nil, err
	}

	conf := &oauth2.Config{
		ClientID: clientID,
		Endpoint: oauth2.Endpoint{TokenURL: config.TokenEndpoint},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
	token, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, nil, merrors.ErrInvalid.Because("the server refused the refresh token, please log in again")
	}

	profile, err := fetchMinecraftProfile(ctx, client, authURL, token.AccessToken)
	if err != nil {
		return nil, nil, err
	}
	return token, profile, nil
}

// MinecraftProfile is the selected profile as reported by the
// Minecraft services compatible API of the server
type MinecraftProfile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func fetchMinecraftProfile(ctx context.Context, client *http.Client, authURL string, accessToken string) (*MinecraftProfile, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", authURL+"/minecraftservices/minecraft/profile", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	res, err := client.Do(req)
	if err != nil {
		return nil, merrors.ErrNetwork.With(err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, merrors.ErrNotFound.Because("this account has no profile on the server")
	}
	if res.StatusCode != http.StatusOK {
		return nil, merrors.ErrInvalid.Because("profile request failed with status %d", res.StatusCode)
	}

	profile := MinecraftProfile{}
	if err := json.NewDecoder(res.Body).Decode(&profile); err != nil {
		return nil, merrors.ErrParse.With(err)
	}
	return &profile, nil
}
