// Package microsoft logs a Microsoft account into Minecraft. The
// chain is: device authorization → Microsoft token → Xbox Live token →
// XSTS token → Minecraft services token → profile.
package microsoft

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"github.com/craftling/craftling/internals/deviceauth"
	"github.com/craftling/craftling/internals/merrors"
	"golang.org/x/oauth2"
)

const (
	MSA_DEVICE_CODE    = "https://login.microsoftonline.com/consumers/oauth2/v2.0/devicecode"
	MSA_TOKEN          = "https://login.microsoftonline.com/consumers/oauth2/v2.0/token"
	XBL_AUTHENTICATE   = "https://user.auth.xboxlive.com/user/authenticate"
	XBL_XSTS_AUTHORIZE = "https://xsts.auth.xboxlive.com/xsts/authorize"
	MC_API_XBOX_LOGIN  = "https://api.minecraftservices.com/authentication/login_with_xbox"
	MC_API_PROFILE     = "https://api.minecraftservices.com/minecraft/profile"
)

// Client performs the Microsoft → Minecraft login chain
type Client struct {
	*http.Client
	// xblClient is a separate client because the Xbox endpoints need
	// the horrifying Renegotiation option (see `New`)
	xblClient *http.Client
	Config    *oauth2.Config
}

// Credentials is everything a finished Microsoft login produced
type Credentials struct {
	MicrosoftAuth    oauth2.Token
	MinecraftAuth    *XboxLoginResponse
	MinecraftProfile *GetProfileResponse
	ExpiresAt        time.Time
}

func (c *Credentials) GetAccessToken() string  { return c.MinecraftAuth.AccessToken }
func (c *Credentials) GetRefreshToken() string { return c.MicrosoftAuth.RefreshToken }
func (c *Credentials) GetPlayerName() string   { return c.MinecraftProfile.Name }
func (c *Credentials) GetUUID() string         { return c.MinecraftProfile.ID }

func (c *Credentials) IsExpired() bool {
	// add a minute to the current time for clock skew and stuff
	return c.ExpiresAt.Before(time.Now().Add(time.Minute))
}

// New creates a Microsoft login client for the given oauth app.
// Sensible defaults are applied to an incomplete config.
func New(httpClient *http.Client, config *oauth2.Config) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	// shallow copy the http client so we don't modify the original
	lessSecureClient := *httpClient
	// we need this cause MS API
	// https://stackoverflow.com/questions/57420833/tls-no-renegotiation-error-on-http-request
	lessSecureClient.Transport = &http.Transport{
		TLSClientConfig: &tls.Config{Renegotiation: tls.RenegotiateOnceAsClient},
	}

	if config.Scopes == nil {
		config.Scopes = []string{"XboxLive.signin", "offline_access"}
	}
	if config.Endpoint.TokenURL == "" {
		config.Endpoint = oauth2.Endpoint{TokenURL: MSA_TOKEN}
	}

	return &Client{
		Client:    httpClient,
		xblClient: &lessSecureClient,
		Config:    config,
	}
}

// DeviceAuthorization starts a device code login. The returned
// session's user code and verification URI have to be shown to the
// user before Login can succeed.
func (c *Client) DeviceAuthorization(ctx context.Context) (*deviceauth.Session, error) {
	return deviceauth.Request(ctx, c.Client, MSA_DEVICE_CODE, c.Config.Endpoint.TokenURL, c.Config.ClientID, c.Config.Scopes)
}

// Login polls the device session until the user authorized (or the
// session died), then walks the Xbox chain down to the Minecraft
// profile. cancelled is checked between polls.
func (c *Client) Login(ctx context.Context, session *deviceauth.Session, cancelled func() bool) (*Credentials, error) {
	token, err := session.Poll(ctx, c.Client, cancelled)
	if err != nil {
		return nil, err
	}
	return c.minecraftCredentials(ctx, token)
}

// Refresh re-runs the token refresh leg only. A rejected refresh
// token is surfaced as Invalid: the user has to log in interactively
// again.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Credentials, error) {
	if refreshToken == "" {
		return nil, merrors.ErrInvalid.Because("no refresh token stored, please log in again")
	}

	source := c.Config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, merrors.ErrInvalid.Because("microsoft refused the refresh token, please log in again")
	}
	return c.minecraftCredentials(ctx, token)
}

func (c *Client) minecraftCredentials(ctx context.Context, token *oauth2.Token) (*Credentials, error) {
	xbl, err := c.xblAuth(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}
	xsts, err := c.xstsAuth(ctx, xbl.Token)
	if err != nil {
		return nil, err
	}
	if len(xsts.DisplayClaims.Xui) == 0 {
		return nil, merrors.ErrInvalid.Because("xbox auth failed: no XUI claim")
	}
	userHash := xsts.DisplayClaims.Xui[0].Uhs

	minecraftAuth, err := c.loginWithXbox(ctx, userHash, xsts.Token)
	if err != nil {
		return nil, err
	}
	profile, err := c.profile(ctx, minecraftAuth.AccessToken)
	if err != nil {
		return nil, err
	}

	return &Credentials{
		MicrosoftAuth:    *token,
		MinecraftAuth:    minecraftAuth,
		MinecraftProfile: profile,
		ExpiresAt:        time.Now().Add(time.Duration(minecraftAuth.ExpiresIn) * time.Second),
	}, nil
}
