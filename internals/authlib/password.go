package authlib

import (
	"context"
	"net/http"

	"github.com/craftling/craftling/internals/merrors"
	"github.com/craftling/craftling/internals/yggdrasil"
)

// PasswordLogin authenticates directly against the server's
// Yggdrasil endpoint. An account can own several profiles; the
// returned tokenBound flag reports whether the server already bound
// the access token to the single returned profile. When it is false
// the caller must bind the token with BindToken before the login
// counts as complete.
func PasswordLogin(ctx context.Context, client *http.Client, authURL string, username string, password string) (profiles []yggdrasil.Profile, accessToken string, tokenBound bool, err error) {
	ygg := yggdrasil.New(authURL, client)

	auth, err := ygg.Authenticate(ctx, username, password)
	if err != nil {
		return nil, "", false, err
	}

	if auth.SelectedProfile != nil {
		return []yggdrasil.Profile{*auth.SelectedProfile}, auth.AccessToken, true, nil
	}
	if len(auth.AvailableProfiles) == 0 {
		return nil, "", false, merrors.ErrNotFound.Because("this account owns no profiles")
	}
	return auth.AvailableProfiles, auth.AccessToken, false, nil
}

// BindToken binds an unbound access token to exactly one profile.
// The returned token replaces the old one; a failure here fails the
// whole login, not a degraded insert.
func BindToken(ctx context.Context, client *http.Client, authURL string, accessToken string, profile *yggdrasil.Profile) (string, error) {
	ygg := yggdrasil.New(authURL, client)

	auth, err := ygg.Refresh(ctx, accessToken, profile)
	if err != nil {
		return "", err
	}
	if auth.AccessToken == "" {
		return "", merrors.ErrParse.Because("refresh response misses the access token")
	}
	return auth.AccessToken, nil
}

// FullProfile fetches the profile with its texture properties from
// the server's session endpoint
func FullProfile(ctx context.Context, client *http.Client, authURL string, id string) (*yggdrasil.Profile, error) {
	return yggdrasil.New(authURL, client).Profile(ctx, id)
}

// YggdrasilRefresh refreshes an already bound access token, keeping
// the profile binding intact
func YggdrasilRefresh(ctx context.Context, client *http.Client, authURL string, accessToken string, profile *yggdrasil.Profile) (string, error) {
	return BindToken(ctx, client, authURL, accessToken, profile)
}
