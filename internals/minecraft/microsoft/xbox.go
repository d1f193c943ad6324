package microsoft

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/craftling/craftling/internals/merrors"
)

type xboxAuthResponse struct {
	IssueInstant  time.Time `json:"IssueInstant"`
	NotAfter      time.Time `json:"NotAfter"`
	Token         string    `json:"Token"`
	DisplayClaims struct {
		Xui []struct {
			Uhs string `json:"uhs"`
		} `json:"xui"`
	} `json:"DisplayClaims"`
}

type xboxErrorResponse struct {
	Identity string `json:"Identity"`
	XErr     int64  `json:"XErr"`
	Message  string `json:"Message"`
	Redirect string `json:"Redirect"`
}

func (x *xboxErrorResponse) Error() string {
	if x.Message != "" {
		return fmt.Sprintf("%s (%d)", x.Message, x.XErr)
	}
	return fmt.Sprintf("error code: %d", x.XErr)
}

type xboxAuthRequest struct {
	Properties   map[string]interface{} `json:"Properties"`
	RelyingParty string                 `json:"RelyingParty"`
	TokenType    string                 `json:"TokenType"`
}

func (c *Client) xblAuth(ctx context.Context, msToken string) (*xboxAuthResponse, error) {
	return c.xboxExchange(ctx, XBL_AUTHENTICATE, xboxAuthRequest{
		Properties: map[string]interface{}{
			"AuthMethod": "RPS",
			"SiteName":   "user.auth.xboxlive.com",
			"RpsTicket":  "d=" + msToken,
		},
		RelyingParty: "http://auth.xboxlive.com",
		TokenType:    "JWT",
	})
}

func (c *Client) xstsAuth(ctx context.Context, xblToken string) (*xboxAuthResponse, error) {
	return c.xboxExchange(ctx, XBL_XSTS_AUTHORIZE, xboxAuthRequest{
		Properties: map[string]interface{}{
			"SandboxId":  "RETAIL",
			"UserTokens": []string{xblToken},
		},
		RelyingParty: "rp://api.minecraftservices.com/",
		TokenType:    "JWT",
	})
}

// xboxExchange is the shared POST shape of the XBL and XSTS token
// endpoints
func (c *Client) xboxExchange(ctx context.Context, url string, payload xboxAuthRequest) (*xboxAuthResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.xblClient.Do(req)
	if err != nil {
		return nil, merrors.ErrNetwork.With(err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		// try to parse the response
		errorResponse := &xboxErrorResponse{}
		if err := json.NewDecoder(res.Body).Decode(errorResponse); err == nil && errorResponse.XErr != 0 {
			return nil, merrors.ErrInvalid.With(errorResponse)
		}
		return nil, merrors.ErrInvalid.Because("xbox auth failed with status %d", res.StatusCode)
	}

	authResponse := xboxAuthResponse{}
	if err := json.NewDecoder(res.Body).Decode(&authResponse); err != nil {
		return nil, merrors.ErrParse.With(err)
	}
	return &authResponse, nil
}
