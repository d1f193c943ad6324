package campus

import (
	"net/http"
	"net/url"
	"strings"
)

// bindPath is the heuristic marker: a redirect into this path means
// the account still has to pick a player name. Providers with other
// redirect conventions only need this file changed.
const bindPath = "/user/player/bind"

// redirectNeedsBind classifies a redirect target
func redirectNeedsBind(location string) bool {
	return strings.Contains(location, bindPath)
}

// csrfMarker is the input field carrying the form token on the login
// page
const csrfMarker = `name="_token" value="`

// extractCSRFToken pulls the CSRF form token out of the login page
// markup. The bool reports whether the marker was found at all.
func extractCSRFToken(html string) (string, bool) {
	_, rest, found := strings.Cut(html, csrfMarker)
	if !found {
		return "", false
	}
	token, _, found := strings.Cut(rest, `"`)
	if !found || token == "" {
		return "", false
	}
	return token, true
}

// nicknameMarker tags the display name on the user page
const nicknameMarker = `data-mark="nickname">`

// extractNickname scrapes the player display name from the user page
func extractNickname(html string) (string, bool) {
	_, rest, found := strings.Cut(html, nicknameMarker)
	if !found {
		return "", false
	}
	name, _, found := strings.Cut(rest, "<")
	name = strings.TrimSpace(name)
	if !found || name == "" {
		return "", false
	}
	return name, true
}

// mergeCookies folds the Set-Cookie values of a response into the
// jar, last write wins per cookie name
func mergeCookies(jar []Cookie, res *http.Response) []Cookie {
	for _, cookie := range res.Cookies() {
		if cookie.Name == "" {
			continue
		}
		replaced := false
		for i := range jar {
			if jar[i].Name == cookie.Name {
				jar[i].Value = cookie.Value
				replaced = true
				break
			}
		}
		if !replaced {
			jar = append(jar, Cookie{Name: cookie.Name, Value: cookie.Value})
		}
	}
	return jar
}

// cookieHeader renders the jar as a Cookie request header value
func cookieHeader(jar []Cookie) string {
	pairs := make([]string, 0, len(jar))
	for _, cookie := range jar {
		pairs = append(pairs, cookie.Name+"="+cookie.Value)
	}
	return strings.Join(pairs, "; ")
}

// decodedXSRFToken finds and url-decodes the XSRF-TOKEN cookie
func decodedXSRFToken(jar []Cookie) string {
	for _, cookie := range jar {
		if !strings.EqualFold(cookie.Name, "XSRF-TOKEN") {
			continue
		}
		decoded, err := url.QueryUnescape(cookie.Value)
		if err != nil {
			return cookie.Value
		}
		return decoded
	}
	return ""
}
