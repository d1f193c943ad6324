package campus

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractCSRFToken(t *testing.T) {
	tests := []struct {
		name  string
		html  string
		want  string
		found bool
	}{
		{
			name:  "plain form",
			html:  `<form><input type="hidden" name="_token" value="abc123"></form>`,
			want:  "abc123",
			found: true,
		},
		{
			name:  "token mid page",
			html:  `<html><body>stuff<input name="_token" value="t0k"/> more</body></html>`,
			want:  "t0k",
			found: true,
		},
		{
			name: "no token field",
			html: `<form><input name="username"></form>`,
		},
		{
			name: "empty value",
			html: `<input name="_token" value="">`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := extractCSRFToken(tt.html)
			if found != tt.found || got != tt.want {
				t.Errorf("got %q/%v, want %q/%v", got, found, tt.want, tt.found)
			}
		})
	}
}

func TestExtractNickname(t *testing.T) {
	tests := []struct {
		name  string
		html  string
		want  string
		found bool
	}{
		{
			name:  "plain",
			html:  `<span data-mark="nickname">Steve</span>`,
			want:  "Steve",
			found: true,
		},
		{
			name:  "surrounding whitespace",
			html:  "<span data-mark=\"nickname\">\n  Alex \n</span>",
			want:  "Alex",
			found: true,
		},
		{
			name: "marker missing",
			html: `<span class="nickname">Steve</span>`,
		},
		{
			name: "empty name",
			html: `<span data-mark="nickname"></span>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := extractNickname(tt.html)
			if found != tt.found || got != tt.want {
				t.Errorf("got %q/%v, want %q/%v", got, found, tt.want, tt.found)
			}
		})
	}
}

func TestRedirectNeedsBind(t *testing.T) {
	if !redirectNeedsBind("https://mc.example.edu/user/player/bind") {
		t.Error("bind page redirect should classify as needs-bind")
	}
	if redirectNeedsBind("https://mc.example.edu/user") {
		t.Error("user page redirect should not classify as needs-bind")
	}
}

func TestMergeCookiesLastWriteWins(t *testing.T) {
	rec := httptest.NewRecorder()
	http.SetCookie(rec, &http.Cookie{Name: "session", Value: "one"})
	http.SetCookie(rec, &http.Cookie{Name: "XSRF-TOKEN", Value: "xsrf"})
	first := rec.Result()

	jar := mergeCookies(nil, first)
	if len(jar) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(jar))
	}

	rec = httptest.NewRecorder()
	http.SetCookie(rec, &http.Cookie{Name: "session", Value: "two"})
	jar = mergeCookies(jar, rec.Result())

	if len(jar) != 2 {
		t.Fatalf("merge must replace, not append: got %d cookies", len(jar))
	}
	if header := cookieHeader(jar); header != "session=two; XSRF-TOKEN=xsrf" {
		t.Errorf("unexpected cookie header %q", header)
	}
}

func TestDecodedXSRFToken(t *testing.T) {
	jar := []Cookie{
		{Name: "session", Value: "s"},
		{Name: "xsrf-token", Value: "a%3Db"},
	}
	// case insensitive lookup plus url decoding
	if got := decodedXSRFToken(jar); got != "a=b" {
		t.Errorf("expected decoded token a=b, got %q", got)
	}
	if got := decodedXSRFToken(nil); got != "" {
		t.Errorf("expected empty token for an empty jar, got %q", got)
	}
}
