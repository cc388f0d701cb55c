package auth

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// SteamOpenIDEndpoint is the Steam OpenID 2.0 provider.
const SteamOpenIDEndpoint = "https://steamcommunity.com/openid/login"

const (
	openIDNamespace      = "http://specs.openid.net/auth/2.0"
	openIDIdentifierSelf = "http://specs.openid.net/auth/2.0/identifier_select"
)

var claimedIDPattern = regexp.MustCompile(`https?://steamcommunity\.com/openid/id/(\d+)`)

// ErrOpenIDRejected is returned when Steam does not confirm the assertion.
var ErrOpenIDRejected = eris.New("auth: openid assertion rejected")

// FormPoster posts a form and returns the response body.
type FormPoster interface {
	PostForm(ctx context.Context, rawURL string, form string) ([]byte, error)
}

// OpenID performs Steam sign-in.
type OpenID struct {
	endpoint string
	poster   FormPoster
}

// NewOpenID creates an OpenID client. An empty endpoint uses Steam's.
func NewOpenID(endpoint string, poster FormPoster) *OpenID {
	if endpoint == "" {
		endpoint = SteamOpenIDEndpoint
	}
	return &OpenID{endpoint: endpoint, poster: poster}
}

// LoginURL builds the redirect that starts sign-in. returnTo must be an
// absolute URL under origin.
func (o *OpenID) LoginURL(origin, returnTo string) string {
	params := url.Values{
		"openid.ns":         {openIDNamespace},
		"openid.mode":       {"checkid_setup"},
		"openid.return_to":  {returnTo},
		"openid.realm":      {origin},
		"openid.identity":   {openIDIdentifierSelf},
		"openid.claimed_id": {openIDIdentifierSelf},
	}
	return o.endpoint + "?" + params.Encode()
}

// Verify asks Steam to confirm the callback parameters and returns the
// authenticated Steam64 id.
func (o *OpenID) Verify(ctx context.Context, params url.Values) (string, error) {
	check := url.Values{}
	for k, v := range params {
		check[k] = append([]string(nil), v...)
	}
	check.Set("openid.mode", "check_authentication")

	body, err := o.poster.PostForm(ctx, o.endpoint, check.Encode())
	if err != nil {
		return "", eris.Wrap(err, "auth: openid verify")
	}
	if !strings.Contains(string(body), "is_valid:true") {
		return "", ErrOpenIDRejected
	}

	claimed := params.Get("openid.claimed_id")
	if claimed == "" {
		claimed = params.Get("openid.identity")
	}
	id := SteamIDFromClaim(claimed)
	if id == "" {
		return "", ErrOpenIDRejected
	}
	return id, nil
}

// SteamIDFromClaim extracts the Steam64 id from an OpenID claimed id.
func SteamIDFromClaim(claimed string) string {
	m := claimedIDPattern.FindStringSubmatch(claimed)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
