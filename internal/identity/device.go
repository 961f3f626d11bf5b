package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/steveyegge/luckywheel/internal/account"
	"github.com/steveyegge/luckywheel/internal/config"
)

// PromptFunc shows the user where to approve the sign-in.
type PromptFunc func(verificationURL, userCode string)

var defaultUserInfo = map[account.Provider]string{
	account.ProviderGoogle:   "https://openidconnect.googleapis.com/v1/userinfo",
	account.ProviderFacebook: "https://graph.facebook.com/me?fields=id,name,email",
}

var defaultScopes = map[account.Provider][]string{
	account.ProviderGoogle:   {"openid", "email", "profile"},
	account.ProviderFacebook: {"public_profile", "email"},
}

// DeviceFlow signs in with the OAuth 2.0 device authorization grant, then
// reads the profile from the provider's userinfo endpoint.
type DeviceFlow struct {
	provider    account.Provider
	oauth       *oauth2.Config
	userInfoURL string
	prompt      PromptFunc
	httpClient  *http.Client
}

// NewDeviceFlow builds a device-flow provider. Unset endpoints fall back to
// the provider's well-known ones.
func NewDeviceFlow(provider account.Provider, oc config.OAuthConfig, prompt PromptFunc) *DeviceFlow {
	endpoint := oauth2.Endpoint{AuthStyle: oauth2.AuthStyleInParams}
	switch provider {
	case account.ProviderGoogle:
		endpoint.DeviceAuthURL = endpoints.Google.DeviceAuthURL
		endpoint.TokenURL = endpoints.Google.TokenURL
	case account.ProviderFacebook:
		endpoint.TokenURL = endpoints.Facebook.TokenURL
	}
	if oc.DeviceAuthURL != "" {
		endpoint.DeviceAuthURL = oc.DeviceAuthURL
	}
	if oc.TokenURL != "" {
		endpoint.TokenURL = oc.TokenURL
	}

	scopes := oc.Scopes
	if len(scopes) == 0 {
		scopes = defaultScopes[provider]
	}
	userInfo := oc.UserInfoURL
	if userInfo == "" {
		userInfo = defaultUserInfo[provider]
	}
	if prompt == nil {
		prompt = func(string, string) {}
	}

	return &DeviceFlow{
		provider: provider,
		oauth: &oauth2.Config{
			ClientID:     oc.ClientID,
			ClientSecret: oc.ClientSecret,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
		userInfoURL: userInfo,
		prompt:      prompt,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (d *DeviceFlow) Name() account.Provider {
	return d.provider
}

// Authenticate runs the device flow. It blocks until the user approves,
// denies, the code expires or ctx is done.
func (d *DeviceFlow) Authenticate(ctx context.Context) (Identity, error) {
	if d.oauth.Endpoint.DeviceAuthURL == "" {
		return Identity{}, fmt.Errorf("%s: no device authorization endpoint configured", d.provider)
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, d.httpClient)

	auth, err := d.oauth.DeviceAuth(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("%s: starting sign-in: %w", d.provider, err)
	}

	url := auth.VerificationURIComplete
	if url == "" {
		url = auth.VerificationURI
	}
	d.prompt(url, auth.UserCode)

	tok, err := d.oauth.DeviceAccessToken(ctx, auth)
	if err != nil {
		if isCancel(err) {
			return Identity{}, ErrCanceled
		}
		return Identity{}, fmt.Errorf("%s: waiting for approval: %w", d.provider, err)
	}

	return d.fetchProfile(ctx, tok)
}

func isCancel(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		return re.ErrorCode == "access_denied" || re.ErrorCode == "expired_token"
	}
	return false
}

type userInfo struct {
	Sub   string `json:"sub"`
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (d *DeviceFlow) fetchProfile(ctx context.Context, tok *oauth2.Token) (Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.userInfoURL, nil)
	if err != nil {
		return Identity{}, fmt.Errorf("creating userinfo request: %w", err)
	}

	resp, err := d.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("%s: fetching profile: %w", d.provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Identity{}, fmt.Errorf("%s: profile request returned %d: %s", d.provider, resp.StatusCode, body)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Identity{}, fmt.Errorf("%s: decoding profile: %w", d.provider, err)
	}

	subject := info.Sub
	if subject == "" {
		subject = info.ID
	}
	return withFallbacks(d.provider, subject, info.Email, info.Name), nil
}
