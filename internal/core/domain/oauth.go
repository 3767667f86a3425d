package domain

// OAuthLoginInput is the identity a client claims when logging in with a
// provider token.
type OAuthLoginInput struct {
	Provider        AuthProvider
	ProviderUserID  string
	Email           string
	FirstName       string
	LastName        string
	ProfileImageURL string
}

// VerifiedAssertion holds the claims extracted from a provider token after
// its signature and audience were checked.
type VerifiedAssertion struct {
	Provider      AuthProvider
	Subject       string
	Email         string
	EmailVerified bool
	GivenName     string
	FamilyName    string
	Picture       string
}

// GoogleUserInfo represents the payload of Google's userinfo endpoint.
type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}
