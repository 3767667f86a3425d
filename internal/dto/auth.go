package dto

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username        string `json:"username" binding:"required,min=3,max=50,alphanum"`
	Email           string `json:"email" binding:"required,email,max=100"`
	Password        string `json:"password" binding:"required,max=72,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
	FirstName       string `json:"firstName" binding:"required,max=50"`
	LastName        string `json:"lastName" binding:"required,max=50"`
	PhoneNumber     string `json:"phoneNumber" binding:"omitempty,e164"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail" binding:"required"`
	Password        string `json:"password" binding:"required"`
}

// OAuthLoginRequest is the body of POST /auth/oauth/login. Token is the
// provider-issued ID token; ProviderID and Email must match its claims.
type OAuthLoginRequest struct {
	Provider        string `json:"provider" binding:"required"`
	Token           string `json:"token" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	ProfileImageURL string `json:"profileImageUrl" binding:"omitempty,url"`
	ProviderID      string `json:"providerId" binding:"required"`
}

// ExchangeCodeRequest defines the expected JSON body for the /google/exchange-code endpoint.
type ExchangeCodeRequest struct {
	Code  string `json:"code" binding:"required"`
	State string `json:"state"`
}

// AuthenticationResponse is returned by every endpoint that issues tokens.
type AuthenticationResponse struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresIn   int64        `json:"expiresIn"`
	User        UserResponse `json:"user"`
}

// GoogleLoginURLResponse carries the consent screen URL.
type GoogleLoginURLResponse struct {
	URL string `json:"url"`
}

// LogoutAllResponse reports how many sessions were revoked.
type LogoutAllResponse struct {
	RevokedSessions int64 `json:"revokedSessions"`
}
