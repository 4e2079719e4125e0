package models

import "fmt"

// Role is the account role reported by the profile endpoint.
type Role string

const (
	RoleAdmin Role = "ADMIN_MASTER"
	RoleUser  Role = "USER"
	RoleGuest Role = "GUEST" // signed up but not yet approved; login is refused
)

// Approved reports whether the role may hold a session.
func (r Role) Approved() bool { return r != RoleGuest }

// Team is the optional team affiliation attached to a profile.
type Team struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Logo    string `json:"logo"`
	Tricode string `json:"tricode"`
	Sport   string `json:"sport"`
}

// Profile is the cached identity of the signed-in user.
type Profile struct {
	Idx       int    `json:"idx"`
	ID        string `json:"id"`
	UID       string `json:"uid"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	Team      *Team  `json:"team"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	IsDeleted bool   `json:"isDeleted"`
}

// Check verifies the fields the client relies on are present in a decoded profile.
func (p *Profile) Check() error {
	if p == nil {
		return fmt.Errorf("%w: empty profile", ErrValidation)
	}
	if p.Role == "" {
		return fmt.Errorf("%w: profile has no role", ErrValidation)
	}
	if p.ID == "" && p.UID == "" {
		return fmt.Errorf("%w: profile has no identifier", ErrValidation)
	}
	return nil
}

// DisplayName is the name to show for the profile, falling back to the login id.
func (p *Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// LoginRequest is the body of POST /app/user/login.
type LoginRequest struct {
	ID string `json:"id"`
	PW string `json:"pw"`
}

// Validate implements [Validator].
func (r LoginRequest) Validate() error {
	return missing(map[string]string{"id": r.ID, "pw": r.PW})
}

// TokenPair is the credential pair returned by a successful login.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Check verifies both tokens were returned.
func (t *TokenPair) Check() error {
	if t.AccessToken == "" {
		return fmt.Errorf("%w: login response has no access token", ErrValidation)
	}
	if t.RefreshToken == "" {
		return fmt.Errorf("%w: login response has no refresh token", ErrValidation)
	}
	return nil
}

// RefreshRequest is the body of POST /app/user/refresh-token.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshResponse is the response of POST /app/user/refresh-token.
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// SignUpRequest is the body of POST /app/user/sign-up.
type SignUpRequest struct {
	ID             string `json:"id"`
	PW             string `json:"pw"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	TermsOfService bool   `json:"termsOfService"`
	PrivacyPolicy  bool   `json:"privacyPolicy"`
	AlertPolicy    bool   `json:"alertPolicy"`
}

// Validate implements [Validator]. Terms of service and privacy policy must be accepted.
func (r SignUpRequest) Validate() error {
	if err := missing(map[string]string{"id": r.ID, "pw": r.PW, "email": r.Email, "name": r.Name}); err != nil {
		return err
	}
	if !r.TermsOfService || !r.PrivacyPolicy {
		return fmt.Errorf("%w: terms of service and privacy policy must be accepted", ErrValidation)
	}
	return nil
}
