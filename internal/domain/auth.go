package domain

// ============================================================
// Admin auth request / response types
// ============================================================

// RoleAdmin is the only role allowed to read leads.
const RoleAdmin = "admin"

// TokenRequest is the body for POST /api/auth/token.
type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is the data of a successful POST /api/auth/token.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"`
}
