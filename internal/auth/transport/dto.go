package transport

type LoginRequest struct {
	Login    string `json:"login" validate:"required,notblank,max=200"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int64  `json:"expiresIn"`
	UserID      int64  `json:"userId"`
}

type MeResponse struct {
	UserID int64  `json:"userId"`
	Login  string `json:"login"`
}
