package authprovider

import "github.com/pennypal/pennypal/internal/model"

type signUpRequest struct {
	Email    string        `json:"email"`
	Password string        `json:"password"`
	Data     model.Profile `json:"data"`
}

type passwordGrant struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshGrant struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	RefreshToken string       `json:"refresh_token"`
	User         userResponse `json:"user"`
}

type userResponse struct {
	ID           string        `json:"id"`
	Email        string        `json:"email"`
	UserMetadata model.Profile `json:"user_metadata"`
}

func (u userResponse) toModel() model.User {
	return model.User{ID: u.ID, Email: u.Email, Profile: u.UserMetadata}
}

type errorResponse struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
}
