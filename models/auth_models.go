package models

// RegisterRequest представляет данные для регистрации нового пользователя.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest представляет данные для входа пользователя.
// В поле name клиент может прислать как имя, так и email.
type LoginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// AuthResponse представляет ответ сервера после успешной аутентификации.
type AuthResponse struct {
	AccessToken string         `json:"access_token"`
	User        UserPublicInfo `json:"user"`
}

// CanRegisterResponse сообщает клиенту, открыта ли страница регистрации.
type CanRegisterResponse struct {
	CanRegister bool `json:"canRegister"`
}
