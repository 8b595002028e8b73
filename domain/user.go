package domain

type User struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Role        string `json:"role"`
}

type LoginResponse struct {
	JWTToken string `json:"jwtToken"`
	User     User   `json:"user"`
}

type CurrentUserInfo struct {
	UserID int64 `json:"userId"`
}

type Registration struct {
	Name        string `json:"name" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=3"`
	Role        string `json:"role"`
	PhoneNumber string `json:"phoneNumber" validate:"required"`
}

type Category struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl,omitempty"`
}

type Product struct {
	ID          int64   `json:"productId"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Category    string  `json:"category,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	Available   bool    `json:"available"`
}

// Message is the generic acknowledgement body many endpoints return.
type Message struct {
	Message string `json:"message"`
}
