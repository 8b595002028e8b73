package domain

type DeliveryAddress struct {
	ID       int64  `json:"deliveryAddressId"`
	Address  string `json:"address" validate:"required,max=255"`
	Landmark string `json:"landmark" validate:"max=255"`
	City     string `json:"city" validate:"required,max=100"`
	State    string `json:"state" validate:"required,max=100"`
	Pin      string `json:"pin" validate:"required,numeric,len=6"`
	Mobile   string `json:"mobile" validate:"required,numeric,len=10"`
}
