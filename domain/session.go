package domain

// Session is the logged-in user passed explicitly to every call that needs identity.
type Session struct {
	UserID int64
	Token  string
}

func (s Session) Valid() bool {
	return s.UserID > 0 && s.Token != ""
}
