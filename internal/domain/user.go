package domain

// User is the credential-store record. Password holds the bcrypt hash.
type User struct {
	ID       int64  `json:"id"`
	UserName string `json:"userName"`
	Password string `json:"password"`
	RealName string `json:"realName,omitempty"`
	Email    string `json:"email,omitempty"`
}
