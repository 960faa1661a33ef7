package model

// UserProfile holds the signed-in user's profile. Every field is optional;
// right after start-up only Username may be known.
type UserProfile struct {
	IsActive    *bool  `json:"is_active,omitempty"`
	Username    string `json:"username,omitempty"`
	Email       string `json:"email,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Role        string `json:"role,omitempty"`
	Bio         string `json:"bio,omitempty"`
	Country     string `json:"country,omitempty"`
	City        string `json:"city,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
	AddressLine string `json:"address_line,omitempty"`
	LastLogin   string `json:"last_login,omitempty"`
}

// IsZero reports whether no profile field is set.
func (p UserProfile) IsZero() bool {
	return p == UserProfile{}
}

// UserProfileUpdate is a partial profile update.
type UserProfileUpdate struct {
	Email       *string `json:"email,omitempty"`
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	Country     *string `json:"country,omitempty"`
	City        *string `json:"city,omitempty"`
	PostalCode  *string `json:"postal_code,omitempty"`
	AddressLine *string `json:"address_line,omitempty"`
}
