package core

import "strings"

// Profile is the signed-in user's personal data.
type Profile struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName,omitempty"`
	Nickname    string `json:"nickname,omitempty"`
	Email       string `json:"email,omitempty"`
	DateOfBirth *Date  `json:"dateOfBirth,omitempty"`
}

// DisplayName prefers the nickname, then the full name.
func (p Profile) DisplayName() string {
	if p.Nickname != "" {
		return p.Nickname
	}
	if p.LastName != "" {
		return p.FirstName + " " + p.LastName
	}
	return p.FirstName
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.FirstName) == "" {
		return invalid("first name is required")
	}
	for name, v := range map[string]string{"first name": p.FirstName, "last name": p.LastName, "nickname": p.Nickname} {
		if len(v) > 50 {
			return invalid("%s too long (max 50 characters)", name)
		}
	}
	return nil
}
