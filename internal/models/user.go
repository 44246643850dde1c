package models

import "strings"

type User struct {
	ID        ID     `json:"_id,omitempty"`
	AltID     ID     `json:"id,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

func (u User) Key() string {
	if u.ID != "" {
		return u.ID.String()
	}
	return u.AltID.String()
}

func (u User) Initials() string {
	var b strings.Builder
	for _, s := range []string{u.FirstName, u.LastName} {
		if r := []rune(strings.TrimSpace(s)); len(r) > 0 {
			b.WriteRune(r[0])
		}
	}
	if b.Len() == 0 {
		return "NS"
	}
	return strings.ToUpper(b.String())
}

func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return "User"
	}
	return name
}

// ShortName is used by the mobile logout label.
func (u User) ShortName() string {
	if u.FirstName == "" {
		return "User"
	}
	return u.FirstName
}

func (u User) IsAdmin() bool {
	return u.Role == "admin"
}
