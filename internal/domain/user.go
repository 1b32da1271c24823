package domain

import "time"

// BirthDateLayout is the calendar date format used on the wire.
const BirthDateLayout = "2006-01-02"

// User represents an account and its stored credential.
type User struct {
	ID           int64
	FullName     string
	BirthDate    time.Time
	Email        string
	PasswordHash string `json:"-"`
	Lang         string
}

// PublicUser is the externally visible view of a User.
type PublicUser struct {
	ID        int64  `json:"id"`
	FullName  string `json:"full_name"`
	BirthDate string `json:"birth_date"`
	Email     string `json:"email"`
	Lang      string `json:"lang"`
}

// Public strips credential material from u.
func (u User) Public() PublicUser {
	out := PublicUser{
		ID:       u.ID,
		FullName: u.FullName,
		Email:    u.Email,
		Lang:     u.Lang,
	}
	if !u.BirthDate.IsZero() {
		out.BirthDate = u.BirthDate.Format(BirthDateLayout)
	}
	return out
}
