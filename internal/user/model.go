package user

import "time"

type User struct {
	ID        uint
	Name      string
	Email     string
	Password  string
	IsAdmin   bool
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// UpdateProfileInput leaves a field unchanged when it is nil.
type UpdateProfileInput struct {
	Name     *string
	Email    *string
	Phone    *string
	Password *string
}
