package domain

import "time"

// User is a person who can teach or attend courses.
type User struct {
	ID        string            `json:"id"`
	Email     string            `json:"email"`
	FirstName string            `json:"firstName"`
	LastName  string            `json:"lastName"`
	Social    map[string]string `json:"social"`
	CreatedAt time.Time         `json:"createdAt"`
}

// NewUser holds the fields supplied when creating a user. Social keys are
// free-form (facebook, twitter, linkedin, ...).
type NewUser struct {
	Email     string            `json:"email" validate:"required,email"`
	FirstName string            `json:"firstName" validate:"required"`
	LastName  string            `json:"lastName" validate:"required"`
	Social    map[string]string `json:"social" validate:"dive,keys,required,endkeys,required"`
}
