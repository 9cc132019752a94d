package models

import (
	"fmt"
	"strings"
	"time"
)

// Gender values accepted by the API.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// User is a GeneFit user profile. It is also the record persisted in the local session.
type User struct {
	ID        string    `json:"id" yaml:"id"`
	Email     string    `json:"email" yaml:"email"`
	Name      string    `json:"name" yaml:"name"`
	Age       *int      `json:"age,omitempty" yaml:"age,omitempty"`
	Gender    *string   `json:"gender,omitempty" yaml:"gender,omitempty"`
	Height    *float64  `json:"height,omitempty" yaml:"height,omitempty"` // cm
	Weight    *float64  `json:"weight,omitempty" yaml:"weight,omitempty"` // kg
	CreatedAt time.Time `json:"created_at" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updatedAt"`
}

// UserCreate is the request body of POST /users.
type UserCreate struct {
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	Age    *int     `json:"age,omitempty"`
	Gender *string  `json:"gender,omitempty"`
	Height *float64 `json:"height,omitempty"`
	Weight *float64 `json:"weight,omitempty"`
}

// UserUpdate is the request body of PUT /users/{id}. Nil fields are left unchanged.
type UserUpdate struct {
	Name   *string  `json:"name,omitempty"`
	Age    *int     `json:"age,omitempty"`
	Gender *string  `json:"gender,omitempty"`
	Height *float64 `json:"height,omitempty"`
	Weight *float64 `json:"weight,omitempty"`
}

// Validate checks required fields and enum values before the request is sent.
func (u UserCreate) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if !strings.Contains(u.Email, "@") {
		return fmt.Errorf("invalid email %q", u.Email)
	}
	return validateGender(u.Gender)
}

// Validate checks enum values before the request is sent.
func (u UserUpdate) Validate() error {
	return validateGender(u.Gender)
}

func validateGender(g *string) error {
	if g == nil {
		return nil
	}
	switch *g {
	case GenderMale, GenderFemale, GenderOther:
		return nil
	}
	return fmt.Errorf("invalid gender %q (expected male, female or other)", *g)
}
