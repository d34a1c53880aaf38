package user

import (
	"errors"
	"fmt"
	"strings"
)

// MaxAge is the upper bound accepted for a user's age.
const MaxAge = 150

var (
	ErrNotFound   = errors.New("user not found")
	ErrValidation = errors.New("invalid user")
)

type User struct {
	ID        string `json:"id,omitempty"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Age       int    `json:"age"`
}

// Patch carries the fields of a partial update. Nil fields are left untouched.
type Patch struct {
	Firstname *string `json:"firstname,omitempty"`
	Lastname  *string `json:"lastname,omitempty"`
	Age       *int    `json:"age,omitempty"`
}

func (p Patch) IsEmpty() bool {
	return p.Firstname == nil && p.Lastname == nil && p.Age == nil
}

// Apply returns u with the present patch fields written over it.
func (p Patch) Apply(u User) User {
	if p.Firstname != nil {
		u.Firstname = *p.Firstname
	}
	if p.Lastname != nil {
		u.Lastname = *p.Lastname
	}
	if p.Age != nil {
		u.Age = *p.Age
	}
	return u
}

// Normalize trims the name fields.
func Normalize(u User) User {
	u.ID = strings.TrimSpace(u.ID)
	u.Firstname = strings.TrimSpace(u.Firstname)
	u.Lastname = strings.TrimSpace(u.Lastname)
	return u
}

func NormalizePatch(p Patch) Patch {
	if p.Firstname != nil {
		v := strings.TrimSpace(*p.Firstname)
		p.Firstname = &v
	}
	if p.Lastname != nil {
		v := strings.TrimSpace(*p.Lastname)
		p.Lastname = &v
	}
	return p
}

// Validate checks a user for creation. Names are checked after trimming.
func Validate(u User) error {
	if err := validateName("firstname", u.Firstname); err != nil {
		return err
	}
	if err := validateName("lastname", u.Lastname); err != nil {
		return err
	}
	return ValidateAge(u.Age)
}

// ValidatePatch applies the creation rules to every field present in p.
func ValidatePatch(p Patch) error {
	if p.Firstname != nil {
		if err := validateName("firstname", *p.Firstname); err != nil {
			return err
		}
	}
	if p.Lastname != nil {
		if err := validateName("lastname", *p.Lastname); err != nil {
			return err
		}
	}
	if p.Age != nil {
		return ValidateAge(*p.Age)
	}
	return nil
}

func ValidateAge(age int) error {
	if age <= 0 || age > MaxAge {
		return fmt.Errorf("%w: age must be between 1 and %d", ErrValidation, MaxAge)
	}
	return nil
}

func validateName(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrValidation, field)
	}
	return nil
}
