package utils

import (
	"errors"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

var (
	ErrPasswordTooShort  = errors.New("password must be at least 8 characters long")
	ErrPasswordUppercase = errors.New("password must contain at least one uppercase letter")
	ErrPasswordDigit     = errors.New("password must contain at least one digit")
	ErrPasswordSpecial   = errors.New("password must contain at least one special character")
)

// CheckPasswordPolicy enforces: at least 8 characters, one uppercase
// letter, one digit and one character that is neither letter nor digit.
func CheckPasswordPolicy(p string) error {
	if utf8.RuneCountInString(p) < 8 {
		return ErrPasswordTooShort
	}
	var upper, digit, special bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsLetter(r) && !unicode.IsSpace(r):
			special = true
		}
	}
	switch {
	case !upper:
		return ErrPasswordUppercase
	case !digit:
		return ErrPasswordDigit
	case !special:
		return ErrPasswordSpecial
	}
	return nil
}
