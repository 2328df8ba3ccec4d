package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 256
)

func validatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, MinPasswordLength)
	}
	if n > MaxPasswordLength {
		return fmt.Errorf("%w: password must be at most %d characters", common.ErrorValidation, MaxPasswordLength)
	}
	return nil
}

// validateEmail expects an already normalized address.
func validateEmail(email string) error {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t\r\n") {
		return fmt.Errorf("%w: invalid email", common.ErrorValidation)
	}
	return nil
}
