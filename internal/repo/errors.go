package repo

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"carbon-tracker/internal/domain"
)

// translate maps driver/gorm errors onto domain errors.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %s", domain.ErrNotFound, what)
	case errors.Is(err, gorm.ErrDuplicatedKey), isDupKey(err):
		return fmt.Errorf("%w: %s already exists", domain.ErrConflict, what)
	}
	return err
}

// isDupKey catches drivers whose unique violations gorm does not translate.
func isDupKey(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
