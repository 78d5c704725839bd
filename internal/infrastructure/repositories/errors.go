package repositories

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"
	domainerrors "cryptovest.backend/internal/domain/errors"
)

const pqUniqueViolation = "23505"

// translateError maps driver errors onto domain sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainerrors.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", domainerrors.ErrAlreadyExists, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return fmt.Errorf("%w: %s", domainerrors.ErrAlreadyExists, pqErr.Constraint)
	}
	return err
}
