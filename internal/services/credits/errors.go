package credits

import (
	"errors"
	"fmt"

	"github.com/magabrotheeeer/card-credits/internal/storage"
)

var (
	// ErrNotFound — счёт не найден.
	ErrNotFound = errors.New("account not found")
	// ErrInsufficientCredits — баланса бесплатного счёта недостаточно для списания.
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrInvalidPackage — неизвестный пакет кредитов.
	ErrInvalidPackage = errors.New("invalid package")
	// ErrInvalidAmount — сумма списания должна быть положительной.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrStorageUnavailable — сбой хранилища; операцию можно повторить.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrUnauthenticated — запрос без подтверждённой личности вызывающего.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrRequestConflict — идентификатор запроса уже занят операцией другого типа.
	ErrRequestConflict = errors.New("request id already used by another operation")
)

// ShortfallError сообщает, сколько кредитов требовалось и сколько доступно.
type ShortfallError struct {
	Required  int64
	Available int64
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("%s: required %d, available %d", ErrInsufficientCredits, e.Required, e.Available)
}

// Unwrap позволяет сравнивать ошибку с ErrInsufficientCredits через errors.Is.
func (e *ShortfallError) Unwrap() error {
	return ErrInsufficientCredits
}

// classify оборачивает ошибку операцией, переводя ошибки хранилища в доменные.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInsufficientCredits),
		errors.Is(err, ErrInvalidPackage),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrRequestConflict),
		errors.Is(err, ErrStorageUnavailable):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, storage.ErrAccountNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, storage.ErrPackageNotFound):
		return fmt.Errorf("%s: %w", op, ErrInvalidPackage)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
	}
}
