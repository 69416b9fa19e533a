package calendar

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// MaxUserIDLength — ограничение длины внешнего идентификатора пользователя.
const MaxUserIDLength = 255

var ErrInvalidUserID = errors.New("invalid user id")

// ValidateUserID нормализует идентификатор, полученный от слоя аутентификации.
// Пустой или слишком длинный идентификатор отклоняется.
func ValidateUserID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" || utf8.RuneCountInString(id) > MaxUserIDLength {
		return "", ErrInvalidUserID
	}
	return id, nil
}
