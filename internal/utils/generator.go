package utils

import (
	"strings"

	"github.com/google/uuid"
)

// DefaultCodeLength - длина автоматически сгенерированного кода.
const DefaultCodeLength = 6

// GenerateCode возвращает случайный короткий код: UUID без разделителей,
// усеченный до первых шести символов. Уникальность здесь не гарантируется,
// решение о коллизии принимает вызывающая сторона по состоянию хранилища.
func GenerateCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return raw[:DefaultCodeLength]
}
