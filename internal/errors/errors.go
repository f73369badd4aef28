package errors

import (
	"errors"
	"fmt"
)

// Машиночитаемые символы ошибок для API.
// Клиент ветвится по символу, не по тексту сообщения.
const (
	CodeMissingTargetURL = "MISSING_TARGET_URL"
	CodeInvalidURLFormat = "INVALID_URL_FORMAT"
	CodeInvalidCode      = "INVALID_CODE_FORMAT"
	CodeExists           = "CODE_EXISTS"
	CodeGenerationFailed = "CODE_GENERATION_FAILED"
	CodeLinkNotFound     = "LINK_NOT_FOUND"
	CodeInternal         = "INTERNAL_ERROR"
	CodeRouteNotFound    = "ROUTE_NOT_FOUND"
)

var (
	ErrLinkNotFound  = errors.New("link not found")
	ErrCodeExists    = errors.New("code already exists")
	ErrCodeCollision = errors.New("failed to generate unique code")
)

// ValidationError - ошибка валидации входных данных.
// Symbol - стабильный код для клиента, Message - человекочитаемый текст.
type ValidationError struct {
	Field   string
	Symbol  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error in field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func NewValidationError(field, symbol, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Symbol:  symbol,
		Message: message,
	}
}

// BusinessError - ошибка бизнес-логики или хранилища.
type BusinessError struct {
	Code    string
	Message string
	Cause   error
}

func (e *BusinessError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Cause
}

func NewBusinessError(code, message string, cause error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsValidationError проверяет является ли ошибка ошибкой валидации
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsBusinessError проверяет является ли ошибка бизнес-ошибкой
func IsBusinessError(err error) bool {
	var businessErr *BusinessError
	return errors.As(err, &businessErr)
}

func GetValidationError(err error) *ValidationError {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr
	}
	return nil
}

// GetBusinessError извлекает BusinessError из ошибки
func GetBusinessError(err error) *BusinessError {
	var businessErr *BusinessError
	if errors.As(err, &businessErr) {
		return businessErr
	}
	return nil
}
