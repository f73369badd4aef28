package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	apperrors "tinylink/internal/errors"
)

const maxURLLength = 2048

// codePattern - 6-8 символов, только ASCII буквы и цифры.
// Применяется и к пользовательским, и к сгенерированным кодам.
var codePattern = regexp.MustCompile(`^[A-Za-z0-9]{6,8}$`)

func ValidateTargetURL(rawURL string) error {
	if rawURL == "" {
		return apperrors.NewValidationError("targetUrl", apperrors.CodeMissingTargetURL, "Target URL is required")
	}

	if len(rawURL) > maxURLLength {
		return apperrors.NewValidationError("targetUrl", apperrors.CodeInvalidURLFormat,
			fmt.Sprintf("URL is too long (max %d characters)", maxURLLength))
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return apperrors.NewValidationError("targetUrl", apperrors.CodeInvalidURLFormat, "Invalid URL format")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return apperrors.NewValidationError("targetUrl", apperrors.CodeInvalidURLFormat, "URL must start with http:// or https://")
	}

	if parsedURL.Host == "" {
		return apperrors.NewValidationError("targetUrl", apperrors.CodeInvalidURLFormat, "URL must contain a valid host")
	}

	return nil
}

func ValidateCode(code string) error {
	if !codePattern.MatchString(code) {
		return apperrors.NewValidationError("code", apperrors.CodeInvalidCode, "Custom code must be 6-8 alphanumeric characters")
	}
	return nil
}

func SanitizeInput(input string) string {
	// Удаляем управляющие символы и обрезаем пробелы
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, input)

	return strings.TrimSpace(result)
}
