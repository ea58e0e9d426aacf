// Package response содержит вспомогательные типы и функции для формирования
// JSON‑ответов об ошибках HTTP‑обработчиков. Успешные ответы обработчики
// отдают без обёртки, ошибки и сообщения валидации — в едином формате.
package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator"
)

// Response описывает JSON‑ответ с ошибкой валидации.
// Поле Status — всегда "Error", поле Error — текст нарушений.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ErrorResponse — структура ошибки для Swagger-документации.
// Используется в аннотациях @Failure как возвращаемый тип ошибки.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

// InsufficientCreditsResponse — ответ 402 с размером нехватки кредитов.
type InsufficientCreditsResponse struct {
	Status    string `json:"status" example:"Error"`
	Error     string `json:"error" example:"insufficient credits"`
	Required  int64  `json:"required" example:"5"`
	Available int64  `json:"available" example:"2"`
}

// StatusError — значение статуса для ответа с ошибкой.
const StatusError = "Error"

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// InsufficientCredits возвращает ответ о нехватке кредитов.
func InsufficientCredits(required, available int64) InsufficientCreditsResponse {
	return InsufficientCreditsResponse{
		Status:    StatusError,
		Error:     "insufficient credits",
		Required:  required,
		Available: available,
	}
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "alphanum":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only numbers and letters", err.Field()))
		case "min", "gte", "gt":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too small", err.Field()))
		case "max", "lte", "lt":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too large", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}
