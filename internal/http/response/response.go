// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков локального API.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/phone-cleaner/internal/models"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
// Поле Status — статус запроса ("OK" или "Error").
// Поле Error — текст ошибки (опционально, при неуспехе).
// Поле Data — данные ответа (опционально, при успехе).
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse — структура ошибки для Swagger-документации.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

const (
	// StatusOK — значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// OKWithData возвращает успешный Response с переданными данными.
func OKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// ErrorWithData возвращает ответ с ошибкой и данными, например решением авторизатора.
func ErrorWithData(msg string, data any) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
		Data:   data,
	}
}

// HTTPStatus сопоставляет доменную ошибку с HTTP-статусом.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrQuotaExhausted):
		return http.StatusPaymentRequired
	case errors.Is(err, models.ErrPurchasePending):
		return http.StatusAccepted
	case errors.Is(err, models.ErrInvalidIndex),
		errors.Is(err, models.ErrNegativeCount),
		errors.Is(err, models.ErrUnknownProduct):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrUnknownGroup),
		errors.Is(err, models.ErrUnknownBatch):
		return http.StatusNotFound
	case errors.Is(err, models.ErrTrialUnavailable),
		errors.Is(err, models.ErrPurchaseCancelled),
		errors.Is(err, models.ErrDeletionInProgress):
		return http.StatusConflict
	case errors.Is(err, models.ErrNetworkUnavailable),
		errors.Is(err, models.ErrStoreFailed):
		return http.StatusBadGateway
	case errors.Is(err, models.ErrVerificationFailed):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
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
		case "gte", "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at least %s", err.Field(), err.Param()))
		case "uuid":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only uuid", err.Field()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of [%s]", err.Field(), err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}
