package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"pdf-rag/internal/models"
)

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

func (e Error) Error() string {
	return e.Message
}

func NewError(code int, msg string) Error {
	return Error{Code: code, Message: msg}
}

type ValidationError struct {
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

func (e ValidationError) Error() string {
	return "validation failed"
}

func NewValidationError(errs map[string]string) ValidationError {
	return ValidationError{Status: fiber.StatusUnprocessableEntity, Errors: errs}
}

func ErrBadRequest(msg string) Error {
	return NewError(fiber.StatusBadRequest, msg)
}

// ErrorHandler renders every error returned by a handler as JSON.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var apiErr Error
	if errors.As(err, &apiErr) {
		return c.Status(apiErr.Code).JSON(apiErr)
	}
	var valErr ValidationError
	if errors.As(err, &valErr) {
		return c.Status(valErr.Status).JSON(valErr)
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(NewError(fiberErr.Code, fiberErr.Message))
	}

	code := statusFor(err)
	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Int("code", code).Msg("Request failed")
	} else {
		log.Debug().Err(err).Str("path", c.Path()).Int("code", code).Msg("Request rejected")
	}
	return c.Status(code).JSON(NewError(code, models.UserMessage(err)))
}

func statusFor(err error) int {
	var extractErr *models.ExtractionError
	var serviceErr *models.ServiceError
	switch {
	case errors.As(err, &extractErr),
		errors.Is(err, models.ErrNoChunks),
		errors.Is(err, models.ErrEmptyQuestion):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, models.ErrMissingIndex):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrIndexMismatch):
		return fiber.StatusConflict
	case errors.As(err, &serviceErr):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

