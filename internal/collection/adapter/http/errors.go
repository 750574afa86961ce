package http

import (
	"errors"

	apperrors "collection-tracker/internal/shared/errors"

	"github.com/gofiber/fiber/v2"
)

// errorResponse is the JSON body of every failed request
type errorResponse struct {
	Error     *apperrors.AppError `json:"error"`
	RequestID string              `json:"requestId,omitempty"`
}

// writeError renders err with the status its AppError carries. Errors that
// are not AppErrors are reported as internal without leaking their text.
func writeError(c *fiber.Ctx, err error) error {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.NewInternalError("internal server error")
	}
	return c.Status(apperrors.HTTPStatus(appErr)).JSON(errorResponse{
		Error:     appErr,
		RequestID: requestID(c),
	})
}

// ErrorHandler is installed as the fiber.Config ErrorHandler so routing
// errors and panics recovered upstream share the same body shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		appErr := apperrors.NewAppError(errorTypeForStatus(fe.Code), fe.Message, fe.Code)
		return writeError(c, appErr)
	}
	return writeError(c, err)
}

func errorTypeForStatus(status int) apperrors.ErrorType {
	switch status {
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return apperrors.ErrorTypeValidation
	case fiber.StatusUnauthorized:
		return apperrors.ErrorTypeAuthentication
	case fiber.StatusForbidden:
		return apperrors.ErrorTypeAuthorization
	case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
		return apperrors.ErrorTypeNotFound
	case fiber.StatusConflict:
		return apperrors.ErrorTypeConflict
	default:
		return apperrors.ErrorTypeInternal
	}
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestIDLocal).(string); ok {
		return id
	}
	return ""
}
