package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/KlimSani4/hydrocalc/internal/apierr"
	"github.com/KlimSani4/hydrocalc/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError writes err using the status carried by an *apierr.Error.
// Anything else is logged and reported as a bare internal error.
func RespondError(c *gin.Context, log *logger.Logger, err error) {
	apiErr := apierr.As(err)
	if apiErr.Status >= http.StatusInternalServerError {
		log.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"request_id", requestID(c),
			"error", err,
		)
	}
	c.AbortWithStatusJSON(apiErr.Status, ErrorEnvelope{
		Error: APIError{Message: apiErr.Public(), Code: apiErr.Code},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// bindingError turns a gin binding failure into a field-level validation error.
func bindingError(err error) *apierr.Error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return apierr.Validation(errors.New(strings.Join(msgs, "; ")))
	}
	return apierr.Validation(fmt.Errorf("malformed request: %w", err))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + ": field required"
	case "min":
		return field + ": must be greater than or equal to " + fe.Param()
	case "max":
		return field + ": must be less than or equal to " + fe.Param()
	case "oneof":
		return field + ": must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return field + ": not a valid email address"
	}
	return field + ": failed " + fe.Tag()
}
