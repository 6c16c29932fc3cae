package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"mentormuni-server/guard"
)

const msgTimeout = "Request timed out. Please try again later."

// FieldError names one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is a request the caller must fix.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func invalidField(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// httpStatus maps an error to its response code.
func httpStatus(err error) int {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, guard.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err without leaking internals; generic is the message
// used for 500s.
func respondError(c *gin.Context, logger *zap.Logger, err error, generic string) {
	status := httpStatus(err)
	_ = c.Error(err)

	switch status {
	case http.StatusBadRequest:
		var ve *ValidationError
		errors.As(err, &ve)
		c.AbortWithStatusJSON(status, gin.H{"error": "Invalid request", "fields": ve.Fields})
	case http.StatusGatewayTimeout:
		logger.Warn("request timed out", zap.String("path", c.FullPath()), zap.Error(err))
		c.AbortWithStatusJSON(status, gin.H{"error": msgTimeout})
	default:
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.AbortWithStatusJSON(status, gin.H{"error": generic})
	}
}

// bindError converts gin binding failures into a ValidationError.
func bindError(err error) *ValidationError {
	var (
		verrs     validator.ValidationErrors
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
	)
	switch {
	case errors.As(err, &verrs):
		out := &ValidationError{}
		for _, fe := range verrs {
			out.Fields = append(out.Fields, FieldError{Field: fieldPath(fe), Message: tagMessage(fe)})
		}
		return out
	case errors.As(err, &typeErr):
		return invalidField(typeErr.Field, fmt.Sprintf("must be of type %s", typeErr.Type))
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return invalidField("body", "malformed JSON")
	case errors.Is(err, io.EOF):
		return invalidField("body", "request body is required")
	default:
		return invalidField("body", err.Error())
	}
}

// fieldPath drops the struct name prefix: "UserProfile.user_type" -> "user_type".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if isCollection(fe) {
			return "must have at least " + fe.Param() + " items"
		}
		if isString(fe) {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if isCollection(fe) {
			return "must have at most " + fe.Param() + " items"
		}
		if isString(fe) {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "eqfield":
		return "must have the same length as questions"
	case "yesno":
		return `must be "Yes" or "No"`
	case "usertype":
		return "must be student or working_professional"
	case "contactemail":
		return "must be a valid email address"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

func isString(fe validator.FieldError) bool {
	return fe.Kind().String() == "string"
}

func isCollection(fe validator.FieldError) bool {
	switch fe.Kind().String() {
	case "slice", "array", "map":
		return true
	}
	return false
}
