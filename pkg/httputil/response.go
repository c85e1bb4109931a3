package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/aleisley/ta-backend/internal/model"
	apperrors "github.com/aleisley/ta-backend/pkg/errors"
)

const (
	statusSuccess = "success"
	statusError   = "error"

	// RequestIDKey is where the request id middleware stores the id.
	RequestIDKey = "request_id"
)

// Response wraps all successful API responses
type Response struct {
	Status     string      `json:"status"`
	Data       interface{} `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination echoes the page that produced a list response
type Pagination struct {
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
	Count int `json:"count"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Status  string                 `json:"status"`
	Code    int                    `json:"code"`
	Reason  string                 `json:"reason"`
	Message string                 `json:"message"`
	Errors  []apperrors.FieldError `json:"errors,omitempty"`
	TraceID string                 `json:"trace_id,omitempty"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Status: statusSuccess,
		Data:   data,
	})
}

// RespondWithPagination sends a list response with its page
func RespondWithPagination(c *gin.Context, data interface{}, page model.Page, count int) {
	c.JSON(http.StatusOK, Response{
		Status: statusSuccess,
		Data:   data,
		Pagination: &Pagination{
			Skip:  page.Skip,
			Limit: page.Limit,
			Count: count,
		},
	})
}

// RespondWithError renders err as the error envelope. Anything that is not
// an AppError becomes an opaque 500.
func RespondWithError(c *gin.Context, err error) {
	appErr := ToAppError(err)
	c.AbortWithStatusJSON(appErr.StatusCode(), ErrorResponse{
		Status:  statusError,
		Code:    appErr.StatusCode(),
		Reason:  appErr.Reason,
		Message: appErr.Message,
		Errors:  appErr.Fields,
		TraceID: c.GetString(RequestIDKey),
	})
}

// ToAppError classifies err for the error envelope.
func ToAppError(err error) *apperrors.AppError {
	if appErr, ok := apperrors.As(err); ok {
		return appErr
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return BindError(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Timeout(err)
	}
	return apperrors.Internal(err)
}

// BindError maps a ShouldBind* failure. Unparseable bodies are 400; bodies
// that parse but carry wrong types or fail validation are 422.
func BindError(err error) *apperrors.AppError {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make([]apperrors.FieldError, 0, len(ve))
		for _, fe := range ve {
			fields = append(fields, apperrors.FieldError{
				Field:   fe.Field(),
				Message: fieldMessage(fe),
			})
		}
		return apperrors.Validation(fields, err)
	}

	var syntaxErr *json.SyntaxError
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return apperrors.PayloadTooLarge(maxBytesErr.Limit)
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return apperrors.BadRequest("malformed JSON body", err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return apperrors.Validation([]apperrors.FieldError{{
			Field:   typeErr.Field,
			Message: "must be of type " + typeErr.Type.String(),
		}}, err)
	}
	return apperrors.Validation([]apperrors.FieldError{{Field: "body", Message: err.Error()}}, err)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "notblank":
		return "must not be blank"
	case "email":
		return "must be a valid email address"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param()
	case "uuid":
		return "must be a valid UUID"
	}
	return "failed on the " + fe.Tag() + " rule"
}

// ParsePagination reads skip and limit from the query string. Missing values
// take the defaults; malformed or out-of-range values are rejected.
func ParsePagination(c *gin.Context, defaultLimit, maxLimit int) (model.Page, error) {
	page := model.Page{Limit: defaultLimit}
	var fields []apperrors.FieldError

	if raw, ok := c.GetQuery("skip"); ok {
		skip, err := strconv.Atoi(raw)
		if err != nil || skip < 0 {
			fields = append(fields, apperrors.FieldError{Field: "skip", Message: "must be a non-negative integer"})
		}
		page.Skip = skip
	}

	if raw, ok := c.GetQuery("limit"); ok {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxLimit {
			fields = append(fields, apperrors.FieldError{
				Field:   "limit",
				Message: "must be an integer between 1 and " + strconv.Itoa(maxLimit),
			})
		}
		page.Limit = limit
	}

	if len(fields) > 0 {
		return model.Page{}, apperrors.Validation(fields, nil)
	}
	return page, nil
}
