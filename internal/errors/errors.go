package errors

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/streamio/streamio/internal/logger"
)

// AppError represents a structured error with HTTP context
type AppError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Context    map[string]interface{} `json:"context,omitempty"`
	Cause      error                  `json:"-"`
	HTTPStatus int                    `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// ToGinResponse sends the error as a standardized JSON response
func (e *AppError) ToGinResponse(c *gin.Context) {
	statusCode := e.HTTPStatus
	if statusCode == 0 {
		statusCode = http.StatusInternalServerError
	}

	response := gin.H{
		"error": e.Message,
		"code":  e.Code,
	}

	if len(e.Context) > 0 {
		response["details"] = e.Context
	}

	logger.Error("HTTP error response",
		[]logger.Field{
			logger.Int("status", statusCode),
			logger.String("code", e.Code),
			logger.String("path", c.Request.URL.Path),
			logger.String("method", c.Request.Method),
		})

	c.JSON(statusCode, response)
}

// Common error constructors
func NewValidationError(message string, field string) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Context:    map[string]interface{}{"field": field},
	}
}

func NewNotFoundError(resource string, id string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
		Context:    map[string]interface{}{"resource": resource, "id": id},
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewDatabaseError(operation string, cause error) *AppError {
	return &AppError{
		Code:       "DATABASE_ERROR",
		Message:    "Database operation failed",
		HTTPStatus: http.StatusInternalServerError,
		Context:    map[string]interface{}{"operation": operation},
		Cause:      cause,
	}
}

// StartupError reports a failure during application startup. The bootstrap
// returns it to the top-level handler, which logs the failure and exits the
// process with ExitCode.
type StartupError struct {
	Stage    string
	ExitCode int
	Err      error
}

func (e *StartupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("startup failed during %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("startup failed during %s", e.Stage)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

// NewStartupError wraps err with the startup stage that failed. A zero exit
// code is normalized to 1 so a failed startup never exits cleanly.
func NewStartupError(stage string, err error) *StartupError {
	return &StartupError{
		Stage:    stage,
		ExitCode: 1,
		Err:      err,
	}
}
