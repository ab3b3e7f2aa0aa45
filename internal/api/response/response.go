// internal/api/response/response.go
package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/newthinker/sentinel/internal/core"
)

// Meta contains response metadata.
type Meta struct {
	Timestamp time.Time `json:"timestamp"`
}

// SuccessResponse is the standard success response format.
type SuccessResponse struct {
	Data any  `json:"data"`
	Meta Meta `json:"meta"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   string `json:"cause,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// statusByCode maps error codes to HTTP status. Codes not listed are 500.
var statusByCode = map[string]int{
	core.ErrInvalidWindow.Code:    http.StatusBadRequest,
	core.ErrInvalidInput.Code:     http.StatusBadRequest,
	core.ErrConfigInvalid.Code:    http.StatusBadRequest,
	core.ErrInsufficientData.Code: http.StatusUnprocessableEntity,
	core.ErrNoNextTradingDay.Code: http.StatusUnprocessableEntity,
	core.ErrMissingPrice.Code:     http.StatusUnprocessableEntity,
	core.ErrEmptyResult.Code:      http.StatusUnprocessableEntity,
	core.ErrSymbolNotFound.Code:   http.StatusNotFound,
	core.ErrNoData.Code:           http.StatusNotFound,
	core.ErrJobNotFound.Code:      http.StatusNotFound,
	core.ErrUnauthorized.Code:     http.StatusUnauthorized,
	core.ErrCollectorFailed.Code:  http.StatusBadGateway,
	core.ErrLLMFailed.Code:        http.StatusBadGateway,
}

// StatusFor returns the HTTP status matching err's code.
func StatusFor(err error) int {
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		if status, ok := statusByCode[coreErr.Code]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

// JSON writes a success response with data.
func JSON(w http.ResponseWriter, status int, data any) {
	resp := SuccessResponse{
		Data: data,
		Meta: Meta{Timestamp: time.Now().UTC()},
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// Error writes an error response.
func Error(w http.ResponseWriter, status int, err error) {
	detail := ErrorDetail{
		Code:    core.ErrInternal.Code,
		Message: core.ErrInternal.Message,
	}

	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		detail.Code = coreErr.Code
		detail.Message = coreErr.Message
		if coreErr.Cause != nil {
			detail.Cause = coreErr.Cause.Error()
		}
	}

	resp := ErrorResponse{Error: detail}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// Fail writes err with the status StatusFor picks.
func Fail(w http.ResponseWriter, err error) {
	Error(w, StatusFor(err), err)
}
