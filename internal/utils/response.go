package utils

import (
	"net/http"
	"time"

	"ms-busline/internal/fault"
)

type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Code      string      `json:"code,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

func ErrorResponse(message, code string) APIResponse {
	return APIResponse{
		Success:   false,
		Message:   message,
		Error:     message,
		Code:      code,
		Timestamp: time.Now(),
	}
}

// StatusForError maps a fault kind to the HTTP status the API layer
// responds with.
func StatusForError(err error) int {
	switch fault.KindOf(err) {
	case fault.KindValidation:
		return http.StatusBadRequest
	case fault.KindNotFound:
		return http.StatusNotFound
	case fault.KindConflict, fault.KindState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
