package response

import (
	"encoding/json"
	"net/http"
)

// JSON writes a JSON response with the given status code
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Log error but don't try to write again
			return
		}
	}
}

// Error writes an error response with a machine-readable code plus any
// structured details the caller needs for messaging
func Error(w http.ResponseWriter, status int, code string, details map[string]interface{}) {
	body := map[string]interface{}{"error": code}
	for k, v := range details {
		body[k] = v
	}
	JSON(w, status, body)
}

// BadRequest writes a 400 bad request response
func BadRequest(w http.ResponseWriter, code string, message string) {
	Error(w, http.StatusBadRequest, code, map[string]interface{}{"message": message})
}

// NotFound writes a 404 not found response
func NotFound(w http.ResponseWriter, code string, message string) {
	Error(w, http.StatusNotFound, code, map[string]interface{}{"message": message})
}

// InternalError writes a 500 internal server error response
func InternalError(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Internal server error"
	}
	Error(w, http.StatusInternalServerError, "internal_error", map[string]interface{}{"message": message})
}

// Unauthorized writes a 401 unauthorized response
func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Authentication required"
	}
	Error(w, http.StatusUnauthorized, "unauthorized", map[string]interface{}{"message": message})
}

// Created writes a 201 created response
func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, data)
}

// NoContent writes a 204 no content response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
