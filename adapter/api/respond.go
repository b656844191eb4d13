package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error codes returned in the response envelope. The set is closed;
// handlers never invent new codes.
const (
	codeMissingDates         = "MISSING_DATES"
	codeInvalidDateRange     = "INVALID_DATE_RANGE"
	codeCareReceiverNotFound = "CARE_RECEIVER_NOT_FOUND"
	codeCareGiverNotFound    = "CARE_GIVER_NOT_FOUND"
	codeAppointmentNotFound  = "APPOINTMENT_NOT_FOUND"
	codeMissingFields        = "MISSING_FIELDS"
	codeValidation           = "VALIDATION_ERROR"
	codeDuplicate            = "DUPLICATE_ERROR"
	codeUnauthorized         = "UNAUTHORIZED"
	codeInternal             = "INTERNAL_ERROR"
)

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// writeData writes a success envelope.
func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

// writeError writes a failure envelope.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, envelope{Success: false, Error: &errorBody{Message: message, Code: code}})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// decodeJSON reads the request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
