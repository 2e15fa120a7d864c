package httptransport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "coursegate/pkg/domain-errors"
	request "coursegate/pkg/platform/middleware/request"
)

// errorCodeRoleNotAssigned tells clients to sync the profile and retry.
const errorCodeRoleNotAssigned = "role_not_assigned"

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError centralizes domain error translation to HTTP responses.
// Client errors carry the domain message; server errors carry only the
// generic user message and are logged.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)
	desc := dErrors.UserMessage(err)

	var de *dErrors.Error
	if status < http.StatusInternalServerError && errors.As(err, &de) && de.Message != "" {
		desc = de.Message
	}
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			"path", r.URL.Path,
			"request_id", request.GetRequestID(r.Context()),
			"error", err,
		)
	}
	writeJSON(w, status, errorResponse{Error: string(code), ErrorDescription: desc})
}
