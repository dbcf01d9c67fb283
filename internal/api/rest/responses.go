package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	domainerrors "github.com/ameeeetster/iga-risk-engine/internal/domain/errors"
)

// errorEnvelope is the wire shape for all error responses.
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// writeError maps domain errors onto HTTP status codes and the error
// envelope. Unknown errors become opaque 500s.
func writeError(w http.ResponseWriter, err error) {
	var appErr *domainerrors.AppError
	if errors.As(err, &appErr) {
		writeJSON(w, appErr.StatusCode, errorEnvelope{Error: errorBody{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		}})
		return
	}

	writeJSON(w, http.StatusInternalServerError, errorEnvelope{Error: errorBody{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
	}})
}
