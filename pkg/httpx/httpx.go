package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/metasoccer/scouting-contracts/pkg/fault"
)

func NewRequestID() string { return "req_" + uuid.NewString() }

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ReadJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func WriteError(w http.ResponseWriter, status int, code, message string, details any) {
	resp := map[string]any{
		"request_id": NewRequestID(),
		"error": map[string]any{
			"code": code, "message": message, "details": details,
		},
	}
	WriteJSON(w, status, resp)
}

// WriteFault maps the core error taxonomy onto HTTP statuses. Errors
// outside the taxonomy surface as 500s.
func WriteFault(w http.ResponseWriter, err error) {
	kind, ok := fault.KindOf(err)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		return
	}
	status := http.StatusInternalServerError
	switch kind {
	case fault.Authorization:
		status = http.StatusUnauthorized
	case fault.Ownership:
		status = http.StatusForbidden
	case fault.State, fault.Reentrancy:
		status = http.StatusConflict
	case fault.Funds:
		status = http.StatusPaymentRequired
	case fault.InvalidInput:
		status = http.StatusBadRequest
	case fault.NotFound:
		status = http.StatusNotFound
	}
	WriteError(w, status, string(kind), err.Error(), map[string]any{"reason": fault.ReasonOf(err)})
}
