package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fd1az/pool-service/internal/apperror"
)

// Fixed user-facing messages, one per route.
const (
	msgPositions         = "Failed to fetch liquidity positions"
	msgCombinedPositions = "Failed to fetch combined liquidity positions"
	msgPositionValue     = "Failed to fetch position value"
	msgPoolStats         = "Failed to fetch pool stats"
	msgBatchPoolStats    = "Failed to fetch batch pool stats"

	msgCreatePackage     = "Failed to create package"
	msgUpdatePackage     = "Failed to update package"
	msgDeletePackage     = "Failed to delete package"
	msgListPackages      = "Failed to fetch packages"
	msgGetPackage        = "Failed to fetch package"
	msgSelectStyle       = "Failed to select style"
	msgGetStyle          = "Failed to fetch user style"
	msgLogPurchase       = "Failed to log purchase"
	msgPurchasedPackages = "Failed to fetch purchased packages"
	msgHasPurchased      = "Failed to check purchase"
	msgLogTransaction    = "Failed to log transaction"
	msgUserTransactions  = "Failed to fetch user transactions"
	msgAllTransactions   = "Failed to fetch transactions"
)

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError picks the status from the error's kind. Client errors carry
// their own message; every other failure reports the route's fixed message
// with the cause as details.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, fixed string, err error) {
	status := apperror.StatusOf(err)

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		s.log.Error(r.Context(), fixed, "path", r.URL.Path, "status", status, "error", err)
		writeJSON(w, status, errorBody{Error: fixed, Details: apperror.DetailsOf(err)})
		return
	}
	if status == http.StatusBadRequest {
		writeJSON(w, status, errorBody{Error: appErr.Message})
		return
	}

	s.log.Error(r.Context(), fixed, "path", r.URL.Path, "error", appErr.ToLog())
	writeJSON(w, status, appErr.ToResponse(fixed))
}

// decodeBody rejects malformed JSON with a 400.
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperror.New(apperror.CodeInvalidBody, apperror.WithCause(err))
	}
	return nil
}
