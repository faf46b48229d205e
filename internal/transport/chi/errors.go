package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kbassist/internal/db"
	"github.com/kailas-cloud/kbassist/internal/domain"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage keeps field-level validation details and hides store internals.
func safeDomainMessage(err error) string {
	var inv *domain.InvalidInputError
	switch {
	case errors.As(err, &inv):
		return inv.Field + ": " + inv.Reason
	case errors.Is(err, domain.ErrArticleNotFound):
		return domain.ErrArticleNotFound.Error()
	case errors.Is(err, domain.ErrStoreUnavailable):
		return domain.ErrStoreUnavailable.Error()
	case errors.Is(err, domain.ErrInvalidInput):
		return err.Error()
	}
	return "request failed"
}

func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	fields := []zap.Field{zap.Error(err)}
	if op, ok := db.FailedOp(err); ok {
		fields = append(fields, zap.String("db_op", string(op)))
	}
	s.logger.Warn("domain error", fields...)
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
