package validators

import (
	"net/http"
	"strings"

	pkgerrors "github.com/fitlinehq/fitline-backend/pkg/errors"
)

const idempotencyHeader = "Idempotency-Key"

const maxIdempotencyKeyLen = 128

// IdempotencyToken extracts the client token that scopes a lifecycle
// transition. Services persist it as the transition receipt token, so
// a missing or oversized key is rejected before any work happens.
func IdempotencyToken(r *http.Request) (string, error) {
	token := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if token == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required")
	}
	if len(token) > maxIdempotencyKeyLen {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header too long").
			WithDetails(map[string]any{"max_len": maxIdempotencyKeyLen})
	}
	return token, nil
}
