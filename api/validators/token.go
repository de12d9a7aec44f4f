package validators

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/vendorbridge/backoffice-backend/pkg/errors"
)

// Approval tokens are 32 random bytes in unpadded URL-safe base64.
const approvalTokenLen = 43

// ParseApprovalToken extracts and shape-checks the public approval token
// path parameter. Tokens that cannot possibly match a stored value are
// rejected before touching the database.
func ParseApprovalToken(r *http.Request) (string, error) {
	token := strings.TrimSpace(chi.URLParam(r, "token"))
	if len(token) != approvalTokenLen {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "malformed approval token")
	}
	for _, c := range token {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return "", pkgerrors.New(pkgerrors.CodeValidation, "malformed approval token")
		}
	}
	return token, nil
}

// ParseUUIDParam parses a chi URL parameter as a UUID.
func ParseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid identifier").WithDetails(map[string]any{"field": name})
	}
	return id, nil
}
