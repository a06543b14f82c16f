package policy

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tourbase-hq/reservations/platform/go/auth"
)

// Guard authorizes every company-scoped route in one place instead of
// sprinkling authorize calls through handlers. It resolves the {companyID}
// route parameter, maps the HTTP method to an action and evaluates the policy
// before the handler runs. Missing principal yields 401, denial yields 403.
func Guard() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			companyID, err := uuid.Parse(chi.URLParam(r, "companyID"))
			if err != nil {
				writeJSONError(w, http.StatusNotFound, "company not found")
				return
			}

			principal, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if err := Authorize(principal, actionForMethod(r.Method), companyID); err != nil {
				writeJSONError(w, http.StatusForbidden, "forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func actionForMethod(method string) Action {
	switch method {
	case http.MethodPost:
		return ActionCreate
	case http.MethodPut, http.MethodPatch:
		return ActionUpdate
	case http.MethodDelete:
		return ActionDelete
	default:
		return ActionViewAny
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
