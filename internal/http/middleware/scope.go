package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/clicimobiliaria/crm/internal/service"
)

// Scope valida a imobiliária ativa para rotas protegidas. O tenant vem
// do header X-Tenant (ou query tenant_id) e precisa ter vínculo ativo
// com o usuário autenticado.
func Scope(rbac *service.RBACService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID := r.Header.Get("X-Tenant")
			if tenantID == "" {
				tenantID = r.URL.Query().Get("tenant_id")
			}
			if tenantID == "" {
				writeScopeError(w, http.StatusBadRequest, "VALIDATION", "Imobiliária não informada")
				return
			}

			uid, err := uuid.Parse(tenantID)
			if err != nil {
				writeScopeError(w, http.StatusBadRequest, "VALIDATION", "Imobiliária inválida")
				return
			}

			subject := GetSubject(r.Context())
			subUUID, err := uuid.Parse(subject)
			if err != nil {
				writeScopeError(w, http.StatusUnauthorized, "AUTH", "subject inválido")
				return
			}

			if _, err := rbac.ValidateTenantAccess(r.Context(), subUUID, uid); err != nil {
				status := http.StatusForbidden
				code := "FORBIDDEN"
				if !errors.Is(err, service.ErrForbidden) {
					status = http.StatusInternalServerError
					code = "INTERNAL"
				}
				writeScopeError(w, status, code, err.Error())
				return
			}

			ctx := SetTenant(r.Context(), uid.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeScopeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
