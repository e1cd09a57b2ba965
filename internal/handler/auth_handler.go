package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/hoclconnect/leads/internal/domain"
	"github.com/hoclconnect/leads/internal/service"
)

// ============================================================
// Admin token
// ============================================================

func issueTokenHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/auth/token")
		defer span.End()

		var req domain.TokenRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			handleServiceError(w, malformedBody(), "", logger)
			return
		}

		resp, err := authSvc.IssueToken(ctx, &req)
		if err != nil {
			handleServiceError(w, err, "", logger)
			return
		}

		writeSuccess(w, http.StatusOK, resp, "")
	}
}
