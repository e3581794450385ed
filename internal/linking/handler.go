package linking

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"uidtrust/internal/platform/middleware"
	"uidtrust/internal/signature"
	"uidtrust/internal/transport/http/shared"
	dErrors "uidtrust/pkg/domain-errors"
)

// Linker is the service interface the handler depends on.
type Linker interface {
	LinkUid(ctx context.Context, signer common.Address, req Request, presignedPlaintext string) (string, error)
}

// Handler exposes the link endpoint.
type Handler struct {
	service Linker
	logger  *slog.Logger
}

func NewHandler(service Linker, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// HandleLink is mounted behind signature auth; the presigned mint message
// arrives as the signature plaintext header.
func (h *Handler) HandleLink(w http.ResponseWriter, r *http.Request, signer common.Address) {
	ctx := r.Context()

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	presigned := r.Header.Get(signature.HeaderPlaintext)
	confirmation, err := h.service.LinkUid(ctx, signer, req, presigned)
	if err != nil {
		if dErrors.HTTPStatus(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
			h.logger.ErrorContext(ctx, "link uid failed",
				"request_id", middleware.GetRequestID(ctx),
				"signer", signer.Hex(),
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteSuccess(w, confirmation)
}
