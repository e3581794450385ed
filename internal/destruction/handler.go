package destruction

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"uidtrust/internal/platform/middleware"
	"uidtrust/internal/signature"
	"uidtrust/internal/transport/http/shared"
	dErrors "uidtrust/pkg/domain-errors"
)

// Destroyer is the service interface the handler depends on.
type Destroyer interface {
	DestroyUser(ctx context.Context, signer common.Address, plaintext string) error
}

// Handler exposes the destroy endpoint. It is mounted behind allow-listed
// signature auth; only the UID relayer's signer reaches it.
type Handler struct {
	service Destroyer
	logger  *slog.Logger
}

func NewHandler(service Destroyer, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) HandleDestroy(w http.ResponseWriter, r *http.Request, signer common.Address) {
	ctx := r.Context()

	plaintext := r.Header.Get(signature.HeaderPlaintext)
	if err := h.service.DestroyUser(ctx, signer, plaintext); err != nil {
		if dErrors.HTTPStatus(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
			h.logger.ErrorContext(ctx, "destroy user failed",
				"request_id", middleware.GetRequestID(ctx),
				"signer", signer.Hex(),
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteSuccess(w, "")
}
