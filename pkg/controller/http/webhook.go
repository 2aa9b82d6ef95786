package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/m-mizutani/goerr/v2"

	"github.com/taskbridge-dev/taskbridge/pkg/domain/model"
	"github.com/taskbridge-dev/taskbridge/pkg/usecase"
	"github.com/taskbridge-dev/taskbridge/pkg/utils/async"
	"github.com/taskbridge-dev/taskbridge/pkg/utils/errutil"
	"github.com/taskbridge-dev/taskbridge/pkg/utils/logging"
)

// PortalWebhookHandler handles outbound event deliveries from the
// portal. The portal accepts only a fast 200 as a successful delivery,
// so processing happens after the response is written.
type PortalWebhookHandler struct {
	uc *usecase.UseCases
}

func NewPortalWebhookHandler(uc *usecase.UseCases) *PortalWebhookHandler {
	return &PortalWebhookHandler{
		uc: uc,
	}
}

func (h *PortalWebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
		return
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			logging.From(ctx).Error("failed to close request body", "error", err)
		}
	}()

	tree, err := model.DecodeTree(body, r.Header.Get("Content-Type"))
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to decode webhook body"), http.StatusBadRequest)
		return
	}

	env, err := model.ParseEnvelope(tree)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to parse webhook envelope"), http.StatusBadRequest)
		return
	}

	if err := h.uc.VerifyEnvelope(env); err != nil {
		if errors.Is(err, usecase.ErrAuthRejected) {
			errutil.HandleHTTP(ctx, w, err, http.StatusUnauthorized)
			return
		}
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "envelope verification failed"), http.StatusInternalServerError)
		return
	}

	// Acknowledge immediately; the portal retries slow deliveries
	w.WriteHeader(http.StatusOK)

	async.Dispatch(ctx, func(ctx context.Context) error {
		if err := h.uc.ProcessEnvelope(ctx, env); err != nil {
			return goerr.Wrap(err, "failed to process webhook envelope",
				goerr.V("event", env.EventType.String()))
		}
		return nil
	})
}
