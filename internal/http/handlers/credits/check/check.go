// Package check реализует HTTP-обработчик проверки баланса и доступности функций.
package check

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/card-credits/internal/http/middlewarectx"
	"github.com/magabrotheeeer/card-credits/internal/http/response"
	"github.com/magabrotheeeer/card-credits/internal/lib/sl"
	"github.com/magabrotheeeer/card-credits/internal/models"
	"github.com/magabrotheeeer/card-credits/internal/services/credits"
)

// Service описывает проверку возможностей счёта.
type Service interface {
	Check(ctx context.Context, accountID string) (models.Capabilities, error)
}

// Handler обрабатывает GET /credits/check.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Проверить баланс кредитов
// @Description Возвращает баланс, тариф и доступность AI-генерации и экспорта для текущего пользователя.
// @Tags Credits
// @Produce  json
// @Success 200 {object} models.Capabilities "Баланс и возможности счёта"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Счёт не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /credits/check [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.credits.check"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	accountID, ok := middlewarectx.AccountIDFromContext(r.Context())
	if !ok {
		log.Error("account id not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	caps, err := h.service.Check(r.Context(), accountID)
	switch {
	case errors.Is(err, credits.ErrNotFound):
		log.Warn("account not found", slog.String("account_id", accountID))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("account not found"))
		return
	case err != nil:
		log.Error("failed to check credits", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not check credits"))
		return
	}

	render.JSON(w, r, caps)
}
