// Package packages реализует HTTP-обработчик справочника пакетов кредитов.
package packages

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/card-credits/internal/http/response"
	"github.com/magabrotheeeer/card-credits/internal/lib/sl"
	"github.com/magabrotheeeer/card-credits/internal/models"
)

// Service описывает чтение справочника пакетов.
type Service interface {
	ListPackages(ctx context.Context) ([]*models.CreditPackage, error)
}

// Handler обрабатывает GET /credits/packages.
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
// @Summary Пакеты кредитов
// @Description Возвращает доступные для покупки пакеты кредитов.
// @Tags Credits
// @Produce  json
// @Success 200 {array} models.CreditPackage "Пакеты"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /credits/packages [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.credits.packages"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	pkgs, err := h.service.ListPackages(r.Context())
	if err != nil {
		log.Error("failed to list packages", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list packages"))
		return
	}

	render.JSON(w, r, pkgs)
}
