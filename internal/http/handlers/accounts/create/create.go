// Package create реализует HTTP-обработчик создания кредитного счёта.
//
// Счёт создаётся для пользователя из токена с нулевым балансом и бесплатным тарифом.
// Повторный вызов возвращает уже существующий счёт.
package create

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/card-credits/internal/http/middlewarectx"
	"github.com/magabrotheeeer/card-credits/internal/http/response"
	"github.com/magabrotheeeer/card-credits/internal/lib/sl"
	"github.com/magabrotheeeer/card-credits/internal/models"
)

// Service описывает создание счёта.
type Service interface {
	CreateAccount(ctx context.Context, accountID string) (*models.Account, error)
}

// Handler обрабатывает POST /accounts.
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
// @Summary Создать счёт
// @Description Создает кредитный счёт текущего пользователя, если его ещё нет.
// @Tags Accounts
// @Produce  json
// @Success 200 {object} models.Account "Счёт"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /accounts [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.accounts.create"
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

	acc, err := h.service.CreateAccount(r.Context(), accountID)
	if err != nil {
		log.Error("failed to create account", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create account"))
		return
	}

	render.JSON(w, r, acc)
}
