// Package use реализует HTTP-обработчик списания кредитов за использование AI-функций.
package use

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/card-credits/internal/http/middlewarectx"
	"github.com/magabrotheeeer/card-credits/internal/http/response"
	"github.com/magabrotheeeer/card-credits/internal/lib/sl"
	"github.com/magabrotheeeer/card-credits/internal/models"
	"github.com/magabrotheeeer/card-credits/internal/services/credits"
)

const (
	defaultAmount      = 1
	defaultDescription = "AI generation"
)

// Request — тело запроса на списание. Все поля необязательны.
type Request struct {
	Amount      *int64 `json:"amount,omitempty" validate:"omitempty,gte=1,lte=10000" example:"1"`
	Description string `json:"description,omitempty" validate:"max=255" example:"AI generation"`
	RequestID   string `json:"requestId,omitempty" validate:"max=128" example:"6f1c2a9e-1b7d-4b1e-9a0e-2d8b5c3f4a10"`
}

// Result — данные успешного ответа. RemainingCredits — число или "unlimited".
type Result struct {
	Success          bool `json:"success"`
	RemainingCredits any  `json:"remainingCredits" swaggertype:"string" example:"49"`
}

// Service описывает списание кредитов.
type Service interface {
	Consume(ctx context.Context, accountID string, amount int64, description, requestID string) (*models.UsageResult, error)
}

// Handler обрабатывает POST /credits/use.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Списать кредиты
// @Description Списывает кредиты за использование AI-генерации. Для тарифа premium баланс не меняется.
// @Description Повтор запроса с тем же requestId или заголовком Idempotency-Key не списывает кредиты повторно.
// @Tags Credits
// @Accept  json
// @Produce  json
// @Param request body Request false "Количество кредитов и описание"
// @Param Idempotency-Key header string false "Идентификатор запроса для безопасного повтора"
// @Success 200 {object} Result "Остаток кредитов"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 402 {object} response.InsufficientCreditsResponse "Недостаточно кредитов"
// @Failure 404 {object} response.ErrorResponse "Счёт не найден"
// @Failure 409 {object} response.ErrorResponse "Идентификатор запроса занят другой операцией"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /credits/use [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.credits.use"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	accountID, ok := middlewarectx.AccountIDFromContext(r.Context())
	if !ok {
		log.Error("account id not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	amount := int64(defaultAmount)
	if req.Amount != nil {
		amount = *req.Amount
	}
	description := req.Description
	if description == "" {
		description = defaultDescription
	}
	requestID := req.RequestID
	if requestID == "" {
		requestID = r.Header.Get("Idempotency-Key")
	}

	res, err := h.service.Consume(r.Context(), accountID, amount, description, requestID)
	if err != nil {
		var shortfall *credits.ShortfallError
		switch {
		case errors.As(err, &shortfall):
			log.Info("insufficient credits",
				slog.String("account_id", accountID),
				slog.Int64("required", shortfall.Required),
				slog.Int64("available", shortfall.Available),
			)
			w.WriteHeader(http.StatusPaymentRequired)
			render.JSON(w, r, response.InsufficientCredits(shortfall.Required, shortfall.Available))
		case errors.Is(err, credits.ErrNotFound):
			log.Warn("account not found", slog.String("account_id", accountID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("account not found"))
		case errors.Is(err, credits.ErrRequestConflict):
			log.Warn("request id conflict", slog.String("idempotency_key", requestID), sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("request id already used by another operation"))
		case errors.Is(err, credits.ErrInvalidAmount):
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("amount must be positive"))
		default:
			log.Error("failed to use credits", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to use credits"))
		}
		return
	}

	log.Info("credits used",
		slog.String("account_id", accountID),
		slog.Int64("amount", amount),
		slog.Bool("replayed", res.Replayed),
	)
	render.JSON(w, r, Result{
		Success:          true,
		RemainingCredits: res.RemainingCredits(),
	})
}
