// Package purchase реализует HTTP-обработчик оформления покупки пакета кредитов.
//
// Handler создаёт платёж у провайдера и возвращает ссылку на страницу оплаты.
// Кредиты зачисляются позже, когда приходит подтверждение оплаты.
package purchase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/card-credits/internal/http/middlewarectx"
	"github.com/magabrotheeeer/card-credits/internal/http/response"
	"github.com/magabrotheeeer/card-credits/internal/lib/sl"
	"github.com/magabrotheeeer/card-credits/internal/models"
	"github.com/magabrotheeeer/card-credits/internal/paymentprovider"
	"github.com/magabrotheeeer/card-credits/internal/services/credits"
)

// Request — тело запроса на покупку.
type Request struct {
	PackageID string `json:"packageId" validate:"required,max=64" example:"starter"`
}

// Result — ссылка на страницу оплаты.
type Result struct {
	URL string `json:"url" example:"https://yoomoney.ru/checkout/payments/v2/contract?orderId=2c7b"`
}

// ProviderClient определяет интерфейс для работы с платежным провайдером.
type ProviderClient interface {
	CreatePayment(ctx context.Context, reqParams paymentprovider.CreatePaymentRequest, idempotenceKey string) (*paymentprovider.CreatePaymentResponse, error)
}

// Service описывает доступ к счёту и справочнику пакетов.
type Service interface {
	Check(ctx context.Context, accountID string) (models.Capabilities, error)
	GetPackage(ctx context.Context, packageID string) (*models.CreditPackage, error)
}

// Handler обрабатывает POST /credits/purchase.
type Handler struct {
	log            *slog.Logger
	service        Service
	providerClient ProviderClient
	returnURL      string
	validate       *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, providerClient ProviderClient, returnURL string) *Handler {
	return &Handler{
		log:            log,
		service:        service,
		providerClient: providerClient,
		returnURL:      returnURL,
		validate:       validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Купить пакет кредитов
// @Description Создает платёж за пакет кредитов и возвращает ссылку на страницу оплаты.
// @Tags Credits
// @Accept  json
// @Produce  json
// @Param request body Request true "Идентификатор пакета"
// @Param Idempotency-Key header string false "Идентификатор запроса для безопасного повтора"
// @Success 200 {object} Result "Ссылка на оплату"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или неизвестный пакет"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Счёт не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Failure 502 {object} response.ErrorResponse "Ошибка платёжного провайдера"
// @Router /credits/purchase [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.credits.purchase"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
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

	if _, err := h.service.Check(r.Context(), accountID); err != nil {
		if errors.Is(err, credits.ErrNotFound) {
			log.Warn("account not found", slog.String("account_id", accountID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("account not found"))
			return
		}
		log.Error("failed to load account", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	pkg, err := h.service.GetPackage(r.Context(), req.PackageID)
	if err != nil {
		if errors.Is(err, credits.ErrInvalidPackage) {
			log.Warn("invalid package", slog.String("package_id", req.PackageID))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid package"))
			return
		}
		log.Error("failed to load package", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	paymentReq := paymentprovider.CreatePaymentRequest{
		Amount: paymentprovider.Amount{
			Value:    paymentprovider.FormatAmount(pkg.PriceCents),
			Currency: pkg.Currency,
		},
		Capture: true,
		Confirmation: paymentprovider.Confirmation{
			Type:      paymentprovider.ConfirmationRedirect,
			ReturnURL: h.returnURL,
		},
		Description: fmt.Sprintf("%s package: %d credits", pkg.Name, pkg.Credits),
		Metadata: map[string]string{
			"account_id": accountID,
			"package_id": pkg.ID,
			"credits":    strconv.FormatInt(pkg.Credits, 10),
		},
	}

	paymentResp, err := h.providerClient.CreatePayment(r.Context(), paymentReq, r.Header.Get("Idempotency-Key"))
	if err != nil {
		log.Error("failed to create payment", sl.Err(err))
		w.WriteHeader(http.StatusBadGateway)
		render.JSON(w, r, response.Error("payment provider error"))
		return
	}

	log.Info("payment created",
		slog.String("account_id", accountID),
		slog.String("package_id", pkg.ID),
		slog.String("payment_id", paymentResp.ID),
	)
	render.JSON(w, r, Result{URL: paymentResp.Confirmation.ConfirmationURL})
}
