// Package purchases обрабатывает сообщения о подтверждённой оплате пакетов кредитов.
package purchases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/card-credits/internal/lib/sl"
	"github.com/magabrotheeeer/card-credits/internal/metrics"
	"github.com/magabrotheeeer/card-credits/internal/models"
	"github.com/magabrotheeeer/card-credits/internal/rabbitmq"
	"github.com/magabrotheeeer/card-credits/internal/services/credits"
)

// Applier зачисляет оплаченный пакет на счёт.
type Applier interface {
	ApplyPurchase(ctx context.Context, accountID, packageID, requestID string) (*models.PurchaseResult, error)
}

// Service превращает подтверждения оплаты в зачисления кредитов.
type Service struct {
	applier  Applier
	validate *validator.Validate
	log      *slog.Logger
}

// New создаёт Service.
func New(applier Applier, log *slog.Logger) *Service {
	return &Service{
		applier:  applier,
		validate: validator.New(),
		log:      log,
	}
}

// HandleConfirmation обрабатывает одно сообщение из очереди.
//
// Идентификатор платежа используется как идентификатор запроса, поэтому повторная
// доставка не приводит к двойному зачислению. Сообщения, которые нельзя применить
// никогда (битый JSON, неизвестный пакет или счёт, занятый идентификатор платежа),
// отклоняются через rabbitmq.ErrReject и попадают в очередь отклонённых.
// Прочие ошибки считаются временными, сообщение возвращается в очередь.
func (s *Service) HandleConfirmation(ctx context.Context, body []byte) error {
	const op = "purchases.HandleConfirmation"
	log := s.log.With(slog.String("op", op))

	var msg models.PurchaseConfirmation
	if err := json.Unmarshal(body, &msg); err != nil {
		log.Error("failed to unmarshal purchase confirmation", sl.Err(err))
		metrics.RecordPurchaseMessage("rejected")
		return fmt.Errorf("%s: %w: %w", op, rabbitmq.ErrReject, err)
	}
	if err := s.validate.Struct(msg); err != nil {
		log.Error("invalid purchase confirmation", sl.Err(err))
		metrics.RecordPurchaseMessage("rejected")
		return fmt.Errorf("%s: %w: %w", op, rabbitmq.ErrReject, err)
	}

	log = log.With(
		slog.String("account_id", msg.AccountID),
		slog.String("package_id", msg.PackageID),
		slog.String("payment_id", msg.PaymentID),
	)

	res, err := s.applier.ApplyPurchase(ctx, msg.AccountID, msg.PackageID, msg.PaymentID)
	switch {
	case err == nil:
	case errors.Is(err, credits.ErrInvalidPackage),
		errors.Is(err, credits.ErrNotFound),
		errors.Is(err, credits.ErrRequestConflict):
		log.Error("purchase cannot be applied", sl.Err(err))
		metrics.RecordPurchaseMessage("rejected")
		return fmt.Errorf("%s: %w: %w", op, rabbitmq.ErrReject, err)
	default:
		log.Warn("failed to apply purchase", sl.Err(err))
		metrics.RecordPurchaseMessage("failed")
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.Replayed {
		log.Info("duplicate purchase confirmation")
		metrics.RecordPurchaseMessage("duplicate")
		return nil
	}
	log.Info("purchase confirmation applied", slog.Int64("balance", res.NewBalance))
	metrics.RecordPurchaseMessage("applied")
	return nil
}
