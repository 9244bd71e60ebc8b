package adaptor

import (
	"errors"
	"net/http"

	"nesterlify-api/internal/usecase"
	"nesterlify-api/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Payment      *PaymentHandler
	Booking      *BookingHandler
	Notification *NotificationHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Payment:      NewPaymentHandler(service.Payment, service.Reconcile, log),
		Booking:      NewBookingHandler(service.Booking, log),
		Notification: NewNotificationHandler(service.Notification, log),
	}
}

// handleServiceError maps the sentinel error taxonomy onto HTTP codes.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	switch {
	case errors.Is(err, utils.ErrValidation), errors.Is(err, utils.ErrUnknownStatus):
		log.Warn(operation+" failed - validation", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, utils.ErrUnauthorized), errors.Is(err, utils.ErrSignature):
		log.Warn(operation+" failed - unauthorized", zap.Error(err))
		utils.ResponseUnauthorized(w, err.Error())

	case errors.Is(err, utils.ErrNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, utils.ErrGateway), errors.Is(err, utils.ErrProvider):
		log.Error(operation+" failed - upstream", zap.Error(err))
		utils.ResponseJSON(w, http.StatusBadGateway, false, err.Error(), nil, nil)

	default:
		log.Error(operation+" failed", zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
