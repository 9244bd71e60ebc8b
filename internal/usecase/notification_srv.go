package usecase

import (
	"context"
	"fmt"

	"nesterlify-api/internal/data/entity"
	"nesterlify-api/internal/data/repository"
	"nesterlify-api/internal/dto/response"
	"nesterlify-api/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type NotificationService interface {
	// Notify stores an in-app notification and sends the email copy in
	// the background. Failures are logged, never propagated: a missed
	// notification must not fail a payment.
	Notify(ctx context.Context, userID uuid.UUID, email, title, message, category string)

	GetUserNotifications(ctx context.Context, userID uuid.UUID, page, limit int) (*response.NotificationListResponse, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
}

type notificationService struct {
	repo   *repository.Repository
	mailer *utils.Mailer
	log    *zap.Logger
}

func NewNotificationService(repo *repository.Repository, mailer *utils.Mailer, log *zap.Logger) NotificationService {
	return &notificationService{
		repo:   repo,
		mailer: mailer,
		log:    log.With(zap.String("service", "notification")),
	}
}

func (s *notificationService) Notify(ctx context.Context, userID uuid.UUID, email, title, message, category string) {
	notification := entity.NewNotification(userID, title, message, category)
	if err := s.repo.Notification.Create(ctx, notification); err != nil {
		s.log.Error("Failed to store notification",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
	}

	if s.mailer == nil || email == "" {
		return
	}

	// Fire and forget
	go func() {
		if err := s.mailer.Send(email, title, message); err != nil {
			s.log.Error("Failed to send notification email",
				zap.Error(err),
				zap.String("to", email),
			)
		}
	}()
}

func (s *notificationService) GetUserNotifications(ctx context.Context, userID uuid.UUID, page, limit int) (*response.NotificationListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	notifications, err := s.repo.Notification.FindByUserID(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Notification.CountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]response.NotificationResponse, 0, len(notifications))
	for _, notification := range notifications {
		items = append(items, response.NewNotificationResponse(notification))
	}

	return &response.NotificationListResponse{
		Notifications: items,
		Pagination: response.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: (total + limit - 1) / limit,
		},
	}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	updated, err := s.repo.Notification.MarkRead(ctx, userID, notificationID)
	if err != nil {
		return err
	}
	if !updated {
		return fmt.Errorf("%w: notification %s", utils.ErrNotFound, notificationID.String())
	}
	return nil
}
