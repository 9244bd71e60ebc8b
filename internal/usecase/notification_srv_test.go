package usecase

import (
	"context"
	"testing"

	"nesterlify-api/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyStoresNotification(t *testing.T) {
	env := newTestEnv()
	userID := uuid.New()

	env.notifier.Notify(context.Background(), userID, "", "Payment Successful", "Dear Customer", "flight")

	require.Len(t, env.notifRepo.created, 1)
	stored := env.notifRepo.created[0]
	assert.Equal(t, userID, stored.UserID)
	assert.Equal(t, "Payment Successful", stored.Title)
	assert.Equal(t, "flight", stored.Category)
	assert.False(t, stored.Read)
}

func TestMarkRead(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	userID := uuid.New()

	env.notifier.Notify(ctx, userID, "", "Payment Successful", "Dear Customer", "hotel")
	require.Len(t, env.notifRepo.created, 1)
	notificationID := env.notifRepo.created[0].ID

	require.NoError(t, env.notifier.MarkRead(ctx, userID, notificationID))
	assert.True(t, env.notifRepo.created[0].Read)

	// Another user cannot mark it, and unknown ids map to not found.
	err := env.notifier.MarkRead(ctx, uuid.New(), notificationID)
	assert.ErrorIs(t, err, utils.ErrNotFound)
	err = env.notifier.MarkRead(ctx, userID, uuid.New())
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestGetUserNotificationsPagination(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		env.notifier.Notify(ctx, userID, "", "Payment Successful", "Dear Customer", "flight")
	}
	env.notifier.Notify(ctx, uuid.New(), "", "Payment Successful", "Dear Customer", "flight")

	list, err := env.notifier.GetUserNotifications(ctx, userID, 1, 20)
	require.NoError(t, err)
	assert.Len(t, list.Notifications, 3)
	assert.Equal(t, 3, list.Pagination.Total)
	assert.Equal(t, 1, list.Pagination.TotalPages)
}
