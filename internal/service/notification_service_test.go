package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/academic-services-backend/internal/models"
	"github.com/ignatzorin/academic-services-backend/internal/pkg/apperror"
	"github.com/ignatzorin/academic-services-backend/internal/repository"
)

type mockNotificationRepo struct {
	mock.Mock
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	args := m.Called(ctx, n)
	if args.Error(0) == nil {
		n.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockNotificationRepo) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Notification), args.Int(1), args.Error(2)
}

func (m *mockNotificationRepo) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *mockNotificationRepo) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockNotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type staticAdmins []uuid.UUID

func (a staticAdmins) ListAdminIDs(context.Context) ([]uuid.UUID, error) {
	return a, nil
}

type recordingPusher struct {
	mu     sync.Mutex
	pushed map[uuid.UUID][]string
	err    error
}

func (p *recordingPusher) BroadcastToUser(userID uuid.UUID, event string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pushed == nil {
		p.pushed = map[uuid.UUID][]string{}
	}
	p.pushed[userID] = append(p.pushed[userID], event)
	return p.err
}

func TestNotificationService_NotifyPersistsThenPushes(t *testing.T) {
	repo := new(mockNotificationRepo)
	pusher := &recordingPusher{}
	svc := NewNotificationService(repo, staticAdmins{})
	svc.SetPusher(pusher)

	userID := uuid.New()
	repo.On("Create", mock.Anything, mock.MatchedBy(func(n *models.Notification) bool {
		return n.UserID == userID && n.Event == EventPaymentReviewed && string(n.Payload) == `{"status":"APPROVED"}`
	})).Return(nil)

	err := svc.Notify(context.Background(), userID, EventPaymentReviewed, map[string]string{"status": "APPROVED"})
	require.NoError(t, err)
	assert.Equal(t, []string{EventPaymentReviewed}, pusher.pushed[userID])
	repo.AssertExpectations(t)
}

func TestNotificationService_PersistFailureSkipsPush(t *testing.T) {
	repo := new(mockNotificationRepo)
	pusher := &recordingPusher{}
	svc := NewNotificationService(repo, staticAdmins{})
	svc.SetPusher(pusher)

	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	err := svc.Notify(context.Background(), uuid.New(), EventPaymentReviewed, nil)
	assert.Error(t, err)
	assert.Empty(t, pusher.pushed)
}

func TestNotificationService_NotifyAdminsFansOut(t *testing.T) {
	repo := new(mockNotificationRepo)
	pusher := &recordingPusher{}
	admins := staticAdmins{uuid.New(), uuid.New(), uuid.New()}
	svc := NewNotificationService(repo, admins)
	svc.SetPusher(pusher)

	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, svc.NotifyAdmins(context.Background(), EventDisputeFiled, map[string]string{"k": "v"}))
	repo.AssertNumberOfCalls(t, "Create", 3)
	for _, id := range admins {
		assert.Equal(t, []string{EventDisputeFiled}, pusher.pushed[id])
	}
}

func TestNotificationService_NotifyAdminsJoinsErrors(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, staticAdmins{uuid.New(), uuid.New()})
	svc.SetPusher(&recordingPusher{err: errors.New("hub stopped")})

	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	err := svc.NotifyAdmins(context.Background(), EventDisputeFiled, nil)
	assert.Error(t, err)
	repo.AssertNumberOfCalls(t, "Create", 2)
}

func TestNotificationService_MarkAsReadForeign(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, staticAdmins{})
	id, userID := uuid.New(), uuid.New()
	repo.On("MarkAsRead", mock.Anything, id, userID).Return(repository.ErrNotificationNotFound)

	err := svc.MarkAsRead(context.Background(), id, userID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestNotificationService_ListClampsLimit(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, staticAdmins{})
	userID := uuid.New()
	want := models.NotificationFilter{UserID: userID, UnreadOnly: true, Limit: 20, Offset: 0}
	repo.On("List", mock.Anything, want).Return([]models.Notification{}, 0, nil)

	page, err := svc.ListNotifications(context.Background(), models.NotificationFilter{UserID: userID, UnreadOnly: true, Limit: 500, Offset: -5})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 20, page.Limit)
	repo.AssertExpectations(t)
}

func TestNotificationService_MarkAllAsReadReturnsCount(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, staticAdmins{})
	userID := uuid.New()
	repo.On("MarkAllAsRead", mock.Anything, userID).Return(3, nil)

	n, err := svc.MarkAllAsRead(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
