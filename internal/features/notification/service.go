package notification

import (
	"context"

	common_models "kademe-kys/internal/common/models"

	"go.uber.org/zap"
)

// UserFinder is the slice of the user repository needed for role fan-out.
type UserFinder interface {
	FindActiveByRole(ctx context.Context, role string) ([]common_models.User, error)
}

// NotificationService stores notifications and pushes them to connected
// websocket clients. It also implements the workflow engine's Notifier.
type NotificationService interface {
	CreateNotification(ctx context.Context, userID, title, message string, ntype NotificationType, link string) error
	NotifyUser(ctx context.Context, userID, title, message, link string) error
	NotifyRole(ctx context.Context, role, title, message, link string) error
	GetUserNotifications(ctx context.Context, userID string, page, limit int64) ([]Notification, int64, error)
	GetUnreadCount(ctx context.Context, userID string) (int64, error)
	MarkAsRead(ctx context.Context, id string, userID string) error
	MarkAllAsRead(ctx context.Context, userID string) error
}

type NotificationServiceImpl struct {
	Repo     NotificationRepository
	UserRepo UserFinder
	Hub      *Hub
	Logger   *zap.Logger
}

func NewNotificationService(repo NotificationRepository, userRepo UserFinder, hub *Hub, logger *zap.Logger) NotificationService {
	return &NotificationServiceImpl{
		Repo:     repo,
		UserRepo: userRepo,
		Hub:      hub,
		Logger:   logger,
	}
}

func (s *NotificationServiceImpl) CreateNotification(ctx context.Context, userID, title, message string, ntype NotificationType, link string) error {
	notification := &Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    ntype,
		Link:    link,
	}

	if err := s.Repo.Create(ctx, notification); err != nil {
		return err
	}

	s.Hub.Push(userID, notification)
	return nil
}

func (s *NotificationServiceImpl) NotifyUser(ctx context.Context, userID, title, message, link string) error {
	return s.CreateNotification(ctx, userID, title, message, NotificationTypeTask, link)
}

// NotifyRole fans a notification out to every active user holding the
// role. Per-user failures are logged and do not stop the fan-out.
func (s *NotificationServiceImpl) NotifyRole(ctx context.Context, role, title, message, link string) error {
	users, err := s.UserRepo.FindActiveByRole(ctx, role)
	if err != nil {
		return err
	}

	for _, u := range users {
		if err := s.CreateNotification(ctx, u.ID.Hex(), title, message, NotificationTypeEscalation, link); err != nil {
			s.Logger.Warn("failed to notify user",
				zap.String("user_id", u.ID.Hex()),
				zap.String("role", role),
				zap.Error(err))
		}
	}
	return nil
}

func (s *NotificationServiceImpl) GetUserNotifications(ctx context.Context, userID string, page, limit int64) ([]Notification, int64, error) {
	return s.Repo.GetByUserID(ctx, userID, page, limit)
}

func (s *NotificationServiceImpl) GetUnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.Repo.GetUnreadCount(ctx, userID)
}

func (s *NotificationServiceImpl) MarkAsRead(ctx context.Context, id string, userID string) error {
	oid, err := objectIDFromHex(id)
	if err != nil {
		return err
	}
	return s.Repo.MarkAsRead(ctx, oid, userID)
}

func (s *NotificationServiceImpl) MarkAllAsRead(ctx context.Context, userID string) error {
	return s.Repo.MarkAllAsRead(ctx, userID)
}
