package services

import (
	"fleet-console/internal/models"
	"fleet-console/internal/repository"
	"fleet-console/internal/ws"
	"fmt"
	"time"
)

type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	hub              *ws.Hub
}

func NewNotificationService(notificationRepo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
	}
}

// SetHub allows setting the websocket hub for live notification pushes
func (s *NotificationService) SetHub(hub *ws.Hub) {
	s.hub = hub
}

// NotificationRef carries the optional entity references on a notification.
type NotificationRef struct {
	TripID      string
	ChauffeurID string
	VehicleID   string
}

// Notify records a notification and pushes it to connected consoles. The
// sink is append-only; a failed write is logged, not propagated, so policy
// operations never fail on notification plumbing.
func (s *NotificationService) Notify(notificationType, subject, details string, ref NotificationRef) *models.SystemNotification {
	notification := &models.SystemNotification{
		Type:        notificationType,
		Subject:     subject,
		Details:     details,
		Timestamp:   time.Now(),
		TripID:      ref.TripID,
		ChauffeurID: ref.ChauffeurID,
		VehicleID:   ref.VehicleID,
	}

	created, err := s.notificationRepo.Create(notification)
	if err != nil {
		fmt.Printf("Failed to record %s notification: %v\n", notificationType, err)
		return notification
	}

	if s.hub != nil {
		s.hub.Broadcast(created)
	}

	return created
}

func (s *NotificationService) GetAllNotifications() ([]*models.SystemNotification, error) {
	return s.notificationRepo.FindAll()
}

func (s *NotificationService) UnreadCount() (int64, error) {
	return s.notificationRepo.CountUnread()
}

func (s *NotificationService) MarkRead(id string) error {
	return s.notificationRepo.MarkRead(id)
}

func (s *NotificationService) MarkAllRead() (int64, error) {
	return s.notificationRepo.MarkAllRead()
}

// Prune removes read notifications older than the cutoff so the feed does not
// grow without bound.
func (s *NotificationService) Prune(cutoff time.Time) error {
	return s.notificationRepo.DeleteBefore(cutoff)
}
