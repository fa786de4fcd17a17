package service

import (
	"encoding/json"
	"log"

	"go-rackstock-ws/internal/model"
	"go-rackstock-ws/internal/repository"
	"go-rackstock-ws/internal/ws"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// NotificationService is the read-only activity feed projector plus the
// publish path the other services use. Publishing persists a feed row and
// pushes it through the websocket hub; both are best-effort.
type NotificationService interface {
	Feed(actor Actor, limit int) ([]model.Notification, error)
	Publish(n Notice)
}

// Notice is one event to project into the feed.
type Notice struct {
	TargetRole  string
	TargetUsers []uuid.UUID
	Title       string
	Body        string
	Payload     map[string]interface{}
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
	wsHub            *ws.Hub
}

func NewNotificationService(notificationRepo repository.NotificationRepository, hub *ws.Hub) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		wsHub:            hub,
	}
}

// Feed returns the recent notifications visible to the actor. Filtering runs
// over the recent window in memory; the feed is a projection, not a query
// surface.
func (s *notificationService) Feed(actor Actor, limit int) ([]model.Notification, error) {
	recent, err := s.notificationRepo.FindRecent(limit)
	if err != nil {
		return nil, err
	}

	actorID, _ := uuid.Parse(actor.ID)
	visible := make([]model.Notification, 0, len(recent))
	for _, n := range recent {
		if n.VisibleTo(actorID, actor.Role) {
			visible = append(visible, n)
		}
	}
	return visible, nil
}

// Publish stores the notification and broadcasts it. Failures are logged and
// swallowed: a notification must never fail the mutation it describes.
func (s *notificationService) Publish(notice Notice) {
	n := &model.Notification{
		TargetRole: notice.TargetRole,
		Title:      notice.Title,
		Body:       notice.Body,
	}
	if len(notice.TargetUsers) > 0 {
		if err := n.SetTargetUsers(notice.TargetUsers); err != nil {
			log.Printf("notification: encode target users: %v", err)
		}
	}
	if notice.Payload != nil {
		raw, err := json.Marshal(notice.Payload)
		if err != nil {
			log.Printf("notification: encode payload: %v", err)
		} else {
			n.Payload = datatypes.JSON(raw)
		}
	}

	if err := s.notificationRepo.Create(n); err != nil {
		log.Printf("notification: persist: %v", err)
	}

	msg, err := json.Marshal(n)
	if err != nil {
		log.Printf("notification: encode broadcast: %v", err)
		return
	}
	s.wsHub.Broadcast <- ws.Envelope{
		TargetRole:  notice.TargetRole,
		TargetUsers: notice.TargetUsers,
		Payload:     msg,
	}
}
