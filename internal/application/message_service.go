package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	messageDomain "github.com/staybook/service-booking/internal/domain/message"
	userDomain "github.com/staybook/service-booking/internal/domain/user"
	"github.com/staybook/service-booking/pkg/domain"
	"go.uber.org/zap"
)

// SendMessageRequest is the request DTO for sending a message.
type SendMessageRequest struct {
	RecipientID uuid.UUID `json:"recipient_id" binding:"required"`
	Title       string    `json:"title" binding:"required"`
	Body        string    `json:"body" binding:"required"`
}

// MessageDTO is the API response representation of a message.
type MessageDTO struct {
	ID          uuid.UUID  `json:"id"`
	SenderID    uuid.UUID  `json:"sender_id"`
	RecipientID uuid.UUID  `json:"recipient_id"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	IsRead      bool       `json:"is_read"`
	SentAt      time.Time  `json:"sent_at"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
}

// MessageService handles direct messages between users.
type MessageService struct {
	repo   messageDomain.MessageRepository
	users  userDomain.UserRepository
	logger *zap.Logger
}

// NewMessageService creates a new MessageService.
func NewMessageService(repo messageDomain.MessageRepository, users userDomain.UserRepository, logger *zap.Logger) *MessageService {
	return &MessageService{repo: repo, users: users, logger: logger}
}

// SendMessage delivers a message from senderID to an existing recipient.
func (s *MessageService) SendMessage(ctx context.Context, senderID uuid.UUID, req SendMessageRequest) (*MessageDTO, error) {
	m, err := messageDomain.NewMessage(senderID, req.RecipientID, req.Title, req.Body)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, req.RecipientID); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Debug("message sent",
		zap.String("message_id", m.ID().String()),
		zap.String("sender_id", senderID.String()),
		zap.String("recipient_id", req.RecipientID.String()),
	)

	result := toMessageDTO(m)
	return &result, nil
}

// ListInbox returns messages received by userID.
func (s *MessageService) ListInbox(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) (*domain.PaginatedResult[MessageDTO], error) {
	msgs, total, err := s.repo.FindByRecipientID(ctx, userID, unreadOnly, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list inbox: %w", err)
	}
	result := domain.NewPaginatedResult(toMessageDTOs(msgs), total, page, limit)
	return &result, nil
}

// ListSent returns messages sent by userID.
func (s *MessageService) ListSent(ctx context.Context, userID uuid.UUID, page, limit int) (*domain.PaginatedResult[MessageDTO], error) {
	msgs, total, err := s.repo.FindBySenderID(ctx, userID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sent messages: %w", err)
	}
	result := domain.NewPaginatedResult(toMessageDTOs(msgs), total, page, limit)
	return &result, nil
}

// MarkRead flags a message as read. Only the recipient may do this.
func (s *MessageService) MarkRead(ctx context.Context, messageID, actorID uuid.UUID) (*MessageDTO, error) {
	m, err := s.repo.FindByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	wasRead := m.IsRead()
	if err := m.MarkRead(actorID); err != nil {
		return nil, err
	}
	if !wasRead {
		if err := s.repo.Update(ctx, m); err != nil {
			return nil, err
		}
	}
	result := toMessageDTO(m)
	return &result, nil
}

func toMessageDTO(m *messageDomain.Message) MessageDTO {
	return MessageDTO{
		ID:          m.ID(),
		SenderID:    m.SenderID(),
		RecipientID: m.RecipientID(),
		Title:       m.Title(),
		Body:        m.Body(),
		IsRead:      m.IsRead(),
		SentAt:      m.SentAt(),
		ReadAt:      m.ReadAt(),
	}
}

func toMessageDTOs(msgs []*messageDomain.Message) []MessageDTO {
	dtos := make([]MessageDTO, len(msgs))
	for i, m := range msgs {
		dtos[i] = toMessageDTO(m)
	}
	return dtos
}
