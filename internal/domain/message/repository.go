package message

import (
	"context"

	"github.com/google/uuid"
)

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Save(ctx context.Context, msg *Message) error
	Update(ctx context.Context, msg *Message) error
	FindByID(ctx context.Context, id uuid.UUID) (*Message, error)
	FindByRecipientID(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, page, limit int) ([]*Message, int64, error)
	FindBySenderID(ctx context.Context, senderID uuid.UUID, page, limit int) ([]*Message, int64, error)
}
