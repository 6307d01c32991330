package message

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/staybook/service-booking/pkg/domain"
)

const (
	maxTitleLength = 30
	maxBodyLength  = 1000
)

var (
	ErrSelfMessage  = domain.New(domain.KindValidation, "SELF_MESSAGE", "sender and recipient must differ")
	ErrNotRecipient = domain.New(domain.KindForbidden, "FORBIDDEN", "only the recipient can mark a message as read")
)

// Message is a direct note from one user to another.
type Message struct {
	id          uuid.UUID
	senderID    uuid.UUID
	recipientID uuid.UUID
	title       string
	body        string
	isRead      bool
	sentAt      time.Time
	readAt      *time.Time
}

// NewMessage creates an unread message.
func NewMessage(senderID, recipientID uuid.UUID, title, body string) (*Message, error) {
	if senderID == uuid.Nil || recipientID == uuid.Nil {
		return nil, domain.NewValidationError("sender and recipient are required")
	}
	if senderID == recipientID {
		return nil, ErrSelfMessage
	}
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" || utf8.RuneCountInString(title) > maxTitleLength {
		return nil, domain.NewValidationError("title is required and must be at most 30 characters")
	}
	if body == "" || utf8.RuneCountInString(body) > maxBodyLength {
		return nil, domain.NewValidationError("body is required and must be at most 1000 characters")
	}

	return &Message{
		id:          uuid.New(),
		senderID:    senderID,
		recipientID: recipientID,
		title:       title,
		body:        body,
		sentAt:      time.Now().UTC(),
	}, nil
}

// Reconstruct rebuilds a Message from persistence.
func Reconstruct(id, senderID, recipientID uuid.UUID, title, body string, isRead bool, sentAt time.Time, readAt *time.Time) *Message {
	return &Message{
		id:          id,
		senderID:    senderID,
		recipientID: recipientID,
		title:       title,
		body:        body,
		isRead:      isRead,
		sentAt:      sentAt,
		readAt:      readAt,
	}
}

func (m *Message) ID() uuid.UUID          { return m.id }
func (m *Message) SenderID() uuid.UUID    { return m.senderID }
func (m *Message) RecipientID() uuid.UUID { return m.recipientID }
func (m *Message) Title() string          { return m.title }
func (m *Message) Body() string           { return m.body }
func (m *Message) IsRead() bool           { return m.isRead }
func (m *Message) SentAt() time.Time      { return m.sentAt }
func (m *Message) ReadAt() *time.Time     { return m.readAt }

// CanView reports whether userID is a party to the message.
func (m *Message) CanView(userID uuid.UUID) bool {
	return m.senderID == userID || m.recipientID == userID
}

// MarkRead flags the message as read. Repeated calls keep the first read time.
func (m *Message) MarkRead(actorID uuid.UUID) error {
	if actorID != m.recipientID {
		return ErrNotRecipient
	}
	if m.isRead {
		return nil
	}
	now := time.Now().UTC()
	m.isRead = true
	m.readAt = &now
	return nil
}
