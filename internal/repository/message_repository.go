package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	messageDomain "github.com/staybook/service-booking/internal/domain/message"
	"github.com/staybook/service-booking/pkg/domain"
	"gorm.io/gorm"
)

// MessageModel is the GORM model for the messages table.
type MessageModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	SenderID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	RecipientID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Title       string     `gorm:"type:varchar(30);not null"`
	Body        string     `gorm:"type:varchar(1000);not null"`
	IsRead      bool       `gorm:"not null;default:false"`
	SentAt      time.Time  `gorm:"type:timestamptz;not null"`
	ReadAt      *time.Time `gorm:"type:timestamptz"`
}

func (MessageModel) TableName() string { return "messages" }

// GormMessageRepository implements MessageRepository using GORM.
type GormMessageRepository struct {
	db *gorm.DB
}

func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

func (r *GormMessageRepository) Save(ctx context.Context, msg *messageDomain.Message) error {
	model := toMessageModel(msg)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return translateError(err, "save message")
	}
	return nil
}

func (r *GormMessageRepository) Update(ctx context.Context, msg *messageDomain.Message) error {
	result := r.db.WithContext(ctx).
		Model(&MessageModel{}).
		Where("id = ?", msg.ID()).
		Updates(map[string]interface{}{
			"is_read": msg.IsRead(),
			"read_at": msg.ReadAt(),
		})
	if result.Error != nil {
		return translateError(result.Error, "update message")
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Message", msg.ID().String())
	}
	return nil
}

func (r *GormMessageRepository) FindByID(ctx context.Context, id uuid.UUID) (*messageDomain.Message, error) {
	var model MessageModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Message", id.String())
		}
		return nil, translateError(err, "find message by ID")
	}
	return toMessageDomain(&model), nil
}

func (r *GormMessageRepository) FindByRecipientID(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, page, limit int) ([]*messageDomain.Message, int64, error) {
	scope := r.db.Where("recipient_id = ?", recipientID)
	if unreadOnly {
		scope = scope.Where("is_read = ?", false)
	}
	return r.findPage(ctx, scope, page, limit)
}

func (r *GormMessageRepository) FindBySenderID(ctx context.Context, senderID uuid.UUID, page, limit int) ([]*messageDomain.Message, int64, error) {
	return r.findPage(ctx, r.db.Where("sender_id = ?", senderID), page, limit)
}

func (r *GormMessageRepository) findPage(ctx context.Context, scope *gorm.DB, page, limit int) ([]*messageDomain.Message, int64, error) {
	var total int64
	if err := scope.WithContext(ctx).Model(&MessageModel{}).Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "count messages")
	}

	var models []MessageModel
	if err := scope.WithContext(ctx).
		Order("sent_at DESC").
		Offset(offset(page, limit)).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, translateError(err, "list messages")
	}

	msgs := make([]*messageDomain.Message, len(models))
	for i := range models {
		msgs[i] = toMessageDomain(&models[i])
	}
	return msgs, total, nil
}

func toMessageModel(m *messageDomain.Message) MessageModel {
	return MessageModel{
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

func toMessageDomain(m *MessageModel) *messageDomain.Message {
	return messageDomain.Reconstruct(m.ID, m.SenderID, m.RecipientID, m.Title, m.Body, m.IsRead, m.SentAt, m.ReadAt)
}
