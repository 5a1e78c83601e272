package postgres

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/phenrril/storefront/internal/domain"
)

type SupportTicket struct {
	Reference   string `gorm:"primaryKey;size:36"`
	Name        string `gorm:"size:120"`
	Email       string `gorm:"size:200;index"`
	OrderNumber string `gorm:"size:60"`
	Issue       string `gorm:"size:60"`
	Message     string `gorm:"type:text"`
	CreatedAt   time.Time
}

func (SupportTicket) TableName() string { return "support_requests" }

type SupportRepo struct{ db *gorm.DB }

func NewSupportRepo(db *gorm.DB) *SupportRepo { return &SupportRepo{db: db} }

func (r *SupportRepo) SaveSupport(ctx context.Context, req domain.SupportRequest) error {
	t := SupportTicket{
		Reference:   req.Reference,
		Name:        req.Name,
		Email:       strings.ToLower(req.Email),
		OrderNumber: req.OrderNumber,
		Issue:       req.Issue,
		Message:     req.Message,
		CreatedAt:   req.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&t).Error
}

// Migrate crea las tablas del almacenamiento Postgres.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&KVEntry{}, &SupportTicket{})
}
