package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phenrril/storefront/internal/domain"
)

// KVEntry es un documento del Storage: se reemplaza entero en cada Set.
type KVEntry struct {
	Key       string    `gorm:"primaryKey;size:200"`
	Value     []byte    `gorm:"type:bytea;not null"`
	UpdatedAt time.Time `gorm:"index"`
}

func (KVEntry) TableName() string { return "kv_entries" }

// KVRepo implementa domain.Storage sobre Postgres.
type KVRepo struct{ db *gorm.DB }

func NewKVRepo(db *gorm.DB) *KVRepo { return &KVRepo{db: db} }

func (r *KVRepo) Get(ctx context.Context, key string) ([]byte, error) {
	var e KVEntry
	if err := findEntry(r.db.WithContext(ctx), key, &e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e.Value, nil
}

func (r *KVRepo) Set(ctx context.Context, key string, value []byte) error {
	return upsertEntry(r.db.WithContext(ctx), key, value, time.Now()).Error
}

func (r *KVRepo) Delete(ctx context.Context, key string) error {
	return deleteEntry(r.db.WithContext(ctx), key).Error
}

func findEntry(tx *gorm.DB, key string, e *KVEntry) *gorm.DB {
	return tx.First(e, "key = ?", key)
}

// upsertEntry reemplaza el documento completo si la clave ya existe.
func upsertEntry(tx *gorm.DB, key string, value []byte, now time.Time) *gorm.DB {
	if value == nil {
		value = []byte{}
	}
	e := KVEntry{Key: key, Value: value, UpdatedAt: now}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e)
}

func deleteEntry(tx *gorm.DB, key string) *gorm.DB {
	return tx.Delete(&KVEntry{}, "key = ?", key)
}
