package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/freightdesk/backend/internal/domain/numbering"
	"github.com/freightdesk/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSequenceAllocator implements numbering.Allocator on a sequence_counters
// table living in the same store as the codes it numbers. A missing counter
// is seeded from the highest code already stored for the partition, so a
// store populated before counters existed keeps counting upward.
type GormSequenceAllocator struct {
	db     *gorm.DB
	name   string
	table  string
	column string
	prefix string
}

// NewGormSequenceAllocator creates an allocator for counter name. Codes are
// read from table.column when a partition is seen for the first time.
func NewGormSequenceAllocator(db *gorm.DB, name, table, column, prefix string) *GormSequenceAllocator {
	return &GormSequenceAllocator{
		db:     db,
		name:   name,
		table:  table,
		column: column,
		prefix: prefix,
	}
}

// NewShipmentSequenceAllocator numbers shipment codes
func NewShipmentSequenceAllocator(db *gorm.DB, prefix string) *GormSequenceAllocator {
	return NewGormSequenceAllocator(db, "shipment", models.ShipmentModel{}.TableName(), "code", prefix)
}

// NewApplicationSequenceAllocator numbers expense application numbers
func NewApplicationSequenceAllocator(db *gorm.DB, prefix string) *GormSequenceAllocator {
	return NewGormSequenceAllocator(db, "application", models.ApplicationModel{}.TableName(), "number", prefix)
}

// Allocate returns the next value of the partition's counter. Two calls for
// the same partition never return the same value while the counter row exists.
func (a *GormSequenceAllocator) Allocate(ctx context.Context, partition string) (int, error) {
	key := numbering.CounterKey(a.name, partition)
	var value int

	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		next, found, err := a.increment(tx, key)
		if err != nil {
			return err
		}
		if found {
			value = next
			return nil
		}

		seed, err := a.seed(tx, partition)
		if err != nil {
			return err
		}
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "counter_key"}},
			DoNothing: true,
		}).Create(&models.SequenceCounterModel{Key: key, Value: seed, UpdatedAt: time.Now()})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 1 {
			value = seed
			return nil
		}

		// Another allocator created the row first
		next, found, err = a.increment(tx, key)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("sequence counter %s disappeared", key)
		}
		value = next
		return nil
	})
	if err != nil {
		return 0, translateError("allocate sequence", err)
	}
	return value, nil
}

func (a *GormSequenceAllocator) increment(tx *gorm.DB, key string) (int, bool, error) {
	var counter models.SequenceCounterModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("counter_key = ?", key).
		Take(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	next := counter.Value + 1
	if err := tx.Model(&models.SequenceCounterModel{}).
		Where("counter_key = ?", key).
		Updates(map[string]any{"value": next, "updated_at": time.Now()}).Error; err != nil {
		return 0, false, err
	}
	return next, true, nil
}

// seed returns one past the highest sequence already used in the partition
func (a *GormSequenceAllocator) seed(tx *gorm.DB, partition string) (int, error) {
	var codes []string
	if err := tx.Table(a.table).
		Where(a.column+" LIKE ?", a.prefix+partition+"%").
		Pluck(a.column, &codes).Error; err != nil {
		return 0, err
	}

	highest := 0
	for _, code := range codes {
		if seq, ok := numbering.ParseSequence(code, a.prefix, partition); ok && seq > highest {
			highest = seq
		}
	}
	return highest + 1, nil
}
