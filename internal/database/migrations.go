package database

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/luxor-photos/luxor/internal/favorites"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationNormalizePhotoColumns = "2026-05-12_normalize_photo_columns"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationNormalizePhotoColumns, apply: normalizePhotoColumns},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// normalizePhotoColumns moves legacy photo_data JSON blobs into the normalized
// snapshot columns and clears the blob. Rows whose blob cannot be decoded keep
// the photo identifier already stored on the row.
func normalizePhotoColumns(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var rows []favorites.Favorite
		if err := tx.Where("photo_data <> ''").Find(&rows).Error; err != nil {
			return err
		}

		for _, row := range rows {
			blob := strings.TrimSpace(row.LegacyPhotoDataJSON)
			if blob != "" {
				if photo, err := favorites.ParsePhotoRecord(row.PhotoID, json.RawMessage(blob)); err == nil {
					row.ApplySnapshot(photo)
				}
			}
			row.LegacyPhotoDataJSON = ""
			if err := tx.Save(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
