package favorites

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	noOpLogger           = zap.NewNop()

	// ErrFavoriteNotFound indicates that no favorite exists for the owner and photo pair.
	ErrFavoriteNotFound = errors.New("favorites: favorite not found")
)

// ServiceError carries a dotted operation code alongside the underlying cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew = "favorites.service.new"
	opList       = "favorites.list"
	opSave       = "favorites.save"
	opRemove     = "favorites.remove"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// IDProvider issues identifiers for newly created favorite rows.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig bundles the dependencies required by the favorites service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service persists and retrieves favorites scoped by anonymous owner.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
}

// NewService validates configuration and constructs the service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		db:         cfg.Database,
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
	}, nil
}

// List returns the owner's favorites newest first.
func (s *Service) List(ctx context.Context, ownerID OwnerID) ([]FavoriteRecord, error) {
	if s.db == nil {
		s.logError(opList, "missing_database", errMissingDatabase)
		return nil, newServiceError(opList, "missing_database", errMissingDatabase)
	}

	var rows []Favorite
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID.String()).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		s.logError(opList, "query_failed", err, zap.String("user_id", ownerID.String()))
		return nil, newServiceError(opList, "query_failed", err)
	}

	records := make([]FavoriteRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.Record())
	}
	return records, nil
}

// Save stores a favorite for the owner and photo pair. At most one row exists
// per pair: a repeated save refreshes the stored photo snapshot in place
// instead of creating a second row.
func (s *Service) Save(ctx context.Context, ownerID OwnerID, photo PhotoRecord) (FavoriteRecord, error) {
	if s.db == nil {
		s.logError(opSave, "missing_database", errMissingDatabase)
		return FavoriteRecord{}, newServiceError(opSave, "missing_database", errMissingDatabase)
	}
	if s.idProvider == nil {
		s.logError(opSave, "missing_id_provider", errMissingIDProvider)
		return FavoriteRecord{}, newServiceError(opSave, "missing_id_provider", errMissingIDProvider)
	}

	var stored Favorite
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Favorite
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND photo_id = ?", ownerID.String(), photo.ID).
			Take(&existing).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logError(opSave, "select_failed", err,
				zap.String("user_id", ownerID.String()),
				zap.String("photo_id", photo.ID))
			return newServiceError(opSave, "select_failed", err)
		}

		if errors.Is(err, gorm.ErrRecordNotFound) {
			rowID, idErr := s.idProvider.NewID()
			if idErr != nil {
				s.logError(opSave, "id_generation_failed", idErr,
					zap.String("user_id", ownerID.String()),
					zap.String("photo_id", photo.ID))
				return newServiceError(opSave, "id_generation_failed", idErr)
			}
			existing = Favorite{
				ID:        rowID,
				UserID:    ownerID.String(),
				CreatedAt: s.clock().UTC(),
			}
		}

		existing.ApplySnapshot(photo)
		existing.LegacyPhotoDataJSON = ""
		existing.UpdatedAt = s.clock().UTC()

		if err := tx.Save(&existing).Error; err != nil {
			s.logError(opSave, "upsert_failed", err,
				zap.String("user_id", ownerID.String()),
				zap.String("photo_id", photo.ID))
			return newServiceError(opSave, "upsert_failed", err)
		}

		stored = existing
		return nil
	})
	if txErr != nil {
		return FavoriteRecord{}, txErr
	}

	return stored.Record(), nil
}

// Remove permanently deletes the favorite for the owner and photo pair.
// ErrFavoriteNotFound is returned when the pair does not exist for the owner.
func (s *Service) Remove(ctx context.Context, ownerID OwnerID, photoID PhotoID) error {
	if s.db == nil {
		s.logError(opRemove, "missing_database", errMissingDatabase)
		return newServiceError(opRemove, "missing_database", errMissingDatabase)
	}

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND photo_id = ?", ownerID.String(), photoID.String()).
		Delete(&Favorite{})
	if result.Error != nil {
		s.logError(opRemove, "delete_failed", result.Error,
			zap.String("user_id", ownerID.String()),
			zap.String("photo_id", photoID.String()))
		return newServiceError(opRemove, "delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return newServiceError(opRemove, "not_found", ErrFavoriteNotFound)
	}

	return nil
}

func (s *Service) loggerOrDefault() *zap.Logger {
	if s == nil || s.logger == nil {
		return noOpLogger
	}
	return s.logger
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.loggerOrDefault().Error("favorites service error", attrs...)
}
