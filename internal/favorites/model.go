package favorites

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxPhotoIDLength = 190

var (
	// ErrInvalidPhotoID indicates that a photo identifier is empty or exceeds storage bounds.
	ErrInvalidPhotoID = errors.New("favorites: invalid photo id")
	// ErrInvalidOwnerID indicates that an owner identifier is not a version-4 UUID.
	ErrInvalidOwnerID = errors.New("favorites: invalid owner id")
)

// PhotoID represents a validated photo identifier assigned by the photo source.
type PhotoID string

// NewPhotoID validates raw input and returns a PhotoID.
func NewPhotoID(rawInput string) (PhotoID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidPhotoID)
	}
	if len(trimmed) > maxPhotoIDLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidPhotoID, maxPhotoIDLength)
	}
	return PhotoID(trimmed), nil
}

// String returns the underlying string identifier.
func (id PhotoID) String() string {
	return string(id)
}

// OwnerID represents a validated anonymous owner identifier. Owners are scoped
// by the version-4 UUID each browser profile generates for itself.
type OwnerID string

// NewOwnerID validates raw input and returns an OwnerID.
func NewOwnerID(rawInput string) (OwnerID, error) {
	trimmed := strings.TrimSpace(rawInput)
	parsed, err := uuid.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidOwnerID, err)
	}
	if parsed.Version() != 4 {
		return "", fmt.Errorf("%w: version %d", ErrInvalidOwnerID, parsed.Version())
	}
	if parsed.Variant() != uuid.RFC4122 {
		return "", fmt.Errorf("%w: variant %s", ErrInvalidOwnerID, parsed.Variant())
	}
	return OwnerID(strings.ToLower(trimmed)), nil
}

// String returns the underlying string identifier.
func (id OwnerID) String() string {
	return string(id)
}

// Favorite models one persisted favorite: an owner paired with a snapshot of
// the photo metadata taken when the photo was favorited. The snapshot lives in
// normalized columns; photo_data only carries the legacy JSON blob until the
// normalization migration clears it.
type Favorite struct {
	ID                      string    `gorm:"column:id;primaryKey;size:36;not null"`
	UserID                  string    `gorm:"column:user_id;size:36;not null;uniqueIndex:idx_favorites_user_photo,priority:1;index:idx_favorites_user_created,priority:1"`
	PhotoID                 string    `gorm:"column:photo_id;size:190;not null;uniqueIndex:idx_favorites_user_photo,priority:2"`
	LegacyPhotoDataJSON     string    `gorm:"column:photo_data;type:text;not null;default:''"`
	PhotoWidth              *int      `gorm:"column:photo_width"`
	PhotoHeight             *int      `gorm:"column:photo_height"`
	PhotoDescription        *string   `gorm:"column:photo_description;type:text"`
	PhotoAltDescription     *string   `gorm:"column:photo_alt_description;type:text"`
	PhotoURLRaw             *string   `gorm:"column:photo_url_raw;size:2048"`
	PhotoURLFull            *string   `gorm:"column:photo_url_full;size:2048"`
	PhotoURLRegular         *string   `gorm:"column:photo_url_regular;size:2048"`
	PhotoURLSmall           *string   `gorm:"column:photo_url_small;size:2048"`
	PhotoURLThumb           *string   `gorm:"column:photo_url_thumb;size:2048"`
	PhotoLinkSelf           *string   `gorm:"column:photo_link_self;size:2048"`
	PhotoLinkHTML           *string   `gorm:"column:photo_link_html;size:2048"`
	PhotoLinkDownload       *string   `gorm:"column:photo_link_download;size:2048"`
	PhotographerID          string    `gorm:"column:photographer_id;size:190;not null;default:''"`
	PhotographerUsername    string    `gorm:"column:photographer_username;size:190;not null;default:''"`
	PhotographerName        string    `gorm:"column:photographer_name;size:320;not null;default:''"`
	PhotographerPortfolio   *string   `gorm:"column:photographer_portfolio_url;size:2048"`
	PhotographerAvatar      *string   `gorm:"column:photographer_avatar_url;size:2048"`
	PhotoSourceCreatedAt    *string   `gorm:"column:photo_source_created_at;size:64"`
	CreatedAt               time.Time `gorm:"column:created_at;autoCreateTime;index:idx_favorites_user_created,priority:2"`
	UpdatedAt               time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Favorite) TableName() string {
	return "favorites"
}

// ApplySnapshot overwrites the normalized photo columns with the provided
// record. Repeated favoriting refreshes the cached metadata this way.
func (f *Favorite) ApplySnapshot(photo PhotoRecord) {
	f.PhotoID = photo.ID
	f.PhotoWidth = photo.Width
	f.PhotoHeight = photo.Height
	f.PhotoDescription = photo.Description
	f.PhotoAltDescription = photo.AltDescription
	f.PhotoURLRaw = photo.URLs.Raw
	f.PhotoURLFull = photo.URLs.Full
	f.PhotoURLRegular = photo.URLs.Regular
	f.PhotoURLSmall = photo.URLs.Small
	f.PhotoURLThumb = photo.URLs.Thumb
	f.PhotoLinkSelf = photo.Links.Self
	f.PhotoLinkHTML = photo.Links.HTML
	f.PhotoLinkDownload = photo.Links.Download
	f.PhotographerID = photo.Photographer.ID
	f.PhotographerUsername = photo.Photographer.Username
	f.PhotographerName = photo.Photographer.Name
	f.PhotographerPortfolio = photo.Photographer.PortfolioURL
	f.PhotographerAvatar = photo.Photographer.AvatarURL
	f.PhotoSourceCreatedAt = photo.SourceCreatedAt
}

// Snapshot reconstructs the photo record stored in the normalized columns.
func (f Favorite) Snapshot() PhotoRecord {
	return PhotoRecord{
		ID:             f.PhotoID,
		Width:          f.PhotoWidth,
		Height:         f.PhotoHeight,
		Description:    f.PhotoDescription,
		AltDescription: f.PhotoAltDescription,
		URLs: PhotoURLs{
			Raw:     f.PhotoURLRaw,
			Full:    f.PhotoURLFull,
			Regular: f.PhotoURLRegular,
			Small:   f.PhotoURLSmall,
			Thumb:   f.PhotoURLThumb,
		},
		Links: PhotoLinks{
			Self:     f.PhotoLinkSelf,
			HTML:     f.PhotoLinkHTML,
			Download: f.PhotoLinkDownload,
		},
		Photographer: Photographer{
			ID:           f.PhotographerID,
			Username:     f.PhotographerUsername,
			Name:         f.PhotographerName,
			PortfolioURL: f.PhotographerPortfolio,
			AvatarURL:    f.PhotographerAvatar,
		},
		SourceCreatedAt: f.PhotoSourceCreatedAt,
	}
}

// Record converts the persisted row into the API-facing favorite record.
func (f Favorite) Record() FavoriteRecord {
	return FavoriteRecord{
		ID:        f.ID,
		UserID:    f.UserID,
		PhotoID:   f.PhotoID,
		Photo:     f.Snapshot(),
		CreatedAt: f.CreatedAt.UTC(),
		UpdatedAt: f.UpdatedAt.UTC(),
	}
}
