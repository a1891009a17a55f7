package favorites

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// PhotoURLs carries the fixed resolution tiers published by the photo source.
type PhotoURLs struct {
	Raw     *string `json:"raw,omitempty"`
	Full    *string `json:"full,omitempty"`
	Regular *string `json:"regular,omitempty"`
	Small   *string `json:"small,omitempty"`
	Thumb   *string `json:"thumb,omitempty"`
}

// PhotoLinks carries the outbound links published by the photo source.
type PhotoLinks struct {
	Self     *string `json:"self,omitempty"`
	HTML     *string `json:"html,omitempty"`
	Download *string `json:"download,omitempty"`
}

// Photographer is the attribution sub-record of a photo.
type Photographer struct {
	ID           string  `json:"id"`
	Username     string  `json:"username"`
	Name         string  `json:"name"`
	PortfolioURL *string `json:"portfolio_url,omitempty"`
	AvatarURL    *string `json:"profile_image_url,omitempty"`
}

// PhotoRecord is an immutable snapshot of a remote photo's metadata at the
// time it was favorited or retrieved. Optional fields stay nil when the
// source omitted them.
type PhotoRecord struct {
	ID              string       `json:"id"`
	Width           *int         `json:"width,omitempty"`
	Height          *int         `json:"height,omitempty"`
	Description     *string      `json:"description,omitempty"`
	AltDescription  *string      `json:"alt_description,omitempty"`
	URLs            PhotoURLs    `json:"urls"`
	Links           PhotoLinks   `json:"links"`
	Photographer    Photographer `json:"user"`
	SourceCreatedAt *string      `json:"created_at,omitempty"`
}

// FavoriteRecord is the API-facing shape of one stored favorite. The photo
// snapshot travels under photo_data, matching the wire contract.
type FavoriteRecord struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	PhotoID   string      `json:"photo_id"`
	Photo     PhotoRecord `json:"photo_data"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// ParsePhotoRecord validates a raw photo payload at the system boundary.
// An empty payload yields a minimal record carrying only the fallback photo
// identifier; a payload without an id inherits the fallback. The returned
// record always holds a validated, trimmed photo id.
func ParsePhotoRecord(fallbackPhotoID string, raw json.RawMessage) (PhotoRecord, error) {
	var record PhotoRecord
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &record); err != nil {
			return PhotoRecord{}, fmt.Errorf("%w: malformed payload: %v", ErrInvalidPhotoID, err)
		}
	}

	record.ID = strings.TrimSpace(record.ID)
	if record.ID == "" {
		record.ID = strings.TrimSpace(fallbackPhotoID)
	}

	photoID, err := NewPhotoID(record.ID)
	if err != nil {
		return PhotoRecord{}, err
	}
	record.ID = photoID.String()
	return record, nil
}
