package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	ArtworkAvailable = "available"
	ArtworkReserved  = "reserved"
	ArtworkSold      = "sold"
	ArtworkHidden    = "hidden"
)

// Artwork is a catalog item offered for sale. Original pieces have
// Quantity 1; prints can carry a larger edition.
type Artwork struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UUID         string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	ArtistID     uint           `gorm:"index;not null" json:"artist_id"`
	Artist       Artist         `gorm:"foreignKey:ArtistID" json:"artist,omitempty"`
	Title        string         `gorm:"type:varchar(200);not null" json:"title" validate:"required,min=1,max=200"`
	Description  string         `gorm:"type:text" json:"description" validate:"max=5000"`
	Medium       string         `gorm:"type:varchar(100)" json:"medium"`
	WidthCm      float64        `json:"width_cm"`
	HeightCm     float64        `json:"height_cm"`
	Year         int            `json:"year"`
	PriceCents   int64          `gorm:"not null" json:"price_cents" validate:"required,min=1"`
	Currency     string         `gorm:"type:varchar(3);not null;default:'ZAR'" json:"currency"`
	Quantity     int            `gorm:"not null;default:1" json:"quantity"`
	Availability string         `gorm:"type:varchar(20);not null;default:'available';index" json:"availability" validate:"oneof=available reserved sold hidden"`
	ImageKey     string         `gorm:"type:varchar(255)" json:"image_key"` // S3 object key for the primary image
	ViewCount    int64          `gorm:"default:0" json:"view_count"`
	CreatedAt    time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (a *Artwork) Validate() error {
	v := validator.New()

	return v.Struct(a)
}
