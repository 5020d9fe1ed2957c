package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Artist is the creator a set of artworks is attributed to.
type Artist struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Slug      string         `gorm:"type:varchar(150);uniqueIndex;not null" json:"slug" validate:"required,min=2,max=150"`
	Name      string         `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	Bio       string         `gorm:"type:text" json:"bio" validate:"max=5000"`
	Country   string         `gorm:"type:varchar(100)" json:"country"`
	PhotoKey  string         `gorm:"type:varchar(255)" json:"photo_key"`
	Featured  bool           `gorm:"default:false;index" json:"featured"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (a *Artist) Validate() error {
	v := validator.New()

	return v.Struct(a)
}
