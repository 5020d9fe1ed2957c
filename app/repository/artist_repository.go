package repository

import (
	"github.com/MarcoWillems/Galleria/app/models"
	"gorm.io/gorm"
)

// artistRepository implements the ArtistRepository interface
type artistRepository struct {
	db *gorm.DB
}

// NewArtistRepository creates a new artist repository instance
func NewArtistRepository(db *gorm.DB) ArtistRepository {
	return &artistRepository{db: db}
}

func (r *artistRepository) Create(artist *models.Artist) error {
	return r.db.Create(artist).Error
}

func (r *artistRepository) GetByID(id uint) (*models.Artist, error) {
	var artist models.Artist
	err := r.db.First(&artist, id).Error
	if err != nil {
		return nil, err
	}
	return &artist, nil
}

func (r *artistRepository) GetBySlug(slug string) (*models.Artist, error) {
	var artist models.Artist
	err := r.db.Where("slug = ?", slug).First(&artist).Error
	if err != nil {
		return nil, err
	}
	return &artist, nil
}

func (r *artistRepository) List(offset, limit int) ([]models.Artist, error) {
	var artists []models.Artist
	err := r.db.Order("name ASC").Offset(offset).Limit(limit).Find(&artists).Error
	return artists, err
}

func (r *artistRepository) Update(artist *models.Artist) error {
	return r.db.Save(artist).Error
}

func (r *artistRepository) Delete(id uint) error {
	return r.db.Delete(&models.Artist{}, id).Error
}

func (r *artistRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Artist{}).Count(&count).Error
	return count, err
}
