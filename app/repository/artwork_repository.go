package repository

import (
	"github.com/MarcoWillems/Galleria/app/models"
	"gorm.io/gorm"
)

// artworkRepository implements the ArtworkRepository interface
type artworkRepository struct {
	db *gorm.DB
}

// NewArtworkRepository creates a new artwork repository instance
func NewArtworkRepository(db *gorm.DB) ArtworkRepository {
	return &artworkRepository{db: db}
}

func (r *artworkRepository) Create(artwork *models.Artwork) error {
	return r.db.Create(artwork).Error
}

func (r *artworkRepository) GetByID(id uint) (*models.Artwork, error) {
	var artwork models.Artwork
	err := r.db.Preload("Artist").First(&artwork, id).Error
	if err != nil {
		return nil, err
	}
	return &artwork, nil
}

func (r *artworkRepository) GetByUUID(uuid string) (*models.Artwork, error) {
	var artwork models.Artwork
	err := r.db.Preload("Artist").Where("uuid = ?", uuid).First(&artwork).Error
	if err != nil {
		return nil, err
	}
	return &artwork, nil
}

func (r *artworkRepository) List(offset, limit int) ([]models.Artwork, error) {
	var artworks []models.Artwork
	err := r.db.Preload("Artist").Order("created_at DESC").
		Offset(offset).Limit(limit).Find(&artworks).Error
	return artworks, err
}

// ListAvailable retrieves purchasable artworks for the public catalog
func (r *artworkRepository) ListAvailable(offset, limit int) ([]models.Artwork, error) {
	var artworks []models.Artwork
	err := r.db.Preload("Artist").Where("availability = ?", models.ArtworkAvailable).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&artworks).Error
	return artworks, err
}

func (r *artworkRepository) ListByArtist(artistID uint) ([]models.Artwork, error) {
	var artworks []models.Artwork
	err := r.db.Where("artist_id = ?", artistID).
		Order("created_at DESC").Find(&artworks).Error
	return artworks, err
}

func (r *artworkRepository) Update(artwork *models.Artwork) error {
	return r.db.Save(artwork).Error
}

func (r *artworkRepository) Delete(id uint) error {
	return r.db.Delete(&models.Artwork{}, id).Error
}

func (r *artworkRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Artwork{}).Count(&count).Error
	return count, err
}

// SetAvailability conditionally flips availability, e.g. available ->
// reserved at checkout. Returns false when the artwork was no longer in the
// expected state, which surfaces concurrent checkouts of one-off pieces.
func (r *artworkRepository) SetAvailability(id uint, from, to string) (bool, error) {
	res := r.db.Model(&models.Artwork{}).
		Where("id = ? AND availability = ?", id, from).
		Update("availability", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpdateViewCount increments the artwork view counter
func (r *artworkRepository) UpdateViewCount(id uint) error {
	return r.db.Model(&models.Artwork{}).Where("id = ?", id).
		Update("view_count", gorm.Expr("view_count + 1")).Error
}
