package repository

import (
	"github.com/MarcoWillems/Galleria/app/models"
)

// OrderRepository defines the interface for order-related database operations.
// ApplyTransition is the only way a status changes: it is a compare-and-swap
// on the current status plus the audit event append, in one transaction, so
// concurrent payment notifications for the same order serialize and exactly
// one wins for any given source status.
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByOrderNo(orderNo string) (*models.Order, error)
	List(offset, limit int) ([]models.Order, error)
	ListByStatus(status string, offset, limit int) ([]models.Order, error)
	Count() (int64, error)
	ApplyTransition(orderID uint, expectedStatus, nextStatus, paymentID string, event *models.OrderEvent) (bool, error)
	AppendEvent(event *models.OrderEvent) error
	GetEvents(orderID uint) ([]models.OrderEvent, error)
}

// ArtworkRepository defines the interface for artwork-related database operations
type ArtworkRepository interface {
	Create(artwork *models.Artwork) error
	GetByID(id uint) (*models.Artwork, error)
	GetByUUID(uuid string) (*models.Artwork, error)
	List(offset, limit int) ([]models.Artwork, error)
	ListAvailable(offset, limit int) ([]models.Artwork, error)
	ListByArtist(artistID uint) ([]models.Artwork, error)
	Update(artwork *models.Artwork) error
	Delete(id uint) error
	Count() (int64, error)
	SetAvailability(id uint, from, to string) (bool, error)
	UpdateViewCount(id uint) error
}

// ArtistRepository defines the interface for artist-related database operations
type ArtistRepository interface {
	Create(artist *models.Artist) error
	GetByID(id uint) (*models.Artist, error)
	GetBySlug(slug string) (*models.Artist, error)
	List(offset, limit int) ([]models.Artist, error)
	Update(artist *models.Artist) error
	Delete(id uint) error
	Count() (int64, error)
}

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
}

// Repositories bundles all repository instances
type Repositories struct {
	Order   OrderRepository
	Artwork ArtworkRepository
	Artist  ArtistRepository
	User    UserRepository
}
