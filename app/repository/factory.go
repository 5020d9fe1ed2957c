package repository

import (
	"sync"

	"gorm.io/gorm"
)

// NewRepositories creates all repository instances from a DB handle
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Order:   NewOrderRepository(db),
		Artwork: NewArtworkRepository(db),
		Artist:  NewArtistRepository(db),
		User:    NewUserRepository(db),
	}
}

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// GetOrderRepository returns the order repository instance
func (f *Factory) GetOrderRepository() OrderRepository {
	return f.GetRepositories().Order
}

// GetArtworkRepository returns the artwork repository instance
func (f *Factory) GetArtworkRepository() ArtworkRepository {
	return f.GetRepositories().Artwork
}

// GetArtistRepository returns the artist repository instance
func (f *Factory) GetArtistRepository() ArtistRepository {
	return f.GetRepositories().Artist
}

// GetUserRepository returns the user repository instance
func (f *Factory) GetUserRepository() UserRepository {
	return f.GetRepositories().User
}

// Global factory instance
var globalFactory *Factory
var factoryOnce sync.Once

// InitializeFactory initializes the global repository factory
func InitializeFactory(db *gorm.DB) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
}

// GetGlobalFactory returns the global repository factory instance
func GetGlobalFactory() *Factory {
	if globalFactory == nil {
		panic("Repository factory not initialized. Call InitializeFactory first.")
	}
	return globalFactory
}
