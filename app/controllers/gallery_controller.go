package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/MarcoWillems/Galleria/app/models"
	"github.com/MarcoWillems/Galleria/app/repository"
	"github.com/MarcoWillems/Galleria/internal/pkg/analytics"
)

const defaultPageSize = 24

// HandleListArtworks returns the public catalog page of available artworks
func HandleListArtworks(c *fiber.Ctx) error {
	offset, limit := pagination(c)

	repo := repository.GetGlobalFactory().GetArtworkRepository()
	artworks, err := repo.ListAvailable(offset, limit)
	if err != nil {
		log.Errorf("[Gallery] Failed to list artworks: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load artworks"})
	}

	total, err := repo.Count()
	if err != nil {
		log.Errorf("[Gallery] Failed to count artworks: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load artworks"})
	}

	return c.JSON(fiber.Map{
		"artworks": artworks,
		"total":    total,
		"offset":   offset,
		"limit":    limit,
	})
}

// HandleGetArtwork returns a single artwork by its public UUID and counts the
// view. Hidden pieces are not exposed.
func HandleGetArtwork(c *fiber.Ctx) error {
	artwork, err := repository.GetGlobalFactory().GetArtworkRepository().GetByUUID(c.Params("uuid"))
	if err != nil || artwork.Availability == models.ArtworkHidden {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "artwork not found"})
	}

	// View counts batch through Redis and flush to the DB in the background
	if err := analytics.AddArtworkView(artwork.ID); err != nil {
		log.Errorf("[Gallery] Failed to count view for artwork %d: %v", artwork.ID, err)
	}

	return c.JSON(artwork)
}

// HandleListArtists returns the artist directory
func HandleListArtists(c *fiber.Ctx) error {
	offset, limit := pagination(c)

	artists, err := repository.GetGlobalFactory().GetArtistRepository().List(offset, limit)
	if err != nil {
		log.Errorf("[Gallery] Failed to list artists: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load artists"})
	}

	return c.JSON(fiber.Map{"artists": artists, "offset": offset, "limit": limit})
}

// HandleGetArtist returns an artist profile with their works by slug
func HandleGetArtist(c *fiber.Ctx) error {
	factory := repository.GetGlobalFactory()

	artist, err := factory.GetArtistRepository().GetBySlug(c.Params("slug"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "artist not found"})
	}

	works, err := factory.GetArtworkRepository().ListByArtist(artist.ID)
	if err != nil {
		log.Errorf("[Gallery] Failed to load works for artist %d: %v", artist.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load artist works"})
	}

	// Hidden artworks stay out of the public profile
	visible := make([]models.Artwork, 0, len(works))
	for _, w := range works {
		if w.Availability != models.ArtworkHidden {
			visible = append(visible, w)
		}
	}

	return c.JSON(fiber.Map{"artist": artist, "artworks": visible})
}

// pagination extracts offset/limit query params with sane bounds
func pagination(c *fiber.Ctx) (int, int) {
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultPageSize)))
	if limit < 1 || limit > 100 {
		limit = defaultPageSize
	}
	return offset, limit
}
