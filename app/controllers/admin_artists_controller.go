package controllers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/MarcoWillems/Galleria/app/models"
	"github.com/MarcoWillems/Galleria/app/repository"
)

// HandleAdminCreateArtist creates an artist profile
func HandleAdminCreateArtist(c *fiber.Ctx) error {
	var artist models.Artist
	if err := c.BodyParser(&artist); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	artist.ID = 0
	if artist.Slug == "" {
		artist.Slug = slugify(artist.Name)
	}
	if err := artist.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	repo := repository.GetGlobalFactory().GetArtistRepository()
	if existing, err := repo.GetBySlug(artist.Slug); err == nil && existing != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "slug already in use"})
	}

	if err := repo.Create(&artist); err != nil {
		log.Errorf("[Admin] Failed to create artist: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create artist"})
	}

	log.Infof("[Admin] Created artist %d (%s)", artist.ID, artist.Slug)
	return c.Status(fiber.StatusCreated).JSON(artist)
}

// HandleAdminUpdateArtist updates an artist profile
func HandleAdminUpdateArtist(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid artist id"})
	}

	repo := repository.GetGlobalFactory().GetArtistRepository()

	artist, err := repo.GetByID(uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "artist not found"})
	}

	var req models.Artist
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	artist.Name = req.Name
	artist.Bio = req.Bio
	artist.Country = req.Country
	artist.Featured = req.Featured
	if req.Slug != "" && req.Slug != artist.Slug {
		if existing, err := repo.GetBySlug(req.Slug); err == nil && existing != nil && existing.ID != artist.ID {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "slug already in use"})
		}
		artist.Slug = req.Slug
	}

	if err := artist.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := repo.Update(artist); err != nil {
		log.Errorf("[Admin] Failed to update artist %d: %v", artist.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update artist"})
	}

	return c.JSON(artist)
}

// HandleAdminDeleteArtist removes an artist with no remaining works
func HandleAdminDeleteArtist(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid artist id"})
	}

	factory := repository.GetGlobalFactory()

	works, err := factory.GetArtworkRepository().ListByArtist(uint(id))
	if err != nil {
		log.Errorf("[Admin] Failed to check works for artist %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete artist"})
	}
	if len(works) > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "artist still has artworks in the catalog"})
	}

	if err := factory.GetArtistRepository().Delete(uint(id)); err != nil {
		log.Errorf("[Admin] Failed to delete artist %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete artist"})
	}

	log.Infof("[Admin] Deleted artist %d", id)
	return c.JSON(fiber.Map{"ok": true})
}

// slugify lowercases a name and replaces runs of non-alphanumerics with dashes
func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
