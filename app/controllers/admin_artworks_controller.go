package controllers

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/MarcoWillems/Galleria/app/models"
	"github.com/MarcoWillems/Galleria/app/repository"
	"github.com/MarcoWillems/Galleria/internal/pkg/s3media"
)

const maxArtworkImageSize = 20 * 1024 * 1024 // 20 MB

// HandleAdminCreateArtwork creates a new catalog entry
func HandleAdminCreateArtwork(c *fiber.Ctx) error {
	var artwork models.Artwork
	if err := c.BodyParser(&artwork); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	artwork.ID = 0
	artwork.UUID = uuid.New().String()
	if artwork.Currency == "" {
		artwork.Currency = "ZAR"
	}
	if artwork.Availability == "" {
		artwork.Availability = models.ArtworkAvailable
	}
	if artwork.Quantity == 0 {
		artwork.Quantity = 1
	}

	if err := artwork.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	factory := repository.GetGlobalFactory()
	if _, err := factory.GetArtistRepository().GetByID(artwork.ArtistID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown artist"})
	}

	if err := factory.GetArtworkRepository().Create(&artwork); err != nil {
		log.Errorf("[Admin] Failed to create artwork: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create artwork"})
	}

	log.Infof("[Admin] Created artwork %d (%s)", artwork.ID, artwork.Title)
	return c.Status(fiber.StatusCreated).JSON(artwork)
}

// HandleAdminListArtworks lists the full catalog including hidden and sold pieces
func HandleAdminListArtworks(c *fiber.Ctx) error {
	offset, limit := pagination(c)

	repo := repository.GetGlobalFactory().GetArtworkRepository()
	artworks, err := repo.List(offset, limit)
	if err != nil {
		log.Errorf("[Admin] Failed to list artworks: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load artworks"})
	}

	total, err := repo.Count()
	if err != nil {
		log.Errorf("[Admin] Failed to count artworks: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load artworks"})
	}

	return c.JSON(fiber.Map{"artworks": artworks, "total": total, "offset": offset, "limit": limit})
}

// HandleAdminUpdateArtwork updates catalog fields. Availability changes go
// through HandleAdminSetArtworkAvailability so reservations are not clobbered.
func HandleAdminUpdateArtwork(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid artwork id"})
	}

	repo := repository.GetGlobalFactory().GetArtworkRepository()

	artwork, err := repo.GetByID(uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "artwork not found"})
	}

	var req models.Artwork
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	artwork.Title = req.Title
	artwork.Description = req.Description
	artwork.Medium = req.Medium
	artwork.WidthCm = req.WidthCm
	artwork.HeightCm = req.HeightCm
	artwork.Year = req.Year
	artwork.PriceCents = req.PriceCents
	if req.Quantity > 0 {
		artwork.Quantity = req.Quantity
	}
	if req.ArtistID != 0 {
		artwork.ArtistID = req.ArtistID
	}

	if err := artwork.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := repo.Update(artwork); err != nil {
		log.Errorf("[Admin] Failed to update artwork %d: %v", artwork.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update artwork"})
	}

	return c.JSON(artwork)
}

// HandleAdminSetArtworkAvailability moves an artwork between availability
// states with a conditional update, so an in-flight checkout reservation wins
// over a concurrent admin edit.
func HandleAdminSetArtworkAvailability(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid artwork id"})
	}

	var req struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if !validAvailability(req.From) || !validAvailability(req.To) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown availability state"})
	}

	ok, err := repository.GetGlobalFactory().GetArtworkRepository().SetAvailability(uint(id), req.From, req.To)
	if err != nil {
		log.Errorf("[Admin] Failed to set availability for artwork %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update availability"})
	}
	if !ok {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "artwork is not in the expected state, reload and retry"})
	}

	return c.JSON(fiber.Map{"ok": true, "availability": req.To})
}

// HandleAdminDeleteArtwork soft-deletes an artwork from the catalog
func HandleAdminDeleteArtwork(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid artwork id"})
	}

	if err := repository.GetGlobalFactory().GetArtworkRepository().Delete(uint(id)); err != nil {
		log.Errorf("[Admin] Failed to delete artwork %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete artwork"})
	}

	log.Infof("[Admin] Deleted artwork %d", id)
	return c.JSON(fiber.Map{"ok": true})
}

// HandleAdminUploadArtworkImage stores the primary image for an artwork in the
// media bucket and records the object key on the catalog entry
func HandleAdminUploadArtworkImage(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid artwork id"})
	}

	repo := repository.GetGlobalFactory().GetArtworkRepository()
	artwork, err := repo.GetByID(uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "artwork not found"})
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing image file"})
	}
	if fileHeader.Size > maxArtworkImageSize {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "image exceeds 20 MB limit"})
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	contentType := s3media.ContentTypeForExt(ext)
	if !strings.HasPrefix(contentType, "image/") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unsupported image format"})
	}

	client, err := s3media.GetClient()
	if err != nil {
		log.Errorf("[Admin] Media storage unavailable: %v", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "media storage unavailable"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read upload"})
	}
	defer file.Close()

	objectKey := client.ObjectKey(artwork.UUID, ext, time.Now().UTC())

	result, err := client.Upload(c.Context(), objectKey, file, fileHeader.Size, contentType)
	if err != nil {
		log.Errorf("[Admin] Failed to upload image for artwork %d: %v", artwork.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "upload failed"})
	}

	// Replace the previous image after a successful upload
	oldKey := artwork.ImageKey
	artwork.ImageKey = result.ObjectKey
	if err := repo.Update(artwork); err != nil {
		log.Errorf("[Admin] Failed to record image key for artwork %d: %v", artwork.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save image reference"})
	}
	if oldKey != "" && oldKey != result.ObjectKey {
		if err := client.Delete(c.Context(), oldKey); err != nil {
			log.Errorf("[Admin] Failed to remove old image %s: %v", oldKey, err)
		}
	}

	return c.JSON(fiber.Map{
		"image_key": result.ObjectKey,
		"url":       result.PublicURL,
		"size":      result.Size,
	})
}

func validAvailability(s string) bool {
	switch s {
	case models.ArtworkAvailable, models.ArtworkReserved, models.ArtworkSold, models.ArtworkHidden:
		return true
	default:
		return false
	}
}
