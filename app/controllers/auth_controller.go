package controllers

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/MarcoWillems/Galleria/app/models"
	"github.com/MarcoWillems/Galleria/app/repository"
	"github.com/MarcoWillems/Galleria/internal/pkg/session"
	"github.com/MarcoWillems/Galleria/internal/pkg/usercontext"
)

// RegisterRequest is the payload for creating an account
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=3,max=150"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest is the payload for logging in
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

var authValidator = validator.New()

// HandleRegister creates a new customer account
func HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := authValidator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if existing, err := userRepo.GetByEmail(email); err == nil && existing != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "email already registered"})
	}

	user, err := models.CreateUser(req.Name, email, req.Password)
	if err != nil {
		log.Errorf("[Auth] Failed to hash password: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "registration failed"})
	}
	if err := userRepo.Create(user); err != nil {
		log.Errorf("[Auth] Failed to create user: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "registration failed"})
	}

	log.Infof("[Auth] Registered user %d (%s)", user.ID, user.Email)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": user.ID, "name": user.Name, "email": user.Email})
}

// HandleLogin verifies credentials and establishes the session
func HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := authValidator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()

	user, err := userRepo.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil || !user.CheckPassword(req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid email or password"})
	}
	if user.Status != models.STATUS_ACTIVE {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "account disabled"})
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		log.Errorf("[Auth] Failed to load session: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "login failed"})
	}
	sess.Set(usercontext.KeyUserID, user.ID)
	sess.Set(usercontext.KeyUsername, user.Name)
	sess.Set(usercontext.KeyIsAdmin, user.Role == models.ROLE_ADMIN)
	if err := sess.Save(); err != nil {
		log.Errorf("[Auth] Failed to save session: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "login failed"})
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := userRepo.Update(user); err != nil {
		log.Errorf("[Auth] Failed to record login time for user %d: %v", user.ID, err)
	}

	log.Infof("[Auth] User %d logged in", user.ID)
	return c.JSON(fiber.Map{"id": user.ID, "name": user.Name, "is_admin": user.Role == models.ROLE_ADMIN})
}

// HandleLogout destroys the session
func HandleLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		if derr := sess.Destroy(); derr != nil {
			log.Errorf("[Auth] Failed to destroy session: %v", derr)
		}
	}
	return c.JSON(fiber.Map{"ok": true})
}

// HandleMe returns the current session's user context
func HandleMe(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}
	return c.JSON(userCtx)
}
