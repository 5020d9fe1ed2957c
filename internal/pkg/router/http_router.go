package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MarcoWillems/Galleria/internal/pkg/middleware"
	"github.com/MarcoWillems/Galleria/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"name": "galleria", "status": "ok"})
	})
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
