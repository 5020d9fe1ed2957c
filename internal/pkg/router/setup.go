package router

import (
	"github.com/gofiber/fiber/v2"
)

// Router is implemented by each route group installer
type Router interface {
	InstallRouter(app *fiber.App)
}

func InstallRouter(app *fiber.App) {
	// Install HttpRouter first to initialize the session store and the global
	// UserContext middleware. Then register API routes which depend on that
	// middleware (auth and admin guards).
	setup(app, NewHttpRouter(), NewApiRouter())
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
