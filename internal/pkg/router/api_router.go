package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MarcoWillems/Galleria/app/controllers"
	"github.com/MarcoWillems/Galleria/internal/pkg/middleware"
	"github.com/MarcoWillems/Galleria/internal/pkg/ratelimit"
)

type ApiRouter struct {
	limiter *ratelimit.Limiter
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	v1 := app.Group("/api/v1")

	// The webhook class gets its own budget so PayFast retries never compete
	// with browser traffic for admission.
	payfast := v1.Group("/payfast", middleware.RateLimit(h.limiter, ratelimit.RouteClassWebhook))
	payfast.Post("/notify", controllers.HandlePayFastNotify)
	payfast.Get("/notify", controllers.HandlePayFastNotifyHealth)

	api := v1.Group("", middleware.RateLimit(h.limiter, ratelimit.RouteClassAPI))

	// Public catalog
	api.Get("/artworks", controllers.HandleListArtworks)
	api.Get("/artworks/:uuid", controllers.HandleGetArtwork)
	api.Get("/artists", controllers.HandleListArtists)
	api.Get("/artists/:slug", controllers.HandleGetArtist)

	// Checkout and order lookup
	api.Post("/checkout", controllers.HandleCheckout)
	api.Get("/orders/:orderNo", controllers.HandleGetOrder)

	// Auth
	api.Post("/auth/register", controllers.HandleRegister)
	api.Post("/auth/login", controllers.HandleLogin)
	api.Post("/auth/logout", controllers.HandleLogout)
	api.Get("/auth/me", middleware.RequireAuth, controllers.HandleMe)

	// Admin
	admin := api.Group("/admin", middleware.RequireAdmin)
	admin.Get("/dashboard", controllers.HandleAdminDashboard)
	admin.Get("/orders", controllers.HandleAdminListOrders)
	admin.Get("/orders/:id", controllers.HandleAdminGetOrder)
	admin.Put("/orders/:id/status", controllers.HandleAdminUpdateOrderStatus)
	admin.Get("/artworks", controllers.HandleAdminListArtworks)
	admin.Post("/artworks", controllers.HandleAdminCreateArtwork)
	admin.Put("/artworks/:id", controllers.HandleAdminUpdateArtwork)
	admin.Put("/artworks/:id/availability", controllers.HandleAdminSetArtworkAvailability)
	admin.Delete("/artworks/:id", controllers.HandleAdminDeleteArtwork)
	admin.Post("/artworks/:id/image", controllers.HandleAdminUploadArtworkImage)
	admin.Post("/artists", controllers.HandleAdminCreateArtist)
	admin.Put("/artists/:id", controllers.HandleAdminUpdateArtist)
	admin.Delete("/artists/:id", controllers.HandleAdminDeleteArtist)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{limiter: ratelimit.New(ratelimit.ConfigsFromEnv())}
}
