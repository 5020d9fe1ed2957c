package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/MarcoWillems/Galleria/app/repository"
	"github.com/MarcoWillems/Galleria/internal/pkg/cache"
	"github.com/MarcoWillems/Galleria/internal/pkg/database"
	"github.com/MarcoWillems/Galleria/internal/pkg/env"
	"github.com/MarcoWillems/Galleria/internal/pkg/jobqueue"
	"github.com/MarcoWillems/Galleria/internal/pkg/router"
)

func main() {
	app := NewApplication()

	// Stop workers cleanly on SIGINT/SIGTERM so in-flight jobs finish
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		jobqueue.GetManager().Stop()
		_ = app.Shutdown()
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "8080")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	repository.InitializeFactory(database.GetDB())
	cache.SetupCache()

	// background workers (confirmation mails, analytics, counter flushing)
	jobqueue.GetManager().Start()

	// init fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 25 * 1024 * 1024, // artwork image uploads
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "admin"),
		},
	}), monitor.New())

	// ROUTER
	router.InstallRouter(app)

	return app
}
