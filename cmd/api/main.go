package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/fiscal-engine/internal/bootstrap"
	httpRouter "github.com/jhoicas/fiscal-engine/internal/interfaces/http"
	"github.com/jhoicas/fiscal-engine/pkg/config"
	"github.com/jhoicas/fiscal-engine/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
		Emitter: cfg.Fiscal.EmitterNIF,
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("configuración fiscal inválida")
	}
	log.Info().
		Str("env", cfg.App.Env).
		Str("storage", cfg.Fiscal.Storage).
		Str("series", cfg.Fiscal.InvoiceSeries).
		Msg("iniciando aplicación")

	ctx := context.Background()
	backend, err := bootstrap.OpenBackend(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacenamiento")
	}
	defer backend.Close()

	svc, err := bootstrap.NewServices(cfg.Fiscal, backend, nil, log.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar motor fiscal")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30, // exportaciones SAF-T de períodos largos
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Fiscal Engine API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := backend.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "down", "storage": backend.Kind})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": backend.Kind})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Documents:    svc.Documents,
		Signer:       svc.Signer,
		Credits:      svc.Credits,
		Verification: svc.Verification,
		Exporter:     svc.Exporter,
		JWTSecret:    cfg.JWT.Secret,
		JWTIssuer:    cfg.JWT.Issuer,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
