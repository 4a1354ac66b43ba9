package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"tablesync/core/logger"
	"tablesync/core/middleware/auth"
	"tablesync/core/middleware/rayid"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the sync trigger server",
	Long: `Starts the HTTP server exposing on-demand sync triggers. Cron remains
the primary scheduler; the server exists for manual reruns and health checks.`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := bootstrap()
		if err != nil {
			log.Fatalf("Failed to initialize: %v", err)
		}
		defer a.log.Sync()
		logg := a.log

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
		})

		// RayID must be first to trace everything.
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Health stays public; everything else needs the API key.
		app.Get("/healthz", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"status": "ok", "units": a.runner.Names()})
		})

		app.Use(auth.New(auth.Config{ApiKey: a.cfg.Server.ApiKey}))

		app.Post("/sync/:unit", func(c *fiber.Ctx) error {
			name := c.Params("unit")
			l := logger.WithRayID(logg, c)

			res, err := a.runner.Run(c.UserContext(), name)
			if err != nil && res == nil {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
			}
			if err != nil {
				l.Error("triggered run failed", zap.String("unit", name), zap.Error(err))
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error":   err.Error(),
					"run_id":  res.RunID,
					"summary": res.Summary,
				})
			}
			return c.JSON(fiber.Map{
				"run_id":  res.RunID,
				"unit":    res.Unit,
				"mode":    res.Mode,
				"summary": res.Summary,
			})
		})

		app.Post("/sync", func(c *fiber.Ctx) error {
			results, err := a.runner.RunAll(c.UserContext())
			summaries := make([]fiber.Map, 0, len(results))
			for _, res := range results {
				summaries = append(summaries, fiber.Map{
					"run_id":  res.RunID,
					"unit":    res.Unit,
					"aborted": res.Aborted,
					"summary": res.Summary,
				})
			}
			status := fiber.StatusOK
			body := fiber.Map{"runs": summaries}
			if err != nil {
				status = fiber.StatusInternalServerError
				body["error"] = err.Error()
			}
			return c.Status(status).JSON(body)
		})

		go func() {
			logg.Info("Starting server", zap.String("port", a.cfg.Server.Port))
			if err := app.Listen(":" + a.cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// Graceful shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
