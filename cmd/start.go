package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vonnieda/dimple/core/database"
	"github.com/vonnieda/dimple/core/loader"
	"github.com/vonnieda/dimple/core/logger"
	"github.com/vonnieda/dimple/core/middleware/auth"
	"github.com/vonnieda/dimple/core/middleware/rayid"
	"github.com/vonnieda/dimple/core/model"
	"github.com/vonnieda/dimple/feature/library"
	syncfeature "github.com/vonnieda/dimple/feature/sync"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the library server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return fmt.Errorf("failed to initialize: %w", err)
		}
		defer app.close()
		zap.ReplaceGlobals(app.logger)

		// Sanity-check the migrated schema before serving.
		var tables []string
		for _, kind := range model.Kinds() {
			proto, _ := model.New(kind)
			if t, ok := proto.(interface{ TableName() string }); ok {
				tables = append(tables, t.TableName())
			}
		}
		if err := database.VerifyTables(app.store.DB(), tables); err != nil {
			return err
		}

		fiberApp := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We log our own startup message
		})

		mgr := loader.NewManager()
		mgr.Register(library.NewFeature(app.librarian, app.store, app.cfg.Library, app.logger))
		mgr.Register(syncfeature.NewFeature(app.syncer, app.cfg.Sync.Enabled, app.logger))

		// RayID must be first so everything downstream can correlate.
		fiberApp.Use(rayid.New())

		fiberApp.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(app.logger, c)
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

		fiberApp.Use(auth.New(auth.Config{ApiKey: app.cfg.Server.ApiKey}))

		if err := mgr.LoadAll(fiberApp); err != nil {
			return fmt.Errorf("failed to load features: %w", err)
		}

		go func() {
			app.logger.Info("Starting server",
				zap.String("port", app.cfg.Server.Port),
				zap.String("actor", app.store.Actor()))
			if err := fiberApp.Listen(":" + app.cfg.Server.Port); err != nil {
				app.logger.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		app.logger.Info("Shutting down server...")
		return fiberApp.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
