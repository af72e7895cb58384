// Command helferctl runs administrative tasks against the helferhub database.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dalemusser/helferhub/internal/app/bootstrap"
	auditstore "github.com/dalemusser/helferhub/internal/app/store/audit"
	"github.com/dalemusser/helferhub/internal/app/system/auditlog"
	"github.com/dalemusser/helferhub/internal/app/system/timeouts"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// App holds the dependencies shared by all commands.
type App struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
	audit  *auditlog.Logger
	ctx    context.Context
}

var (
	env       string
	mongoURI  string
	mongoDB   string
	auditMode string
	app       *App
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "helferctl",
		Short:         "helferctl - administer helferhub events",
		Long:          `Imports events, archives them, enables badges, creates admin accounts and shows the audit trail.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			closeApp()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "dev", "Environment (dev, test, prod)")
	rootCmd.PersistentFlags().StringVar(&mongoURI, "mongo-uri", envOr(bootstrap.EnvPrefix+"_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	rootCmd.PersistentFlags().StringVar(&mongoDB, "mongo-database", envOr(bootstrap.EnvPrefix+"_MONGO_DATABASE", "helferhub"), "MongoDB database name")
	rootCmd.PersistentFlags().StringVar(&auditMode, "audit", envOr(bootstrap.EnvPrefix+"_AUDIT_LOG_ADMIN", auditlog.ModeAll), "Audit destination for admin actions (all, db, log, off)")

	rootCmd.AddCommand(importEventCmd())
	rootCmd.AddCommand(archiveEventCmd())
	rootCmd.AddCommand(enableBadgesCmd())
	rootCmd.AddCommand(createUserCmd())
	rootCmd.AddCommand(auditCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// newLogger returns a production logger for prod and a development logger otherwise.
func newLogger(env string) (*zap.Logger, error) {
	if env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// initApp sets up logger and database.
func initApp() error {
	var err error
	app = &App{ctx: context.Background()}

	app.logger, err = newLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	timeouts.ConfigureFromEnv(bootstrap.EnvPrefix)

	app.logger.Debug("connecting to MongoDB", zap.String("database", mongoDB))
	app.client, err = mongo.Connect(app.ctx, options.Client().ApplyURI(mongoURI).SetAppName("helferctl"))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	ctx, cancel := context.WithTimeout(app.ctx, timeouts.Ping())
	defer cancel()
	if err := app.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to reach MongoDB: %w", err)
	}
	app.db = app.client.Database(mongoDB)

	cfg := auditlog.Config{Admin: auditMode}
	if err := cfg.Validate(); err != nil {
		return err
	}
	app.audit = auditlog.New(auditstore.New(app.db), app.logger, cfg)
	return nil
}

func closeApp() {
	if app == nil {
		return
	}
	if app.client != nil {
		_ = app.client.Disconnect(context.Background())
	}
	if app.logger != nil {
		_ = app.logger.Sync()
	}
}
