// legacy-import copies leads from the legacy MySQL CRM into an organization.
//
// Usage:
//
//	legacy-import --user=<email> [--batch-size=500] [--env-file=.env]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"crm/auth"
	"crm/config"
	"crm/database"
	"crm/legacy"
	"crm/lifecycle"
	"crm/logger"
	"crm/repository"
	"crm/schemas"

	"github.com/spf13/cobra"
)

var importFlags struct {
	user      string
	batchSize int
	envFile   string
}

var rootCmd = &cobra.Command{
	Use:          "legacy-import",
	Short:        "Import leads from the legacy MySQL CRM",
	SilenceUsage: true,
	RunE:         runImport,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&importFlags.user, "user", "", "Email of the user the leads are created as (required)")
	f.IntVar(&importFlags.batchSize, "batch-size", legacy.DEFAULT_BATCH_SIZE, "Rows read per query")
	f.StringVar(&importFlags.envFile, "env-file", ".env", "Environment file")

	_ = rootCmd.MarkFlagRequired("user")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runImport(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(importFlags.envFile)
	if err != nil {
		return err
	}
	if cfg.MySQLURI == "" {
		return errors.New("MYSQL_URI is not set")
	}
	if err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log := logger.GetLogger("legacy-import")

	ctx := context.Background()
	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)
	repos := database.NewSet(client.Database(database.GetDB(cfg.Env)))

	user, err := lookupUser(ctx, repos.Users, importFlags.user)
	if err != nil {
		return err
	}

	mysqlDB, err := database.OpenMySQL(cfg.MySQLURI)
	if err != nil {
		return err
	}
	defer mysqlDB.Close()

	importer := &legacy.Importer{
		DB:        mysqlDB,
		Leads:     repos.Leads,
		Creator:   lifecycle.New(lifecycle.Deps{Repos: repos, Logger: log}),
		Log:       log,
		BatchSize: importFlags.batchSize,
	}
	report, err := importer.Run(ctx, user.Actor())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func lookupUser(ctx context.Context, users repository.Collection[schemas.User], email string) (*schemas.User, error) {
	user, err := users.FindOne(ctx, repository.Filter{"email": auth.NormalizeEmail(email)}, repository.IncludeDeleted)
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", email, err)
	}
	return user, nil
}
