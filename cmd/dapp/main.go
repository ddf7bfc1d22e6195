// Package main is the entrypoint for the wallet DApp (binary name "dapp").
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/morezero/wallet-dapp/internal/config"
	"github.com/morezero/wallet-dapp/internal/server"
	"github.com/morezero/wallet-dapp/pkg/db"
	"github.com/morezero/wallet-dapp/pkg/manifest"
	"github.com/morezero/wallet-dapp/pkg/router"
	"github.com/morezero/wallet-dapp/pkg/wallet"
)

const defaultTestDB = "wallet_test"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dapp",
		Short: "Wallet DApp request router",
		Long: `Wallet DApp: routes rollup inputs to ether, ERC20 and ERC721 handlers.

Without a command the server is started (NATS, HTTP, optional Postgres ledger).

Environment: COMMS_URL, DATABASE_URL (optional for serve, required for
migrate/clear/ensure-db), MIGRATION_PATH, MANIFEST_FILE, DAPP_ADDRESS,
HTTP_PORT, LOG_LEVEL. See internal/config for the full list.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return server.Run()
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the DApp (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return server.Run()
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}
	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Run database migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withPool(cmd.Context(), func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
					migrationSQL, err := db.LoadMigrationDir(cfg.MigrationPath)
					if err != nil {
						return fmt.Errorf("load migrations: %w", err)
					}
					if err := db.RunMigrations(ctx, pool, migrationSQL); err != nil {
						return fmt.Errorf("run migrations: %w", err)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show migration status",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withPool(cmd.Context(), func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
					state, err := db.MigrationStatus(ctx, pool, cfg.MigrationPath)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), state)
					return nil
				})
			},
		},
	)

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Truncate all wallet tables; schema is preserved",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd.Context(), func(ctx context.Context, _ *config.Config, pool *pgxpool.Pool) error {
				if err := db.ClearWallet(ctx, pool); err != nil {
					return fmt.Errorf("clear wallet: %w", err)
				}
				return nil
			})
		},
	}

	ensureDBCmd := &cobra.Command{
		Use:   "ensure-db [name]",
		Short: "Create a database on the DATABASE_URL host if missing (default " + defaultTestDB + ")",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := defaultTestDB
			if len(args) == 1 && args[0] != "" {
				name = args[0]
			}
			return runEnsureDB(cmd, name)
		},
	}

	routesCmd := &cobra.Command{
		Use:   "routes",
		Short: "List the operations the router serves with the current manifest",
		Args:  cobra.NoArgs,
		RunE:  runRoutes,
	}

	root.AddCommand(serveCmd, migrateCmd, clearCmd, ensureDBCmd, routesCmd)
	return root
}

// withPool loads config, requires DATABASE_URL and hands fn an open pool.
func withPool(ctx context.Context, fn func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	return fn(ctx, cfg, pool)
}

func runEnsureDB(cmd *cobra.Command, name string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	targetURL, err := db.WithDatabaseName(cfg.DatabaseURL, name)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := db.EnsureDatabase(ctx, targetURL); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Database %q is ready.\n", name)
	return nil
}

func runRoutes(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	m, err := manifest.Load(cfg.ManifestFile)
	if err != nil {
		return err
	}
	r := router.New(wallet.New(wallet.Options{}))
	if err := m.Apply(r); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s@%s\n", m.Name, m.Version)
	for _, op := range r.Operations() {
		h, _ := r.Lookup(string(op))
		kind := "handler"
		switch h.(type) {
		case router.Unimplemented:
			kind = "reserved"
		case router.RollupAddressSetter:
			kind = "handler, needs dapp address"
		}
		fmt.Fprintf(out, "  %-18s %s\n", op, kind)
	}
	return nil
}
