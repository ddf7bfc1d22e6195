package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

const clearLogPrefix = "db:clear"

// ClearWallet removes every stored balance. The schema is preserved.
func ClearWallet(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info(fmt.Sprintf("%s - Clearing wallet tables", clearLogPrefix))

	_, err := pool.Exec(ctx, `TRUNCATE TABLE wallet_erc721, wallet_erc20, wallet_accounts CASCADE`)
	if err != nil {
		return fmt.Errorf("%s - truncate failed: %w", clearLogPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Wallet cleared", clearLogPrefix))
	return nil
}
