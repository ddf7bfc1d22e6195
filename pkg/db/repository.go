package db

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/morezero/wallet-dapp/pkg/wallet"
)

const repoLogPrefix = "db:repository"

// Repository stores wallet balances. It implements wallet.Store.
type Repository struct {
	pool *pgxpool.Pool
}

var _ wallet.Store = (*Repository)(nil)

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// LoadAccounts reads every stored account with its holdings.
func (r *Repository) LoadAccounts(ctx context.Context) (map[common.Address]*wallet.Balance, error) {
	slog.Debug(fmt.Sprintf("%s - LoadAccounts", repoLogPrefix))

	accounts, err := queryRows(ctx, r.pool,
		`SELECT address, ether::text, modified FROM wallet_accounts ORDER BY address`,
		func(row pgx.CollectableRow) (AccountRow, error) {
			var a AccountRow
			err := row.Scan(&a.Address, &a.Ether, &a.Modified)
			return a, err
		})
	if err != nil {
		return nil, fmt.Errorf("%s - LoadAccounts accounts: %w", repoLogPrefix, err)
	}

	erc20, err := queryRows(ctx, r.pool,
		`SELECT address, token, amount::text FROM wallet_erc20 ORDER BY address, token`,
		func(row pgx.CollectableRow) (ERC20Row, error) {
			var e ERC20Row
			err := row.Scan(&e.Address, &e.Token, &e.Amount)
			return e, err
		})
	if err != nil {
		return nil, fmt.Errorf("%s - LoadAccounts erc20: %w", repoLogPrefix, err)
	}

	erc721, err := queryRows(ctx, r.pool,
		`SELECT address, token, token_id::text FROM wallet_erc721 ORDER BY address, token, token_id`,
		func(row pgx.CollectableRow) (ERC721Row, error) {
			var e ERC721Row
			err := row.Scan(&e.Address, &e.Token, &e.TokenID)
			return e, err
		})
	if err != nil {
		return nil, fmt.Errorf("%s - LoadAccounts erc721: %w", repoLogPrefix, err)
	}

	return BuildBalances(accounts, erc20, erc721)
}

// SaveAccounts replaces the stored state of every given account in a single
// transaction. Accounts are written in address order so concurrent writers
// lock rows in the same sequence.
func (r *Repository) SaveAccounts(ctx context.Context, accounts map[common.Address]*wallet.Balance) error {
	if len(accounts) == 0 {
		return nil
	}
	addrs := make([]common.Address, 0, len(accounts))
	for addr := range accounts {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return bytes.Compare(addrs[i][:], addrs[j][:]) < 0 })

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s - begin: %w", repoLogPrefix, err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, addr := range addrs {
		rows := SplitBalance(addr, accounts[addr])
		slog.Debug(fmt.Sprintf("%s - SaveAccounts %s erc20=%d erc721=%d",
			repoLogPrefix, rows.Account.Address, len(rows.ERC20), len(rows.ERC721)))
		queueAccount(batch, rows, now)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("%s - SaveAccounts %d accounts: %w", repoLogPrefix, len(addrs), err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s - commit: %w", repoLogPrefix, err)
	}
	return nil
}

func queueAccount(batch *pgx.Batch, rows AccountRows, now time.Time) {
	batch.Queue(
		`INSERT INTO wallet_accounts (address, ether, created, modified)
		 VALUES ($1, CAST($2::text AS NUMERIC), $3, $3)
		 ON CONFLICT (address) DO UPDATE SET ether = EXCLUDED.ether, modified = EXCLUDED.modified`,
		rows.Account.Address, rows.Account.Ether, now)
	batch.Queue(`DELETE FROM wallet_erc20 WHERE address = $1`, rows.Account.Address)
	batch.Queue(`DELETE FROM wallet_erc721 WHERE address = $1`, rows.Account.Address)
	for _, e := range rows.ERC20 {
		batch.Queue(
			`INSERT INTO wallet_erc20 (address, token, amount) VALUES ($1, $2, CAST($3::text AS NUMERIC))`,
			e.Address, e.Token, e.Amount)
	}
	for _, e := range rows.ERC721 {
		batch.Queue(
			`INSERT INTO wallet_erc721 (address, token, token_id) VALUES ($1, $2, CAST($3::text AS NUMERIC))`,
			e.Address, e.Token, e.TokenID)
	}
}

// CountAccounts returns the number of stored accounts.
func (r *Repository) CountAccounts(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)::int FROM wallet_accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s - CountAccounts: %w", repoLogPrefix, err)
	}
	return n, nil
}

// Ping checks connectivity for readiness probes.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func queryRows[T any](ctx context.Context, pool *pgxpool.Pool, sql string, scan pgx.RowToFunc[T]) ([]T, error) {
	rows, err := pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scan)
}
