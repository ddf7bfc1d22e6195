// Package wallet keeps the per-account asset ledger of the DApp: ether,
// ERC20 and ERC721 holdings credited by portal deposits and released through
// vouchers.
package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/morezero/wallet-dapp/pkg/output"
	"github.com/morezero/wallet-dapp/pkg/router"
)

const logPrefix = "wallet:wallet"

var (
	// ErrInsufficientBalance is reported when a debit exceeds the holding.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrTokenNotOwned is reported when an ERC721 id is not held by the account.
	ErrTokenNotOwned = errors.New("token not owned")
	// ErrPersist is reported when the store rejects a balance update.
	ErrPersist = errors.New("balances could not be saved")
)

// Store persists account balances. SaveAccounts receives the full new
// balance of every account touched by one input and must write all of them
// or none.
type Store interface {
	LoadAccounts(ctx context.Context) (map[common.Address]*Balance, error)
	SaveAccounts(ctx context.Context, accounts map[common.Address]*Balance) error
}

// Portals are the base-layer contracts allowed to relay deposits. A nil entry
// accepts deposits from any sender.
type Portals struct {
	Ether  *common.Address
	ERC20  *common.Address
	ERC721 *common.Address
}

// Options configures a Wallet.
type Options struct {
	Portals Portals
	Store   Store
}

// Wallet implements router.Ledger.
type Wallet struct {
	mu       sync.RWMutex
	accounts map[common.Address]*Balance
	portals  Portals
	store    Store
}

var _ router.Ledger = (*Wallet)(nil)

// New returns an empty wallet.
func New(opts Options) *Wallet {
	return &Wallet{
		accounts: make(map[common.Address]*Balance),
		portals:  opts.Portals,
		store:    opts.Store,
	}
}

// Load replaces the in-memory state with the accounts held by the store.
func (w *Wallet) Load(ctx context.Context) error {
	if w.store == nil {
		return nil
	}
	accounts, err := w.store.LoadAccounts(ctx)
	if err != nil {
		return fmt.Errorf("%s - load accounts: %w", logPrefix, err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.accounts = make(map[common.Address]*Balance, len(accounts))
	for addr, b := range accounts {
		w.accounts[addr] = b.clone()
	}
	slog.Info(fmt.Sprintf("%s - loaded %d accounts", logPrefix, len(accounts)))
	return nil
}

// Accounts returns the number of accounts with a balance entry.
func (w *Wallet) Accounts() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.accounts)
}

// BalanceGet returns a snapshot of account's holdings.
func (w *Wallet) BalanceGet(_ context.Context, account common.Address) router.Balance {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if b, ok := w.accounts[account]; ok {
		return b.clone()
	}
	return NewBalance()
}

// update applies fn to copies of the named accounts, persists every copy in
// one store call and only then swaps them in. Nothing changes if fn or the
// save fails.
func (w *Wallet) update(ctx context.Context, fn func(get func(common.Address) *Balance) error, accounts ...common.Address) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	staged := make(map[common.Address]*Balance, len(accounts))
	get := func(addr common.Address) *Balance {
		if b, ok := staged[addr]; ok {
			return b
		}
		b, ok := w.accounts[addr]
		if ok {
			b = b.clone()
		} else {
			b = NewBalance()
		}
		staged[addr] = b
		return b
	}
	for _, addr := range accounts {
		get(addr)
	}
	if err := fn(get); err != nil {
		return err
	}

	if w.store != nil {
		if err := w.store.SaveAccounts(ctx, staged); err != nil {
			return fmt.Errorf("%w: %d accounts: %w", ErrPersist, len(staged), err)
		}
	}
	for addr, b := range staged {
		w.accounts[addr] = b
	}
	return nil
}

func (w *Wallet) EtherWithdraw(ctx context.Context, rollup, sender common.Address, amount *big.Int) output.Output {
	payload, err := EncodeWithdrawEther(sender, amount)
	if err != nil {
		return failure(err)
	}
	err = w.update(ctx, func(get func(common.Address) *Balance) error {
		return debitEther(get(sender), amount)
	}, sender)
	if err != nil {
		return failure(err)
	}
	slog.Info(fmt.Sprintf("%s - ether withdraw %s by %s", logPrefix, amount, sender.Hex()))
	return output.Set{
		newNotice("ether_withdraw", map[string]string{"address": sender.Hex(), "amount": amount.String()}),
		output.Voucher{Destination: rollup, Payload: payload},
	}
}

func (w *Wallet) EtherTransfer(ctx context.Context, sender, to common.Address, amount *big.Int) output.Output {
	err := w.update(ctx, func(get func(common.Address) *Balance) error {
		if err := debitEther(get(sender), amount); err != nil {
			return err
		}
		b := get(to)
		b.SetEther(new(big.Int).Add(b.ether, amount))
		return nil
	}, sender, to)
	if err != nil {
		return failure(err)
	}
	return newNotice("ether_transfer", map[string]string{
		"from": sender.Hex(), "to": to.Hex(), "amount": amount.String(),
	})
}

func (w *Wallet) ERC20Withdraw(ctx context.Context, sender, token common.Address, amount *big.Int) output.Output {
	payload, err := EncodeERC20Transfer(sender, amount)
	if err != nil {
		return failure(err)
	}
	err = w.update(ctx, func(get func(common.Address) *Balance) error {
		return debitERC20(get(sender), token, amount)
	}, sender)
	if err != nil {
		return failure(err)
	}
	return output.Set{
		newNotice("erc20_withdraw", map[string]string{
			"address": sender.Hex(), "erc20": token.Hex(), "amount": amount.String(),
		}),
		output.Voucher{Destination: token, Payload: payload},
	}
}

func (w *Wallet) ERC20Transfer(ctx context.Context, sender, to, token common.Address, amount *big.Int) output.Output {
	err := w.update(ctx, func(get func(common.Address) *Balance) error {
		if err := debitERC20(get(sender), token, amount); err != nil {
			return err
		}
		b := get(to)
		b.SetERC20(token, new(big.Int).Add(b.erc20Of(token), amount))
		return nil
	}, sender, to)
	if err != nil {
		return failure(err)
	}
	return newNotice("erc20_transfer", map[string]string{
		"from": sender.Hex(), "to": to.Hex(), "erc20": token.Hex(), "amount": amount.String(),
	})
}

func (w *Wallet) ERC721Withdraw(ctx context.Context, rollup, sender, token common.Address, tokenID uint64) output.Output {
	payload, err := EncodeERC721SafeTransferFrom(rollup, sender, tokenID)
	if err != nil {
		return failure(err)
	}
	err = w.update(ctx, func(get func(common.Address) *Balance) error {
		if !get(sender).removeERC721(token, tokenID) {
			return fmt.Errorf("%w: %s #%d", ErrTokenNotOwned, token.Hex(), tokenID)
		}
		return nil
	}, sender)
	if err != nil {
		return failure(err)
	}
	return output.Set{
		newNotice("erc721_withdraw", map[string]any{
			"address": sender.Hex(), "erc721": token.Hex(), "token_id": tokenID,
		}),
		output.Voucher{Destination: token, Payload: payload},
	}
}

func (w *Wallet) ERC721Transfer(ctx context.Context, sender, to, token common.Address, tokenID uint64) output.Output {
	err := w.update(ctx, func(get func(common.Address) *Balance) error {
		if !get(sender).removeERC721(token, tokenID) {
			return fmt.Errorf("%w: %s #%d", ErrTokenNotOwned, token.Hex(), tokenID)
		}
		get(to).AddERC721(token, tokenID)
		return nil
	}, sender, to)
	if err != nil {
		return failure(err)
	}
	return newNotice("erc721_transfer", map[string]any{
		"from": sender.Hex(), "to": to.Hex(), "erc721": token.Hex(), "token_id": tokenID,
	})
}

func debitEther(b *Balance, amount *big.Int) error {
	if b.ether.Cmp(amount) < 0 {
		return fmt.Errorf("%w: ether %s < %s", ErrInsufficientBalance, b.ether, amount)
	}
	b.SetEther(new(big.Int).Sub(b.ether, amount))
	return nil
}

func debitERC20(b *Balance, token common.Address, amount *big.Int) error {
	held := b.erc20Of(token)
	if held.Cmp(amount) < 0 {
		return fmt.Errorf("%w: erc20 %s %s < %s", ErrInsufficientBalance, token.Hex(), held, amount)
	}
	b.SetERC20(token, new(big.Int).Sub(held, amount))
	return nil
}

type notice struct {
	Type    string `json:"type"`
	Content any    `json:"content"`
}

func newNotice(kind string, content any) output.Output {
	data, err := json.Marshal(notice{Type: kind, Content: content})
	if err != nil {
		return failure(err)
	}
	return output.Notice{Payload: string(data)}
}

// failure logs err and turns it into an Error output. Store causes stay in
// the log only.
func failure(err error) output.Output {
	slog.Warn(fmt.Sprintf("%s - %v", logPrefix, err))
	if errors.Is(err, ErrPersist) {
		return output.Error{Message: ErrPersist.Error()}
	}
	return output.Error{Message: err.Error()}
}
