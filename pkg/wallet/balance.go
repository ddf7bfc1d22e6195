package wallet

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// Balance holds everything one account owns inside the DApp.
type Balance struct {
	ether  *big.Int
	erc20  map[common.Address]*big.Int
	erc721 map[common.Address]map[uint64]struct{}
}

// NewBalance returns an empty balance.
func NewBalance() *Balance {
	return &Balance{
		ether:  new(big.Int),
		erc20:  make(map[common.Address]*big.Int),
		erc721: make(map[common.Address]map[uint64]struct{}),
	}
}

// Ether returns a copy of the ether balance.
func (b *Balance) Ether() *big.Int {
	return new(big.Int).Set(b.ether)
}

// ListERC20 returns a copy of the ERC20 balances keyed by token.
func (b *Balance) ListERC20() map[common.Address]*big.Int {
	out := make(map[common.Address]*big.Int, len(b.erc20))
	for token, amount := range b.erc20 {
		out[token] = new(big.Int).Set(amount)
	}
	return out
}

// ListERC721 returns the owned token ids per collection, ascending.
func (b *Balance) ListERC721() map[common.Address][]uint64 {
	out := make(map[common.Address][]uint64, len(b.erc721))
	for token, ids := range b.erc721 {
		list := make([]uint64, 0, len(ids))
		for id := range ids {
			list = append(list, id)
		}
		sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
		out[token] = list
	}
	return out
}

// SetEther replaces the ether balance.
func (b *Balance) SetEther(amount *big.Int) {
	b.ether = new(big.Int).Set(amount)
}

// SetERC20 replaces the balance of one token. A zero amount removes it.
func (b *Balance) SetERC20(token common.Address, amount *big.Int) {
	if amount.Sign() == 0 {
		delete(b.erc20, token)
		return
	}
	b.erc20[token] = new(big.Int).Set(amount)
}

// AddERC721 records ownership of id in collection token.
func (b *Balance) AddERC721(token common.Address, id uint64) {
	ids, ok := b.erc721[token]
	if !ok {
		ids = make(map[uint64]struct{})
		b.erc721[token] = ids
	}
	ids[id] = struct{}{}
}

// IsEmpty reports whether the balance holds nothing.
func (b *Balance) IsEmpty() bool {
	return b.ether.Sign() == 0 && len(b.erc20) == 0 && len(b.erc721) == 0
}

func (b *Balance) erc20Of(token common.Address) *big.Int {
	if amount, ok := b.erc20[token]; ok {
		return amount
	}
	return new(big.Int)
}

func (b *Balance) removeERC721(token common.Address, id uint64) bool {
	ids, ok := b.erc721[token]
	if !ok {
		return false
	}
	if _, ok := ids[id]; !ok {
		return false
	}
	delete(ids, id)
	if len(ids) == 0 {
		delete(b.erc721, token)
	}
	return true
}

func (b *Balance) clone() *Balance {
	c := NewBalance()
	c.ether.Set(b.ether)
	for token, amount := range b.erc20 {
		c.erc20[token] = new(big.Int).Set(amount)
	}
	for token, ids := range b.erc721 {
		set := make(map[uint64]struct{}, len(ids))
		for id := range ids {
			set[id] = struct{}{}
		}
		c.erc721[token] = set
	}
	return c
}
