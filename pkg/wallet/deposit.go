package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"github.com/morezero/wallet-dapp/pkg/output"
	"github.com/morezero/wallet-dapp/pkg/router"
)

const depositLogPrefix = "wallet:deposit"

var (
	// ErrUnexpectedPortal is reported for deposits not relayed by the configured portal.
	ErrUnexpectedPortal = errors.New("deposit not sent by portal")
	// ErrShortPayload is reported for portal payloads shorter than their fixed header.
	ErrShortPayload = errors.New("deposit payload too short")
	// ErrTokenIDRange is reported for ERC721 ids wider than 64 bits.
	ErrTokenIDRange = errors.New("token id exceeds 64 bits")
)

const (
	addressLen = common.AddressLength
	wordLen    = 32
)

// Deposit is one decoded portal deposit.
type Deposit struct {
	Token   common.Address
	Sender  common.Address
	Amount  *big.Int
	TokenID uint64
	Data    []byte
}

// DecodeEtherDeposit decodes sender(20) || value(32) || data.
func DecodeEtherDeposit(payload []byte) (*Deposit, error) {
	if len(payload) < addressLen+wordLen {
		return nil, fmt.Errorf("%w: ether deposit has %d bytes", ErrShortPayload, len(payload))
	}
	return &Deposit{
		Sender: common.BytesToAddress(payload[:addressLen]),
		Amount: new(uint256.Int).SetBytes32(payload[addressLen : addressLen+wordLen]).ToBig(),
		Data:   payload[addressLen+wordLen:],
	}, nil
}

// DecodeERC20Deposit decodes token(20) || sender(20) || amount(32) || data.
func DecodeERC20Deposit(payload []byte) (*Deposit, error) {
	token, sender, word, data, err := splitTokenDeposit(payload, "erc20")
	if err != nil {
		return nil, err
	}
	return &Deposit{Token: token, Sender: sender, Amount: word.ToBig(), Data: data}, nil
}

// DecodeERC721Deposit decodes token(20) || sender(20) || tokenId(32) || data.
func DecodeERC721Deposit(payload []byte) (*Deposit, error) {
	token, sender, word, data, err := splitTokenDeposit(payload, "erc721")
	if err != nil {
		return nil, err
	}
	if !word.IsUint64() {
		return nil, fmt.Errorf("%w: %s", ErrTokenIDRange, word.Dec())
	}
	return &Deposit{Token: token, Sender: sender, TokenID: word.Uint64(), Data: data}, nil
}

func splitTokenDeposit(payload []byte, kind string) (token, sender common.Address, word *uint256.Int, data []byte, err error) {
	if len(payload) < 2*addressLen+wordLen {
		return token, sender, nil, nil, fmt.Errorf("%w: %s deposit has %d bytes", ErrShortPayload, kind, len(payload))
	}
	token = common.BytesToAddress(payload[:addressLen])
	sender = common.BytesToAddress(payload[addressLen : 2*addressLen])
	word = new(uint256.Int).SetBytes32(payload[2*addressLen : 2*addressLen+wordLen])
	return token, sender, word, payload[2*addressLen+wordLen:], nil
}

// portalPayload checks the relaying portal and returns the decoded payload bytes.
func portalPayload(raw json.RawMessage, portal *common.Address) ([]byte, error) {
	var req router.AdvanceRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", router.ErrMalformedRequest, err)
	}
	if portal != nil {
		sender, err := router.ParseAddress(strings.ToLower(req.Metadata.MsgSender))
		if err != nil || sender != *portal {
			return nil, fmt.Errorf("%w: got %q, want %s", ErrUnexpectedPortal, req.Metadata.MsgSender, portal.Hex())
		}
	}
	data, err := hexutil.Decode(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return data, nil
}

func (w *Wallet) EtherDepositProcess(ctx context.Context, raw json.RawMessage) output.Output {
	data, err := portalPayload(raw, w.portals.Ether)
	if err != nil {
		return failure(err)
	}
	dep, err := DecodeEtherDeposit(data)
	if err != nil {
		return failure(err)
	}
	err = w.update(ctx, func(get func(common.Address) *Balance) error {
		b := get(dep.Sender)
		b.SetEther(new(big.Int).Add(b.ether, dep.Amount))
		return nil
	}, dep.Sender)
	if err != nil {
		return failure(err)
	}
	slog.Info(fmt.Sprintf("%s - ether deposit %s to %s", depositLogPrefix, dep.Amount, dep.Sender.Hex()))
	return newNotice("ether_deposit", map[string]string{
		"address": dep.Sender.Hex(), "amount": dep.Amount.String(), "data": hexutil.Encode(dep.Data),
	})
}

func (w *Wallet) ERC20DepositProcess(ctx context.Context, raw json.RawMessage) output.Output {
	data, err := portalPayload(raw, w.portals.ERC20)
	if err != nil {
		return failure(err)
	}
	dep, err := DecodeERC20Deposit(data)
	if err != nil {
		return failure(err)
	}
	err = w.update(ctx, func(get func(common.Address) *Balance) error {
		b := get(dep.Sender)
		b.SetERC20(dep.Token, new(big.Int).Add(b.erc20Of(dep.Token), dep.Amount))
		return nil
	}, dep.Sender)
	if err != nil {
		return failure(err)
	}
	slog.Info(fmt.Sprintf("%s - erc20 deposit %s of %s to %s", depositLogPrefix, dep.Amount, dep.Token.Hex(), dep.Sender.Hex()))
	return newNotice("erc20_deposit", map[string]string{
		"address": dep.Sender.Hex(), "erc20": dep.Token.Hex(), "amount": dep.Amount.String(),
		"data": hexutil.Encode(dep.Data),
	})
}

func (w *Wallet) ERC721DepositProcess(ctx context.Context, raw json.RawMessage) output.Output {
	data, err := portalPayload(raw, w.portals.ERC721)
	if err != nil {
		return failure(err)
	}
	dep, err := DecodeERC721Deposit(data)
	if err != nil {
		return failure(err)
	}
	err = w.update(ctx, func(get func(common.Address) *Balance) error {
		get(dep.Sender).AddERC721(dep.Token, dep.TokenID)
		return nil
	}, dep.Sender)
	if err != nil {
		return failure(err)
	}
	slog.Info(fmt.Sprintf("%s - erc721 deposit %s #%d to %s", depositLogPrefix, dep.Token.Hex(), dep.TokenID, dep.Sender.Hex()))
	return newNotice("erc721_deposit", map[string]any{
		"address": dep.Sender.Hex(), "erc721": dep.Token.Hex(), "token_id": dep.TokenID,
		"data": hexutil.Encode(dep.Data),
	})
}
