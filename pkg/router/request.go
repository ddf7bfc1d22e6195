package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const requestLogPrefix = "router:request"

var (
	// ErrMalformedRequest wraps every decode failure of an advance request.
	ErrMalformedRequest = errors.New("malformed advance request")
	// ErrInvalidArgument wraps failures converting an args field.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Metadata is the rollup-provided metadata of an advance request.
type Metadata struct {
	MsgSender   string `json:"msg_sender"`
	Timestamp   int64  `json:"timestamp"`
	EpochIndex  uint64 `json:"epoch_index,omitempty"`
	InputIndex  uint64 `json:"input_index,omitempty"`
	BlockNumber uint64 `json:"block_number,omitempty"`
}

// AdvanceRequest is the raw advance-state input as received from the rollup.
type AdvanceRequest struct {
	Metadata Metadata `json:"metadata"`
	Payload  string   `json:"payload"`
}

// ParsedRequest holds the decoded sender, timestamp and args of one advance request.
type ParsedRequest struct {
	Sender    common.Address
	Timestamp time.Time
	Args      Args
}

// Args is the undecoded args object of an advance payload.
type Args map[string]json.RawMessage

// DecodeAdvance decodes the request envelope without touching the payload.
func DecodeAdvance(raw json.RawMessage) (*AdvanceRequest, error) {
	var req AdvanceRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("%s - %w: %v", requestLogPrefix, ErrMalformedRequest, err)
	}
	return &req, nil
}

// ParseAdvance decodes sender, timestamp and the args object carried in the
// hex-encoded JSON payload of an advance request.
func ParseAdvance(raw json.RawMessage) (*ParsedRequest, error) {
	req, err := DecodeAdvance(raw)
	if err != nil {
		return nil, err
	}

	sender, err := ParseAddress(req.Metadata.MsgSender)
	if err != nil {
		return nil, fmt.Errorf("%s - %w: msg_sender: %v", requestLogPrefix, ErrMalformedRequest, err)
	}

	data, err := hexutil.Decode(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("%s - %w: payload: %v", requestLogPrefix, ErrMalformedRequest, err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%s - %w: payload is not valid UTF-8", requestLogPrefix, ErrMalformedRequest)
	}

	var body struct {
		Args Args `json:"args"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("%s - %w: payload: %v", requestLogPrefix, ErrMalformedRequest, err)
	}
	if body.Args == nil {
		return nil, fmt.Errorf("%s - %w: payload has no args", requestLogPrefix, ErrMalformedRequest)
	}

	return &ParsedRequest{
		Sender:    sender,
		Timestamp: time.Unix(req.Metadata.Timestamp, 0).UTC(),
		Args:      body.Args,
	}, nil
}

// String returns the args field key as a string.
func (a Args) String(key string) (string, error) {
	raw, ok := a[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %q", ErrInvalidArgument, key)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: %q is not a string", ErrInvalidArgument, key)
	}
	return s, nil
}

// Address lowercases and validates the address stored under key.
func (a Args) Address(key string) (common.Address, error) {
	s, err := a.String(key)
	if err != nil {
		return common.Address{}, err
	}
	addr, err := ParseAddress(strings.ToLower(s))
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %q: %v", ErrInvalidArgument, key, err)
	}
	return addr, nil
}

// Amount converts the decimal (or 0x hex) string or JSON number under key to a
// non-negative arbitrary-precision integer.
func (a Args) Amount(key string) (*big.Int, error) {
	s, err := a.numeric(key)
	if err != nil {
		return nil, err
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s, base = s[2:], 16
	}
	n, ok := new(big.Int).SetString(s, base)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q is not a non-negative integer", ErrInvalidArgument, key)
	}
	return n, nil
}

// TokenID converts the decimal string or JSON number under key to a token id.
func (a Args) TokenID(key string) (uint64, error) {
	s, err := a.numeric(key)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a token id", ErrInvalidArgument, key)
	}
	return id, nil
}

// numeric returns the textual form of a string or number field.
func (a Args) numeric(key string) (string, error) {
	raw, ok := a[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %q", ErrInvalidArgument, key)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("%w: %q is not numeric", ErrInvalidArgument, key)
	}
	return n.String(), nil
}
