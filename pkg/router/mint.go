package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/morezero/wallet-dapp/pkg/output"
)

const mintLogPrefix = "router:mint"

// MintNFT takes the request itself as image data and echoes its payload back
// as a notice. Minting proper is left to the ledger.
type MintNFT struct{}

func (MintNFT) Execute(_ context.Context, req json.RawMessage) (output.Output, error) {
	var body struct {
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(req, &body); err != nil {
		return nil, fmt.Errorf("%s - %w: %v", mintLogPrefix, ErrMalformedRequest, err)
	}
	slog.Debug(fmt.Sprintf("%s - image data %s", mintLogPrefix, string(req)))
	return output.Notice{Payload: rawString(body.Payload)}, nil
}

// rawString renders a JSON value the way string coercion would: strings are
// unquoted, null or absent becomes empty, anything else keeps its JSON text.
func rawString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
