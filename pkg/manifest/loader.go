package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/morezero/wallet-dapp/pkg/dispatcher"
)

const logPrefix = "manifest:loader"

// DefaultPaths are tried after any explicit path.
var DefaultPaths = []string{"config/manifest.yaml", "config/manifest.json", "manifest.yaml", "manifest.json"}

// Load reads the first existing manifest among paths, then DefaultPaths.
// Missing files are skipped; a file that exists but does not parse or
// validate is an error. With no file found the default manifest is used.
func Load(paths ...string) (*Manifest, error) {
	all := make([]string, 0, len(paths)+len(DefaultPaths))
	for _, p := range paths {
		if p != "" {
			all = append(all, p)
		}
	}
	all = append(all, DefaultPaths...)

	for _, p := range all {
		data, err := os.ReadFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s - read %s: %w", logPrefix, p, err)
		}
		m, err := Parse(data, filepath.Ext(p))
		if err != nil {
			return nil, fmt.Errorf("%s - %s: %w", logPrefix, p, err)
		}
		slog.Info(fmt.Sprintf("%s - Loaded manifest %s@%s from %s", logPrefix, m.Name, m.Version, p))
		return m, nil
	}

	slog.Info(fmt.Sprintf("%s - Using default manifest", logPrefix))
	return Default(), nil
}

// Parse decodes a manifest document and validates it. ext selects JSON
// (".json") or YAML (anything else).
func Parse(data []byte, ext string) (*Manifest, error) {
	var m Manifest
	if strings.EqualFold(ext, ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the version, the envelope constraint and every address.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("%s - name is required", logPrefix)
	}
	if _, err := semver.NewVersion(m.Version); err != nil {
		return fmt.Errorf("%s - version %q: %w", logPrefix, m.Version, err)
	}
	if m.Envelope != "" {
		c, err := semver.NewConstraint(m.Envelope)
		if err != nil {
			return fmt.Errorf("%s - envelope %q: %w", logPrefix, m.Envelope, err)
		}
		if !c.Check(semver.MustParse(dispatcher.EnvelopeVersion)) {
			return fmt.Errorf("%s - envelope %q does not accept version %s", logPrefix, m.Envelope, dispatcher.EnvelopeVersion)
		}
	}
	if _, _, err := m.Rollup(); err != nil {
		return err
	}
	if _, err := m.WalletPortals(); err != nil {
		return err
	}
	return nil
}

// Default returns the manifest used when no file is found.
func Default() *Manifest {
	return &Manifest{
		Name:        "wallet-dapp",
		Version:     "1.0.0",
		Description: "Wallet DApp with ether, ERC20 and ERC721 support",
		Envelope:    "^1.0.0",
	}
}
