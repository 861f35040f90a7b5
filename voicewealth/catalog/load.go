package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
)

// FormatVersion is the catalog file version this package understands.
const FormatVersion = 1

//go:embed messages.toml
var defaultCatalog []byte

type catalogFile struct {
	Version  int       `toml:"version"`
	Messages []Message `toml:"messages"`
}

// Default returns the catalog built into the binary.
func Default(opts ...Option) (*Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog), opts...)
}

// LoadFile reads a catalog file from path.
func LoadFile(path string, opts ...Option) (*Catalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer file.Close()

	c, err := Load(file, opts...)
	if err != nil {
		return nil, fmt.Errorf("catalog file %s: %w", path, err)
	}
	slog.Info("Loaded catalog", "file", path, "messages", c.Len())
	return c, nil
}

// Load decodes a TOML catalog from r and validates it.
func Load(r io.Reader, opts ...Option) (*Catalog, error) {
	var file catalogFile
	metadata, err := toml.NewDecoder(r).Decode(&file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	if undecoded := metadata.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("catalog contains undecoded fields: %v", undecoded)
	}

	if file.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported catalog version %d, want %d", file.Version, FormatVersion)
	}

	return New(file.Messages, opts...)
}
