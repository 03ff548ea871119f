package network

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/GriffinCanCode/WalletShell/backend/internal/shared/types"
)

// File is the on-disk catalog layout
type File struct {
	Default  string                    `yaml:"default" toml:"default"`
	Networks []types.NetworkDescriptor `yaml:"networks" toml:"networks"`
}

// LoadFile reads a catalog from a .yaml, .yml or .toml file.
// The file's default wins over fallbackDefault.
func LoadFile(path, fallbackDefault string) (*Catalog, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read network file: %w", err)
	}
	return Parse(content, filepath.Ext(path), fallbackDefault)
}

// Parse decodes catalog content in the format named by ext
func Parse(content []byte, ext, fallbackDefault string) (*Catalog, error) {
	var f File
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(content, &f); err != nil {
			return nil, fmt.Errorf("failed to parse network yaml: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(content, &f); err != nil {
			return nil, fmt.Errorf("failed to parse network toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported network file format %q", ext)
	}

	def := f.Default
	if def == "" {
		def = fallbackDefault
	}
	return New(f.Networks, def)
}

// Load returns the catalog from path, or the built-in one when path is empty
func Load(path, defaultValue string) (*Catalog, error) {
	if path == "" {
		return New(DefaultNetworks(), defaultValue)
	}
	return LoadFile(path, defaultValue)
}
