// Package export serializes documents for download.
package export

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/tabnote/tabnote/internal/shared/types"
)

// Format names a supported export encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	TOML Format = "toml"
)

// Bundle is the exported shape: the document plus its hydrated
// reference lists, so an export is readable without the store.
type Bundle struct {
	Document    *types.Document    `json:"document" yaml:"document" toml:"document"`
	Documents   []types.RefSummary `json:"referenced_documents" yaml:"referenced_documents" toml:"referenced_documents"`
	Quotes      []types.RefSummary `json:"referenced_quotes" yaml:"referenced_quotes" toml:"referenced_quotes"`
	Attachments []types.RefSummary `json:"referenced_attachments" yaml:"referenced_attachments" toml:"referenced_attachments"`
}

// Encode serializes the bundle and returns the payload with its
// content type.
func Encode(bundle *Bundle, format Format) ([]byte, string, error) {
	switch format {
	case JSON, "":
		data, err := sonic.MarshalIndent(bundle, "", "  ")
		if err != nil {
			return nil, "", fmt.Errorf("json export failed: %w", err)
		}
		return data, "application/json", nil
	case YAML:
		data, err := yaml.Marshal(bundle)
		if err != nil {
			return nil, "", fmt.Errorf("yaml export failed: %w", err)
		}
		return data, "application/yaml", nil
	case TOML:
		data, err := toml.Marshal(bundle)
		if err != nil {
			return nil, "", fmt.Errorf("toml export failed: %w", err)
		}
		return data, "application/toml", nil
	default:
		return nil, "", fmt.Errorf("unknown export format %q", format)
	}
}
