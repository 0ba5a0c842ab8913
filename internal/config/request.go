package config

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/spf13/viper"

	"github.com/danieljhkim/overlaygen/internal/planner"
)

const (
	// EnvPrefix prefixes environment overrides of request keys.
	EnvPrefix = "OVERLAYGEN"

	// DefaultGenerator is the generator name used when none is configured.
	DefaultGenerator = "Default"

	// DefaultEntryListPattern selects the files merged instead of overwritten.
	DefaultEntryListPattern = planner.DefaultEntryListPattern

	entryListFile = "Entry.node.json"
)

// Request describes one generation request.
type Request struct {
	BasePath         string       `mapstructure:"base_path"`
	BaseArchive      string       `mapstructure:"base_archive"`
	Generator        string       `mapstructure:"generator"`
	Destination      string       `mapstructure:"destination"`
	Resources        string       `mapstructure:"resources"`
	Identifiers      []string     `mapstructure:"identifiers"`
	Zones            []string     `mapstructure:"zones"`
	NodeFiles        []string     `mapstructure:"node_files"`
	MergePrefixes    []string     `mapstructure:"merge_prefixes"`
	EntryListPattern string       `mapstructure:"entry_list_pattern"`
	Verify           VerifyConfig `mapstructure:"verify"`
}

// VerifyConfig nominates files to read back after an apply.
type VerifyConfig struct {
	EntryList    string         `mapstructure:"entry_list"`
	EntryMarkers []string       `mapstructure:"entry_markers"`
	Samples      []SampleConfig `mapstructure:"samples"`
}

// SampleConfig is a file expected to exist, optionally containing markers.
type SampleConfig struct {
	Path    string   `mapstructure:"path"`
	Markers []string `mapstructure:"markers"`
}

// Enabled reports whether any verification was configured.
func (v VerifyConfig) Enabled() bool {
	return v.EntryList != "" || len(v.Samples) > 0
}

var requestKeys = []string{
	"base_path",
	"base_archive",
	"generator",
	"destination",
	"resources",
	"identifiers",
	"zones",
	"node_files",
	"merge_prefixes",
	"entry_list_pattern",
}

// LoadRequest reads a request from path (YAML, JSON or TOML by extension).
// An empty path yields defaults plus environment overrides.
func LoadRequest(path string) (*Request, error) {
	v := viper.New()
	v.SetDefault("generator", DefaultGenerator)
	v.SetDefault("entry_list_pattern", DefaultEntryListPattern)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range requestKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read request file %s: %w", path, err)
		}
	}

	var req Request
	if err := v.Unmarshal(&req); err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}
	return &req, nil
}

// Validate checks that the request names everything an apply needs.
func (r *Request) Validate() error {
	var errs []error
	if r.BasePath == "" {
		errs = append(errs, errors.New("base_path is required"))
	}
	if r.Generator == "" {
		errs = append(errs, errors.New("generator is required"))
	}
	if r.Resources == "" {
		errs = append(errs, errors.New("resources is required"))
	}
	if len(r.NodeFiles) > 0 && len(r.Zones) == 0 {
		errs = append(errs, errors.New("node_files requires zones"))
	}
	return errors.Join(errs...)
}

// OverlayIdentifiers returns the explicit identifiers followed by the
// expansion of zones and node files. For every zone the entry list comes
// first, then each node file, as
// Server/World/<generator>/Zones/<zone>/Cave/Ores/<file>.
func (r *Request) OverlayIdentifiers() []string {
	ids := append([]string(nil), r.Identifiers...)
	for _, zone := range r.Zones {
		base := planner.IdentifierPrefix(r.Generator) + path.Join("Zones", zone, "Cave", "Ores")
		ids = append(ids, base+"/"+entryListFile)
		for _, f := range r.NodeFiles {
			ids = append(ids, base+"/"+f)
		}
	}
	return ids
}
