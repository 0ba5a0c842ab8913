package cli

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/afero/zipfs"
	"github.com/spf13/cobra"

	"github.com/danieljhkim/overlaygen/internal/clock"
	"github.com/danieljhkim/overlaygen/internal/config"
	"github.com/danieljhkim/overlaygen/internal/engine"
	"github.com/danieljhkim/overlaygen/internal/fsops"
	"github.com/danieljhkim/overlaygen/internal/hash"
	"github.com/danieljhkim/overlaygen/internal/logging"
)

// newEngine creates a new engine with real implementations of all dependencies.
func newEngine() (*engine.Engine, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if logLevel != "" {
		settings.LogLevel = logLevel
	}

	paths := config.DefaultPaths(settings)
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	logger, err := logging.New(os.Stderr, logging.Options{
		Level:  settings.LogLevel,
		Format: settings.LogFormat,
		Prefix: "overlaygen",
	})
	if err != nil {
		return nil, err
	}

	fs := fsops.NewRealFS()
	return engine.New(fs, hash.NewSHA256Hasher(fs.Backing()), clock.RealClock{}, logger, paths.Work), nil
}

// requestFlags holds the flags shared by commands that build a request.
type requestFlags struct {
	requestFile   string
	basePath      string
	baseArchive   string
	generator     string
	destination   string
	resources     string
	identifiers   []string
	zones         []string
	nodeFiles     []string
	mergePrefixes []string
	pattern       string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.requestFile, "request", "r", "", "Request file (YAML, JSON or TOML)")
	flags.StringVar(&f.basePath, "base", "", "Base tree directory (inside the archive with --base-archive)")
	flags.StringVar(&f.baseArchive, "base-archive", "", "Zip archive holding the base tree")
	flags.StringVarP(&f.generator, "generator", "g", "", "Generator name (default: Default)")
	flags.StringVarP(&f.destination, "dest", "d", "", "Working tree directory (default: a fresh directory under the work root)")
	flags.StringVar(&f.resources, "resources", "", "Overlay resources directory or zip archive")
	flags.StringSliceVarP(&f.identifiers, "identifier", "i", nil, "Overlay identifier (repeatable)")
	flags.StringSliceVar(&f.zones, "zone", nil, "Zone whose entry list and node files are overlaid (repeatable)")
	flags.StringSliceVar(&f.nodeFiles, "node-file", nil, "Node file overlaid in every zone (repeatable)")
	flags.StringSliceVar(&f.mergePrefixes, "merge-prefix", nil, "Entry key prefix eligible for merging (repeatable)")
	flags.StringVar(&f.pattern, "entry-list-pattern", "", "Pattern of files merged instead of overwritten")
}

// load reads the request file, then applies the flags that were set.
func (f *requestFlags) load(cmd *cobra.Command) (*config.Request, error) {
	req, err := config.LoadRequest(f.requestFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	setString := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	setSlice := func(name string, dst *[]string, v []string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	setString("base", &req.BasePath, f.basePath)
	setString("base-archive", &req.BaseArchive, f.baseArchive)
	setString("generator", &req.Generator, f.generator)
	setString("dest", &req.Destination, f.destination)
	setString("resources", &req.Resources, f.resources)
	setString("entry-list-pattern", &req.EntryListPattern, f.pattern)
	setSlice("identifier", &req.Identifiers, f.identifiers)
	setSlice("zone", &req.Zones, f.zones)
	setSlice("node-file", &req.NodeFiles, f.nodeFiles)
	setSlice("merge-prefix", &req.MergePrefixes, f.mergePrefixes)

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", engine.ErrValidation, err)
	}
	return req, nil
}

// openBase returns the backing the base tree lives on, and a close func.
func openBase(archive string) (afero.Fs, func() error, error) {
	if archive == "" {
		return afero.NewReadOnlyFs(afero.NewOsFs()), func() error { return nil }, nil
	}
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open base archive %s: %w", archive, err)
	}
	return zipfs.New(&zr.Reader), zr.Close, nil
}

// archiveRoot makes a base path absolute inside an archive.
func archiveRoot(archive, basePath string) string {
	if archive == "" {
		return basePath
	}
	return "/" + strings.TrimPrefix(basePath, "/")
}

// verifyRequest converts request-file verification settings.
func verifyRequest(v config.VerifyConfig) *engine.VerifyRequest {
	if !v.Enabled() {
		return nil
	}
	req := &engine.VerifyRequest{
		EntryList:    v.EntryList,
		EntryMarkers: v.EntryMarkers,
	}
	for _, s := range v.Samples {
		req.Samples = append(req.Samples, engine.SampleCheck{Path: s.Path, Markers: s.Markers})
	}
	return req
}

// formatJSON formats a value as JSON.
func formatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FormatError formats an error for display.
func FormatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}

// outputJSON outputs a value as JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
