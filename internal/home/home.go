package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the formfield home directory.
	DefaultDirName = ".formfield"

	// DataDirName is the subdirectory for uploaded documents.
	DataDirName = "data"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// ResultsDBName is the durable analysis-result database file.
	ResultsDBName = "results.db"
)

// Dir represents the formfield home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.formfield).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// DataPath returns the path to the data directory.
func (d *Dir) DataPath() string {
	return filepath.Join(d.path, DataDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// ResultsDBPath returns the path to the analysis-result database.
func (d *Dir) ResultsDBPath() string {
	return filepath.Join(d.path, ResultsDBName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	// Create data directory (this also creates the parent)
	if err := os.MkdirAll(d.DataPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// DocumentDir returns the directory holding an uploaded document's bytes.
func (d *Dir) DocumentDir(fingerprint string) string {
	return filepath.Join(d.DataPath(), fingerprint)
}

// DocumentPath returns the stored path of an uploaded document.
func (d *Dir) DocumentPath(fingerprint, fileName string) string {
	return filepath.Join(d.DocumentDir(fingerprint), fileName)
}

// EnsureDocumentDir creates the directory for an uploaded document.
func (d *Dir) EnsureDocumentDir(fingerprint string) error {
	return os.MkdirAll(d.DocumentDir(fingerprint), 0o755)
}
