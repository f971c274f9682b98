package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

//go:embed definitions/*.yaml
var definitions embed.FS

// Loader reads the raw definition source of a layout version and model
type Loader interface {
	LoadDefinitions(version string, model Model) ([]byte, error)
}

// FSLoader reads definition files from a file system
type FSLoader struct {
	fsys fs.FS
}

// NewFSLoader creates a loader over fsys
func NewFSLoader(fsys fs.FS) *FSLoader {
	return &FSLoader{fsys: fsys}
}

// NewDirLoader creates a loader over a directory on disk
func NewDirLoader(dir string) *FSLoader {
	return NewFSLoader(os.DirFS(dir))
}

// EmbeddedLoader returns a loader over the definitions shipped with the package
func EmbeddedLoader() *FSLoader {
	sub, err := fs.Sub(definitions, "definitions")
	if err != nil {
		// the embed pattern guarantees the directory exists
		panic(err)
	}
	return NewFSLoader(sub)
}

// DefinitionFile returns the file name holding a version/model catalog
func DefinitionFile(version string, model Model) string {
	return fmt.Sprintf("wsnfe_%s_mod%s.yaml", version, model)
}

// LoadDefinitions implements Loader
func (l *FSLoader) LoadDefinitions(version string, model Model) ([]byte, error) {
	name := DefinitionFile(version, model)
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: no definitions for version %s model %s", ErrCatalogUnavailable, version, model)
		}
		return nil, fmt.Errorf("%w: reading %s: %w", ErrCatalogUnavailable, name, err)
	}
	return data, nil
}
