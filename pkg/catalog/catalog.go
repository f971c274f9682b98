package catalog

import (
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

var (
	// ErrServiceNotFound is returned when no entry exists for a key
	ErrServiceNotFound = errors.New("service not found")
	// ErrCatalogUnavailable is returned when definitions cannot be loaded or parsed
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

// Catalog is an immutable service lookup table
type Catalog struct {
	version string
	entries map[Key]Entry
}

// definitionFile is the on-disk layout of a definition source
type definitionFile struct {
	Version       string                                 `yaml:"version"`
	Model         string                                 `yaml:"model"`
	Authorizers   map[string]map[string]map[string]Entry `yaml:"authorizers"`
	Jurisdictions map[string]jurisdictionDefinition      `yaml:"jurisdictions"`
}

type jurisdictionDefinition struct {
	Authorizer string                      `yaml:"authorizer"`
	Services   map[string]map[string]Entry `yaml:"services"`
}

// Load builds a catalog of one layout version for the given models
func Load(loader Loader, version string, models ...Model) (*Catalog, error) {
	if len(models) == 0 {
		models = []Model{ModelNFe, ModelNFCe}
	}

	c := &Catalog{
		version: version,
		entries: make(map[Key]Entry),
	}
	for _, model := range models {
		data, err := loader.LoadDefinitions(version, model)
		if err != nil {
			if errors.Is(err, ErrCatalogUnavailable) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
		}
		if err := c.add(data, version, model); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) add(data []byte, version string, model Model) error {
	var def definitionFile
	if err := yaml.Unmarshal(data, &def); err != nil {
		return fmt.Errorf("%w: parsing definitions: %w", ErrCatalogUnavailable, err)
	}
	if def.Version != version || Model(def.Model) != model {
		return fmt.Errorf("%w: definitions declare version %s model %s, expected %s model %s",
			ErrCatalogUnavailable, def.Version, def.Model, version, model)
	}

	for code, jd := range def.Jurisdictions {
		table, ok := def.Authorizers[jd.Authorizer]
		if !ok {
			return fmt.Errorf("%w: jurisdiction %s references unknown authorizer %q",
				ErrCatalogUnavailable, code, jd.Authorizer)
		}
		if err := c.addTable(code, model, table); err != nil {
			return err
		}
		// jurisdiction-specific services take precedence
		if err := c.addTable(code, model, jd.Services); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) addTable(code string, model Model, table map[string]map[string]Entry) error {
	for envName, services := range table {
		env, err := ParseEnvironment(envName)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
		}
		for service, entry := range services {
			if entry.URL == "" {
				return fmt.Errorf("%w: %s/%s/%s has no url", ErrCatalogUnavailable, service, code, envName)
			}
			if entry.Version == "" {
				entry.Version = c.version
			}
			c.entries[Key{Service: service, Jurisdiction: code, Environment: env, Model: model}] = entry
		}
	}
	return nil
}

// Lookup returns the entry for a service. The jurisdiction may be a state
// abbreviation or a contingency code.
func (c *Catalog) Lookup(service, jurisdiction string, env Environment, model Model) (Entry, error) {
	key := Key{Service: service, Jurisdiction: jurisdiction, Environment: env, Model: model}
	entry, ok := c.entries[key]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrServiceNotFound, key)
	}
	return entry, nil
}

// Version returns the layout version the catalog was loaded for
func (c *Catalog) Version() string {
	return c.version
}

// Len returns the number of entries
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Jurisdictions lists the keys known for a model, sorted
func (c *Catalog) Jurisdictions(model Model) []string {
	seen := make(map[string]bool)
	for k := range c.entries {
		if k.Model == model {
			seen[k.Jurisdiction] = true
		}
	}
	out := make([]string, 0, len(seen))
	for j := range seen {
		out = append(out, j)
	}
	sort.Strings(out)
	return out
}
