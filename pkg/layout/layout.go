// Package layout adapts per-partition source tables into canonical records.
//
// Every partition's workbook has its own shape. A Layout describes that
// shape in YAML: which columns carry the person's details and where the
// items are. Two kinds are supported:
//
//   - columns: one column per item type, the header cell is the type and
//     the cell value is the item's identifier
//   - paired: explicit (type, value) column pairs, plus optional single
//     columns that take their type from the header
package layout

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/armory/pkg/constants"
	"github.com/agentstation/armory/pkg/errors"
)

// Kind is the shape of a partition's source table.
type Kind string

// Layout kinds.
const (
	Columns Kind = "columns"
	Paired  Kind = "paired"
)

// Layout describes one partition's source table.
type Layout struct {
	// Name is the partition name. It scopes mapping rules and is the group
	// of every record unless GroupColumn is set.
	Name string `yaml:"name" json:"name"`
	Kind Kind   `yaml:"kind" json:"kind"`

	// Input is the source table; defaults to Name.
	Input string `yaml:"input,omitempty" json:"input,omitempty"`
	// Output is the normalized table; defaults to Name + "_normalized".
	Output string `yaml:"output,omitempty" json:"output,omitempty"`

	GroupColumn     *Column `yaml:"group_column,omitempty" json:"group_column,omitempty"`
	SubgroupColumn  *Column `yaml:"subgroup_column,omitempty" json:"subgroup_column,omitempty"`
	EntityColumn    Column  `yaml:"entity_column" json:"entity_column"`
	LastNameColumn  *Column `yaml:"last_name_column,omitempty" json:"last_name_column,omitempty"`
	FirstNameColumn *Column `yaml:"first_name_column,omitempty" json:"first_name_column,omitempty"`

	// ItemsFrom is the first item column of a columns layout; every column
	// from it to the end of the header is an item type.
	ItemsFrom *Column `yaml:"items_from,omitempty" json:"items_from,omitempty"`

	Pairs   []Pair   `yaml:"pairs,omitempty" json:"pairs,omitempty"`
	Singles []Column `yaml:"singles,omitempty" json:"singles,omitempty"`

	// StopMarker ends the input at the first row whose first cell equals it.
	StopMarker string `yaml:"stop_marker,omitempty" json:"stop_marker,omitempty"`

	// ApplyMappings runs partition-scoped mapping rules; defaults to true.
	ApplyMappings *bool `yaml:"apply_mappings,omitempty" json:"apply_mappings,omitempty"`

	// Status is written on every record; defaults to "מנופק".
	Status string `yaml:"status,omitempty" json:"status,omitempty"`
}

// InputTable returns the source table name.
func (l Layout) InputTable() string {
	if l.Input != "" {
		return l.Input
	}
	return l.Name
}

// OutputTable returns the normalized table name.
func (l Layout) OutputTable() string {
	if l.Output != "" {
		return l.Output
	}
	return NormalizedTable(l.Name)
}

// MappingsEnabled reports whether mapping rules apply to this partition.
func (l Layout) MappingsEnabled() bool {
	return l.ApplyMappings == nil || *l.ApplyMappings
}

// RecordStatus returns the status written on records.
func (l Layout) RecordStatus() string {
	if l.Status != "" {
		return l.Status
	}
	return constants.DefaultStatus
}

// Validate checks the layout is usable.
func (l Layout) Validate() error {
	if l.Name == "" {
		return errors.NewValidationError("name", l.Name, "layout has no name")
	}
	switch l.Kind {
	case Columns:
		if l.ItemsFrom == nil {
			return errors.NewValidationError("items_from", nil, fmt.Sprintf("columns layout %q needs items_from", l.Name))
		}
	case Paired:
		if len(l.Pairs) == 0 && len(l.Singles) == 0 {
			return errors.NewValidationError("pairs", nil, fmt.Sprintf("paired layout %q needs pairs or singles", l.Name))
		}
	default:
		return errors.NewValidationError("kind", l.Kind, fmt.Sprintf("layout %q has unknown kind %q", l.Name, l.Kind))
	}
	return nil
}

// NormalizedTable returns the default normalized table of a partition.
func NormalizedTable(partition string) string {
	return partition + constants.NormalizedSuffix
}

// Config is the layouts file.
type Config struct {
	Partitions []Layout `yaml:"partitions" json:"partitions"`
}

// Names returns the partition names in file order.
func (c *Config) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, len(c.Partitions))
	for i, l := range c.Partitions {
		names[i] = l.Name
	}
	return names
}

// Get returns the named layout.
func (c *Config) Get(name string) (Layout, bool) {
	if c == nil {
		return Layout{}, false
	}
	for _, l := range c.Partitions {
		if l.Name == name {
			return l, true
		}
	}
	return Layout{}, false
}

// Validate checks every layout and that names are unique.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Partitions))
	for _, l := range c.Partitions {
		if err := l.Validate(); err != nil {
			return err
		}
		if seen[l.Name] {
			return errors.NewValidationError("name", l.Name, fmt.Sprintf("duplicate layout %q", l.Name))
		}
		seen[l.Name] = true
	}
	return nil
}

// Parse decodes and validates a layouts document.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.WrapParse("yaml", "", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads a layouts file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("layouts file", path)
		}
		return nil, errors.WrapIO("read", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading layouts from %s: %w", path, err)
	}
	return c, nil
}

// Marshal encodes the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Save writes the config to path.
func (c *Config) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, constants.FilePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

func col(c Column) *Column { return &c }

// Default returns the layouts of the four partitions the tool was first
// built for.
func Default() *Config {
	return &Config{Partitions: []Layout{
		{
			Name:            "פלוגה א",
			Kind:            Columns,
			SubgroupColumn:  col(1),
			EntityColumn:    2,
			LastNameColumn:  col(3),
			FirstNameColumn: col(4),
			ItemsFrom:       col(7),
		},
		{
			Name:            "פלוגה ב",
			Kind:            Columns,
			SubgroupColumn:  col(2),
			EntityColumn:    3,
			LastNameColumn:  col(4),
			FirstNameColumn: col(5),
			ItemsFrom:       col(7),
			ApplyMappings:   new(bool),
		},
		{
			Name:            "פלוגה ג",
			Kind:            Paired,
			SubgroupColumn:  col(1),
			EntityColumn:    2,
			LastNameColumn:  col(3),
			FirstNameColumn: col(4),
			Pairs:           []Pair{{6, 7}, {9, 10}, {11, 12}, {13, 14}, {15, 16}},
			Singles:         []Column{17, 18, 19, 20},
			StopMarker:      constants.DefaultStopMarker,
		},
		{
			Name:            "מסייעת",
			Kind:            Columns,
			SubgroupColumn:  col(0),
			EntityColumn:    1,
			LastNameColumn:  col(3),
			FirstNameColumn: col(4),
			ItemsFrom:       col(6),
			ApplyMappings:   new(bool),
		},
	}}
}
