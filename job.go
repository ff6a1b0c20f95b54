package harvest

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// JobConfig describes one database crawl.
type JobConfig struct {
	// URL is the database connection string with environment
	// variables already expanded.
	URL         string      `yaml:"url"`
	Collections Collections `yaml:"collections"`
}

// UnmarshalYAML rejects unknown keys and expands the URL.
func (c *JobConfig) UnmarshalYAML(node *yaml.Node) error {
	if err := checkKeys(node, "job", "url", "collections"); err != nil {
		return err
	}
	type plain JobConfig
	if err := node.Decode((*plain)(c)); err != nil {
		return err
	}
	c.URL = os.ExpandEnv(c.URL)
	return nil
}

// Validate returns an error if a required key is missing.
func (c *JobConfig) Validate() error {
	if c.URL == "" {
		return Errorf(EINVALID, "job url required")
	}
	if len(c.Collections) == 0 {
		return Errorf(EINVALID, "job requires at least one collection")
	}
	for _, coll := range c.Collections {
		if len(coll.Queries) == 0 {
			return Errorf(EINVALID, "collection %q requires at least one query", coll.Name)
		}
		for _, q := range coll.Queries {
			if len(q.Spec.TableNames()) == 0 {
				return Errorf(EINVALID, "query %q of collection %q requires a table", q.Name, coll.Name)
			}
		}
	}
	return nil
}

// CollectionConfig is a named collection and the queries that fill it.
type CollectionConfig struct {
	Name     string         `yaml:"-"`
	Label    string         `yaml:"label"`
	Category string         `yaml:"category"`
	Meta     map[string]any `yaml:"meta"`
	Queries  Queries        `yaml:"queries"`
}

// Collections is an ordered list decoded from a YAML mapping keyed by name.
type Collections []*CollectionConfig

// UnmarshalYAML decodes a mapping while keeping its key order.
func (cs *Collections) UnmarshalYAML(node *yaml.Node) error {
	if err := checkMapping(node, "collections"); err != nil {
		return err
	}
	out := make(Collections, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if err := checkKeys(v, fmt.Sprintf("collection %q", k.Value), "label", "category", "meta", "queries"); err != nil {
			return err
		}
		type plain CollectionConfig
		var cc plain
		if err := v.Decode(&cc); err != nil {
			return err
		}
		cc.Name = k.Value
		if cc.Label == "" {
			cc.Label = k.Value
		}
		out = append(out, (*CollectionConfig)(&cc))
	}
	*cs = out
	return nil
}

// NamedQuery is a query spec with its name from the job file.
type NamedQuery struct {
	Name string
	Spec QuerySpec
}

// Queries is an ordered list decoded from a YAML mapping keyed by name.
type Queries []*NamedQuery

// UnmarshalYAML decodes a mapping while keeping its key order.
func (qs *Queries) UnmarshalYAML(node *yaml.Node) error {
	if err := checkMapping(node, "queries"); err != nil {
		return err
	}
	out := make(Queries, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		q := &NamedQuery{Name: k.Value}
		if err := v.Decode(&q.Spec); err != nil {
			return fmt.Errorf("query %q: %w", k.Value, err)
		}
		out = append(out, q)
	}
	*qs = out
	return nil
}

// ParseJobConfig reads and validates a YAML job configuration.
func ParseJobConfig(r io.Reader) (*JobConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg JobConfig
	if err := dec.Decode(&cfg); err != nil {
		if err == io.EOF {
			return nil, Errorf(EINVALID, "job configuration is empty")
		}
		if ErrorCode(err) == EINVALID {
			return nil, err
		}
		return nil, WrapError(EINVALID, err, "invalid job configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadJobConfig reads and validates the job configuration file at path.
func LoadJobConfig(path string) (*JobConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open job configuration: %w", err)
	}
	defer f.Close()

	return ParseJobConfig(f)
}

// checkMapping requires a mapping without duplicate keys.
func checkMapping(node *yaml.Node, what string) error {
	if node.Kind != yaml.MappingNode {
		return Errorf(EINVALID, "%s: expected a mapping (line %d)", what, node.Line)
	}
	seen := make(map[string]bool, len(node.Content)/2)
	for i := 0; i < len(node.Content); i += 2 {
		k := node.Content[i]
		if seen[k.Value] {
			return Errorf(EINVALID, "%s: duplicate key %q (line %d)", what, k.Value, k.Line)
		}
		seen[k.Value] = true
	}
	return nil
}
