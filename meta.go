package harvest

import (
	"maps"
	"slices"
	"sort"

	"github.com/spf13/cast"
)

// Meta field names as they appear in job configuration metadata maps.
const (
	MetaTitle     = "title"
	MetaAuthor    = "author"
	MetaLanguages = "languages"
	MetaFileName  = "file_name"
	MetaMimeType  = "mime_type"
)

// Meta describes a file being handed to ingestion.
type Meta struct {
	CollectionID string
	ForeignID    string
	Title        string
	Author       string
	FileName     string
	MimeType     string
	Languages    []string
	ContentHash  string

	// Extra holds metadata keys without a dedicated field.
	Extra map[string]string

	// given records the known keys present in the source map, so an
	// explicitly empty value still overrides in Merge.
	given map[string]bool
}

// NewMeta builds Meta from a configuration metadata map. Known keys fill
// their fields; everything else is stringified into Extra.
func NewMeta(m map[string]any) (*Meta, error) {
	meta := &Meta{}
	for _, k := range sortedKeys(m) {
		v := m[k]
		switch k {
		case MetaTitle, MetaAuthor, MetaFileName, MetaMimeType, MetaLanguages:
			if meta.given == nil {
				meta.given = make(map[string]bool)
			}
			meta.given[k] = true
		}
		switch k {
		case MetaTitle:
			meta.Title = cast.ToString(v)
		case MetaAuthor:
			meta.Author = cast.ToString(v)
		case MetaFileName:
			meta.FileName = cast.ToString(v)
		case MetaMimeType:
			meta.MimeType = cast.ToString(v)
		case MetaLanguages:
			langs, err := cast.ToStringSliceE(v)
			if err != nil {
				return nil, Errorf(EINVALID, "meta %s: expected a list of strings", k)
			}
			meta.Languages = langs
		default:
			s, err := cast.ToStringE(v)
			if err != nil {
				return nil, WrapError(EINVALID, err, "meta %s", k)
			}
			if meta.Extra == nil {
				meta.Extra = make(map[string]string)
			}
			meta.Extra[k] = s
		}
	}
	return meta, nil
}

// Has reports whether the named field is set.
func (m *Meta) Has(field string) bool {
	switch field {
	case MetaTitle:
		return m.Title != ""
	case MetaAuthor:
		return m.Author != ""
	case MetaFileName:
		return m.FileName != ""
	case MetaMimeType:
		return m.MimeType != ""
	case MetaLanguages:
		return len(m.Languages) > 0
	}
	_, ok := m.Extra[field]
	return ok
}

// Clone returns a deep copy of m.
func (m *Meta) Clone() *Meta {
	c := *m
	c.Languages = slices.Clone(m.Languages)
	if m.Extra != nil {
		c.Extra = maps.Clone(m.Extra)
	}
	if m.given != nil {
		c.given = maps.Clone(m.given)
	}
	return &c
}

// Merge returns a copy of m where every field set in override wins. Keys
// present in override's source map win even when empty.
func (m *Meta) Merge(override *Meta) *Meta {
	c := m.Clone()
	if override == nil {
		return c
	}
	if override.CollectionID != "" {
		c.CollectionID = override.CollectionID
	}
	if override.ForeignID != "" {
		c.ForeignID = override.ForeignID
	}
	if override.Title != "" || override.given[MetaTitle] {
		c.Title = override.Title
	}
	if override.Author != "" || override.given[MetaAuthor] {
		c.Author = override.Author
	}
	if override.FileName != "" || override.given[MetaFileName] {
		c.FileName = override.FileName
	}
	if override.MimeType != "" || override.given[MetaMimeType] {
		c.MimeType = override.MimeType
	}
	if len(override.Languages) > 0 || override.given[MetaLanguages] {
		c.Languages = slices.Clone(override.Languages)
	}
	if override.ContentHash != "" {
		c.ContentHash = override.ContentHash
	}
	for k, v := range override.Extra {
		if c.Extra == nil {
			c.Extra = make(map[string]string)
		}
		c.Extra[k] = v
	}
	for k := range override.given {
		if c.given == nil {
			c.given = make(map[string]bool)
		}
		c.given[k] = true
	}
	return c
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
