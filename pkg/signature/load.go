package signature

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk catalog layout.
//
//	devices:
//	  - name: Apple
//	    patterns: [iphone, ipad, "re:mac(intosh)?"]
//	    confidence: 0.9
//	    impossible:
//	      os: [Android]
//	browsers: [...]
//	os: [...]
type File struct {
	Devices  []EntrySpec `yaml:"devices"`
	Browsers []EntrySpec `yaml:"browsers"`
	OS       []EntrySpec `yaml:"os"`
}

// EntrySpec is the serialized form of an Entry.
type EntrySpec struct {
	Name       string              `yaml:"name"`
	Patterns   []string            `yaml:"patterns"`
	Confidence float64             `yaml:"confidence"`
	Common     map[string][]string `yaml:"common,omitempty"`
	Unusual    map[string][]string `yaml:"unusual,omitempty"`
	Impossible map[string][]string `yaml:"impossible,omitempty"`
	DeviceType string              `yaml:"deviceType,omitempty"`
	Models     []string            `yaml:"models,omitempty"`
	Vendor     string              `yaml:"vendor,omitempty"`
	Engine     string              `yaml:"engine,omitempty"`
	Versions   []Version           `yaml:"versions,omitempty"`
}

// Load reads a YAML catalog from path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a catalog from YAML bytes.
func Parse(data []byte) (*Catalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Join(ErrInvalidEntry, err)
	}
	entries, err := f.Entries()
	if err != nil {
		return nil, err
	}
	return New(entries...)
}

// Entries converts the file into typed entries.
func (f File) Entries() ([]Entry, error) {
	var (
		out  []Entry
		errs []error
	)
	groups := []struct {
		cat   Category
		specs []EntrySpec
	}{
		{CategoryDevice, f.Devices},
		{CategoryBrowser, f.Browsers},
		{CategoryOS, f.OS},
	}
	for _, g := range groups {
		for _, spec := range g.specs {
			e, err := spec.toEntry(g.cat)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			out = append(out, e)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// Export converts a snapshot back into the file layout.
func Export(s *Snapshot) File {
	var f File
	for _, e := range s.Entries(CategoryDevice) {
		f.Devices = append(f.Devices, specFromEntry(e))
	}
	for _, e := range s.Entries(CategoryBrowser) {
		f.Browsers = append(f.Browsers, specFromEntry(e))
	}
	for _, e := range s.Entries(CategoryOS) {
		f.OS = append(f.OS, specFromEntry(e))
	}
	return f
}

func (s EntrySpec) toEntry(cat Category) (Entry, error) {
	e := Entry{
		Name:           s.Name,
		Category:       cat,
		BaseConfidence: s.Confidence,
		DeviceType:     s.DeviceType,
		Models:         s.Models,
		Vendor:         s.Vendor,
		Engine:         s.Engine,
		Versions:       s.Versions,
	}
	for _, raw := range s.Patterns {
		m, err := ParsePattern(raw)
		if err != nil {
			return Entry{}, fmt.Errorf("%w %s/%s: %w", ErrInvalidEntry, cat, s.Name, err)
		}
		e.Patterns = append(e.Patterns, m)
	}

	var err error
	if e.Common, err = parseAssociations(s.Common); err != nil {
		return Entry{}, fmt.Errorf("%w %s/%s: %w", ErrInvalidEntry, cat, s.Name, err)
	}
	if e.Unusual, err = parseAssociations(s.Unusual); err != nil {
		return Entry{}, fmt.Errorf("%w %s/%s: %w", ErrInvalidEntry, cat, s.Name, err)
	}
	if e.Impossible, err = parseAssociations(s.Impossible); err != nil {
		return Entry{}, fmt.Errorf("%w %s/%s: %w", ErrInvalidEntry, cat, s.Name, err)
	}
	return e, nil
}

func parseAssociations(raw map[string][]string) (Associations, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(Associations, len(raw))
	for k, names := range raw {
		cat, err := ParseCategory(k)
		if err != nil {
			return nil, err
		}
		out[cat] = names
	}
	return out, nil
}

func specFromEntry(e Entry) EntrySpec {
	spec := EntrySpec{
		Name:       e.Name,
		Confidence: e.BaseConfidence,
		Common:     associationsToMap(e.Common),
		Unusual:    associationsToMap(e.Unusual),
		Impossible: associationsToMap(e.Impossible),
		DeviceType: e.DeviceType,
		Models:     e.Models,
		Vendor:     e.Vendor,
		Engine:     e.Engine,
		Versions:   e.Versions,
	}
	for _, p := range e.Patterns {
		spec.Patterns = append(spec.Patterns, p.String())
	}
	return spec
}

func associationsToMap(a Associations) map[string][]string {
	if len(a) == 0 {
		return nil
	}
	out := make(map[string][]string, len(a))
	for cat, names := range a {
		out[string(cat)] = names
	}
	return out
}
