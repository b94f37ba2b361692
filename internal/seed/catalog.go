// Package seed loads the university catalog from YAML and upserts it into the store.
package seed

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cursada/planner-api/internal/models"
)

//go:embed default_catalog.yaml
var defaultCatalog string

// Catalog is the root of a seed file.
type Catalog struct {
	Universities []University `yaml:"universities"`
}

// University of the seed file.
type University struct {
	Name         string   `yaml:"name"`
	Abbreviation string   `yaml:"abbreviation"`
	Careers      []Career `yaml:"careers"`
}

// Career of the seed file.
type Career struct {
	Name     string    `yaml:"name"`
	Subjects []Subject `yaml:"subjects"`
}

// Subject of the seed file. Requires references other subjects of the same
// career by number.
type Subject struct {
	Number   int           `yaml:"number"`
	Name     string        `yaml:"name"`
	Level    string        `yaml:"level"`
	Duration string        `yaml:"duration"`
	Requires []Requirement `yaml:"requires"`
}

// Requirement is one prerequisite edge.
type Requirement struct {
	Number int    `yaml:"number"`
	Kind   string `yaml:"kind"`
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(strings.NewReader(defaultCatalog))
}

// LoadFile parses the catalog at path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes and validates a catalog.
func Parse(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var catalog Catalog
	if err := dec.Decode(&catalog); err != nil {
		if err == io.EOF {
			return &catalog, nil
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := catalog.normalize(); err != nil {
		return nil, err
	}
	return &catalog, nil
}

func (c *Catalog) normalize() error {
	for ui := range c.Universities {
		u := &c.Universities[ui]
		u.Name = strings.TrimSpace(u.Name)
		if u.Name == "" {
			return fmt.Errorf("university #%d: name is required", ui+1)
		}
		for ci := range u.Careers {
			career := &u.Careers[ci]
			career.Name = strings.TrimSpace(career.Name)
			if career.Name == "" {
				return fmt.Errorf("%s career #%d: name is required", u.Name, ci+1)
			}
			seen := make(map[int]bool, len(career.Subjects))
			for si := range career.Subjects {
				subject := &career.Subjects[si]
				subject.Name = strings.TrimSpace(subject.Name)
				if subject.Name == "" || subject.Number <= 0 {
					return fmt.Errorf("%s / %s subject #%d: name and positive number are required", u.Name, career.Name, si+1)
				}
				if seen[subject.Number] {
					return fmt.Errorf("%s / %s: duplicate subject number %d", u.Name, career.Name, subject.Number)
				}
				seen[subject.Number] = true
				if subject.Duration == "" {
					subject.Duration = string(models.DurationAnnual)
				}
				if !models.SubjectDuration(subject.Duration).Valid() {
					return fmt.Errorf("%s / %s subject %d: unknown duration %q", u.Name, career.Name, subject.Number, subject.Duration)
				}
				for _, req := range subject.Requires {
					if !models.PrerequisiteKind(req.Kind).Valid() {
						return fmt.Errorf("%s / %s subject %d: unknown prerequisite kind %q", u.Name, career.Name, subject.Number, req.Kind)
					}
				}
			}
		}
	}
	return nil
}
