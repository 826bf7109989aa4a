// Cat-Corner/config/seed.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CategorySeed is one main category with its subcategories, as declared in
// the taxonomy seed file.
type CategorySeed struct {
	Name          string   `yaml:"name"`
	Slug          string   `yaml:"slug"`
	Subcategories []SubcategorySeed `yaml:"subcategories"`
}

type SubcategorySeed struct {
	Name string `yaml:"name"`
	Slug string `yaml:"slug"`
}

type seedFile struct {
	Categories []CategorySeed `yaml:"categories"`
}

// LoadCategorySeed parses the YAML taxonomy file used to populate the
// category tables on first run.
func LoadCategorySeed(path string) ([]CategorySeed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading category seed: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parsing category seed: %w", err)
	}
	for _, c := range f.Categories {
		if c.Name == "" || c.Slug == "" {
			return nil, fmt.Errorf("category seed entry missing name or slug")
		}
	}
	return f.Categories, nil
}
