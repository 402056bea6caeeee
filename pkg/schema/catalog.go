package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// View declares what one dataset screen recognizes: its display title and the
// canonical field names to render, in column order. Fields absent from a
// record render as empty cells.
type View struct {
	Title   string   `yaml:"title" json:"title"`
	Columns []string `yaml:"columns" json:"columns"`
}

// Catalog carries the header rename table and the per-view field lists.
type Catalog struct {
	Renames map[string]string `yaml:"renames" json:"renames"`
	Views   map[string]View   `yaml:"views" json:"views"`
}

func Load(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultCatalog(), err
	}
	var cat Catalog
	if err := yaml.Unmarshal(content, &cat); err != nil {
		return Catalog{}, err
	}
	if len(cat.Views) == 0 {
		return Catalog{}, fmt.Errorf("schema catalog has no views")
	}
	if cat.Renames == nil {
		cat.Renames = DefaultCatalog().Renames
	}
	return cat, nil
}

func (c Catalog) View(kind string) (View, bool) {
	view, ok := c.Views[kind]
	return view, ok
}

func (c Catalog) Kinds() []string {
	kinds := make([]string, 0, len(c.Views))
	for k := range c.Views {
		kinds = append(kinds, k)
	}
	return kinds
}

func DefaultCatalog() Catalog {
	return Catalog{
		Renames: map[string]string{
			"age":         "age",
			"gender":      "gender",
			"dateofbirth": "dateofbirth",
			"contact":     "contact",
			"systolicbp":  "systolic",
			"diastolicbp": "diastolic",
			"spo2":        "spo2",
			"heartrate":   "heartrate",
			"temperature": "temperature",
			"results":     "results",
			"doctor":      "doctor",
			"name":        "name",
		},
		Views: map[string]View{
			"doctors": {
				Title:   "Doctor Directory",
				Columns: []string{"name", "gender", "age", "contact"},
			},
			"patients": {
				Title: "Patient Database",
				Columns: []string{
					"name", "age", "gender", "dateofbirth", "contact",
					"systolic", "diastolic", "spo2", "heartrate",
					"temperature", "results", "doctor",
				},
			},
		},
	}
}
