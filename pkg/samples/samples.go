// Package samples holds the canned disclosure documents used to demo the
// workbench and to pre-fill the new-transformation prompt.
package samples

import (
	"embed"
	"fmt"
	"sort"

	"github.com/leapstack-labs/harmonize/pkg/harmonize"
)

//go:embed data/*
var dataFS embed.FS

// Sample is one canned input and the transform type it is meant for.
type Sample struct {
	Name          string
	Title         string
	File          string
	TransformType harmonize.TransformType
}

// Content returns the sample text.
func (s Sample) Content() string {
	return mustRead(s.File)
}

var registry = map[string]Sample{
	"ifrs": {
		Name:          "ifrs",
		Title:         "Sample IFRS JSON",
		File:          "data/ifrs.json",
		TransformType: harmonize.TypeIFRSToEFRAG,
	},
	"efrag": {
		Name:          "efrag",
		Title:         "Sample EFRAG JSON",
		File:          "data/efrag.json",
		TransformType: harmonize.TypeEFRAGToIFRS,
	},
	"csv": {
		Name:          "csv",
		Title:         "Sample CSV",
		File:          "data/cities.csv",
		TransformType: harmonize.TypeCityEmissions,
	},
}

// Get returns the named sample.
func Get(name string) (Sample, error) {
	s, ok := registry[name]
	if !ok {
		return Sample{}, fmt.Errorf("unknown sample %q (available: %v)", name, Names())
	}
	return s, nil
}

// Names returns the sample names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every sample in name order.
func All() []Sample {
	out := make([]Sample, 0, len(registry))
	for _, name := range Names() {
		out = append(out, registry[name])
	}
	return out
}

// SchemaA is the populated IFRS schema used as the source in the sample prompt.
func SchemaA() string {
	return mustRead("data/ifrs.json")
}

// SchemaB is the empty EFRAG template used as the target in the sample prompt.
func SchemaB() string {
	return mustRead("data/efrag_template.json")
}

// Prompt builds the demo comparison prompt from the canned schema pair.
func Prompt() string {
	return harmonize.BuildPrompt(SchemaA(), SchemaB())
}

func mustRead(name string) string {
	b, err := dataFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("samples: embedded file %s missing: %v", name, err))
	}
	return string(b)
}
