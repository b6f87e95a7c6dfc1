package schema

import (
	"os"

	"github.com/goccy/go-yaml"

	"github.com/pluginsync/pluginsync/pkg/errors"
	"github.com/pluginsync/pluginsync/pkg/plugins"
)

// KeywordFile is the YAML layout of a keyword table:
//
//	categories:
//	  - id: tasks
//	    name: Task management
//	keywords:
//	  - keyword: todo
//	    categories: [tasks]
type KeywordFile struct {
	Categories []CategoryEntry `yaml:"categories"`
	Keywords   []KeywordEntry  `yaml:"keywords"`
}

// CategoryEntry is one row of the Categories table.
type CategoryEntry struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// KeywordEntry maps a keyword to category ids.
type KeywordEntry struct {
	Keyword    string   `yaml:"keyword"`
	Categories []string `yaml:"categories"`
}

// LoadKeywordFile parses a keyword table from YAML.
func LoadKeywordFile(path string) (*KeywordFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	var kf KeywordFile
	if err := yaml.Unmarshal(data, &kf); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return &kf, kf.Validate()
}

// Validate checks that every keyword references a declared category.
func (kf *KeywordFile) Validate() error {
	known := make(map[string]struct{}, len(kf.Categories))
	for _, c := range kf.Categories {
		if c.ID == "" {
			return errors.NewValidationError("categories.id", c.Name, "category id is required")
		}
		known[c.ID] = struct{}{}
	}
	for _, kw := range kf.Keywords {
		for _, id := range kw.Categories {
			if _, ok := known[id]; !ok {
				return errors.NewValidationError("keywords.categories", id, "unknown category for keyword "+kw.Keyword)
			}
		}
	}
	return nil
}

// Resolve converts the file into the model used by the matcher.
func (kf *KeywordFile) Resolve() []plugins.Keyword {
	names := make(map[string]string, len(kf.Categories))
	for _, c := range kf.Categories {
		names[c.ID] = c.Name
	}
	out := make([]plugins.Keyword, 0, len(kf.Keywords))
	for _, kw := range kf.Keywords {
		k := plugins.Keyword{Keyword: kw.Keyword}
		for _, id := range kw.Categories {
			k.Categories = append(k.Categories, plugins.CategoryRef{RowID: id, DisplayValue: names[id]})
		}
		out = append(out, k)
	}
	return out
}
