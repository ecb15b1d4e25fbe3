package classifier

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadKeywords reads keyword tables from a YAML file. Lists present in the
// file replace the built-in ones, missing or empty lists keep the defaults.
// An empty path returns the defaults.
func LoadKeywords(path string) (Keywords, error) {
	kw := DefaultKeywords()
	if path == "" {
		return kw, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Keywords{}, fmt.Errorf("reading keywords file: %w", err)
	}

	var override Keywords
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Keywords{}, fmt.Errorf("parsing keywords file: %w", err)
	}

	replace(&kw.Spanish, override.Spanish)
	replace(&kw.Explicit, override.Explicit)
	replace(&kw.Flirty, override.Flirty)
	replace(&kw.Request, override.Request)
	replace(&kw.Serious, override.Serious)
	replace(&kw.Offer, override.Offer)

	return kw, nil
}

func replace(dst *[]string, src []string) {
	if len(src) > 0 {
		*dst = src
	}
}
