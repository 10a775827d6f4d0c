package services

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultLexicon is the ordered list of neurodivergence-related terms searched
// for in descriptions and reviews.
var DefaultLexicon = []string{
	"neurodivergent", "neurodiversity", "ND",
	"autism", "autistic", "Asperger's", "ADHD",
	"attention deficit hyperactivity disorder",
	"sensory processing disorder", "SPD", "sensory sensitivities",
	"Tourette's", "special needs", "developmental disabilities",
	"anxiety", "fearful patients", "patient understanding",
	"calm dentist", "gentle dentist", "compassionate dentist",
	"pediatric autism", "children with special needs",
}

type lexiconFile struct {
	Keywords []string `yaml:"keywords"`
}

// LoadLexicon reads a YAML file of the form
//
//	keywords:
//	  - autism
//	  - ADHD
//
// An empty path yields DefaultLexicon.
func LoadLexicon(path string) ([]string, error) {
	if path == "" {
		return DefaultLexicon, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lexicon: read %q: %w", path, err)
	}

	var lf lexiconFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("lexicon: parse %q: %w", path, err)
	}

	terms := make([]string, 0, len(lf.Keywords))
	seen := make(map[string]struct{}, len(lf.Keywords))
	for _, k := range lf.Keywords {
		k = strings.TrimSpace(k)
		key := strings.ToLower(k)
		if k == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		terms = append(terms, k)
	}

	if len(terms) == 0 {
		return nil, fmt.Errorf("lexicon: %q has no keywords", path)
	}
	return terms, nil
}
