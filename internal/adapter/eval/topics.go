package eval

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Topic is one judged query. Relevant lists document labels; Grades may give
// graded gains for NDCG, and relevant labels without a grade count as 1. A
// grade takes precedence over Relevant for every metric.
type Topic struct {
	ID       string             `yaml:"id"`
	Text     string             `yaml:"text"`
	Relevant []string           `yaml:"relevant"`
	Grades   map[string]float64 `yaml:"grades"`
}

type topicsFile struct {
	Queries []Topic `yaml:"queries"`
}

// LoadTopics reads a topics file.
func LoadTopics(path string) ([]Topic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f topicsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing topics file %s: %w", path, err)
	}

	seen := make(map[string]bool, len(f.Queries))
	for i, q := range f.Queries {
		if q.ID == "" {
			q.ID = fmt.Sprintf("q%d", i+1)
			f.Queries[i].ID = q.ID
		}
		if seen[q.ID] {
			return nil, fmt.Errorf("topics file %s: duplicate query id %q", path, q.ID)
		}
		seen[q.ID] = true
	}
	return f.Queries, nil
}

// Gains returns the NDCG gain of every judged label. A grade overrides
// membership in Relevant.
func (t Topic) Gains() map[string]float64 {
	gains := make(map[string]float64, len(t.Relevant)+len(t.Grades))
	for _, label := range t.Relevant {
		gains[label] = 1
	}
	for label, g := range t.Grades {
		gains[label] = g
	}
	return gains
}

// RelevantLabels lists the labels with a positive gain: Relevant in order,
// then the remaining graded labels sorted. A label graded 0 is not relevant
// even when listed in Relevant.
func (t Topic) RelevantLabels() []string {
	gains := t.Gains()
	seen := make(map[string]bool, len(gains))
	var out []string
	for _, l := range t.Relevant {
		if gains[l] > 0 && !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	var graded []string
	for l, g := range t.Grades {
		if g > 0 && !seen[l] {
			graded = append(graded, l)
		}
	}
	sort.Strings(graded)
	return append(out, graded...)
}
