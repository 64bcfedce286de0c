// text.go
package models

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Text is one stimulus of the reading tasks.
type Text struct {
	ID         string `yaml:"id" json:"id"`
	Authorship string `yaml:"authorship" json:"authorship"`
	Content    string `yaml:"content" json:"content"`
}

// Corpus holds every stimulus text, keyed by id for lookups.
type Corpus struct {
	Texts []Text `yaml:"texts" json:"texts"`

	byID map[string]Text
}

// LoadCorpus reads the texts file. JSON is a subset of YAML, so the
// example_texts.json used by the experiment page loads as is.
func LoadCorpus(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read texts file: %w", err)
	}

	var corpus Corpus
	if err := yaml.Unmarshal(data, &corpus); err != nil {
		return nil, fmt.Errorf("failed to unmarshal texts file: %w", err)
	}
	corpus.index()
	return &corpus, nil
}

// NewCorpus builds a corpus from texts already in memory.
func NewCorpus(texts ...Text) *Corpus {
	c := &Corpus{Texts: texts}
	c.index()
	return c
}

func (c *Corpus) index() {
	c.byID = make(map[string]Text, len(c.Texts))
	for _, t := range c.Texts {
		c.byID[strings.TrimSpace(t.ID)] = t
	}
}

// Lookup finds a text by id. A nil corpus has no texts.
func (c *Corpus) Lookup(id string) (Text, bool) {
	if c == nil {
		return Text{}, false
	}
	t, ok := c.byID[strings.TrimSpace(id)]
	return t, ok
}
