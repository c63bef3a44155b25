// Package example holds the curated few-shot library of (question, SQL,
// note) triples. The library is a passive source: relevance filtering is
// the assembly engine's job.
package example

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/primerdb/primer/internal/model"
)

// Library is an immutable, priority-ordered list of example entries.
// Insertion order is priority order: earlier entries rank higher.
type Library struct {
	entries []model.ExampleEntry
}

// NewLibrary builds a library from entries in priority order.
func NewLibrary(entries []model.ExampleEntry) *Library {
	copied := make([]model.ExampleEntry, len(entries))
	copy(copied, entries)
	return &Library{entries: copied}
}

// libraryFile is the YAML layout of a curated example file.
type libraryFile struct {
	Examples []model.ExampleEntry `yaml:"examples"`
}

// LoadLibrary reads a YAML example file. Environment variables referenced
// as ${VAR_NAME} are expanded before parsing.
func LoadLibrary(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read example file: %w", err)
	}

	content := os.ExpandEnv(string(data))

	var file libraryFile
	if err := yaml.Unmarshal([]byte(content), &file); err != nil {
		return nil, fmt.Errorf("parse example file: %w", err)
	}
	for i, e := range file.Examples {
		if e.Question == "" || e.SQL == "" {
			return nil, fmt.Errorf("example %d: question and sql are required", i+1)
		}
	}
	return NewLibrary(file.Examples), nil
}

// All returns every entry in priority order.
func (l *Library) All() []model.ExampleEntry {
	out := make([]model.ExampleEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// TopN returns the first n entries, or all of them if n exceeds the
// library size. n <= 0 returns an empty slice.
func (l *Library) TopN(n int) []model.ExampleEntry {
	if n <= 0 {
		return []model.ExampleEntry{}
	}
	if n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]model.ExampleEntry, n)
	copy(out, l.entries[:n])
	return out
}

// Len returns the number of entries.
func (l *Library) Len() int { return len(l.entries) }
