package assemble

import (
	"strings"

	"github.com/primerdb/primer/internal/model"
)

// DefaultTriggers are the out-of-the-box trigger-word sets for the
// optional sections. They are configuration, not constants: callers
// override them per section without code change.
func DefaultTriggers() map[model.SectionID][]string {
	return map[model.SectionID][]string{
		model.SectionRelationships: {"join", "with", "and", "across"},
		model.SectionExamples:      {"growth", "compare", "trend", "rate"},
		model.SectionStatistics:    {"average", "total", "sum", "count"},
	}
}

// questionFacts is what the policy sees about one assembly request.
type questionFacts struct {
	tokens     map[string]bool
	haveErrors bool
}

// predicate decides one section's inclusion. Each section's inclusion is
// an independent boolean, not a ranked choice.
type predicate func(questionFacts) bool

// rule binds a section to its inclusion predicate.
type rule struct {
	section model.SectionID
	include predicate
}

func always(questionFacts) bool { return true }

func whenErrors(f questionFacts) bool { return f.haveErrors }

// triggered matches any of the words against the tokenized question.
func triggered(words []string) predicate {
	lowered := make([]string, len(words))
	for i, w := range words {
		lowered[i] = strings.ToLower(w)
	}
	return func(f questionFacts) bool {
		for _, w := range lowered {
			if f.tokens[w] {
				return true
			}
		}
		return false
	}
}

// buildPolicy produces the declarative selection table: a uniform mapping
// from section to predicate, evaluated independently per section.
// Always-on sections carry the minimum viable grounding; no request goes
// out without schema, business rules, samples, and history.
func buildPolicy(triggers map[model.SectionID][]string) []rule {
	return []rule{
		{model.SectionSchema, always},
		{model.SectionRelationships, triggered(triggers[model.SectionRelationships])},
		{model.SectionBusiness, always},
		{model.SectionExamples, triggered(triggers[model.SectionExamples])},
		{model.SectionDataSamples, always},
		{model.SectionStatistics, triggered(triggers[model.SectionStatistics])},
		{model.SectionHistory, always},
		{model.SectionErrors, whenErrors},
	}
}

// Tokenize lower-cases the question and splits it on every non-alphanumeric
// rune, yielding the word set the trigger predicates match against.
func Tokenize(question string) map[string]bool {
	tokens := make(map[string]bool)
	var b strings.Builder
	for _, r := range strings.ToLower(question) {
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			tokens[b.String()] = true
			b.Reset()
		}
	}
	if b.Len() > 0 {
		tokens[b.String()] = true
	}
	return tokens
}
