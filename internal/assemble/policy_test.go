package assemble

import (
	"reflect"
	"sort"
	"testing"

	"github.com/primerdb/primer/internal/model"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		question string
		want     []string
	}{
		{"What was our highest growth region in Q3?",
			[]string{"growth", "highest", "in", "our", "q3", "region", "was", "what"}},
		{"total revenue by region", []string{"by", "region", "revenue", "total"}},
		{"JOIN users AND orders", []string{"and", "join", "orders", "users"}},
		{"", nil},
		{"?!,.", nil},
		{"año-2024", []string{"2024", "a", "o"}},
	}

	for _, tt := range tests {
		tokens := Tokenize(tt.question)
		var got []string
		for tok := range tokens {
			got = append(got, tok)
		}
		sort.Strings(got)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tt.question, got, tt.want)
		}
	}
}

func selected(t *testing.T, question string, haveErrors bool) map[model.SectionID]bool {
	t.Helper()
	facts := questionFacts{tokens: Tokenize(question), haveErrors: haveErrors}
	included := map[model.SectionID]bool{}
	for _, r := range buildPolicy(DefaultTriggers()) {
		included[r.section] = r.include(facts)
	}
	return included
}

func TestPolicyAlwaysOnSections(t *testing.T) {
	got := selected(t, "anything at all", false)

	for _, id := range []model.SectionID{
		model.SectionSchema,
		model.SectionBusiness,
		model.SectionDataSamples,
		model.SectionHistory,
	} {
		if !got[id] {
			t.Errorf("section %s not always on", id)
		}
	}
}

func TestPolicyTriggerScenarios(t *testing.T) {
	tests := []struct {
		question      string
		relationships bool
		examples      bool
		statistics    bool
	}{
		{"What was our highest growth region in Q3?", false, true, false},
		{"total revenue by region", false, false, true},
		{"join users with orders", true, false, false},
		{"compare average rates across teams", true, true, true},
		{"list products", false, false, false},
		// Matching is on whole tokens, not substrings.
		{"show growthless accounting", false, false, false},
		// Case-insensitive.
		{"TOTAL GROWTH", false, true, true},
	}

	for _, tt := range tests {
		got := selected(t, tt.question, false)
		if got[model.SectionRelationships] != tt.relationships {
			t.Errorf("%q: relationships = %v, want %v",
				tt.question, got[model.SectionRelationships], tt.relationships)
		}
		if got[model.SectionExamples] != tt.examples {
			t.Errorf("%q: examples = %v, want %v",
				tt.question, got[model.SectionExamples], tt.examples)
		}
		if got[model.SectionStatistics] != tt.statistics {
			t.Errorf("%q: statistics = %v, want %v",
				tt.question, got[model.SectionStatistics], tt.statistics)
		}
	}
}

func TestPolicyErrorsSection(t *testing.T) {
	if got := selected(t, "any question", false); got[model.SectionErrors] {
		t.Error("errors section included without recorded errors")
	}
	if got := selected(t, "any question", true); !got[model.SectionErrors] {
		t.Error("errors section excluded despite recorded errors")
	}
}

func TestPolicyCustomTriggers(t *testing.T) {
	triggers := DefaultTriggers()
	triggers[model.SectionStatistics] = []string{"median"}

	facts := questionFacts{tokens: Tokenize("median order value")}
	var stats bool
	for _, r := range buildPolicy(triggers) {
		if r.section == model.SectionStatistics {
			stats = r.include(facts)
		}
	}
	if !stats {
		t.Error("custom trigger word did not select statistics")
	}

	facts = questionFacts{tokens: Tokenize("total order value")}
	for _, r := range buildPolicy(triggers) {
		if r.section == model.SectionStatistics && r.include(facts) {
			t.Error("replaced trigger set still matches default words")
		}
	}
}
