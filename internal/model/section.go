package model

// SectionID identifies one named block of context text.
type SectionID string

const (
	SectionSchema        SectionID = "schema"
	SectionRelationships SectionID = "relationships"
	SectionBusiness      SectionID = "business"
	SectionExamples      SectionID = "examples"
	SectionDataSamples   SectionID = "data_samples"
	SectionStatistics    SectionID = "statistics"
	SectionHistory       SectionID = "history"
	SectionErrors        SectionID = "errors"
)

// CanonicalOrder is the fixed concatenation order for assembled context.
// It is constant regardless of which sections a question selects, so LLM
// behavior is reproducible across calls with the same included set.
var CanonicalOrder = []SectionID{
	SectionSchema,
	SectionRelationships,
	SectionBusiness,
	SectionExamples,
	SectionDataSamples,
	SectionStatistics,
	SectionHistory,
	SectionErrors,
}

// ParseSection maps a configuration name to its SectionID.
func ParseSection(name string) (SectionID, bool) {
	for _, id := range CanonicalOrder {
		if string(id) == name {
			return id, true
		}
	}
	return "", false
}

// Section is one named, independently formatted block of context text.
type Section struct {
	ID   SectionID
	Text string
}
