// pkg/core/project.go
package core

import (
	"regexp"
	"slices"
	"strings"
)

// DefaultProjectName is used when a project is created on first access.
const DefaultProjectName = "Default project"

// DefaultStatuses is the status vocabulary given to new projects.
var DefaultStatuses = []string{"Clear", "Blurry", "Damaged", "Obstructed"}

// DefaultAnalysisTypes is the analysis vocabulary given to new projects.
var DefaultAnalysisTypes = []string{"Phone use", "Smoking", "Rodents", "No mask"}

// Vocabulary holds the per-project option lists.
type Vocabulary struct {
	Statuses      []string `json:"statuses"`
	AnalysisTypes []string `json:"analysisTypes"`
}

// DefaultVocabulary returns a copy of the built-in lists.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Statuses:      slices.Clone(DefaultStatuses),
		AnalysisTypes: slices.Clone(DefaultAnalysisTypes),
	}
}

// WithFallback replaces empty lists with the ones from def.
func (v Vocabulary) WithFallback(def Vocabulary) Vocabulary {
	out := Vocabulary{Statuses: slices.Clone(v.Statuses), AnalysisTypes: slices.Clone(v.AnalysisTypes)}
	if len(out.Statuses) == 0 {
		out.Statuses = slices.Clone(def.Statuses)
	}
	if len(out.AnalysisTypes) == 0 {
		out.AnalysisTypes = slices.Clone(def.AnalysisTypes)
	}
	return out
}

// HasStatus reports whether s is part of the vocabulary.
func (v Vocabulary) HasStatus(s string) bool {
	return slices.Contains(v.Statuses, s)
}

// VocabularyPatch updates either list; nil leaves it unchanged.
type VocabularyPatch struct {
	Statuses      []string `json:"statuses,omitempty"`
	AnalysisTypes []string `json:"analysisTypes,omitempty"`
}

// Apply merges the patch into v.
func (p VocabularyPatch) Apply(v *Vocabulary) {
	if p.Statuses != nil {
		v.Statuses = slices.Clone(p.Statuses)
	}
	if p.AnalysisTypes != nil {
		v.AnalysisTypes = slices.Clone(p.AnalysisTypes)
	}
}

// Project is a survey project: a floor plan plus its vocabulary.
type Project struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	FloorplanURL string `json:"floorplanUrl"`
	Vocabulary
}

// ProjectPatch updates project metadata; nil leaves a field unchanged.
type ProjectPatch struct {
	Name         *string `json:"name,omitempty"`
	FloorplanURL *string `json:"floorplanUrl,omitempty"`
}

// Apply merges the patch into p.
func (pp ProjectPatch) Apply(p *Project) {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.FloorplanURL != nil {
		p.FloorplanURL = *pp.FloorplanURL
	}
}

// ProjectData is the import/export document.
type ProjectData struct {
	FloorplanDataURL *string  `json:"floorplanDataUrl"`
	Cameras          []Camera `json:"cameras"`
	Statuses         []string `json:"statuses"`
	AnalysisTypes    []string `json:"analysisTypes"`
}

var lineBreak = regexp.MustCompile(`\r?\n`)

// SplitLines parses free text into a vocabulary list: one entry per line,
// trimmed, blank lines dropped. Order and duplicates are kept.
func SplitLines(text string) []string {
	out := []string{}
	for _, line := range lineBreak.Split(text, -1) {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// JoinLines is the inverse of SplitLines for display.
func JoinLines(items []string) string {
	return strings.Join(items, "\n")
}
