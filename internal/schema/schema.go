// Package schema declares the knowledge-graph vocabulary: the node labels,
// their attributes, and the relationship types the store is allowed to hold.
//
// The vocabulary is a closed enumeration. Query construction draws structural
// elements (labels, relationship types) only from here, never from user
// input, so generated Cypher stays injection-free by construction. The
// textual description feeds the translator and composer prompts and must be
// kept in sync with what is actually ingested.
package schema

import (
	"regexp"
	"strings"
)

// Node labels.
const (
	LabelTea        = "Tea"
	LabelIngredient = "Ingredient"
	LabelSeason     = "Season"
	LabelSymptom    = "Symptom"
	LabelEfficacy   = "Efficacy"
)

// Relationship types.
const (
	RelComposedOf  = "COMPOSED_OF"
	RelSuitableFor = "SUITABLE_FOR"
	RelTreats      = "TREATS"
	RelHasEfficacy = "HAS_EFFICACY"
)

// UniqueKey is the attribute that identifies a node within its label.
const UniqueKey = "name"

var labels = map[string]bool{
	LabelTea:        true,
	LabelIngredient: true,
	LabelSeason:     true,
	LabelSymptom:    true,
	LabelEfficacy:   true,
}

var relationshipTypes = map[string]bool{
	RelComposedOf:  true,
	RelSuitableFor: true,
	RelTreats:      true,
	RelHasEfficacy: true,
}

// identifierPattern matches safe Cypher identifiers. Anything outside this
// pattern is rejected before it can reach a query template.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidLabel reports whether label is part of the graph vocabulary.
func ValidLabel(label string) bool {
	return labels[label]
}

// ValidRelationshipType reports whether relType is part of the graph vocabulary.
func ValidRelationshipType(relType string) bool {
	return relationshipTypes[relType]
}

// ValidIdentifier reports whether s is a safe Cypher identifier
// (label, relationship type, or property key).
func ValidIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// Labels returns the label vocabulary in declaration order.
func Labels() []string {
	return []string{LabelTea, LabelIngredient, LabelSeason, LabelSymptom, LabelEfficacy}
}

// RelationshipTypes returns the relationship vocabulary in declaration order.
func RelationshipTypes() []string {
	return []string{RelComposedOf, RelSuitableFor, RelTreats, RelHasEfficacy}
}

// Describe returns the natural-language schema description shared by the
// translator and composer prompts.
func Describe() string {
	var b strings.Builder
	b.WriteString("The graph contains the following node labels:\n")
	b.WriteString("1. Tea (herbal tea substitute): attributes [name, efficacy, taste, usage]\n")
	b.WriteString("2. Ingredient (medicinal ingredient): attributes [name, property]\n")
	b.WriteString("3. Season: attributes [name] (e.g. 春季, 夏季)\n")
	b.WriteString("4. Symptom (indication): attributes [name] (e.g. 上火, 失眠)\n")
	b.WriteString("5. Efficacy (efficacy category): attributes [name] (e.g. 清热解毒)\n")
	b.WriteString("\nThe graph contains the following relationship types:\n")
	b.WriteString("1. (:Tea)-[:COMPOSED_OF]->(:Ingredient) : the tea is composed of the ingredient\n")
	b.WriteString("2. (:Tea)-[:SUITABLE_FOR]->(:Season) : the tea suits the season\n")
	b.WriteString("3. (:Tea)-[:TREATS]->(:Symptom) : the tea treats the symptom\n")
	b.WriteString("4. (:Tea)-[:HAS_EFFICACY]->(:Efficacy) : the tea has the efficacy\n")
	return b.String()
}
