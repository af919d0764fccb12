package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidLabel(t *testing.T) {
	for _, label := range Labels() {
		assert.True(t, ValidLabel(label), label)
	}
	assert.False(t, ValidLabel("Person"))
	assert.False(t, ValidLabel(""))
	assert.False(t, ValidLabel("tea"))
}

func TestValidRelationshipType(t *testing.T) {
	for _, relType := range RelationshipTypes() {
		assert.True(t, ValidRelationshipType(relType), relType)
	}
	assert.False(t, ValidRelationshipType("KNOWS"))
	assert.False(t, ValidRelationshipType(""))
}

func TestValidIdentifier(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"name", true},
		{"efficacy", true},
		{"_private", true},
		{"Tea2", true},
		{"", false},
		{"2name", false},
		{"na-me", false},
		{"n} DETACH DELETE n //", false},
		{"名字", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidIdentifier(tt.input))
		})
	}
}

func TestDescribeCoversVocabulary(t *testing.T) {
	desc := Describe()
	for _, label := range Labels() {
		assert.Contains(t, desc, label)
	}
	for _, relType := range RelationshipTypes() {
		assert.Contains(t, desc, relType)
	}
}
