package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/semquery/internal/ontology"
)

func TestStubFields_AnswersAndCounts(t *testing.T) {
	title := ontology.Property{URI: "urn:p#title", Label: "title"}
	stub := NewStubFields().Set("Title", title)

	assert.Equal(t, []ontology.Property{title}, stub.MatchField("title"))
	assert.Equal(t, []ontology.Property{title}, stub.MatchField("TITLE"))
	assert.Empty(t, stub.MatchField("size"))

	assert.Equal(t, 2, stub.Calls("title"))
	assert.Equal(t, 1, stub.Calls("size"))
	assert.Equal(t, 0, stub.Calls("other"))
}
