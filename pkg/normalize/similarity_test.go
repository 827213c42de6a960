package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity_TokenOrderInsensitive(t *testing.T) {
	a := "1 HIGH STREET ALTON"
	b := "ALTON 1 HIGH STREET"
	assert.Equal(t, 100.0, Similarity(a, b))
}

func TestSimilarity_Identical(t *testing.T) {
	assert.Equal(t, 100.0, Similarity("12 ABBEY ROAD", "12 ABBEY ROAD"))
}

func TestSimilarity_Empty(t *testing.T) {
	assert.Equal(t, 0.0, Similarity("", "12 ABBEY ROAD"))
	assert.Equal(t, 0.0, Similarity("12 ABBEY ROAD", ""))
	assert.Equal(t, 0.0, Similarity("", ""))
}

func TestSimilarity_Range(t *testing.T) {
	pairs := [][2]string{
		{"12 ABBEY ROAD", "12 ABBEY RD LONDON"},
		{"FLAT 1 ROSE HOUSE", "1 ROSE COTTAGE"},
		{"1 HIGH STREET", "99 STATION APPROACH"},
		{"A", "COMPLETELY DIFFERENT TEXT ENTIRELY"},
	}

	for _, p := range pairs {
		got := Similarity(p[0], p[1])
		assert.GreaterOrEqual(t, got, 0.0, "%v", p)
		assert.LessOrEqual(t, got, 100.0, "%v", p)
	}
}

func TestSimilarity_CloseVariantsScoreHigh(t *testing.T) {
	got := Similarity("12 ABBEY ROAD LONDON", "12 ABBEY ROAD LONDN")
	assert.Greater(t, got, 90.0)

	got = Similarity("FLAT 3 ROSE HOUSE 1 HIGH STREET", "1 HIGH STREET FLAT 3 ROSE HOUSE")
	assert.Equal(t, 100.0, got)
}

func TestSimilarity_DifferentAddressesScoreLow(t *testing.T) {
	got := Similarity("12 ABBEY ROAD", "47 VICTORIA TERRACE")
	assert.Less(t, got, 50.0)
}

func TestNameSimilarity_InitialMatchesFullName(t *testing.T) {
	// Proprietor registers often record initials only; these pairs must
	// clear the default 85 verification threshold in either direction.
	assert.GreaterOrEqual(t, NameSimilarity("J Smith", "John Smith"), 85.0)
	assert.GreaterOrEqual(t, NameSimilarity("John Smith", "J Smith"), 85.0)
}

func TestNameSimilarity_MultipleInitials(t *testing.T) {
	got := NameSimilarity("J K Rowling", "Joanne Kathleen Rowling")
	assert.GreaterOrEqual(t, got, 85.0)
}

func TestNameSimilarity_InitialDoesNotBridgeDifferentSurnames(t *testing.T) {
	got := NameSimilarity("J Smith", "Jane Doe")
	assert.Less(t, got, 85.0)
}

func TestNameSimilarity_ReorderedName(t *testing.T) {
	assert.Equal(t, 100.0, NameSimilarity("Smith John", "John Smith"))
}

func TestNameSimilarity_TitlesIgnored(t *testing.T) {
	assert.Equal(t, 100.0, NameSimilarity("Mr John Smith", "SMITH JOHN"))
}

func TestNameSimilarity_DifferentPeople(t *testing.T) {
	got := NameSimilarity("Jane Doe", "Bartholomew Higginbotham")
	assert.Less(t, got, 85.0)
}

func TestNameSimilarity_Empty(t *testing.T) {
	assert.Equal(t, 0.0, NameSimilarity("", "John Smith"))
	assert.Equal(t, 0.0, NameSimilarity("Mr", "John Smith"))
}
