package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePostcode(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		outward string
		valid   bool
	}{
		{"already canonical", "SW1A 1AA", "SW1A 1AA", "SW1A", true},
		{"lowercase no space", "sw1a1aa", "SW1A 1AA", "SW1A", true},
		{"short form", "m1 1ae", "M1 1AE", "M1", true},
		{"double digit district", "GU35 0AB", "GU35 0AB", "GU35", true},
		{"extra whitespace", "  po8  9jl ", "PO8 9JL", "PO8", true},
		{"empty", "", "", "", false},
		{"garbage", "NOT A POSTCODE", "", "", false},
		{"too short", "S1A", "", "", false},
		{"digits only", "12345", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, outward, _, ok := NormalizePostcode(tt.in)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.outward, outward)
		})
	}
}

func TestNormalizePostcode_Idempotent(t *testing.T) {
	inputs := []string{"sw1a1aa", "GU35 0AB", "m1 1ae", "EC1A 1BB"}
	for _, in := range inputs {
		once, _, _, ok := NormalizePostcode(in)
		assert.True(t, ok, in)
		twice, _, _, ok := NormalizePostcode(once)
		assert.True(t, ok, once)
		assert.Equal(t, once, twice)
	}
}

func TestNormalize_Address(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"abbreviations expanded", "12 Abbey Rd.", "12 ABBEY ROAD"},
		{"street", "1 High St, Alton", "1 HIGH STREET ALTON"},
		{"flat variants", "Apt 3, Rose Hse", "FLAT 3 ROSE HOUSE"},
		{"punctuation stripped", "Flat 2-B, St. Mary's Ct.", "FLAT 2 B STREET MARY SOUTH COURT"},
		{"whitespace collapsed", "  4   Oak   Ave ", "4 OAK AVENUE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in, "")
			assert.Equal(t, tt.want, got.Address)
		})
	}
}

func TestNormalize_PostcodeFallbackFromAddress(t *testing.T) {
	// Malformed explicit postcode: the one embedded in the address text is
	// adopted instead, and removed from the comparable address.
	got := Normalize("1 High Street, Alton GU34 1AB", "not-a-postcode")
	assert.True(t, got.PostcodeValid)
	assert.Equal(t, "GU34 1AB", got.Postcode)
	assert.Equal(t, "GU34", got.Outward)
	assert.Equal(t, "1 HIGH STREET ALTON", got.Address)
}

func TestNormalize_MalformedPostcodeDoesNotFail(t *testing.T) {
	got := Normalize("1 High Street", "XYZ")
	assert.False(t, got.PostcodeValid)
	assert.Empty(t, got.Postcode)
	assert.Equal(t, "1 HIGH STREET", got.Address)
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := [][2]string{
		{"Flat 2, 12 Abbey Rd., London NW8 9AY", "nw89ay"},
		{"Apt 3 Rose Hse, 1 High St", "GU34 1AB"},
		{"4 Oak Ave", ""},
	}

	for _, in := range inputs {
		once := Normalize(in[0], in[1])
		twice := Normalize(once.Address, once.Postcode)
		assert.Equal(t, once.Address, twice.Address)
		assert.Equal(t, once.Postcode, twice.Postcode)
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	for i := 0; i < 50; i++ {
		got := Normalize("Flat 1A, 22 Station Rd, Petersfield GU32 3DL", "gu323dl")
		assert.Equal(t, "FLAT 1A 22 STATION ROAD PETERSFIELD", got.Address)
		assert.Equal(t, "GU32 3DL", got.Postcode)
	}
}
