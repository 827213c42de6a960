// Package normalize canonicalizes free-text UK addresses and postcodes into
// a comparable form, and provides the fuzzy similarity functions used by the
// matching pipeline. All functions are pure and deterministic.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

// NormalizedAddress is the canonical form of a listing or PPD address.
type NormalizedAddress struct {
	// Address is the upper-cased, punctuation-stripped, abbreviation-expanded
	// address text with the postcode removed.
	Address string

	// Postcode is the canonical "OUTWARD INWARD" spaced form, e.g. "SW1A 1AA".
	// Empty when no plausible postcode was found.
	Postcode string

	// Outward and Inward are the two halves of Postcode.
	Outward string
	Inward  string

	// PostcodeValid is false when the input postcode was malformed or
	// missing. Matching must still proceed on the address text alone.
	PostcodeValid bool
}

// abbrevRule expands one UK address abbreviation on word boundaries.
type abbrevRule struct {
	re          *regexp.Regexp
	replacement string
}

// Abbreviation rules applied in order. Order matters for idempotence:
// expansions never produce tokens that another rule would rewrite.
var abbrevRules = []abbrevRule{
	{regexp.MustCompile(`\b(?:ST|STR|STRT)\b`), "STREET"},
	{regexp.MustCompile(`\bRD\b`), "ROAD"},
	{regexp.MustCompile(`\b(?:AVE|AV)\b`), "AVENUE"},
	{regexp.MustCompile(`\b(?:DR|DRV)\b`), "DRIVE"},
	{regexp.MustCompile(`\bLN\b`), "LANE"},
	{regexp.MustCompile(`\b(?:CT|CRT)\b`), "COURT"},
	{regexp.MustCompile(`\bPL\b`), "PLACE"},
	{regexp.MustCompile(`\b(?:SQ|SQR)\b`), "SQUARE"},
	{regexp.MustCompile(`\b(?:TER|TERR)\b`), "TERRACE"},
	{regexp.MustCompile(`\b(?:GDNS|GDN)\b`), "GARDENS"},
	{regexp.MustCompile(`\bCL\b`), "CLOSE"},
	{regexp.MustCompile(`\b(?:CRES|CR)\b`), "CRESCENT"},
	{regexp.MustCompile(`\b(?:GR|GRV)\b`), "GROVE"},
	{regexp.MustCompile(`\bPK\b`), "PARK"},
	{regexp.MustCompile(`\bWY\b`), "WAY"},
	{regexp.MustCompile(`\b(?:FL|APT|APARTMENT)\b`), "FLAT"},
	{regexp.MustCompile(`\bHSE\b`), "HOUSE"},
	{regexp.MustCompile(`\b(?:BLDG|BLD)\b`), "BUILDING"},
	{regexp.MustCompile(`\bFLR\b`), "FLOOR"},
	{regexp.MustCompile(`\bN\b`), "NORTH"},
	{regexp.MustCompile(`\bS\b`), "SOUTH"},
	{regexp.MustCompile(`\bE\b`), "EAST"},
	{regexp.MustCompile(`\bW\b`), "WEST"},
}

// UK postcode shape: outward (area + district) then inward (sector + unit).
// Matches the six standard formats AA9A 9AA through A9 9AA.
var rePostcode = regexp.MustCompile(`\b([A-Z]{1,2}[0-9][0-9A-Z]?)\s*([0-9][A-Z]{2})\b`)

// reFullPostcode anchors the same shape for validating a standalone value.
var reFullPostcode = regexp.MustCompile(`^([A-Z]{1,2}[0-9][0-9A-Z]?)([0-9][A-Z]{2})$`)

// Normalize canonicalizes a free-text address and postcode. A malformed
// postcode never causes an error: the result carries PostcodeValid=false and
// the caller falls back to address-only matching. When the supplied postcode
// is unusable, a postcode embedded in the address text is used instead.
func Normalize(rawAddress, rawPostcode string) NormalizedAddress {
	out := NormalizedAddress{}

	out.Postcode, out.Outward, out.Inward, out.PostcodeValid = NormalizePostcode(rawPostcode)

	s := strings.ToUpper(strings.TrimSpace(rawAddress))

	// Pull any postcode out of the address text so it never pollutes the
	// similarity comparison; adopt it when the supplied one was unusable.
	if m := rePostcode.FindStringSubmatch(s); m != nil {
		if !out.PostcodeValid {
			out.Outward, out.Inward = m[1], m[2]
			out.Postcode = m[1] + " " + m[2]
			out.PostcodeValid = true
		}
		s = rePostcode.ReplaceAllString(s, " ")
	}

	s = stripPunctuation(s)
	for _, rule := range abbrevRules {
		s = rule.re.ReplaceAllString(s, rule.replacement)
	}
	out.Address = collapseSpaces(s)

	return out
}

// NormalizePostcode canonicalizes a UK postcode to the spaced
// "OUTWARD INWARD" form. Malformed input yields ok=false with empty parts;
// it never fails hard.
func NormalizePostcode(raw string) (postcode, outward, inward string, ok bool) {
	compact := strings.ToUpper(strings.Join(strings.Fields(raw), ""))
	if compact == "" {
		return "", "", "", false
	}

	m := reFullPostcode.FindStringSubmatch(compact)
	if m == nil {
		return "", "", "", false
	}
	return m[1] + " " + m[2], m[1], m[2], true
}

func stripPunctuation(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return b.String()
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
