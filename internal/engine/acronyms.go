package engine

import (
	"regexp"
	"strings"
	"sync"
)

// IRD publications lean heavily on abbreviations that embed poorly, so
// queries are expanded to "<full phrase> (<ABBR>)" before similarity search.
var acronymGlossary = map[string]string{
	"APIT":  "Advance Personal Income Tax",
	"AIT":   "Advance Income Tax",
	"CGT":   "Capital Gains Tax",
	"CIT":   "Corporate Income Tax",
	"ESC":   "Economic Service Charge",
	"IRD":   "Inland Revenue Department",
	"NBT":   "Nation Building Tax",
	"PAYE":  "Pay As You Earn",
	"RAMIS": "Revenue Administration Management Information System",
	"SET":   "Statement of Estimated Tax Payable",
	"SSCL":  "Social Security Contribution Levy",
	"SVAT":  "Simplified Value Added Tax",
	"TIN":   "Taxpayer Identification Number",
	"VAT":   "Value Added Tax",
	"WHT":   "Withholding Tax",
}

var (
	acronymPatterns     map[string]*regexp.Regexp
	acronymPatternsOnce sync.Once
)

func compileAcronymPatterns() {
	acronymPatterns = make(map[string]*regexp.Regexp, len(acronymGlossary))
	for abbr := range acronymGlossary {
		acronymPatterns[abbr] = regexp.MustCompile(`\b` + abbr + `\b`)
	}
}

// ExpandAcronyms replaces whole-word glossary abbreviations with their
// annotated full phrase. Expansion is idempotent: an abbreviation whose
// annotated form is already present is left alone.
func ExpandAcronyms(query string) string {
	acronymPatternsOnce.Do(compileAcronymPatterns)
	for abbr, phrase := range acronymGlossary {
		annotated := phrase + " (" + abbr + ")"
		if strings.Contains(query, annotated) {
			continue
		}
		query = acronymPatterns[abbr].ReplaceAllString(query, annotated)
	}
	return query
}
