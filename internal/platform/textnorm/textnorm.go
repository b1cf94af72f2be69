// Package textnorm canonicalises free-text labels so that visually equal
// symptoms compare equal regardless of case, Unicode composition or
// surrounding whitespace.
package textnorm

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalizer folds labels to a canonical form. The zero value is not
// usable; call New.
type Normalizer struct {
	fold cases.Caser
}

// New returns a Normalizer. A Normalizer keeps internal state between calls
// and must not be shared across goroutines; use one per goroutine.
func New() *Normalizer {
	return &Normalizer{fold: cases.Fold()}
}

// Normalize trims the label, collapses runs of whitespace to a single
// space, composes it to NFC and case-folds it.
func (n *Normalizer) Normalize(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = norm.NFC.String(s)
	return n.fold.String(s)
}

// Normalize is a convenience wrapper for one-off calls.
func Normalize(s string) string {
	return New().Normalize(s)
}
