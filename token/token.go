// Package token classifies the textual fields of a dataset row.
//
// A field is either a missing-value marker, a boolean literal or a number.
// Literals are matched case-insensitively and surrounding whitespace,
// including a trailing line terminator, is ignored:
//
//	c := token.NewClassifier(token.DefaultVocabulary())
//	v, err := c.Classify("TRUE\n") // v.Kind == token.True, v.Cell() == 1
package token

import (
	"math"
	"strconv"
	"strings"
)

// Kind is the class a token falls into.
type Kind int

const (
	Missing Kind = iota
	True
	False
	Number
)

func (k Kind) String() string {
	switch k {
	case Missing:
		return "missing"
	case True:
		return "true"
	case False:
		return "false"
	case Number:
		return "number"
	}
	return "unknown"
}

// Value is a classified token.
type Value struct {
	Kind  Kind
	Float float64
}

// Cell returns the numeric cell for v. Missing values map to NaN.
func (v Value) Cell() float64 {
	switch v.Kind {
	case Missing:
		return math.NaN()
	case True:
		return 1
	case False:
		return 0
	}
	return v.Float
}

// Vocabulary holds the literal sets recognised before numeric parsing.
type Vocabulary struct {
	Missing []string
	True    []string
	False   []string
}

// DefaultVocabulary returns the literals used by the converter:
// na/nan for missing values and true/false for booleans, in any case.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Missing: []string{"na", "nan"},
		True:    []string{"true"},
		False:   []string{"false"},
	}
}

// ParseError reports a token that is neither a known literal nor a number.
type ParseError struct {
	Token string
	Err   error
}

func (e *ParseError) Error() string {
	return "invalid token " + strconv.Quote(e.Token) + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// Classifier maps tokens to values. It holds no mutable state.
type Classifier struct {
	lookup map[string]Kind
}

// NewClassifier builds a classifier over v. When a literal appears in more
// than one set the first of missing, true, false wins.
func NewClassifier(v Vocabulary) *Classifier {
	lookup := make(map[string]Kind)
	add := func(words []string, k Kind) {
		for _, w := range words {
			w = normalize(w)
			if _, ok := lookup[w]; !ok {
				lookup[w] = k
			}
		}
	}
	add(v.Missing, Missing)
	add(v.True, True)
	add(v.False, False)
	return &Classifier{lookup: lookup}
}

// Classify converts a raw token.
func (c *Classifier) Classify(tok string) (Value, error) {
	s := normalize(tok)
	if k, ok := c.lookup[s]; ok {
		return Value{Kind: k}, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, &ParseError{Token: tok, Err: err}
	}
	if math.IsNaN(f) {
		return Value{Kind: Missing}, nil
	}
	return Value{Kind: Number, Float: f}, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
