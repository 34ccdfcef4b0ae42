// Package validate holds small, side-effect free checks for configuration
// values.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"
)

const DefaultClientIDLength = 10

// DefaultClientIDPattern must match the whole identifier.
var DefaultClientIDPattern = MustCompilePattern(`[a-zA-Z0-9]+`)

// Pattern is a regular expression that has to match a whole value, not just
// a substring of it.
type Pattern struct {
	expr string
	full *regexp.Regexp
}

func CompilePattern(expr string) (Pattern, error) {
	full, err := regexp.Compile(`^(?:` + expr + `)$`)
	if err != nil {
		return Pattern{}, fmt.Errorf("invalid pattern %q: %w", expr, err)
	}
	return Pattern{expr: expr, full: full}, nil
}

func MustCompilePattern(expr string) Pattern {
	p, err := CompilePattern(expr)
	if err != nil {
		panic(err.Error())
	}
	return p
}

// String returns the expression as written, without the anchors.
func (p Pattern) String() string {
	return p.expr
}

// Match reports whether the pattern matches all of value. The zero Pattern
// matches nothing.
func (p Pattern) Match(value string) bool {
	return p.full != nil && p.full.MatchString(value)
}

// Result is either valid or invalid with a message.
type Result struct {
	invalid bool
	msg     string
}

func Valid() Result {
	return Result{}
}

func Invalid(msg string) Result {
	return Result{invalid: true, msg: msg}
}

func (r Result) OK() bool {
	return !r.invalid
}

func (r Result) Message() string {
	return r.msg
}

// Err returns nil for a valid result.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return errors.New(r.msg)
}

// ClientID checks id against the required length and character pattern.
func ClientID(id string, length int, pattern Pattern) Result {
	return Check("Client ID", id, length, pattern)
}

// Check validates that value has exactly length characters and that pattern
// matches all of it. label prefixes the messages.
func Check(label, value string, length int, pattern Pattern) Result {
	if utf8.RuneCountInString(value) != length {
		return Invalid(fmt.Sprintf("%s must be exactly %d characters long", label, length))
	}
	if !pattern.Match(value) {
		return Invalid(fmt.Sprintf("%s must conform to the pattern %s", label, pattern.String()))
	}
	return Valid()
}
