package location

import (
	"errors"
	"strings"
)

// ErrEmptyQuery is returned when the entered location is blank.
var ErrEmptyQuery = errors.New("empty location query")

// Query is a trimmed, non-empty location string.
type Query string

func (q Query) String() string { return string(q) }

// Normalize trims the raw input. Anything else, including unknown places,
// is left for the upstream API to reject.
func Normalize(raw string) (Query, error) {
	q := strings.TrimSpace(raw)
	if q == "" {
		return "", ErrEmptyQuery
	}
	return Query(q), nil
}
