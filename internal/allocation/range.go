// Package allocation turns per-agent numeric ranges into the slice of the
// tenant's lead list each agent may see. Positions are 1-based indexes into
// the lead list ordered by creation time.
package allocation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidRange is returned by ParseRange for malformed or inverted input.
var ErrInvalidRange = errors.New("invalid lead range")

// Range is an inclusive [From, To] interval of lead positions.
type Range struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Key identifies identical ranges for de-duplication.
func (r Range) Key() string {
	return fmt.Sprintf("%d-%d", r.From, r.To)
}

// Len is the number of positions covered, zero for an inverted range.
func (r Range) Len() int {
	if r.To < r.From {
		return 0
	}
	return r.To - r.From + 1
}

// ParseRange reads two free-text lead ids ("Lead 001", "#100") into a range.
// Every non-digit is dropped before parsing.
func ParseRange(fromText, toText string) (Range, error) {
	from, err := parsePosition(fromText)
	if err != nil {
		return Range{}, fmt.Errorf("%w: from: %v", ErrInvalidRange, err)
	}
	to, err := parsePosition(toText)
	if err != nil {
		return Range{}, fmt.Errorf("%w: to: %v", ErrInvalidRange, err)
	}
	if from > to {
		return Range{}, fmt.Errorf("%w: from %d is greater than to %d", ErrInvalidRange, from, to)
	}
	return Range{From: from, To: to}, nil
}

func parsePosition(text string) (int, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, text)
	if digits == "" {
		return 0, errors.New("no digits")
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, err
	}
	return n, nil
}
