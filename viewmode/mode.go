// Package viewmode holds the grid/list mode and the controller that applies
// it to a snapshot of the POS screen.
package viewmode

import (
	"errors"
	"fmt"
	"strings"
)

// Mode is the presentation mode. Its string form is the stored value.
type Mode string

const (
	Grid Mode = "grid"
	List Mode = "list"
)

// ErrInvalidMode is returned by Parse for anything but grid or list.
var ErrInvalidMode = errors.New("viewmode: invalid mode")

// Parse accepts "grid" or "list", case-insensitively.
func Parse(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Grid:
		return Grid, nil
	case List:
		return List, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Toggle returns the other mode. Anything that is not List toggles to List.
func (m Mode) Toggle() Mode {
	if m == List {
		return Grid
	}
	return List
}

func (m Mode) String() string { return string(m) }
