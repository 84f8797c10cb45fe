// Package highlight accumulates per-property validation diagnostics for
// a data-bound object: a processor owns a dirty set of properties to
// re-check and a model mapping each property to its current ordered
// list of diagnostic items.
package highlight

import (
	"fmt"

	"github.com/n-r-w/zfcore/schema"
)

// Severity ranks a HighlightItem from merely informational to fatal.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
	Critical
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "Info"
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	case Critical:
		return "Critical"
	case Fatal:
		return "Fatal"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Kind distinguishes diagnostics emitted by the engine's own automatic
// checks from ones a caller's manual hook contributes. Callers are free
// to define their own kind values above KindUserBase.
type Kind int

const (
	KindRequired Kind = iota
	KindRange
	KindEnum
	KindKeyUnique
	KindLookup
	// KindUserBase is the first value available to caller-defined kinds.
	KindUserBase = 1000
)

// HighlightItem is one diagnostic attached to a property.
type HighlightItem struct {
	Property schema.PropertyID
	Kind     Kind
	Severity Severity
	Message  string
}
