package portal

import (
	"fmt"
	"strings"
)

// LocatorKind selects how a locator value is matched against the page
type LocatorKind int

const (
	// ByID matches an element id
	ByID LocatorKind = iota
	// ByCSS matches a CSS selector
	ByCSS
	// ByXPath matches an XPath expression
	ByXPath
)

func (k LocatorKind) String() string {
	switch k {
	case ByID:
		return "id"
	case ByCSS:
		return "css"
	case ByXPath:
		return "xpath"
	default:
		return fmt.Sprintf("LocatorKind(%d)", int(k))
	}
}

// Locator identifies one element of the portal UI
type Locator struct {
	Kind  LocatorKind
	Value string
}

func (l Locator) String() string {
	return l.Kind.String() + ":" + l.Value
}

// IsZero reports whether the locator is unset
func (l Locator) IsZero() bool {
	return l.Value == ""
}

// ParseLocator parses the "id:", "css:" or "xpath:" form used in config.
// An empty string yields the zero Locator.
func ParseLocator(s string) (Locator, error) {
	if s == "" {
		return Locator{}, nil
	}

	prefix, value, ok := strings.Cut(s, ":")
	if !ok || strings.TrimSpace(value) == "" {
		return Locator{}, fmt.Errorf("invalid locator %q: want id:, css: or xpath: prefix", s)
	}

	switch prefix {
	case "id":
		return Locator{Kind: ByID, Value: value}, nil
	case "css":
		return Locator{Kind: ByCSS, Value: value}, nil
	case "xpath":
		return Locator{Kind: ByXPath, Value: value}, nil
	default:
		return Locator{}, fmt.Errorf("invalid locator %q: unknown kind %q", s, prefix)
	}
}
