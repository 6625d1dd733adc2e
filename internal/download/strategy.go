package download

import "fmt"

// Strategy selects how direct-save mode retrieves a resource.
type Strategy string

const (
	// StrategyAuto uses intercepted retrieval when the request is shaped
	// with headers or a referer, otherwise direct with intercepted fallback.
	StrategyAuto Strategy = "auto"

	// StrategyDirect hands the URL straight to the saver.
	StrategyDirect Strategy = "direct"

	// StrategyIntercepted fetches the bytes first and saves a staged copy.
	StrategyIntercepted Strategy = "intercepted"
)

// ParseStrategy converts a name to a Strategy. An empty name is StrategyAuto.
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(name) {
	case "", StrategyAuto:
		return StrategyAuto, nil
	case StrategyDirect, StrategyIntercepted:
		return Strategy(name), nil
	default:
		return "", fmt.Errorf("unknown strategy %q", name)
	}
}

// PrefixMode controls whether saved names carry their input position.
type PrefixMode string

const (
	// PrefixNone leaves names as resolved.
	PrefixNone PrefixMode = "none"

	// PrefixPrepend prefixes each name with its 1-based, zero-padded index.
	PrefixPrepend PrefixMode = "prepend"
)

// ParsePrefixMode converts a name to a PrefixMode. An empty name is PrefixNone.
func ParsePrefixMode(name string) (PrefixMode, error) {
	switch PrefixMode(name) {
	case "", PrefixNone:
		return PrefixNone, nil
	case PrefixPrepend:
		return PrefixPrepend, nil
	default:
		return "", fmt.Errorf("unknown prefix mode %q", name)
	}
}
