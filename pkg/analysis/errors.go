package analysis

import "fmt"

// ConfigurationError reports a layer role or parameter that cannot be used.
// Runner.Run returns these joined before doing any work.
type ConfigurationError struct {
	Layer  string // drawing layer name, empty when the role is unset
	Role   string // layer role or parameter name
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Layer == "" {
		return fmt.Sprintf("analysis: %s: %s", e.Role, e.Reason)
	}
	return fmt.Sprintf("analysis: %s layer %q: %s", e.Role, e.Layer, e.Reason)
}

// WarningKind classifies a geometry degeneracy.
type WarningKind int

const (
	WarnChainCapped WarningKind = iota
	WarnAmbiguousContainment
	WarnCoincidentGap
	WarnFaceFailed
)

func (k WarningKind) String() string {
	switch k {
	case WarnChainCapped:
		return "chain-capped"
	case WarnAmbiguousContainment:
		return "ambiguous-containment"
	case WarnCoincidentGap:
		return "coincident-gap"
	case WarnFaceFailed:
		return "face-failed"
	default:
		return fmt.Sprintf("WarningKind(%d)", int(k))
	}
}

// Warning is a geometry degeneracy met during a run. Warnings never stop
// processing.
type Warning struct {
	Kind    WarningKind
	Layer   string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("[%s] %s: %s", w.Kind, w.Layer, w.Message)
}
