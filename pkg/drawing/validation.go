package drawing

import (
	"fmt"
	"math"
)

// ValidationSeverity indicates whether a validation finding blocks analysis
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks analysis
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Layer    string             // layer name (empty if drawing-level)
	Index    int                // entity index within the layer, -1 for the layer itself
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Layer == "" && e.Index < 0 {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	if e.Index < 0 {
		return fmt.Sprintf("[%s] layer %q: %s", e.Severity, e.Layer, e.Message)
	}
	return fmt.Sprintf("[%s] layer %q entity %d: %s", e.Severity, e.Layer, e.Index, e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	Layer   string
	Index   int
	Message string
}

// ValidationResult bundles errors (blocking) and warnings (advisory).
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// OK reports whether no blocking error was found.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate runs every check on the drawing and returns all findings, errors
// and warnings alike. It never mutates the drawing.
func Validate(d *Drawing) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateNames(d)...)
	for _, l := range d.Layers {
		errs = append(errs, validateLayer(l)...)
	}
	return errs
}

// ValidateAll runs Validate and separates errors from warnings.
func ValidateAll(d *Drawing) ValidationResult {
	var result ValidationResult
	for _, e := range Validate(d) {
		if e.Severity == SeverityError {
			result.Errors = append(result.Errors, e)
			continue
		}
		result.Warnings = append(result.Warnings, ValidationWarning{
			Layer:   e.Layer,
			Index:   e.Index,
			Message: e.Message,
		})
	}
	return result
}

// validateNames checks for empty and duplicate layer names.
func validateNames(d *Drawing) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for _, l := range d.Layers {
		if l.Name == "" {
			errs = append(errs, ValidationError{
				Index:    -1,
				Message:  "layer has an empty name",
				Severity: SeverityError,
			})
			continue
		}
		if seen[l.Name] {
			errs = append(errs, ValidationError{
				Layer:    l.Name,
				Index:    -1,
				Message:  "duplicate layer name",
				Severity: SeverityError,
			})
		}
		seen[l.Name] = true
	}
	return errs
}

// validateLayer checks each entity of a layer for degenerate geometry.
func validateLayer(l *Layer) []ValidationError {
	var errs []ValidationError
	if len(l.Entities) == 0 {
		errs = append(errs, ValidationError{
			Layer:    l.Name,
			Index:    -1,
			Message:  "layer has no entities",
			Severity: SeverityWarning,
		})
	}
	add := func(i int, sev ValidationSeverity, format string, args ...any) {
		errs = append(errs, ValidationError{
			Layer:    l.Name,
			Index:    i,
			Message:  fmt.Sprintf(format, args...),
			Severity: sev,
		})
	}
	for i, e := range l.Entities {
		switch e := e.(type) {
		case Line:
			if !finite(e.X0, e.Y0, e.X1, e.Y1) {
				add(i, SeverityError, "line has non-finite coordinates")
			} else if e.Length() == 0 {
				add(i, SeverityWarning, "zero-length line at (%g, %g)", e.X0, e.Y0)
			}
		case Arc:
			if !finite(e.CX, e.CY, e.Radius, e.StartAngle, e.EndAngle) {
				add(i, SeverityError, "arc has non-finite parameters")
			} else if e.Radius <= 0 {
				add(i, SeverityError, "arc radius %g must be positive", e.Radius)
			}
		case Circle:
			if !finite(e.CX, e.CY, e.Radius) {
				add(i, SeverityError, "circle has non-finite parameters")
			} else if e.Radius <= 0 {
				add(i, SeverityError, "circle radius %g must be positive", e.Radius)
			}
		case Polyline:
			if len(e.Vertices) < 2 {
				add(i, SeverityError, "polyline needs at least 2 vertices, got %d", len(e.Vertices))
				continue
			}
			for _, v := range e.Vertices {
				if !finite(v.X, v.Y, v.Bulge) {
					add(i, SeverityError, "polyline has non-finite vertex")
					break
				}
			}
		}
	}
	return errs
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
