package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/fixturedrc/pkg/drawing"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms drawing source code before passing it to
// zygomys. It performs three transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: start-deg -> start_deg
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator).
//
//  3. ; line comments become // comments.
//
// All transformations respect string literal boundaries.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, kwPrefix...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Only when the hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpEntity wraps a drawing.Entity so it can be returned from the shape
// builtins and consumed by `layer`.
type sexpEntity struct {
	ent drawing.Entity
}

func (e *sexpEntity) SexpString(ps *zygo.PrintState) string {
	switch v := e.ent.(type) {
	case drawing.Line:
		return fmt.Sprintf("(line %g %g %g %g)", v.X0, v.Y0, v.X1, v.Y1)
	case drawing.Arc:
		return fmt.Sprintf("(arc %g %g %g %g %g)", v.CX, v.CY, v.Radius, v.StartAngle, v.EndAngle)
	case drawing.Circle:
		return fmt.Sprintf("(circle %g %g %g)", v.CX, v.CY, v.Radius)
	case drawing.Polyline:
		return fmt.Sprintf("(polyline %d vertices)", len(v.Vertices))
	}
	return "(entity)"
}
func (e *sexpEntity) Type() *zygo.RegisteredType { return nil }

// sexpVertex wraps a drawing.Vertex produced by `pt`.
type sexpVertex struct {
	v drawing.Vertex
}

func (p *sexpVertex) SexpString(ps *zygo.PrintState) string {
	if p.v.Bulge != 0 {
		return fmt.Sprintf("(pt %g %g :bulge %g)", p.v.X, p.v.Y, p.v.Bulge)
	}
	return fmt.Sprintf("(pt %g %g)", p.v.X, p.v.Y)
}
func (p *sexpVertex) Type() *zygo.RegisteredType { return nil }

// sexpLayerRef is returned by `layer`.
type sexpLayerRef struct {
	name string
}

func (l *sexpLayerRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(layer %q)", l.name)
}
func (l *sexpLayerRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toBool accepts true/false and treats a bare trailing keyword as true.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return true, nil
		}
	}
	return false, fmt.Errorf("expected true or false, got %T (%s)", s, s.SexpString(nil))
}

// floats extracts exactly n positional numbers.
func floats(fn string, args []zygo.Sexp, names ...string) ([]float64, error) {
	if len(args) != len(names) {
		return nil, fmt.Errorf("%s requires %d numeric arguments (%s), got %d",
			fn, len(names), strings.Join(names, " "), len(args))
	}
	out := make([]float64, len(args))
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", fn, names[i], err)
		}
		out[i] = f
	}
	return out, nil
}

// labelArg returns the :label keyword value, or "".
func labelArg(fn string, pa kwArgs) (string, error) {
	v, ok := pa.kw["label"]
	if !ok {
		return "", nil
	}
	s, err := toString(v)
	if err != nil {
		return "", fmt.Errorf("%s: label: %w", fn, err)
	}
	return s, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// collectEntities flattens entities and nested lists of entities.
func collectEntities(fn string, args []zygo.Sexp, out []drawing.Entity) ([]drawing.Entity, error) {
	for i, a := range args {
		switch v := a.(type) {
		case *sexpEntity:
			out = append(out, v.ent)
		case *zygo.SexpPair, *zygo.SexpArray:
			items, err := sexpListToSlice(v)
			if err != nil {
				return nil, fmt.Errorf("%s: argument %d: %w", fn, i, err)
			}
			out, err = collectEntities(fn, items, out)
			if err != nil {
				return nil, err
			}
		case *zygo.SexpSentinel:
			// nil from an empty list or a (when ...) that did not fire.
			if v != zygo.SexpNull {
				return nil, fmt.Errorf("%s: argument %d: expected entity, got %s", fn, i, v.SexpString(nil))
			}
		default:
			return nil, fmt.Errorf("%s: argument %d: expected entity, got %T (%s)",
				fn, i, a, a.SexpString(nil))
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the drawing DSL builtins into a zygomys
// environment. Layers are appended to d in evaluation order.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, d *drawing.Drawing) {

	// -----------------------------------------------------------------------
	// (line x0 y0 x1 y1 :label "L1")
	// -----------------------------------------------------------------------
	env.AddFunction("line", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		v, err := floats("line", pa.positional, "x0", "y0", "x1", "y1")
		if err != nil {
			return zygo.SexpNull, err
		}
		label, err := labelArg("line", pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpEntity{ent: drawing.Line{X0: v[0], Y0: v[1], X1: v[2], Y1: v[3], Label: label}}, nil
	})

	// -----------------------------------------------------------------------
	// (arc cx cy r start-deg end-deg :label "A1")
	// -----------------------------------------------------------------------
	env.AddFunction("arc", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		v, err := floats("arc", pa.positional, "cx", "cy", "r", "start-deg", "end-deg")
		if err != nil {
			return zygo.SexpNull, err
		}
		label, err := labelArg("arc", pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpEntity{ent: drawing.Arc{
			CX: v[0], CY: v[1], Radius: v[2], StartAngle: v[3], EndAngle: v[4], Label: label,
		}}, nil
	})

	// -----------------------------------------------------------------------
	// (circle cx cy r :label "PIN1")
	// -----------------------------------------------------------------------
	env.AddFunction("circle", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		v, err := floats("circle", pa.positional, "cx", "cy", "r")
		if err != nil {
			return zygo.SexpNull, err
		}
		label, err := labelArg("circle", pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpEntity{ent: drawing.Circle{CX: v[0], CY: v[1], Radius: v[2], Label: label}}, nil
	})

	// -----------------------------------------------------------------------
	// (pt x y :bulge 0.5)
	// -----------------------------------------------------------------------
	env.AddFunction("pt", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		v, err := floats("pt", pa.positional, "x", "y")
		if err != nil {
			return zygo.SexpNull, err
		}
		vert := drawing.Vertex{X: v[0], Y: v[1]}
		if b, ok := pa.kw["bulge"]; ok {
			f, err := toFloat64(b)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("pt: bulge: %w", err)
			}
			vert.Bulge = f
		}
		return &sexpVertex{v: vert}, nil
	})

	// -----------------------------------------------------------------------
	// (polyline (pt 0 0) (pt 10 0 :bulge 1) (pt 10 10) :closed true :label "P")
	// -----------------------------------------------------------------------
	env.AddFunction("polyline", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		pl := drawing.Polyline{}
		var verts []zygo.Sexp
		for _, a := range pa.positional {
			switch a.(type) {
			case *zygo.SexpPair, *zygo.SexpArray:
				items, err := sexpListToSlice(a)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("polyline: %w", err)
				}
				verts = append(verts, items...)
			default:
				verts = append(verts, a)
			}
		}
		for i, a := range verts {
			p, ok := a.(*sexpVertex)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("polyline: vertex %d: expected (pt x y), got %T (%s)",
					i, a, a.SexpString(nil))
			}
			pl.Vertices = append(pl.Vertices, p.v)
		}
		if v, ok := pa.kw["closed"]; ok {
			c, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("polyline: closed: %w", err)
			}
			pl.Closed = c
		}
		label, err := labelArg("polyline", pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		pl.Label = label
		return &sexpEntity{ent: pl}, nil
	})

	// -----------------------------------------------------------------------
	// (rect x0 y0 x1 y1 :label "PAD")
	// -----------------------------------------------------------------------
	env.AddFunction("rect", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		v, err := floats("rect", pa.positional, "x0", "y0", "x1", "y1")
		if err != nil {
			return zygo.SexpNull, err
		}
		label, err := labelArg("rect", pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpEntity{ent: drawing.Rect(v[0], v[1], v[2], v[3], label)}, nil
	})

	// -----------------------------------------------------------------------
	// (layer "NAME" (line ...) (circle ...) (list ...) ...)
	// -----------------------------------------------------------------------
	env.AddFunction("layer", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("layer requires a name argument")
		}
		layerName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("layer: name: %w", err)
		}
		ents, err := collectEntities("layer", args[1:], nil)
		if err != nil {
			return zygo.SexpNull, err
		}
		d.AddLayer(&drawing.Layer{Name: layerName, Entities: ents})
		return &sexpLayerRef{name: layerName}, nil
	})
}
