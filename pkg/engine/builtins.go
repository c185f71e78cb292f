package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/kitchenkit/pkg/material"
	"github.com/chazu/kitchenkit/pkg/scene"
	"github.com/chazu/kitchenkit/pkg/zone"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// preprocessSource rewrites layout source before it reaches zygomys:
//
//  1. :keyword becomes the string literal "__kw_keyword", so keywords need
//     no global symbols and cannot collide with user definitions.
//  2. kebab-case identifiers become snake_case; zygomys reads a hyphen
//     as subtraction.
//  3. ; line comments become // comments.
//
// String literals are copied through untouched.
func preprocessSource(source string) string {
	b := []byte(source)
	out := make([]byte, 0, len(b)+len(b)/4)

	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c == '"':
			j := i + 1
			for j < len(b) && b[j] != '"' {
				if b[j] == '\\' && j+1 < len(b) {
					j++
				}
				j++
			}
			j = min(j+1, len(b))
			out = append(out, b[i:j]...)
			i = j

		case c == '`':
			j := i + 1
			for j < len(b) && b[j] != '`' {
				j++
			}
			j = min(j+1, len(b))
			out = append(out, b[i:j]...)
			i = j

		case c == ';':
			for i < len(b) && b[i] == ';' {
				i++
			}
			out = append(out, '/', '/')
			for i < len(b) && b[i] != '\n' {
				out = append(out, b[i])
				i++
			}

		case c == ':' && i+1 < len(b) && b[i+1] == '=':
			out = append(out, ':', '=')
			i += 2

		case c == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			out = append(out, '"')
			out = append(out, kwPrefix...)
			out = append(out, b[i+1:j]...)
			out = append(out, '"')
			i = j

		case c == '-' && i > 0 && i+1 < len(b) && isIdentChar(b[i-1]) && isLetter(b[i+1]):
			out = append(out, '_')
			i++

		default:
			out = append(out, c)
			i++
		}
	}
	return string(out)
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

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpMaterial is returned by defmaterial and accepted by :material.
type sexpMaterial struct {
	m *scene.Material
}

func (m *sexpMaterial) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(material %q %s)", m.m.Name, m.m.Color)
}
func (m *sexpMaterial) Type() *zygo.RegisteredType { return nil }

// sexpNode is a reference to a part or group under construction.
type sexpNode struct {
	n *scene.Node
}

func (n *sexpNode) SexpString(ps *zygo.PrintState) string {
	if n.n.Renderable {
		return fmt.Sprintf("(part %q)", n.n.Name)
	}
	return fmt.Sprintf("(group %q)", n.n.Name)
}
func (n *sexpNode) Type() *zygo.RegisteredType { return nil }

type sexpVec3 struct {
	vec scene.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string and returns the
// keyword name without prefix.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	return strings.CutPrefix(str.S, kwPrefix)
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	order      []string
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments. A
// keyword at the end with no value is recorded with SexpNull.
func parseArgs(args []zygo.Sexp) kwArgs {
	pa := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			pa.positional = append(pa.positional, args[i])
			continue
		}
		if _, dup := pa.kw[name]; !dup {
			pa.order = append(pa.order, name)
		}
		if i+1 < len(args) {
			pa.kw[name] = args[i+1]
			i++
		} else {
			pa.kw[name] = zygo.SexpNull
		}
	}
	return pa
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString accepts both preprocessed keywords (:box) and plain
// strings ("box").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

func toVec3(s zygo.Sexp) (scene.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return scene.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toNode(s zygo.Sexp) (*scene.Node, error) {
	if ref, ok := s.(*sexpNode); ok {
		return ref.n, nil
	}
	return nil, fmt.Errorf("expected part or group, got %T (%s)", s, s.SexpString(nil))
}

func toShapeKind(s zygo.Sexp) (scene.ShapeKind, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return scene.ShapeNone, err
	}
	switch name {
	case "box":
		return scene.ShapeBox, nil
	case "cylinder":
		return scene.ShapeCylinder, nil
	}
	return scene.ShapeNone, fmt.Errorf("invalid shape %q, expected box or cylinder", name)
}

// ---------------------------------------------------------------------------
// Scene builder
// ---------------------------------------------------------------------------

// builder collects the nodes and materials created by a layout script.
type builder struct {
	library  scene.Library
	created  []*scene.Node
	warnings []EvalWarning
}

func newBuilder() *builder {
	return &builder{library: make(scene.Library)}
}

func (b *builder) warn(node, format string, args ...any) {
	b.warnings = append(b.warnings, EvalWarning{Node: node, Message: fmt.Sprintf(format, args...)})
}

// finish attaches every node that no group claimed to the root, in
// creation order, and returns the scene.
func (b *builder) finish() *scene.Scene {
	s := scene.New()
	s.Library = b.library
	for _, n := range b.created {
		if n.Parent() == nil {
			s.Add(nil, n)
		}
	}
	return s
}

// applyPlacement handles the :at and :rotate keywords shared by part,
// group and place.
func applyPlacement(fn string, n *scene.Node, pa kwArgs) error {
	if v, ok := pa.kw["at"]; ok {
		vec, err := toVec3(v)
		if err != nil {
			return fmt.Errorf("%s: at: %w", fn, err)
		}
		n.Position = vec
	}
	if v, ok := pa.kw["rotate"]; ok {
		vec, err := toVec3(v)
		if err != nil {
			return fmt.Errorf("%s: rotate: %w", fn, err)
		}
		n.Rotation = vec
	}
	return nil
}

// materialKeys are the defmaterial keywords with a dedicated field; any
// other numeric keyword lands in Params.
var materialKeys = map[string]bool{"color": true, "roughness": true, "metalness": true, "opacity": true}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the layout DSL into a zygomys environment.
// The builtins populate b during evaluation.
//
// Source code must be preprocessed with preprocessSource() before
// evaluation so that :keyword tokens are recognisable.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// -----------------------------------------------------------------------
	// (defmaterial "Marble.001" :color "#e5e7eb" :roughness 0.2 :clearcoat 0.3)
	// -----------------------------------------------------------------------
	env.AddFunction("defmaterial", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("defmaterial requires exactly one name")
		}
		matName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defmaterial: name: %w", err)
		}
		if _, dup := b.library[matName]; dup {
			return zygo.SexpNull, fmt.Errorf("defmaterial: %q already defined", matName)
		}

		m := &scene.Material{Name: matName, Color: "#ffffff", Roughness: 0.5, Opacity: 1}
		if v, ok := pa.kw["color"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("defmaterial %s: color: %w", matName, err)
			}
			if m.Color, err = material.CanonicalColor(s); err != nil {
				return zygo.SexpNull, fmt.Errorf("defmaterial %s: %w", matName, err)
			}
		}
		for key, dst := range map[string]*float64{"roughness": &m.Roughness, "metalness": &m.Metalness, "opacity": &m.Opacity} {
			v, ok := pa.kw[key]
			if !ok {
				continue
			}
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("defmaterial %s: %s: %w", matName, key, err)
			}
			*dst = f
		}
		for _, key := range pa.order {
			if materialKeys[key] {
				continue
			}
			f, err := toFloat64(pa.kw[key])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("defmaterial %s: %s: %w", matName, key, err)
			}
			if m.Params == nil {
				m.Params = make(map[string]float64)
			}
			m.Params[key] = f
		}

		b.library[matName] = m
		return &sexpMaterial{m: m}, nil
	})

	// -----------------------------------------------------------------------
	// (vec3 600 20 720)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var xyz [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			xyz[i] = f
		}
		return &sexpVec3{vec: scene.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (part "Handle_1" :shape :cylinder :size (vec3 12 12 128)
	//       :at (vec3 0 -30 600) :rotate (vec3 90 0 0)
	//       :material "Chrome" :zone :handle)
	// -----------------------------------------------------------------------
	env.AddFunction("part", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("part requires exactly one name")
		}
		partName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("part: name: %w", err)
		}
		fn := "part " + partName

		shape := scene.Shape{Kind: scene.ShapeBox}
		if v, ok := pa.kw["shape"]; ok {
			if shape.Kind, err = toShapeKind(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: shape: %w", fn, err)
			}
		}
		v, ok := pa.kw["size"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("%s: :size is required", fn)
		}
		if shape.Size, err = toVec3(v); err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: size: %w", fn, err)
		}
		if shape.Size.X <= 0 || shape.Size.Y <= 0 || shape.Size.Z <= 0 {
			return zygo.SexpNull, fmt.Errorf("%s: size must be positive in every axis", fn)
		}

		var authored *scene.Material
		if v, ok := pa.kw["material"]; ok {
			switch mv := v.(type) {
			case *sexpMaterial:
				authored = mv.m
			default:
				matName, err := toString(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: material: %w", fn, err)
				}
				if authored = b.library[matName]; authored == nil {
					b.warn(partName, "unknown material %q, part has no material", matName)
				}
			}
		}

		n := scene.NewPart(partName, shape, authored)
		if v, ok := pa.kw["zone"]; ok {
			tag, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: zone: %w", fn, err)
			}
			z, err := zone.Parse(tag)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
			}
			n.Tag = z.String()
		}
		if err := applyPlacement(fn, n, pa); err != nil {
			return zygo.SexpNull, err
		}

		b.created = append(b.created, n)
		return &sexpNode{n: n}, nil
	})

	// -----------------------------------------------------------------------
	// (group "Wall_Run" :at (vec3 0 0 0) (part ...) (part ...))
	// -----------------------------------------------------------------------
	env.AddFunction("group", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("group requires a name argument")
		}
		groupName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("group: name: %w", err)
		}
		fn := "group " + groupName

		var children []*scene.Node
		for i, a := range pa.positional[1:] {
			c, err := toNode(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: child %d: %w", fn, i+1, err)
			}
			if p := c.Parent(); p != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %q already belongs to group %q", fn, c.Name, p.Name)
			}
			children = append(children, c)
		}

		g := scene.NewGroup(groupName, children...)
		if err := applyPlacement(fn, g, pa); err != nil {
			return zygo.SexpNull, err
		}
		if len(children) == 0 {
			b.warn(groupName, "empty group")
		}

		b.created = append(b.created, g)
		return &sexpNode{n: g}, nil
	})

	// -----------------------------------------------------------------------
	// (place door :at (vec3 600 0 0) :rotate (vec3 0 0 90))
	// -----------------------------------------------------------------------
	env.AddFunction("place", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("place requires a part or group as first argument")
		}
		n, err := toNode(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: %w", err)
		}
		if err := applyPlacement("place "+n.Name, n, pa); err != nil {
			return zygo.SexpNull, err
		}
		return pa.positional[0], nil
	})
}
