package solve

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/operator-framework/fsplan/internal/formula"
	"github.com/operator-framework/fsplan/internal/strips"
	"github.com/operator-framework/fsplan/pkg/fsplan"
)

// ProblemFile is the YAML description of a ground planning task.
// Literals are written as "variable=value", for instance:
//
//	objects: [rooma, roomb]
//	variables:
//	  - {name: door-open, type: bool}
//	  - {name: robot, type: object, values: [rooma, roomb]}
//	  - {name: fuel, type: int, min: 0, max: 3}
//	init: [door-open=false, robot=rooma, fuel=3]
//	goal: {atom: robot=roomb}
//	actions:
//	  - name: open
//	    pre: {atom: door-open=false}
//	    effects: [{set: door-open=true}]
type ProblemFile struct {
	Objects   []string       `yaml:"objects"`
	Variables []VariableSpec `yaml:"variables"`
	Init      []string       `yaml:"init"`
	Goal      FormulaSpec    `yaml:"goal"`
	Actions   []ActionSpec   `yaml:"actions"`
}

type VariableSpec struct {
	Name string `yaml:"name"`
	// Type is one of bool, int or object.
	Type   string   `yaml:"type"`
	Min    int32    `yaml:"min"`
	Max    int32    `yaml:"max"`
	Values []string `yaml:"values"`
}

// FormulaSpec sets exactly one of its fields. An empty FormulaSpec is
// the true formula.
type FormulaSpec struct {
	Atom    string        `yaml:"atom,omitempty"`
	All     []FormulaSpec `yaml:"all,omitempty"`
	Any     []FormulaSpec `yaml:"any,omitempty"`
	AtLeast *AtLeastSpec  `yaml:"atLeast,omitempty"`
}

type AtLeastSpec struct {
	K  int           `yaml:"k"`
	Of []FormulaSpec `yaml:"of"`
}

type ActionSpec struct {
	Name    string       `yaml:"name"`
	Pre     FormulaSpec  `yaml:"pre"`
	Effects []EffectSpec `yaml:"effects"`
}

type EffectSpec struct {
	Set  string       `yaml:"set"`
	When *FormulaSpec `yaml:"when,omitempty"`
}

// ParseProblemFile decodes a ProblemFile. Unknown fields are rejected.
func ParseProblemFile(r io.Reader) (*ProblemFile, error) {
	var pf ProblemFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&pf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty problem file")
		}
		return nil, fmt.Errorf("error decoding problem file: %w", err)
	}
	return &pf, nil
}

// maxIntDomain bounds the size of int domains, every value of which
// becomes an atom.
const maxIntDomain = 1 << 16

// builder resolves names while a ProblemFile is turned into a
// Problem.
type builder struct {
	objects   map[string]fsplan.ObjectID
	variables map[string]fsplan.VariableID
	specs     []VariableSpec
}

// Build grounds pf into a planning problem. Errors name the
// offending element by its path in the file.
func (pf *ProblemFile) Build() (*fsplan.Problem, error) {
	b := &builder{
		objects:   make(map[string]fsplan.ObjectID, len(pf.Objects)),
		variables: make(map[string]fsplan.VariableID, len(pf.Variables)),
		specs:     pf.Variables,
	}
	for i, name := range pf.Objects {
		if _, ok := b.objects[name]; ok {
			return nil, fmt.Errorf("objects[%d]: duplicate object %q", i, name)
		}
		b.objects[name] = fsplan.ObjectID(i)
	}
	if len(pf.Variables) == 0 {
		return nil, fmt.Errorf("variables: no variables declared")
	}

	variables := make([]fsplan.Variable, len(pf.Variables))
	for i, spec := range pf.Variables {
		v, err := b.variable(spec)
		if err != nil {
			return nil, fmt.Errorf("variables[%d]: %w", i, err)
		}
		if _, ok := b.variables[spec.Name]; ok {
			return nil, fmt.Errorf("variables[%d]: duplicate variable %q", i, spec.Name)
		}
		b.variables[spec.Name] = fsplan.VariableID(i)
		variables[i] = v
	}
	idx := fsplan.NewAtomIndex(variables, fsplan.WithObjectNames(pf.Objects))

	init := make([]fsplan.Value, len(variables))
	for i, literal := range pf.Init {
		atom, err := b.literal(literal)
		if err != nil {
			return nil, fmt.Errorf("init[%d]: %w", i, err)
		}
		if init[atom.Variable].IsValid() {
			return nil, fmt.Errorf("init[%d]: %s is assigned twice", i, variables[atom.Variable].Name)
		}
		init[atom.Variable] = atom.Value
	}
	for i, v := range init {
		if !v.IsValid() {
			return nil, fmt.Errorf("init: %s is not assigned", variables[i].Name)
		}
	}

	goal, err := b.formula(pf.Goal)
	if err != nil {
		return nil, fmt.Errorf("goal: %w", err)
	}

	actions := make([]strips.Action, len(pf.Actions))
	for i, spec := range pf.Actions {
		if spec.Name == "" {
			return nil, fmt.Errorf("actions[%d]: missing name", i)
		}
		pre, err := b.formula(spec.Pre)
		if err != nil {
			return nil, fmt.Errorf("actions[%d].pre: %w", i, err)
		}
		action := strips.Action{Name: spec.Name, Precondition: pre}
		for j, e := range spec.Effects {
			atom, err := b.literal(e.Set)
			if err != nil {
				return nil, fmt.Errorf("actions[%d].effects[%d].set: %w", i, j, err)
			}
			condition := formula.True()
			if e.When != nil {
				if condition, err = b.formula(*e.When); err != nil {
					return nil, fmt.Errorf("actions[%d].effects[%d].when: %w", i, j, err)
				}
			}
			action.Effects = append(action.Effects, strips.When(condition, atom.Variable, atom.Value))
		}
		actions[i] = action
	}

	return strips.NewProblem(idx, fsplan.NewState(init), actions, goal)
}

func (b *builder) variable(spec VariableSpec) (fsplan.Variable, error) {
	if spec.Name == "" {
		return fsplan.Variable{}, fmt.Errorf("missing name")
	}
	switch spec.Type {
	case "bool", "":
		return fsplan.Variable{
			Name:        spec.Name,
			Predicative: true,
			Domain:      []fsplan.Value{fsplan.Bool(false), fsplan.Bool(true)},
		}, nil
	case "int":
		if spec.Max < spec.Min {
			return fsplan.Variable{}, fmt.Errorf("empty range [%d, %d]", spec.Min, spec.Max)
		}
		if int64(spec.Max)-int64(spec.Min) >= maxIntDomain {
			return fsplan.Variable{}, fmt.Errorf("range [%d, %d] has more than %d values", spec.Min, spec.Max, maxIntDomain)
		}
		domain := make([]fsplan.Value, 0, int(spec.Max-spec.Min)+1)
		for i := int64(spec.Min); i <= int64(spec.Max); i++ {
			domain = append(domain, fsplan.Int(int32(i)))
		}
		return fsplan.Variable{Name: spec.Name, Domain: domain}, nil
	case "object":
		if len(spec.Values) == 0 {
			return fsplan.Variable{}, fmt.Errorf("object variable %s has no values", spec.Name)
		}
		domain := make([]fsplan.Value, len(spec.Values))
		for i, name := range spec.Values {
			o, ok := b.objects[name]
			if !ok {
				return fsplan.Variable{}, fmt.Errorf("values[%d]: unknown object %q", i, name)
			}
			domain[i] = fsplan.Object(o)
		}
		return fsplan.Variable{Name: spec.Name, Domain: domain}, nil
	default:
		return fsplan.Variable{}, fmt.Errorf("unknown type %q", spec.Type)
	}
}

// literal parses "variable=value" against the declared domains.
func (b *builder) literal(s string) (fsplan.Atom, error) {
	name, text, ok := strings.Cut(s, "=")
	if !ok {
		return fsplan.Atom{}, fmt.Errorf("invalid literal %q, expected variable=value", s)
	}
	name, text = strings.TrimSpace(name), strings.TrimSpace(text)
	v, ok := b.variables[name]
	if !ok {
		return fsplan.Atom{}, fmt.Errorf("unknown variable %q", name)
	}
	spec := b.specs[v]
	var value fsplan.Value
	switch spec.Type {
	case "bool", "":
		x, err := strconv.ParseBool(text)
		if err != nil {
			return fsplan.Atom{}, fmt.Errorf("invalid value %q for %s: %w", text, name, err)
		}
		value = fsplan.Bool(x)
	case "int":
		x, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return fsplan.Atom{}, fmt.Errorf("invalid value %q for %s: %w", text, name, err)
		}
		if int32(x) < spec.Min || int32(x) > spec.Max {
			return fsplan.Atom{}, fmt.Errorf("value %d out of range [%d, %d] for %s", x, spec.Min, spec.Max, name)
		}
		value = fsplan.Int(int32(x))
	case "object":
		if !slices.Contains(spec.Values, text) {
			return fsplan.Atom{}, fmt.Errorf("%q is not a value of %s", text, name)
		}
		value = fsplan.Object(b.objects[text])
	}
	return fsplan.NewAtom(v, value), nil
}

func (b *builder) formula(spec FormulaSpec) (formula.Formula, error) {
	set := 0
	for _, present := range []bool{spec.Atom != "", spec.All != nil, spec.Any != nil, spec.AtLeast != nil} {
		if present {
			set++
		}
	}
	if set > 1 {
		return formula.Formula{}, fmt.Errorf("formula sets more than one of atom, all, any and atLeast")
	}

	switch {
	case spec.Atom != "":
		atom, err := b.literal(spec.Atom)
		if err != nil {
			return formula.Formula{}, fmt.Errorf("atom: %w", err)
		}
		return formula.Atom(atom), nil
	case spec.All != nil:
		children, err := b.formulas("all", spec.All)
		if err != nil {
			return formula.Formula{}, err
		}
		return formula.All(children...), nil
	case spec.Any != nil:
		children, err := b.formulas("any", spec.Any)
		if err != nil {
			return formula.Formula{}, err
		}
		return formula.Any(children...), nil
	case spec.AtLeast != nil:
		if spec.AtLeast.K < 0 || spec.AtLeast.K > len(spec.AtLeast.Of) {
			return formula.Formula{}, fmt.Errorf("atLeast.k: %d is not in [0, %d]", spec.AtLeast.K, len(spec.AtLeast.Of))
		}
		children, err := b.formulas("atLeast.of", spec.AtLeast.Of)
		if err != nil {
			return formula.Formula{}, err
		}
		return formula.AtLeast(spec.AtLeast.K, children...), nil
	}
	return formula.True(), nil
}

func (b *builder) formulas(path string, specs []FormulaSpec) ([]formula.Formula, error) {
	children := make([]formula.Formula, len(specs))
	for i, spec := range specs {
		f, err := b.formula(spec)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", path, i, err)
		}
		children[i] = f
	}
	return children, nil
}
