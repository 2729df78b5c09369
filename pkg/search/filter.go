package search

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/DrSkyle/kinship/pkg/person"
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/checker/decls"
)

// Filter is a compiled CEL predicate over a person. Available variables:
//
//	id, age, birth_year                  int (age and birth_year are -1 when unknown)
//	name, gender, location               string
//	has_father, has_mother, has_spouse   bool
type Filter struct {
	expr string
	prg  cel.Program
	now  func() time.Time
}

var (
	envOnce   sync.Once
	filterEnv *cel.Env
	envErr    error
)

func env() (*cel.Env, error) {
	envOnce.Do(func() {
		filterEnv, envErr = newEnv()
	})
	return filterEnv, envErr
}

func newEnv() (*cel.Env, error) {
	e, err := cel.NewEnv(
		cel.Declarations(
			decls.NewVar("id", decls.Int),
			decls.NewVar("age", decls.Int),
			decls.NewVar("birth_year", decls.Int),
			decls.NewVar("name", decls.String),
			decls.NewVar("gender", decls.String),
			decls.NewVar("location", decls.String),
			decls.NewVar("has_father", decls.Bool),
			decls.NewVar("has_mother", decls.Bool),
			decls.NewVar("has_spouse", decls.Bool),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}
	return e, nil
}

// CompileFilter compiles expr, which must evaluate to a bool.
func CompileFilter(expr string) (*Filter, error) {
	e, err := env()
	if err != nil {
		return nil, err
	}
	ast, issues := e.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("filter compilation error: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("filter must return bool, got %s", ast.OutputType())
	}
	prg, err := e.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("filter program creation error: %w", err)
	}
	return &Filter{expr: expr, prg: prg, now: time.Now}, nil
}

func (f *Filter) String() string { return f.expr }

// Match evaluates the filter for p. Evaluation errors count as no match.
func (f *Filter) Match(p person.Person) bool {
	out, _, err := f.prg.Eval(f.vars(p))
	if err != nil {
		slog.Debug("Filter evaluation failed", "filter", f.expr, "person_id", p.ID, "error", err)
		return false
	}
	match, ok := out.Value().(bool)
	return ok && match
}

// Apply returns the people matching the filter, preserving order.
func (f *Filter) Apply(people []person.Person) []person.Person {
	out := make([]person.Person, 0, len(people))
	for _, p := range people {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

func (f *Filter) vars(p person.Person) map[string]interface{} {
	birthYear := int64(-1)
	if p.BirthDate != nil {
		birthYear = int64(p.BirthDate.Year())
	}
	gender := p.Gender
	if gender == "" {
		gender = person.GenderUnknown
	}
	return map[string]interface{}{
		"id":         int64(p.ID),
		"age":        int64(p.Age(f.now())),
		"birth_year": birthYear,
		"name":       p.Name,
		"gender":     string(gender),
		"location":   p.Location,
		"has_father": p.FatherID.Valid(),
		"has_mother": p.MotherID.Valid(),
		"has_spouse": p.SpouseID.Valid(),
	}
}
