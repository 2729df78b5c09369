package search

import (
	"testing"
	"time"

	"github.com/DrSkyle/kinship/pkg/person"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(people []person.Person) []string {
	out := make([]string, 0, len(people))
	for _, p := range people {
		out = append(out, p.Name)
	}
	return out
}

func TestMatch(t *testing.T) {
	people := person.DemoFamily()

	tests := []struct {
		name  string
		term  string
		field Field
		want  []string
	}{
		{"name substring", "smith", FieldName, []string{"David Smith", "Jennifer Smith", "John Smith", "Lisa Smith", "Mary Smith", "Robert Smith"}},
		{"location only", "boston", FieldLocation, []string{"Michael Johnson", "Sarah Johnson"}},
		{"name does not hit location", "boston", FieldName, []string{}},
		{"both", "los", FieldBoth, []string{"Daniel Wilson", "Emma Johnson"}},
		{"case insensitive", "EMMA", FieldBoth, []string{"Emma Johnson"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(Match(people, tt.term, tt.field)))
		})
	}
}

func TestMatch_EmptyTermReturnsAllSorted(t *testing.T) {
	got := Match(person.DemoFamily(), "  ", FieldBoth)
	require.Len(t, got, 10)
	assert.Equal(t, "Daniel Wilson", got[0].Name)
	assert.Equal(t, "Sarah Johnson", got[9].Name)
}

func TestParseField(t *testing.T) {
	f, err := ParseField("")
	require.NoError(t, err)
	assert.Equal(t, FieldBoth, f)

	f, err = ParseField("name")
	require.NoError(t, err)
	assert.Equal(t, FieldName, f)

	_, err = ParseField("zip")
	assert.Error(t, err)
}

func TestFilter(t *testing.T) {
	people := person.DemoFamily()
	now := func() time.Time { return time.Date(2026, time.October, 17, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		expr string
		want []string
	}{
		{`age < 20`, []string{"Lisa Smith"}},
		{`gender == "female" && location == "Boston"`, []string{"Sarah Johnson"}},
		{`!has_father && !has_mother && has_spouse && location == "Chicago"`, []string{"Robert Smith", "Jennifer Smith"}},
		{`birth_year >= 1979 && birth_year <= 1980`, []string{"Emma Johnson", "Daniel Wilson"}},
		{`name.startsWith("Da")`, []string{"David Smith", "Daniel Wilson"}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := CompileFilter(tt.expr)
			require.NoError(t, err)
			f.now = now
			assert.Equal(t, tt.want, names(f.Apply(people)))
		})
	}
}

func TestCompileFilter_Errors(t *testing.T) {
	_, err := CompileFilter(`age +`)
	assert.Error(t, err)

	_, err = CompileFilter(`age + 1`)
	assert.ErrorContains(t, err, "must return bool")

	_, err = CompileFilter(`cousins > 2`)
	assert.Error(t, err)
}
