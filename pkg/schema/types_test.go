package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypes(t *testing.T) {
	tests := []struct {
		name  string
		typ   Type
		value any
		ok    bool
	}{
		{"string", String(), "Likert", true},
		{"string rejects number", String(), 7, false},
		{"int", Int(), 7, true},
		{"int from json float", Int(), float64(7), true},
		{"int rejects fraction", Int(), 7.5, false},
		{"int from json number", Int(), json.Number("12"), true},
		{"int rejects json fraction", Int(), json.Number("1.5"), false},
		{"float", Float(), 0.5, true},
		{"float accepts int", Float(), 3, true},
		{"float rejects string", Float(), "0.5", false},
		{"bool", Bool(), true, true},
		{"bool rejects string", Bool(), "true", false},
		{"slice of strings", Slice(String()), []string{"1", "2"}, true},
		{"slice of any", Slice(String()), []any{"1", "2"}, true},
		{"slice with wrong element", Slice(String()), []any{"1", 2}, false},
		{"slice rejects scalar", Slice(String()), "1", false},
		{"one of", OneOf("left", "right"), "left", true},
		{"one of rejects other", OneOf("left", "right"), "up", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.typ.Validate(tt.value)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestTypeNames(t *testing.T) {
	assert.Equal(t, "string", String().Name())
	assert.Equal(t, "int", Int().Name())
	assert.Equal(t, "float", Float().Name())
	assert.Equal(t, "bool", Bool().Name())
	assert.Equal(t, "[string]", Slice(String()).Name())
	assert.Equal(t, "[[bool]]", Slice(Slice(Bool())).Name())
	assert.Equal(t, "oneOf(a|b)", OneOf("a", "b").Name())
}

func TestCustomType(t *testing.T) {
	even := Custom("even", func(v any) error {
		n, ok := v.(int)
		if !ok || n%2 != 0 {
			return errors.New("not even")
		}
		return nil
	})
	assert.Equal(t, "even", even.Name())
	assert.NoError(t, even.Validate(4))
	assert.EqualError(t, even.Validate(3), "not even")
}

func TestSliceType_ReportsElement(t *testing.T) {
	err := Slice(Int()).Validate([]any{1, 2, "three"})
	assert.ErrorContains(t, err, "element 2")
}
