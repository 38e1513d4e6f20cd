package schema

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/trialset/pkg/domain"
)

const ageMessage = "Valor erróneo para ‘edad’"

func TestPattern_Age(t *testing.T) {
	rule, err := ParseRule("age", domain.Rule{Pattern: `^\d+$`, Message: ageMessage})
	require.NoError(t, err)

	assert.NoError(t, rule.Validate("34"))

	for _, input := range []string{"abc", ""} {
		err := rule.Validate(input)
		var fe *FieldError
		require.ErrorAs(t, err, &fe, "input %q", input)
		assert.Equal(t, "age", fe.Field)
		assert.Equal(t, ageMessage, fe.Message)
		assert.EqualError(t, err, ageMessage)
	}
}

func TestPattern_DefaultMessage(t *testing.T) {
	rule := MustPattern("email", `@`, "")
	assert.EqualError(t, rule.Validate("nobody"), `invalid value for "email"`)
	assert.NoError(t, rule.Validate("a@b"), "unanchored patterns match anywhere")
}

func TestPattern_Invalid(t *testing.T) {
	_, err := Pattern("age", `(`, "")
	assert.ErrorIs(t, err, ErrInvalidRule)
	assert.Panics(t, func() { MustPattern("age", `(`, "") })
}

func TestScript(t *testing.T) {
	src := `
return function(s)
  if string.match(s, "^%d+$") == nil then
    return "Valor erróneo para ‘edad’"
  end
  if tonumber(s) < 18 then
    return "too young"
  end
  return true
end`
	rule, err := Script("age", src)
	require.NoError(t, err)

	assert.NoError(t, rule.Validate("34"))
	assert.EqualError(t, rule.Validate("abc"), ageMessage)
	assert.EqualError(t, rule.Validate("12"), "too young")
}

func TestScript_MethodCallMatch(t *testing.T) {
	rule, err := Script("age", `return function(s) if s:match("^%d+$") then return true end return "Valor erróneo para ‘edad’" end`)
	require.NoError(t, err)

	assert.NoError(t, rule.Validate("34"))
	assert.EqualError(t, rule.Validate("abc"), ageMessage)
	assert.EqualError(t, rule.Validate(""), ageMessage)
}

func TestScript_LuaPatterns(t *testing.T) {
	src := `
return function(s)
  local user, host = string.match(s, "^([%w%.]+)@([%w%.]+)$")
  if user == nil then return "not an address" end
  local parts = 0
  for _ in string.gmatch(host, "[^%.]+") do parts = parts + 1 end
  if parts < 2 then return "host needs a domain" end
  local cleaned = string.gsub(user, "%.", "")
  if #cleaned == 0 then return "empty user" end
  return true
end`
	rule, err := Script("email", src)
	require.NoError(t, err)

	assert.NoError(t, rule.Validate("ana.gil@uni.es"))
	assert.EqualError(t, rule.Validate("ana"), "not an address")
	assert.EqualError(t, rule.Validate("ana@localhost"), "host needs a domain")
	assert.EqualError(t, rule.Validate("...@uni.es"), "empty user")
}

func TestScript_Timeout(t *testing.T) {
	defer func(d time.Duration) { scriptTimeout = d }(scriptTimeout)
	scriptTimeout = 50 * time.Millisecond

	rule, err := Script("f", `return function(s) while true do end end`)
	require.NoError(t, err)

	err = rule.Validate("x")
	require.Error(t, err)
	var fe *FieldError
	assert.False(t, errors.As(err, &fe))
}

func TestScript_FalseUsesDefaultMessage(t *testing.T) {
	rule, err := Script("consent", `return function(s) return s == "yes" end`)
	require.NoError(t, err)
	assert.NoError(t, rule.Validate("yes"))
	assert.EqualError(t, rule.Validate("no"), `invalid value for "consent"`)
}

func TestScript_Invalid(t *testing.T) {
	tests := map[string]string{
		"syntax":       `return function(s`,
		"not function": `return 42`,
		"runtime":      `error("boom")`,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Script("f", src)
			assert.ErrorIs(t, err, ErrInvalidRule)
		})
	}
}

func TestScript_Sandboxed(t *testing.T) {
	rule, err := Script("f", `return function(s) return dofile == nil and loadfile == nil and loadstring == nil and require == nil end`)
	require.NoError(t, err)
	assert.NoError(t, rule.Validate("x"))
}

func TestScript_RuntimeFailure(t *testing.T) {
	rule, err := Script("f", `return function(s) error("broken") end`)
	require.NoError(t, err)

	err = rule.Validate("x")
	require.Error(t, err)
	var fe *FieldError
	assert.False(t, errors.As(err, &fe), "script failures are not participant rejections")
}

func TestScript_Concurrent(t *testing.T) {
	rule, err := Script("n", `return function(s) return #s > 2 end`)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, rule.Validate("long"))
			assert.Error(t, rule.Validate("no"))
		}()
	}
	wg.Wait()
}

func TestParseRule_Invalid(t *testing.T) {
	_, err := ParseRule("f", domain.Rule{})
	assert.ErrorIs(t, err, ErrInvalidRule)

	_, err = ParseRule("f", domain.Rule{Pattern: "x", Script: "return function(s) return true end"})
	assert.ErrorIs(t, err, ErrInvalidRule)
}

func TestCompileRules_ReportsAll(t *testing.T) {
	_, err := CompileRules(map[string]domain.Rule{
		"age":  {Pattern: `^\d+$`},
		"bad1": {Pattern: `[`},
		"bad2": {},
	})
	require.Error(t, err)
	assert.Len(t, ValidationErrors(err), 2)
	assert.ErrorIs(t, err, ErrInvalidRule)
}

func TestValidateForm(t *testing.T) {
	rules, err := CompileRules(map[string]domain.Rule{
		"age":    {Pattern: `^\d+$`, Message: ageMessage},
		"gender": {Pattern: `^(m|f|x)$`, Message: "choose one"},
	})
	require.NoError(t, err)

	assert.NoError(t, ValidateForm(rules, map[string]string{"age": "34", "gender": "x"}))

	err = ValidateForm(rules, map[string]string{"age": "abc"})
	require.Error(t, err)
	fields := FieldErrors(err)
	require.Len(t, fields, 2)
	assert.Equal(t, "age", fields[0].Field)
	assert.Equal(t, ageMessage, fields[0].Message)
	assert.Equal(t, "gender", fields[1].Field, "missing values are checked as empty input")
}

func TestFieldErrors_Single(t *testing.T) {
	fe := &FieldError{Field: "a", Message: "m"}
	assert.Equal(t, []*FieldError{fe}, FieldErrors(fe))
	assert.Nil(t, FieldErrors(nil))
}
