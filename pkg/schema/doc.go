// Package schema checks the shape of experiment data.
//
// It has two halves. The first is a small type system used to check option
// bundles before they reach the host runner:
//
//	err := schema.ValidateOptions(schema.Schema{
//	    "as":             schema.Slice(schema.String()),
//	    "presentAsScale": schema.Bool(),
//	}, item.Options)
//
// Only keys present in the bundle are checked; unknown keys pass through,
// since hosts accept options this package has never heard of.
//
// The second half compiles the declarative form field validators of Form
// items into FieldRules. A rule takes the raw string typed by the participant
// and returns nil to accept it or a *FieldError carrying the message the host
// shows before blocking progression:
//
//	rule, err := schema.ParseRule("age", domain.Rule{
//	    Pattern: `^\d+$`,
//	    Message: "Valor erróneo para ‘edad’",
//	})
//	rule.Validate("34")  // nil
//	rule.Validate("abc") // *FieldError{Field: "age", Message: "Valor erróneo para ‘edad’"}
//
// Rules written as Lua chunks run on github.com/yuin/gopher-lua with only the
// base, string, table and math libraries loaded. Lua patterns are available
// through string.match, string.gmatch and string.gsub (or s:match). Each run is
// bounded by a one second deadline.
package schema
