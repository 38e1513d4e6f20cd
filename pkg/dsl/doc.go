/*
Package dsl provides a Go DSL for building experiments in code.

It is the type-checked alternative to YAML, HCL or Loam directories, and is
handy for generated designs and for tests.

Example usage:

	b := dsl.New("relative-clauses").Locale("es")

	b.Defaults(domain.TypeJudgment, map[string]any{
		"as":             []string{"1", "2", "3", "4", "5", "6", "7"},
		"presentAsScale": true,
	})

	b.Form("intro").
		Include("intro.html").
		Validate("edad", `^\d+$`, "Valor erróneo para ‘edad’")

	b.Judgment("practice", "El niño que la niña vio corrió.")
	b.Judgment("subj_rel", "El periodista que atacó al senador admitió el error.").Ordinal(1)
	b.Judgment("obj_rel", "El periodista que el senador atacó admitió el error.").Ordinal(1)

	b.SequenceString(`seq("intro", randomize("practice"), shuffle(randomize(anyOf("subj_rel", "obj_rel"))))`)

	loader, err := b.Build()
*/
package dsl
