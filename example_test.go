package trialset_test

import (
	"context"
	"fmt"

	"github.com/aretw0/trialset"
	"github.com/aretw0/trialset/pkg/dsl"
	"github.com/aretw0/trialset/pkg/sequence"
)

// ExampleNew_dsl shows how to plan an experiment defined in Go.
func ExampleNew_dsl() {
	b := dsl.New("hello").
		Sequence(sequence.Seq(
			sequence.Group("intro"),
			sequence.Randomize(sequence.Group("filler")),
		))
	b.Message("intro", "<p>Bienvenido</p>")
	b.Judgment("filler", "Juan comió una manzana.")
	b.Judgment("filler", "María leyó el periódico.")

	loader, err := b.Build()
	if err != nil {
		panic(err)
	}

	eng, err := trialset.New("", trialset.WithLoader(loader))
	if err != nil {
		panic(err)
	}

	plan, err := eng.Plan(context.Background(), trialset.PlanOptions{Seed: trialset.Seed(1)})
	if err != nil {
		panic(err)
	}

	fmt.Println(len(plan.Entries), plan.Entries[0].Item.Group)
	// Output: 3 intro
}

// ExampleEngine_CheckField validates a participant's input against a form rule.
func ExampleEngine_CheckField() {
	b := dsl.New("consent")
	b.Form("intro").HTML(`<input name="edad">`).Validate("edad", `^\d+$`, "Valor erróneo para ‘edad’")

	loader, err := b.Build()
	if err != nil {
		panic(err)
	}
	eng, _ := trialset.New("", trialset.WithLoader(loader))

	ctx := context.Background()
	fmt.Println(eng.CheckField(ctx, "intro", "edad", "34"))
	fmt.Println(eng.CheckField(ctx, "intro", "edad", "abc"))
	// Output:
	// <nil>
	// Valor erróneo para ‘edad’
}
