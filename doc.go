/*
Package trialset loads stimulus sets for acceptability-judgment experiments,
validates them and turns their sequencing expression into concrete trial
orders ("plans").

An experiment is a table of items grouped into conditions, default option
bundles per presentation type, UI messages, and a sequencing expression built
from four operators:

  - seq(a, b, ...)       concatenates its children in order;
  - randomize(x)         permutes the items of x uniformly;
  - shuffle(a, b, ...)   interleaves its children, keeping each child's internal order;
  - anyOf(a, b, ...)     keeps one child chosen uniformly.

Bare labels name groups. For example

	seq("intro", randomize("practice"),
	    shuffle(randomize(anyOf("subj_rel", "obj_rel")),
	            randomize(anyOf("filler_gram", "filler_ungram"))))

presents the intro, the practice items in random order, then one relative
clause condition mixed with one filler condition.

# Usage

Experiments come from a YAML/JSON file, an HCL file, a Loam directory of
markdown documents, or the Go DSL in package dsl:

	eng, err := trialset.New("./relative-clauses.yaml")
	if err != nil {
		log.Fatal(err)
	}

	plan, err := eng.Plan(ctx, trialset.PlanOptions{Save: true})
	if err != nil {
		log.Fatal(err)
	}

	for _, e := range plan.Entries {
		fmt.Println(e.Position, e.Item.Label())
	}

Every plan records the seed it was drawn with. Planning the same experiment
with that seed again yields the same order, which is what Replay checks.
*/
package trialset
