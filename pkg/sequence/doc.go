/*
Package sequence models the sequencing grammar that orders an experiment's trials.

An expression is a small tree whose leaves reference item groups and whose inner
nodes combine them:

  - seq(a, b, ...): concatenate the children in the listed order.
  - randomize(x): present every item produced by x in a random permutation.
  - shuffle(a, b, ...): randomly interleave the children, keeping each child's internal order.
  - anyOf(a, b, ...): pick exactly one child for the run.

Expressions can be built in Go or parsed from their textual form:

	expr := sequence.Seq(
		sequence.Group("intro"),
		sequence.Randomize(sequence.Group("practice")),
		sequence.Shuffle(
			sequence.Randomize(sequence.AnyOf(sequence.Group("subj_rel"), sequence.Group("obj_rel"))),
			sequence.Randomize(sequence.AnyOf(sequence.Group("filler_gram"), sequence.Group("filler_ungram"))),
		),
	)

	same, err := sequence.Parse(`seq("intro", randomize("practice"), shuffle(randomize(anyOf("subj_rel","obj_rel")), randomize(anyOf("filler_gram","filler_ungram"))))`)

The package only describes the order; evaluating it against items is the job of
the planner.
*/
package sequence
