package sequence

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ibexLine = `var shuffleSequence = seq("intro", randomize("practice"), shuffle(randomize(anyOf("subj_rel","obj_rel")), randomize(anyOf("filler_gram","filler_ungram"))));`

func relativeClauseSequence() Expr {
	return Seq(
		Group("intro"),
		Randomize(Group("practice")),
		Shuffle(
			Randomize(AnyOf(Groups("subj_rel", "obj_rel")...)),
			Randomize(AnyOf(Groups("filler_gram", "filler_ungram")...)),
		),
	)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want Expr
	}{
		{"quoted label", `"intro"`, Group("intro")},
		{"single quotes", `seq('a', 'b')`, Seq(Group("a"), Group("b"))},
		{"bare labels", `shuffle(randomize(anyOf(subj_rel,obj_rel)), randomize(anyOf(filler_gram,filler_ungram)))`,
			Shuffle(
				Randomize(AnyOf(Group("subj_rel"), Group("obj_rel"))),
				Randomize(AnyOf(Group("filler_gram"), Group("filler_ungram"))),
			)},
		{"ibex assignment", ibexLine, relativeClauseSequence()},
		{"trailing comma", `seq("a", "b",)`, Seq(Group("a"), Group("b"))},
		{"empty call", `seq()`, Seq()},
		{"case insensitive operator", `AnyOf("a", "b")`, AnyOf(Group("a"), Group("b"))},
		{"whitespace and comments", "seq(\n  // intro first\n  \"intro\" ,\n  randomize( \"practice\" )\n)",
			Seq(Group("intro"), Randomize(Group("practice")))},
		{"escaped quote", `"it\"s"`, Group(`it"s`)},
		{"unicode label", `randomize("oración")`, Randomize(Group("oración"))},
		{"escaped quote in single quotes", `'it\'s'`, Group("it's")},
		{"control escapes", `"a\tb\nc"`, Group("a\tb\nc")},
		{"unicode escape", `"\u2018edad\u2019"`, Group("‘edad’")},
		{"unknown escape keeps character", `"a\/b"`, Group("a/b")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.src)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.src, diff)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"unknown operator", `rshuffle("a")`},
		{"unterminated string", `seq("a`},
		{"missing paren", `seq("a", "b"`},
		{"junk after expression", `seq("a") "b"`},
		{"randomize arity", `randomize("a", "b")`},
		{"randomize empty", `randomize()`},
		{"stray character", `seq("a"; "b")`},
		{"double comma", `seq("a",, "b")`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidExpression)
		})
	}
}

func TestString_RoundTrip(t *testing.T) {
	exprs := []Expr{
		relativeClauseSequence(),
		Seq(),
		Group("with space"),
		AnyOf(Seq(Group("a"), Group("b")), Randomize(Group("c"))),
		Group("a\tb"),
		Group("a\nb"),
		Group("cr\r bell\a nul\x00"),
		Group("sep\u2028"),
		Group(`quote" back\slash`),
		Group("ñandú"),
		Group("raw\xff"),
		Shuffle(Group("x\ty"), AnyOf(Group("'single'"), Group("z\n"))),
	}

	for _, e := range exprs {
		parsed, err := Parse(e.String())
		require.NoError(t, err, e.String())
		if diff := cmp.Diff(e, parsed); diff != "" {
			t.Errorf("round trip of %s mismatch (-want +got):\n%s", e, diff)
		}
	}
}

func TestString_Canonical(t *testing.T) {
	got := relativeClauseSequence().String()
	want := `seq("intro", randomize("practice"), shuffle(randomize(anyOf("subj_rel", "obj_rel")), randomize(anyOf("filler_gram", "filler_ungram"))))`
	assert.Equal(t, want, got)
}

func TestLabels(t *testing.T) {
	e := Seq(Group("a"), AnyOf(Group("b"), Randomize(Group("a"))))
	assert.Equal(t, []string{"a", "b", "a"}, Labels(e))
	assert.Empty(t, Labels(Seq()))
}

func TestWalk_SkipChildren(t *testing.T) {
	e := Seq(Randomize(Group("hidden")), Group("visible"))
	var seen []Kind
	Walk(e, func(n Expr) bool {
		seen = append(seen, n.Kind)
		return n.Kind != KindRandomize
	})
	assert.Equal(t, []Kind{KindSeq, KindRandomize, KindGroup}, seen)
}

func TestCheck(t *testing.T) {
	assert.NoError(t, Check(relativeClauseSequence()))
	assert.ErrorIs(t, Check(Expr{Kind: KindRandomize}), ErrInvalidExpression)
	assert.ErrorIs(t, Check(Seq(Group(""))), ErrInvalidExpression)
	assert.ErrorIs(t, Check(Expr{Kind: "rotate"}), ErrInvalidExpression)
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("seq(") })
	assert.NotPanics(t, func() { MustParse(`seq("a")`) })
}
