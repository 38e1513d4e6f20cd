package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/trialset/pkg/domain"
	"github.com/aretw0/trialset/pkg/schema"
	"github.com/aretw0/trialset/pkg/sequence"
)

func judgment(i int, group, s string) domain.Item {
	return domain.Item{Index: i, Group: group, Type: domain.TypeJudgment, Payload: domain.Payload{Sentence: s}}
}

func validExperiment() *domain.Experiment {
	return &domain.Experiment{
		Name:   "relative-clauses",
		Locale: "es-AR",
		Items: []domain.Item{
			{Index: 0, Group: "intro", Type: domain.TypeForm, Payload: domain.Payload{
				Include:    "intro.html",
				Validators: map[string]domain.Rule{"edad": {Pattern: `^\d+$`, Message: "Valor erróneo para ‘edad’"}},
			}},
			judgment(1, "practice", "El niño corrió."),
			judgment(2, "subj_rel", "El periodista que atacó al senador admitió el error."),
			judgment(3, "obj_rel", "El periodista que el senador atacó admitió el error."),
		},
		Defaults: domain.Defaults{
			domain.TypeJudgment: {"as": []any{"1", "2", "3"}, "presentAsScale": true},
		},
		Sequence: sequence.MustParse(`seq("intro", randomize("practice"), shuffle(randomize(anyOf("subj_rel", "obj_rel"))))`),
	}
}

func TestValidate_Valid(t *testing.T) {
	assert.NoError(t, Validate(validExperiment()))
	assert.NoError(t, Validate(validExperiment(), WithStrict(true)))
}

func TestValidate_NoSequence(t *testing.T) {
	exp := validExperiment()
	exp.Sequence = sequence.Expr{}
	assert.NoError(t, Validate(exp), "the default sequence references every group once")
}

func TestValidate_SequenceProblems(t *testing.T) {
	exp := validExperiment()
	exp.Sequence = sequence.MustParse(`seq("intro", "practice", "practice", "ghost")`)

	err := Validate(exp)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownGroup)
	assert.ErrorIs(t, err, domain.ErrDuplicateReference)
	assert.ErrorIs(t, err, domain.ErrOrphanedGroup)

	// subj_rel and obj_rel are both orphaned.
	assert.Len(t, schema.ValidationErrors(err), 4)
}

func TestValidate_DeclaredEmptyGroup(t *testing.T) {
	exp := validExperiment()
	exp.Groups = []string{"debrief"}
	exp.Sequence = sequence.Seq(exp.Sequence, sequence.Group("debrief"))
	assert.NoError(t, Validate(exp))
}

func TestValidate_InvalidExpression(t *testing.T) {
	exp := validExperiment()
	exp.Sequence = sequence.Expr{Kind: sequence.KindRandomize}
	assert.ErrorIs(t, Validate(exp), sequence.ErrInvalidExpression)
}

func TestValidate_Payloads(t *testing.T) {
	exp := validExperiment()
	exp.Items[0].Payload.Include = ""
	exp.Items[1].Payload.Sentence = ""

	err := Validate(exp)
	assert.ErrorIs(t, err, ErrInvalidItem)
	assert.Len(t, schema.ValidationErrors(err), 2)
	assert.Contains(t, err.Error(), "item 0 (intro) has no html")
	assert.Contains(t, err.Error(), "item 1 (practice) has no sentence")
}

func TestValidate_MissingTypeAndGroup(t *testing.T) {
	exp := validExperiment()
	exp.Sequence = sequence.Expr{}
	exp.Items = append(exp.Items, domain.Item{Index: 4, Group: "", Type: ""})
	err := Validate(exp)
	assert.ErrorIs(t, err, ErrInvalidItem)
	assert.Len(t, schema.ValidationErrors(err), 2)
}

func TestValidate_UnknownTypeOnlyWhenStrict(t *testing.T) {
	exp := validExperiment()
	exp.Items[1].Type = "Question"

	assert.NoError(t, Validate(exp))
	assert.ErrorIs(t, Validate(exp, WithStrict(true)), ErrUnknownType)

	exp.Defaults["Question"] = map[string]any{"hasCorrect": true}
	assert.NoError(t, Validate(exp, WithStrict(true)), "a defaults bundle makes the type known")
}

func TestValidate_OptionTypes(t *testing.T) {
	exp := validExperiment()
	exp.Defaults[domain.TypeJudgment]["presentAsScale"] = "yes"
	exp.Items[1].Options = map[string]any{"as": "1-7"}

	err := Validate(exp)
	require.Error(t, err)
	assert.Len(t, schema.ValidationErrors(err), 2)
	assert.Contains(t, err.Error(), `defaults "AcceptabilityJudgment"`)
	assert.Contains(t, err.Error(), "item 1 (practice) options")

	var verr *schema.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestValidate_Rules(t *testing.T) {
	exp := validExperiment()
	exp.Items[0].Payload.Validators["bad"] = domain.Rule{Pattern: "("}
	assert.ErrorIs(t, Validate(exp), schema.ErrInvalidRule)
}

func TestValidate_Locale(t *testing.T) {
	exp := validExperiment()
	exp.Locale = "not a locale"
	assert.ErrorIs(t, Validate(exp), ErrInvalidLocale)
}

func TestValidate_DuplicateOrdinal(t *testing.T) {
	exp := validExperiment()
	exp.Items[2].Ordinal = 1
	dup := judgment(4, "subj_rel", "Otra oración.")
	dup.Ordinal = 1
	exp.Items = append(exp.Items, dup)

	err := Validate(exp)
	assert.ErrorIs(t, err, ErrDuplicateItem)
	assert.Contains(t, err.Error(), "repeats item 2")
}
