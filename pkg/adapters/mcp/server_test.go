package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/trialset"
	"github.com/aretw0/trialset/internal/logging"
	"github.com/aretw0/trialset/pkg/domain"
	"github.com/aretw0/trialset/pkg/dsl"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	b := dsl.New("rc").SequenceString(`seq("intro", randomize("filler"))`)
	b.Form("intro").HTML(`<input name="edad">`).Validate("edad", `^\d+$`, "Valor erróneo para ‘edad’")
	b.Judgment("filler", "Juan comió una manzana.")
	b.Judgment("filler", "María leyó el periódico.")
	loader, err := b.Build()
	require.NoError(t, err)

	eng, err := trialset.New("", trialset.WithLoader(loader))
	require.NoError(t, err)
	return NewServer(eng, logging.NewNop())
}

func TestGeneratePlan(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	first, err := s.handleGeneratePlan(ctx, mcp.CallToolRequest{}, PlanArgs{Seed: "18446744073709551615"})
	require.NoError(t, err)
	assert.Equal(t, "18446744073709551615", first.Seed)
	require.Len(t, first.Items, 3)
	assert.Equal(t, "intro", first.Items[0].Label)
	assert.Equal(t, domain.TypeForm, first.Items[0].Type)

	second, err := s.handleGeneratePlan(ctx, mcp.CallToolRequest{}, PlanArgs{Seed: first.Seed})
	require.NoError(t, err)
	assert.Equal(t, first.Items, second.Items)

	_, err = s.handleGeneratePlan(ctx, mcp.CallToolRequest{}, PlanArgs{Seed: "-1"})
	assert.Error(t, err)
}

func TestReplayPlan(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	plan, err := s.handleGeneratePlan(ctx, mcp.CallToolRequest{}, PlanArgs{Seed: "5", Save: true})
	require.NoError(t, err)

	replayed, err := s.handleReplayPlan(ctx, mcp.CallToolRequest{}, ReplayArgs{ID: plan.ID})
	require.NoError(t, err)
	assert.Equal(t, plan, replayed)

	_, err = s.handleReplayPlan(ctx, mcp.CallToolRequest{}, ReplayArgs{ID: "missing"})
	assert.ErrorIs(t, err, domain.ErrPlanNotFound)
}

func TestValidateField(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleValidateField(ctx, mcp.CallToolRequest{}, FieldArgs{Group: "intro", Field: "edad", Input: "34"})
	require.NoError(t, err)
	assert.True(t, res.Accepted)

	res, err = s.handleValidateField(ctx, mcp.CallToolRequest{}, FieldArgs{Group: "intro", Field: "edad", Input: ""})
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, "Valor erróneo para ‘edad’", res.Message)

	_, err = s.handleValidateField(ctx, mcp.CallToolRequest{}, FieldArgs{Group: "intro", Field: "nombre"})
	assert.ErrorIs(t, err, domain.ErrFieldNotFound)
}

func TestValidateExperiment(t *testing.T) {
	res, err := newTestServer(t).handleValidateExperiment(context.Background(), mcp.CallToolRequest{}, struct{}{})
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestGetSequence(t *testing.T) {
	res, err := newTestServer(t).handleGetSequence(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, `seq("intro", randomize("filler"))`, text.Text)
}

func TestResources(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	contents, err := s.readExperiment(ctx, mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, ExperimentURI, text.URI)

	var exp domain.Experiment
	require.NoError(t, json.Unmarshal([]byte(text.Text), &exp))
	assert.Equal(t, "rc", exp.Name)

	contents, err = s.readSequence(ctx, mcp.ReadResourceRequest{})
	require.NoError(t, err)
	text, ok = contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Contains(t, text.Text, "randomize")
}
