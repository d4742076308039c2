package chain

import (
	"context"
	"testing"

	ai "github.com/spetersoncode/strand"
	"github.com/spetersoncode/strand/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triageSteps() []StepSpec {
	return []StepSpec{
		{
			Name:     "classify",
			Template: "Classify: {{.input}}",
			Branches: []Branch{
				{When: Contains("long"), To: "stepA"},
				{When: Contains("short"), To: "stepB"},
				{When: Otherwise(), To: "stepC"},
			},
		},
		{Name: "stepA", Template: "A: {{.input}}"},
		{Name: "stepB", Template: "B: {{.input}}"},
		{Name: "stepC", Template: "C: {{.input}}"},
	}
}

func TestConditional_FirstMatchingBranchWins(t *testing.T) {
	provider := &fakeProvider{responses: []fakeResponse{
		{content: "this looks LONG and short to me"},
		{content: "handled by A"},
	}}
	spec, err := NewConditional("triage", triageSteps())
	require.NoError(t, err)

	out, err := newTestRunner(provider).Run(context.Background(), spec, "something")
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, []string{"classify", "stepA"}, out.Run.Path,
		"declaration order decides when several predicates match")
	assert.Equal(t, "handled by A", out.FinalOutput)
}

func TestConditional_NoMatchTakesDefault(t *testing.T) {
	provider := &fakeProvider{responses: []fakeResponse{
		{content: "neither of those categories"},
		{content: "handled by C"},
	}}
	spec, err := NewConditional("triage", triageSteps())
	require.NoError(t, err)

	out, err := newTestRunner(provider).Run(context.Background(), spec, "something")
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, []string{"classify", "stepC"}, out.Run.Path)
}

func TestConditional_FailedStepRoutesThroughDefault(t *testing.T) {
	provider := &fakeProvider{responses: []fakeResponse{
		{err: ai.NewUnknownError("classifier down", 500, nil)},
		{err: ai.NewUnknownError("still down", 500, nil)},
		{content: "handled by C"},
	}}
	steps := triageSteps()
	steps[0].MaxAttempts = 1
	spec, err := NewConditional("triage", steps)
	require.NoError(t, err)

	out, err := newTestRunner(provider).Run(context.Background(), spec, "original request")
	require.NoError(t, err)

	assert.Equal(t, StatusPartial, out.Status)
	assert.Equal(t, []string{"classify", "stepC"}, out.Run.Path,
		"a failed step falls through to the default branch")
	assert.Equal(t, "C: original request", provider.prompt(2),
		"the default branch receives the unmodified carried input")
}

func TestConditional_EmptyTargetEndsChain(t *testing.T) {
	provider := &fakeProvider{responses: []fakeResponse{{content: "all done"}}}
	steps := []StepSpec{
		{
			Name:     "gate",
			Template: "{{.input}}",
			Branches: []Branch{
				{When: Contains("done"), To: ""},
				{When: Otherwise(), To: "more"},
			},
		},
		{Name: "more", Template: "{{.input}}"},
	}
	spec, err := NewConditional("gated", steps)
	require.NoError(t, err)

	out, err := newTestRunner(provider).Run(context.Background(), spec, "x")
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, []string{"gate"}, out.Run.Path)
	assert.Equal(t, 1, provider.callCount())
}

func TestConditional_MultiHopPath(t *testing.T) {
	provider := &fakeProvider{responses: []fakeResponse{
		{content: "go deeper"},
		{content: "now finish"},
		{content: "terminal output"},
	}}
	steps := []StepSpec{
		{
			Name:     "first",
			Template: "1: {{.input}}",
			Branches: []Branch{
				{When: Contains("deeper"), To: "second"},
				{When: Otherwise(), To: "last"},
			},
		},
		{
			Name:     "second",
			Template: "2: {{.input}}",
			Branches: []Branch{
				{When: Otherwise(), To: "last"},
			},
		},
		{Name: "last", Template: "3: {{.input}}"},
	}
	spec, err := NewConditional("hops", steps)
	require.NoError(t, err)

	out, err := newTestRunner(provider).Run(context.Background(), spec, "start")
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, []string{"first", "second", "last"}, out.Run.Path)
	assert.Equal(t, "terminal output", out.FinalOutput)
}

func TestConditional_RecordedPathReplays(t *testing.T) {
	provider := &fakeProvider{responses: []fakeResponse{
		{content: "short and sweet"},
		{content: "handled by B"},
	}}
	spec, err := NewConditional("triage", triageSteps())
	require.NoError(t, err)

	out, err := newTestRunner(provider).Run(context.Background(), spec, "something")
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, out.Status)

	// Re-evaluating the recorded outputs against the same predicates
	// must reproduce the recorded path.
	replayed := []string{spec.Entry().Name}
	step := spec.Entry()
	for len(step.Branches) > 0 {
		res, ok := out.Run.Result(step.Name)
		require.True(t, ok)
		branch := selectBranch(step.Branches, res)
		if branch.To == "" {
			break
		}
		step, ok = spec.Step(branch.To)
		require.True(t, ok)
		replayed = append(replayed, step.Name)
	}
	assert.Equal(t, out.Run.Path, replayed)
}

func TestConditional_BranchSelectedEventCarriesTarget(t *testing.T) {
	provider := &fakeProvider{responses: []fakeResponse{
		{content: "short"},
		{content: "handled by B"},
	}}
	spec, err := NewConditional("triage", triageSteps())
	require.NoError(t, err)

	events := event.NewChannel()
	_, err = newTestRunner(provider).Run(context.Background(), spec, "x", WithEvents(events))
	require.NoError(t, err)
	close(events)

	var selected []event.Event
	for ev := range events {
		if ev.Type == event.BranchSelected {
			selected = append(selected, ev)
		}
	}
	require.Len(t, selected, 1)
	assert.Equal(t, "classify", selected[0].Step)
	assert.Equal(t, "stepB", selected[0].Branch)
	assert.Equal(t, `contains(short)`, selected[0].Message)
}

func TestConditional_TerminalStepFailureIsFailure(t *testing.T) {
	provider := &fakeProvider{responses: []fakeResponse{
		{content: "neither"},
		{err: ai.NewUnknownError("boom", 500, nil)},
		{err: ai.NewUnknownError("boom", 500, nil)},
	}}
	steps := triageSteps()
	steps[3].MaxAttempts = 1 // stepC
	spec, err := NewConditional("triage", steps)
	require.NoError(t, err)

	out, err := newTestRunner(provider).Run(context.Background(), spec, "x")
	require.NoError(t, err)

	assert.Equal(t, StatusFailure, out.Status, "the terminal step of the executed path is mandatory")
}
