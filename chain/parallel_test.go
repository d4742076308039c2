package chain

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	ai "github.com/spetersoncode/strand"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// markerProvider answers by branch marker with a randomized delay, so
// completion order varies between runs. Prompts that do not start with
// a bare marker (recovery prompts) always fail, keeping failed
// branches failed.
func markerProvider(t *testing.T, fail map[string]bool) funcProvider {
	t.Helper()
	return func(ctx context.Context, prompt string) (*ai.Completion, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(rand.Intn(15)) * time.Millisecond):
		}
		marker, _, found := strings.Cut(prompt, ":")
		if !found || strings.ContainsAny(marker, " \n") {
			return nil, ai.NewUnknownError("recovery refused", 500, nil)
		}
		if fail[marker] {
			return nil, ai.NewUnknownError("branch "+marker+" refused", 500, nil)
		}
		return &ai.Completion{Content: "out-" + marker}, nil
	}
}

func fanOutSpec(t *testing.T) *Spec {
	t.Helper()
	spec, err := NewParallel("digest",
		[]StepSpec{
			{Name: "alpha", Template: "alpha: {{.input}}", MaxAttempts: 1},
			{Name: "beta", Template: "beta: {{.input}}", MaxAttempts: 1},
			{Name: "gamma", Template: "gamma: {{.input}}", MaxAttempts: 1},
		},
		StepSpec{Name: "combine", Template: "combine: {{.input}}", MaxAttempts: 1},
	)
	require.NoError(t, err)
	return spec
}

func TestParallel_AggregationOrderIsDeclarationOrder(t *testing.T) {
	// Randomized completion delays must never change the aggregation
	// input order.
	for i := 0; i < 5; i++ {
		provider := markerProvider(t, nil)
		out, err := newTestRunner(provider).Run(context.Background(), fanOutSpec(t), "x")
		require.NoError(t, err)

		require.Equal(t, StatusSuccess, out.Status)
		combine, ok := out.Run.Result("combine")
		require.True(t, ok)
		assert.Equal(t, "combine: out-alpha\n\nout-beta\n\nout-gamma", combine.Input)
	}
}

func TestParallel_ResultsRecordedInDeclarationOrder(t *testing.T) {
	provider := markerProvider(t, nil)
	out, err := newTestRunner(provider).Run(context.Background(), fanOutSpec(t), "x")
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "beta", "gamma", "combine"}, out.Run.Path)
}

func TestParallel_FailedBranchExcludedFromAggregation(t *testing.T) {
	provider := markerProvider(t, map[string]bool{"beta": true})
	out, err := newTestRunner(provider).Run(context.Background(), fanOutSpec(t), "x")
	require.NoError(t, err)

	assert.Equal(t, StatusPartial, out.Status)
	combine, ok := out.Run.Result("combine")
	require.True(t, ok)
	assert.Equal(t, "combine: out-alpha\n\nout-gamma", combine.Input,
		"only successful branches feed aggregation, order preserved")

	beta, ok := out.Run.Result("beta")
	require.True(t, ok)
	assert.False(t, beta.Success)
	assert.Error(t, beta.Err)
}

func TestParallel_ZeroSuccessesStillAggregates(t *testing.T) {
	provider := markerProvider(t, map[string]bool{"alpha": true, "beta": true, "gamma": true, "combine": false})
	out, err := newTestRunner(provider).Run(context.Background(), fanOutSpec(t), "x")
	require.NoError(t, err)

	assert.Equal(t, StatusPartial, out.Status)
	combine, ok := out.Run.Result("combine")
	require.True(t, ok)
	assert.True(t, combine.Success)
	assert.Equal(t, "combine: ", combine.Input, "aggregation runs with empty input when every branch fails")
	assert.Equal(t, "out-combine", out.FinalOutput)
}

func TestParallel_AggregateFailureIsFailure(t *testing.T) {
	provider := markerProvider(t, map[string]bool{"combine": true})
	out, err := newTestRunner(provider).Run(context.Background(), fanOutSpec(t), "x")
	require.NoError(t, err)

	assert.Equal(t, StatusFailure, out.Status, "the aggregation step is mandatory")
	assert.Equal(t, ai.KindUnknown, out.ErrorKind)
	assert.Empty(t, out.FinalOutput)
}

func TestParallel_StrictSkipsAggregationAfterBranchFailure(t *testing.T) {
	provider := markerProvider(t, map[string]bool{"beta": true})
	out, err := newTestRunner(provider).Run(context.Background(), fanOutSpec(t), "x", Strict())
	require.NoError(t, err)

	assert.Equal(t, StatusFailure, out.Status)
	_, ok := out.Run.Result("combine")
	assert.False(t, ok, "strict mode does not aggregate a partial fan-out")
}

func TestParallel_MaxConcurrencyBoundsInFlightCalls(t *testing.T) {
	var mu sync.Mutex
	var inFlight, peak int

	provider := funcProvider(func(ctx context.Context, prompt string) (*ai.Completion, error) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()
		defer func() {
			mu.Lock()
			inFlight--
			mu.Unlock()
		}()
		time.Sleep(10 * time.Millisecond)
		return &ai.Completion{Content: "ok"}, nil
	})

	steps := make([]StepSpec, 6)
	for i, name := range []string{"s1", "s2", "s3", "s4", "s5", "s6"} {
		steps[i] = StepSpec{Name: name, Template: name + ": {{.input}}"}
	}
	spec, err := NewParallel("bounded", steps, StepSpec{Name: "agg", Template: "agg: {{.input}}"})
	require.NoError(t, err)

	out, err := newTestRunner(provider).Run(context.Background(), spec, "x", WithMaxConcurrency(2))
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, out.Status)
	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, 2)
}

func TestParallel_BranchUsageAccumulates(t *testing.T) {
	provider := &fakeProvider{responses: []fakeResponse{
		{content: "a"}, {content: "b"}, {content: "c"},
	}}
	spec, err := NewParallel("digest",
		[]StepSpec{
			{Name: "one", Template: "one: {{.input}}"},
			{Name: "two", Template: "two: {{.input}}"},
		},
		StepSpec{Name: "agg", Template: "agg: {{.input}}"},
	)
	require.NoError(t, err)

	out, err := newTestRunner(provider).Run(context.Background(), spec, "x")
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, ai.Usage{InputTokens: 30, OutputTokens: 60}, out.Run.Usage,
		"two branches plus aggregation")
}
