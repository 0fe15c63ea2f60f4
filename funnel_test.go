package funnel_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/funnel"
	"github.com/aretw0/funnel/internal/runtime"
	"github.com/aretw0/funnel/pkg/adapters/memory"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/aretw0/funnel/pkg/products/health"
)

func newFunnel(t *testing.T, store ports.KeyValueStore, opts ...funnel.Option) *funnel.Funnel {
	t.Helper()
	opts = append([]funnel.Option{
		funnel.WithStore(store),
		funnel.WithOwner("user-1"),
		funnel.WithDelays(runtime.Delays{}),
	}, opts...)
	f, err := funnel.New(health.Name, opts...)
	require.NoError(t, err)
	return f
}

func answerUntilPincode(t *testing.T, j *funnel.Journey, prompt *ports.Prompt) *ports.Prompt {
	t.Helper()
	ctx := context.Background()
	var err error
	for _, resp := range []any{
		"Asha",
		[]string{"self"},
		[]any{map[string]any{"relation": "self", "age": 28}},
	} {
		require.NotNil(t, prompt)
		prompt, err = j.Respond(ctx, prompt.Activation, resp)
		require.NoError(t, err)
	}
	require.Equal(t, health.StepPincode, prompt.StepID)
	return prompt
}

func TestNew_UnknownProduct(t *testing.T) {
	_, err := funnel.New("pets")
	assert.Error(t, err)
}

func TestStart_Fresh(t *testing.T) {
	f := newFunnel(t, memory.NewStore(), funnel.WithIDGenerator(func() string { return "id-1" }))

	j, prompt, err := f.Start(context.Background(), funnel.StartOptions{Resume: true})
	require.NoError(t, err)
	defer j.Close()

	assert.Equal(t, "id-1", j.ID())
	require.NotNil(t, prompt)
	assert.Equal(t, "intro.name", prompt.StepID)
	assert.Empty(t, j.State().ResumedFrom)

	_, ok := f.ResumeCard(context.Background())
	assert.False(t, ok)
}

func TestStart_MisshapenSnapshotStartsFresh(t *testing.T) {
	ctx := context.Background()
	f := newFunnel(t, memory.NewStore())
	require.NoError(t, f.Snapshots().Save(ctx, health.Name, health.StepPincode, map[string]any{
		health.FieldName:       "Asha",
		health.FieldSumInsured: "a lot",
	}))

	_, ok := f.ResumeCard(ctx)
	assert.False(t, ok)

	j, prompt, err := f.Start(ctx, funnel.StartOptions{Resume: true})
	require.NoError(t, err)
	defer j.Close()
	require.NotNil(t, prompt)
	assert.Equal(t, "intro.name", prompt.StepID)
	assert.Empty(t, j.State().ResumedFrom)
}

func TestStart_ResumeFromCheckpoint(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	f := newFunnel(t, store)

	j, prompt, err := f.Start(ctx, funnel.StartOptions{JourneyID: "first"})
	require.NoError(t, err)
	answerUntilPincode(t, j, prompt)
	j.Close()

	card, ok := f.ResumeCard(ctx)
	require.True(t, ok)
	assert.NotEmpty(t, card.Title)

	other := newFunnel(t, store, funnel.WithOwner("user-2"))
	_, ok = other.ResumeCard(ctx)
	assert.False(t, ok, "snapshots are scoped per owner")

	resumed, prompt, err := f.Start(ctx, funnel.StartOptions{JourneyID: "second", Resume: true})
	require.NoError(t, err)
	defer resumed.Close()

	require.NotNil(t, prompt)
	assert.Equal(t, health.StepPincode, prompt.StepID)
	st := resumed.State()
	assert.Equal(t, health.StepPincode, st.ResumedFrom)
	assert.Equal(t, "Asha", st.Get(health.FieldName))
	assert.Equal(t, domain.PersonaYoungIndividual, resumed.Persona())
}

func TestRestart(t *testing.T) {
	ctx := context.Background()
	f := newFunnel(t, memory.NewStore())

	j, prompt, err := f.Start(ctx, funnel.StartOptions{JourneyID: "j1"})
	require.NoError(t, err)
	defer j.Close()
	answerUntilPincode(t, j, prompt)

	prompt, err = j.Restart(ctx)
	require.NoError(t, err)
	require.NotNil(t, prompt)
	assert.Equal(t, "intro.name", prompt.StepID)
	assert.Equal(t, "j1", j.ID())
	assert.False(t, j.State().Has(health.FieldName))

	_, ok := f.ResumeCard(ctx)
	assert.False(t, ok, "restart discards the snapshot")
}

// deleteFailingStore is a memory store whose backend refuses deletes.
type deleteFailingStore struct {
	*memory.Store
}

func (s deleteFailingStore) Delete(context.Context, string) error {
	return errors.New("backend down")
}

func TestRestart_DiscardFailureStillRestarts(t *testing.T) {
	ctx := context.Background()
	f := newFunnel(t, deleteFailingStore{memory.NewStore()})

	j, prompt, err := f.Start(ctx, funnel.StartOptions{JourneyID: "j1"})
	require.NoError(t, err)
	defer j.Close()
	answerUntilPincode(t, j, prompt)

	prompt, err = j.Restart(ctx)
	require.NoError(t, err)
	require.NotNil(t, prompt)
	assert.Equal(t, "intro.name", prompt.StepID)
	assert.False(t, j.State().Has(health.FieldName))
}

func TestLifecycleHooks_Merge(t *testing.T) {
	var first, second int
	f := newFunnel(t, memory.NewStore(),
		funnel.WithLifecycleHooks(domain.LifecycleHooks{
			OnStepEnter: func(context.Context, *domain.StepEvent) { first++ },
		}),
		funnel.WithLifecycleHooks(domain.LifecycleHooks{
			OnStepEnter: func(context.Context, *domain.StepEvent) { second++ },
		}),
	)

	j, _, err := f.Start(context.Background(), funnel.StartOptions{})
	require.NoError(t, err)
	defer j.Close()

	assert.Positive(t, first)
	assert.Equal(t, first, second)
}

func TestDispatcher(t *testing.T) {
	var seen []string
	f := newFunnel(t, memory.NewStore(), funnel.WithDispatcher(ports.DispatcherFunc(func(_ context.Context, p ports.Prompt) error {
		seen = append(seen, p.StepID)
		return nil
	})))

	j, _, err := f.Start(context.Background(), funnel.StartOptions{})
	require.NoError(t, err)
	defer j.Close()

	assert.Equal(t, []string{"intro.name"}, seen)
}
