package progress

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/api"
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/fakeapi"
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"
)

type tokenString string

func (t tokenString) Token() string { return string(t) }

type env struct {
	fake   *fakeapi.Server
	demo   fakeapi.Demo
	client *api.Client
	steps  []string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	fake := fakeapi.New()
	demo := fake.SeedDemo()
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)
	tok, err := fake.TokenFor(demo.Learner.ID)
	require.NoError(t, err)
	return &env{
		fake:   fake,
		demo:   demo,
		client: api.NewClient(srv.URL+"/api", tokenString(tok)),
		steps:  demo.Roadmap.StepIDs(),
	}
}

func (e *env) tracker(t *testing.T) *Tracker {
	t.Helper()
	tr := New(e.client)
	require.NoError(t, tr.Initialize(context.Background(), e.demo.Learner.ID, e.demo.Roadmap.ID))
	return tr
}

func (e *env) callsTo(path string) []fakeapi.Call {
	var out []fakeapi.Call
	for _, c := range e.fake.Calls() {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func TestInitialize(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.client.AddRoadmapToProfile(ctx, e.demo.Roadmap.ID))
	require.NoError(t, e.client.FinishSteps(ctx, e.steps[:2]))

	tr := e.tracker(t)
	assert.True(t, tr.InProfile())
	assert.Equal(t, e.steps[:2], tr.Finished())
	assert.Equal(t, tr.Finished(), tr.Selected(), "selection starts equal to the baseline")
	assert.False(t, tr.Dirty())
	assert.Equal(t, 840+1140, tr.TotalDuration())
	assert.Equal(t, 240+480, tr.CompletedDuration())
}

func TestInitialize_Failure(t *testing.T) {
	e := newEnv(t)
	e.fake.Fail(http.MethodGet, "/Profile/FinishedSteps/"+e.demo.Roadmap.ID, http.StatusInternalServerError)

	tr := New(e.client)
	require.Error(t, tr.Initialize(context.Background(), e.demo.Learner.ID, e.demo.Roadmap.ID))
	_, err := tr.Toggle(e.steps[0])
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestToggle(t *testing.T) {
	e := newEnv(t)
	tr := e.tracker(t)

	on, err := tr.Toggle(e.steps[0])
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, tr.Dirty())
	assert.Empty(t, e.callsTo("/Profile/FinishSteps"), "toggle is local only")

	on, err = tr.Toggle(e.steps[0])
	require.NoError(t, err)
	assert.False(t, on)
	assert.False(t, tr.Dirty())

	_, err = tr.Toggle("not-in-roadmap")
	assert.ErrorIs(t, err, ErrUnknownStep)
}

func TestCommit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.client.FinishSteps(ctx, e.steps[:1]))
	tr := e.tracker(t)

	e.fake.ResetCalls()
	require.NoError(t, tr.Commit(ctx))
	assert.Empty(t, e.fake.Calls(), "nothing to commit makes no request")

	_, err := tr.Toggle(e.steps[0])
	require.NoError(t, err)
	_, err = tr.Toggle(e.steps[2])
	require.NoError(t, err)

	require.NoError(t, tr.Commit(ctx))
	assert.Equal(t, []string{e.steps[2]}, tr.Finished())
	assert.False(t, tr.Dirty())
	assert.Len(t, e.callsTo("/Profile/FinishSteps"), 1)
	assert.Len(t, e.callsTo("/Profile/UnFinishSteps"), 1)
	assert.Equal(t, []string{e.steps[2]}, e.fake.FinishedStepIDs(e.demo.Learner.ID))
}

func TestCommit_PartialFailureKeepsBaseline(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.client.FinishSteps(ctx, e.steps[:2]))
	tr := e.tracker(t)
	before := tr.Finished()

	_, err := tr.Toggle(e.steps[1])
	require.NoError(t, err)
	_, err = tr.Toggle(e.steps[2])
	require.NoError(t, err)

	e.fake.Fail(http.MethodPut, "/Profile/UnFinishSteps", http.StatusInternalServerError)
	e.fake.ResetCalls()
	var re *api.RemoteError
	require.ErrorAs(t, tr.Commit(ctx), &re)

	assert.Equal(t, before, tr.Finished(), "baseline unchanged after partial failure")
	assert.Len(t, e.callsTo("/Profile/FinishSteps"), 1, "the finish call still went out")
	assert.True(t, tr.Dirty())

	e.fake.ClearFailures()
	e.fake.ResetCalls()
	require.NoError(t, tr.Commit(ctx))

	finish := e.callsTo("/Profile/FinishSteps")
	unfinish := e.callsTo("/Profile/UnFinishSteps")
	require.Len(t, finish, 1)
	require.Len(t, unfinish, 1)
	assert.JSONEq(t, `["`+e.steps[2]+`"]`, finish[0].Body, "full diff is re-issued")
	assert.JSONEq(t, `["`+e.steps[1]+`"]`, unfinish[0].Body)
	assert.Equal(t, []string{e.steps[0], e.steps[2]}, tr.Finished())
}

func TestToggleProfileMembership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tr := e.tracker(t)
	require.False(t, tr.InProfile())

	e.fake.Fail(http.MethodPut, "/Profile/AddRoadmap/"+e.demo.Roadmap.ID, http.StatusInternalServerError)
	in, err := tr.ToggleProfileMembership(ctx)
	require.Error(t, err)
	assert.False(t, in)
	assert.False(t, tr.InProfile(), "flag flips only after remote success")

	e.fake.ClearFailures()
	in, err = tr.ToggleProfileMembership(ctx)
	require.NoError(t, err)
	assert.True(t, in)
	assert.True(t, e.fake.InProfile(e.demo.Learner.ID, e.demo.Roadmap.ID))

	in, err = tr.ToggleProfileMembership(ctx)
	require.NoError(t, err)
	assert.False(t, in)
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0.0, Percentage(0, 0))
	assert.Equal(t, 0.0, Percentage(120, 0), "no division by zero")
	assert.Equal(t, 50.0, Percentage(30, 60))
	assert.Equal(t, 100.0, Percentage(60, 60))
}

type emptySource struct{ Source }

func (emptySource) GetRoadmap(ctx context.Context, id string) (*models.Roadmap, error) {
	return &models.Roadmap{ID: id}, nil
}

func (emptySource) CheckRoadmapInProfile(ctx context.Context, id string) (bool, error) {
	return false, nil
}

func (emptySource) GetFinishedSteps(ctx context.Context, id string) ([]string, error) {
	return []string{"orphan"}, nil
}

func TestTracker_EmptyRoadmap(t *testing.T) {
	tr := New(emptySource{})
	require.NoError(t, tr.Initialize(context.Background(), "u", "r"))
	assert.Equal(t, 0, tr.TotalDuration())
	assert.Equal(t, 0.0, tr.Percentage())
	assert.Empty(t, tr.Finished(), "finished ids outside the roadmap are ignored")
}

func TestTracker_Close(t *testing.T) {
	e := newEnv(t)
	tr := e.tracker(t)
	tr.Close()
	_, err := tr.Toggle(e.steps[0])
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, tr.Commit(context.Background()), ErrClosed)
}
