package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/api"
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/editor"
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/fakeapi"
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/session"
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/storage"
)

// harness 针对内存后端执行完整命令树，每个测试独立的 state 目录
type harness struct {
	t        *testing.T
	fake     *fakeapi.Server
	demo     fakeapi.Demo
	baseURL  string
	stateDir string
	config   string
}

type result struct {
	stdout string
	stderr string
	err    error
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fake := fakeapi.New()
	demo := fake.SeedDemo()
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)
	dir := t.TempDir()
	return &harness{
		t:        t,
		fake:     fake,
		demo:     demo,
		baseURL:  srv.URL + "/api",
		stateDir: dir,
		config:   filepath.Join(dir, "config.yaml"),
	}
}

func (h *harness) runWithInput(stdin string, args ...string) result {
	h.t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{
		"--server-url", h.baseURL,
		"--state-dir", h.stateDir,
		"--config", h.config,
	}, args...))
	err := cmd.ExecuteContext(context.Background())
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

func (h *harness) run(args ...string) result {
	h.t.Helper()
	return h.runWithInput("", args...)
}

// mustRun 断言成功并返回标准输出
func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	r := h.run(args...)
	require.NoError(h.t, r.err, "stderr: %s", r.stderr)
	return r.stdout
}

func (h *harness) login(u models.User) {
	h.t.Helper()
	h.mustRun("auth", "login", "--email", u.Email, "--password", fakeapi.DemoPassword)
}

func decode[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), s)
	return v
}

func TestAuth_LoginWhoamiLogout(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("auth", "login", "--email", h.demo.Learner.Email, "--password", fakeapi.DemoPassword)
	assert.Contains(t, out, "logged in as Ada Lovelace")
	assert.Contains(t, out, "energy: 5")

	st, err := storage.NewFileStore(h.stateDir)
	require.NoError(t, err)
	tok, ok := st.Get(storage.KeyAuthToken)
	assert.True(t, ok)
	assert.NotEmpty(t, tok)

	v := decode[sessionView](t, h.mustRun("-o", "json", "auth", "whoami"))
	require.NotNil(t, v.User)
	assert.Equal(t, h.demo.Learner.ID, v.User.ID)
	assert.Equal(t, "/", v.Home)
	require.NotNil(t, v.Energy)
	assert.Equal(t, 5, *v.Energy)

	h.mustRun("auth", "logout")
	assert.Contains(t, h.mustRun("auth", "whoami"), "not logged in")
}

func TestAuth_LoginReadsPasswordFromInput(t *testing.T) {
	h := newHarness(t)
	r := h.runWithInput(fakeapi.DemoPassword+"\n", "auth", "login", "--email", h.demo.Editor.Email)
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, "home: /editor/dashboard")
}

func TestAuth_BadCredentials(t *testing.T) {
	h := newHarness(t)
	r := h.run("auth", "login", "--email", h.demo.Learner.Email, "--password", "wrong")
	var re *api.RemoteError
	require.ErrorAs(t, r.err, &re)
	assert.Equal(t, 400, re.Status)
	assert.Contains(t, h.mustRun("auth", "whoami"), "not logged in")
}

func TestAuth_SignupVerifyChangePassword(t *testing.T) {
	h := newHarness(t)
	email := "grace@skillcraft.dev"

	out := h.mustRun("auth", "signup", "--first-name", "Grace", "--last-name", "Kelly", "--email", email, "--password", "secret1")
	assert.NotContains(t, out, "logged in", "signup alone does not start a session")

	out = h.mustRun("auth", "verify", "--email", email, "--token", h.fake.VerificationToken(email))
	assert.Contains(t, out, "logged in as Grace Kelly")

	h.mustRun("auth", "change-password", "--current", "secret1", "--new", "secret2")
	h.mustRun("auth", "logout")
	assert.Error(t, h.run("auth", "login", "--email", email, "--password", "secret1").err)
	h.mustRun("auth", "login", "--email", email, "--password", "secret2")
}

func TestGuard(t *testing.T) {
	h := newHarness(t)

	r := h.run("user", "list")
	assert.ErrorIs(t, r.err, ErrLoginRequired)

	h.login(h.demo.Learner)
	r = h.run("user", "list")
	assert.ErrorIs(t, r.err, ErrForbidden)
	assert.Contains(t, r.err.Error(), "home: /")

	r = h.run("roadmap", "create", "--save")
	assert.ErrorIs(t, r.err, ErrForbidden)

	h.login(h.demo.Admin)
	out := h.mustRun("user", "list")
	assert.Contains(t, out, h.demo.Editor.Email)
}

func TestRouteFor(t *testing.T) {
	c := withRoute(&cobra.Command{Use: "x"}, "/editor/roadmaps/edit/:id")
	assert.Equal(t, "/editor/roadmaps/edit/r1", routeFor(c, []string{"r1"}))
	assert.Equal(t, "/editor/roadmaps/edit/_", routeFor(c, nil))
	assert.Equal(t, "", routeFor(&cobra.Command{Use: "y"}, nil))
}

func TestUnauthorizedResponseClearsSession(t *testing.T) {
	h := newHarness(t)
	claims := session.Claims{
		ID:    h.demo.Editor.ID,
		Role:  string(models.RoleEditor),
		Email: h.demo.Editor.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("not-the-server-secret"))
	require.NoError(t, err)
	st, err := storage.NewFileStore(h.stateDir)
	require.NoError(t, err)
	require.NoError(t, st.Set(storage.KeyAuthToken, forged))

	r := h.run("profile", "roadmaps")
	assert.ErrorIs(t, r.err, api.ErrUnauthorized)

	st, err = storage.NewFileStore(h.stateDir)
	require.NoError(t, err)
	_, ok := st.Get(storage.KeyAuthToken)
	assert.False(t, ok, "token evicted after a 401")
}

func TestRoadmapList_JSONAndPaging(t *testing.T) {
	h := newHarness(t)
	items := decode[[]models.Roadmap](t, h.mustRun("-o", "json", "roadmap", "list"))
	require.Len(t, items, 1)
	assert.Equal(t, "Go Backend Developer", items[0].Name)

	out := h.mustRun("step", "list", "--page-size", "4")
	assert.Contains(t, out, "--page 1", "a full page hints at more results")
	out = h.mustRun("step", "list", "--page-size", "4", "--page", "1")
	assert.NotContains(t, out, "more results")

	out = h.mustRun("roadmap", "get", h.demo.Roadmap.ID)
	assert.Contains(t, out, "$120,000/yr")
	assert.Contains(t, out, "Goroutines and channels (2d)")
}

func TestRoadmapCreate_Interactive(t *testing.T) {
	h := newHarness(t)
	h.login(h.demo.Editor)

	script := strings.Join([]string{
		"name Go Fundamentals",
		"desc The essentials",
		"save",
		"salary 90,000",
		"tag go",
		"tag go",
		"add Language basics",
		"add Web services",
		"up 2",
		"show",
		"save",
	}, "\n") + "\n"
	r := h.runWithInput(script, "-o", "json", "roadmap", "create")
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stderr, "salary: must be greater than zero", "the first save fails validation and the session continues")

	saved := decode[models.Roadmap](t, r.stdout)
	assert.Equal(t, "Go Fundamentals", saved.Name)
	assert.Equal(t, []string{"go"}, saved.Tags)
	assert.Equal(t, 90000.0, saved.Salary)
	require.Len(t, saved.Milestones, 2)
	assert.Equal(t, "Web services", saved.Milestones[0].Name)
	assert.Equal(t, "Language basics", saved.Milestones[1].Name)
}

func TestRoadmapCreate_QuitDiscards(t *testing.T) {
	h := newHarness(t)
	h.login(h.demo.Editor)

	r := h.runWithInput("name Throwaway\nquit\n", "roadmap", "create")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "roadmap discarded")
	assert.Len(t, decode[[]models.Roadmap](t, h.mustRun("-o", "json", "roadmap", "list")), 1)
}

func TestRoadmapEdit_NonInteractive(t *testing.T) {
	h := newHarness(t)
	h.login(h.demo.Editor)

	out := h.mustRun("-o", "json", "roadmap", "edit", h.demo.Roadmap.ID, "--tag", "cloud", "--select", h.demo.Roadmap.Milestones[0].ID, "--save")
	saved := decode[models.Roadmap](t, out)
	assert.Equal(t, []string{"go", "backend", "cloud"}, saved.Tags)
	assert.Len(t, saved.Milestones, 2, "selecting an already selected milestone is an error-free no-op")
}

func TestMilestoneCreate_NewStepInline(t *testing.T) {
	h := newHarness(t)
	h.login(h.demo.Editor)

	script := strings.Join([]string{
		"new",
		"Testing",
		"Table-driven tests",
		"1",
		"2",
		"",
		"add Testing",
		"name Testing basics",
		"desc Write tests",
		"save",
	}, "\n") + "\n"
	r := h.runWithInput(script, "-o", "json", "milestone", "create")
	require.NoError(t, r.err, r.stderr)

	saved := decode[models.Milestone](t, r.stdout)
	require.Len(t, saved.Steps, 1)
	assert.Equal(t, "Testing", saved.Steps[0].Name)
	assert.Equal(t, 600, saved.DurationInMinutes)
}

func TestStepCreateUpdate(t *testing.T) {
	h := newHarness(t)
	h.login(h.demo.Editor)

	created := decode[models.Step](t, h.mustRun("-o", "json", "step", "create", "--name", "Generics", "--description", "Type parameters", "--hours", "3"))
	assert.Equal(t, 180, created.DurationInMinutes)

	updated := decode[models.Step](t, h.mustRun("-o", "json", "step", "update", created.ID, "--days", "1"))
	assert.Equal(t, 660, updated.DurationInMinutes, "unset duration parts keep their loaded values")
	assert.Equal(t, "Generics", updated.Name)

	r := h.run("step", "create", "--name", "No duration", "--description", "x")
	var fe editor.FieldErrors
	require.ErrorAs(t, r.err, &fe)
	assert.Contains(t, fe, "duration")
}

func TestQuiz_CreateAndAnswer(t *testing.T) {
	h := newHarness(t)
	h.login(h.demo.Editor)

	mc := decode[models.Quiz](t, h.mustRun("-o", "json", "quiz", "create",
		"--type", "mc", "--question", "Which keyword starts a goroutine?", "--tag", "go",
		"--option", "defer", "--option", "go", "--option", "select", "--option", "chan",
		"--answer", "2"))
	tf := decode[models.Quiz](t, h.mustRun("-o", "json", "quiz", "create",
		"--type", "tf", "--question", "Maps are safe for concurrent writes", "--tag", "go", "--answer", "false"))

	r := h.run("quiz", "create", "--type", "mc", "--question", "q", "--tag", "t", "--option", "a", "--option", "b", "--answer", "a")
	assert.Error(t, r.err, "multiple choice needs four options")

	h.login(h.demo.Learner)
	assert.Contains(t, h.mustRun("quiz", "answer", mc.ID, "2"), "correct")
	assert.Contains(t, h.mustRun("quiz", "answer", mc.ID, "defer"), "incorrect")

	r = h.runWithInput("false\n", "quiz", "answer", tf.ID)
	require.NoError(t, r.err, r.stderr)
	assert.Equal(t, "correct\n", r.stdout)
	assert.Contains(t, r.stderr, "Maps are safe for concurrent writes")

	assert.ErrorIs(t, h.run("quiz", "list").err, ErrForbidden)
}

func TestProgressMark(t *testing.T) {
	h := newHarness(t)
	h.login(h.demo.Learner)
	id := h.demo.Roadmap.ID

	v := decode[progressView](t, h.mustRun("-o", "json", "progress", "mark", id, "Go syntax tour", "Error handling"))
	assert.Equal(t, 360, v.CompletedDuration)
	assert.Equal(t, 1980, v.TotalDuration)
	assert.InDelta(t, 18.18, v.Percentage, 0.01)
	assert.Len(t, h.fake.FinishedStepIDs(h.demo.Learner.ID), 2)

	out := h.mustRun("progress", "mark", id, "Go syntax tour", "--undo")
	assert.Contains(t, out, "[ ] Go syntax tour")
	assert.Contains(t, out, "[x] Error handling")
	assert.Len(t, h.fake.FinishedStepIDs(h.demo.Learner.ID), 1)

	r := h.run("progress", "mark", id, "Not a step")
	assert.Error(t, r.err)

	out = h.mustRun("progress", "toggle-profile", id)
	assert.Contains(t, out, "in profile")
	assert.True(t, h.fake.InProfile(h.demo.Learner.ID, id))
}

func TestDashboard(t *testing.T) {
	h := newHarness(t)
	assert.Contains(t, h.mustRun("dashboard"), "Go Backend Developer", "anonymous users see the catalogue")

	h.login(h.demo.Editor)
	v := decode[dashboardView](t, h.mustRun("-o", "json", "dashboard"))
	assert.Equal(t, "/editor/dashboard", v.Home)
	assert.Equal(t, map[string]int{"roadmaps": 1, "milestones": 3, "steps": 6, "quizzes": 2}, v.Counts)

	h.login(h.demo.Admin)
	v = decode[dashboardView](t, h.mustRun("-o", "json", "dashboard"))
	assert.Equal(t, "/admin/dashboard", v.Home)
	assert.Len(t, v.Users, 3)

	h.login(h.demo.Learner)
	h.mustRun("profile", "add", h.demo.Roadmap.ID)
	h.mustRun("progress", "mark", h.demo.Roadmap.ID, "Go syntax tour")
	v = decode[dashboardView](t, h.mustRun("-o", "json", "dashboard"))
	require.Len(t, v.Progress, 1)
	assert.Equal(t, 240, v.Progress[0].Completed)
	require.NotNil(t, v.Energy)
	assert.Equal(t, 6, *v.Energy, "finishing a new step grants energy")
}

func TestUserUpdateRole(t *testing.T) {
	h := newHarness(t)
	h.login(h.demo.Admin)

	u := decode[models.User](t, h.mustRun("-o", "json", "user", "update", h.demo.Learner.ID, "--role", "editor"))
	assert.Equal(t, models.RoleEditor, u.Role)
	assert.Error(t, h.run("user", "update", h.demo.Learner.ID, "--role", "owner").err)
	assert.Contains(t, h.mustRun("user", "roles"), "Admin")
}

func TestTheme(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "theme: light\n", h.mustRun("theme", "show"))
	assert.Equal(t, "theme: dark\n", h.mustRun("theme", "toggle"))
	assert.Equal(t, "theme: dark\n", h.mustRun("theme", "show"), "preference persists between runs")
	assert.Error(t, h.run("theme", "set", "sepia").err)
}

func TestConfigPrecedence(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(h.config, []byte("output: json\nlog:\n  level: debug\n"), 0o600))

	cfg := decode[Config](t, h.mustRun("config", "show"))
	assert.Equal(t, "debug", cfg.Log.Level, "file value")
	assert.Equal(t, h.baseURL, cfg.ServerURL, "flag beats everything")

	t.Setenv("SKILLCRAFT_LOG_LEVEL", "warn")
	cfg = decode[Config](t, h.mustRun("config", "show"))
	assert.Equal(t, "warn", cfg.Log.Level, "env beats file")

	cfg = decode[Config](t, h.mustRun("config", "show", "--log-level", "error"))
	assert.Equal(t, "error", cfg.Log.Level, "flag beats env")

	out := h.mustRun("-o", "text", "config", "show")
	assert.Contains(t, out, "server_url: "+h.baseURL)
}

func TestPrintMetrics(t *testing.T) {
	h := newHarness(t)
	r := h.run("--print-metrics", "roadmap", "list")
	require.NoError(t, r.err)
	assert.Contains(t, r.stderr, "skillcraft_api_requests_total")
}
