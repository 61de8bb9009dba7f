package editor

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"
)

func refs(ids ...string) []models.Ref {
	out := make([]models.Ref, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Ref{ID: id, Name: "name-" + id})
	}
	return out
}

func ids(rs []models.Ref) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}

func sorted(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

// assertPartition Available 与 Selected 不重叠且并集为全部候选
func assertPartition(t *testing.T, p *Pools, all []string) {
	t.Helper()
	seen := map[string]int{}
	for _, id := range ids(p.Available()) {
		seen[id]++
	}
	for _, id := range ids(p.Selected()) {
		seen[id]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "id %s appears in both pools", id)
	}
	got := make([]string, 0, len(seen))
	for id := range seen {
		got = append(got, id)
	}
	assert.Equal(t, sorted(all), sorted(got))
}

func TestNewPools_EditSetDifference(t *testing.T) {
	p := NewPools(refs("a", "b", "c", "d"), refs("c", "a"))
	assert.Equal(t, []string{"b", "d"}, ids(p.Available()))
	assert.Equal(t, []string{"c", "a"}, p.SelectedIDs(), "persisted order is kept")
}

func TestPools_MoveIsNoOpWhenAbsent(t *testing.T) {
	p := NewPools(refs("a", "b"), refs("b"))
	assert.False(t, p.MoveToSelected("b"), "already selected")
	assert.False(t, p.MoveToAvailable("a"), "not selected")
	assert.False(t, p.MoveToSelected("zzz"))
	assert.Equal(t, []string{"a"}, ids(p.Available()))
	assert.Equal(t, []string{"b"}, p.SelectedIDs())
}

func TestPools_MoveAppendsToEnd(t *testing.T) {
	p := NewPools(refs("a", "b", "c"), nil)
	require.True(t, p.MoveToSelected("b"))
	require.True(t, p.MoveToSelected("a"))
	assert.Equal(t, []string{"b", "a"}, p.SelectedIDs())
	require.True(t, p.MoveToAvailable("b"))
	assert.Equal(t, []string{"c", "b"}, ids(p.Available()))
}

func TestPools_RoundTripRestoresSets(t *testing.T) {
	p := NewPools(refs("a", "b", "c"), refs("d"))
	beforeAvail, beforeSel := sorted(ids(p.Available())), sorted(p.SelectedIDs())

	require.True(t, p.MoveToSelected("b"))
	require.True(t, p.MoveToAvailable("b"))

	assert.Equal(t, beforeAvail, sorted(ids(p.Available())))
	assert.Equal(t, beforeSel, sorted(p.SelectedIDs()))
}

func TestPools_Reorder(t *testing.T) {
	p := NewPools(nil, refs("a", "b", "c"))

	assert.False(t, p.Reorder(0, Up), "first item cannot move up")
	assert.False(t, p.Reorder(2, Down), "last item cannot move down")
	assert.False(t, p.Reorder(5, Up))
	assert.False(t, p.Reorder(-1, Down))
	assert.Equal(t, []string{"a", "b", "c"}, p.SelectedIDs())

	require.True(t, p.Reorder(1, Up))
	assert.Equal(t, []string{"b", "a", "c"}, p.SelectedIDs())
	require.True(t, p.Reorder(0, Down))
	assert.Equal(t, []string{"a", "b", "c"}, p.SelectedIDs(), "up then down restores order")
}

func TestPools_RandomOperationsKeepPartition(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	all := make([]string, 12)
	for i := range all {
		all[i] = fmt.Sprintf("id-%02d", i)
	}
	p := NewPools(refs(all...), refs(all[3], all[7]))

	for i := 0; i < 500; i++ {
		id := all[rng.Intn(len(all))]
		before := append([]string(nil), p.SelectedIDs()...)
		switch rng.Intn(3) {
		case 0:
			p.MoveToSelected(id)
		case 1:
			p.MoveToAvailable(id)
		case 2:
			dir := Up
			if rng.Intn(2) == 1 {
				dir = Down
			}
			p.Reorder(rng.Intn(len(all)), dir)
			assert.Equal(t, sorted(before), sorted(p.SelectedIDs()), "reorder is a permutation")
		}
		assertPartition(t, p, all)
	}
}

func TestPools_AppendAvailable(t *testing.T) {
	p := NewPools(refs("a"), nil)
	p.AppendAvailable(models.Ref{ID: "new", Name: "New"})
	p.AppendAvailable(models.Ref{ID: "a", Name: "dup"})
	assert.Equal(t, []string{"a", "new"}, ids(p.Available()))
	assert.Empty(t, p.SelectedIDs(), "created items are never auto-selected")
}

func TestPools_Refresh(t *testing.T) {
	p := NewPools(refs("a", "b", "c", "d"), refs("c", "a"))

	fresh := []models.Ref{
		{ID: "a", Name: "A renamed"},
		{ID: "b", Name: "B"},
		{ID: "c", Name: "C"},
		{ID: "e", Name: "E"},
	}
	p.Refresh(fresh)

	assert.Equal(t, []models.Ref{{ID: "c", Name: "C"}, {ID: "a", Name: "A renamed"}}, p.Selected())
	assert.Equal(t, []string{"b", "e"}, ids(p.Available()), "removed ids drop out, new ids are appended")
}
