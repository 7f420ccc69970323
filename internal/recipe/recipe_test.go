package recipe

import (
	"errors"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeanpaul/cookbook/internal/item"
	"github.com/jeanpaul/cookbook/internal/store"
)

func weatherStore() *store.Store {
	st := store.New()
	st.InsertOrUpdate("Steam", "💨", false, item.Canonical("Steam", "Steam"))
	st.InsertOrUpdate("Steam", "💨", false, item.Canonical("Water", "Fire"))
	st.InsertOrUpdate("Cloud", "☁️", false, item.Canonical("Steam", "Wind"))
	st.InsertOrUpdate("Rain", "🌧️", false, item.Canonical("Cloud", "Water"))
	st.InsertOrUpdate("Storm", "⛈️", false, item.Canonical("Cloud", "Rain"))
	st.InsertOrUpdate("Orphan", "", false, item.Canonical("Orphan", "Orphan"))
	st.InsertOrUpdate("Ghost", "👻", false, item.Canonical("Fire", "Mud"))
	st.Add("Goku", "👊")
	return st
}

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestPlan_Golden(t *testing.T) {
	st := weatherStore()
	for _, target := range []string{"Rain", "Storm"} {
		t.Run(target, func(t *testing.T) {
			steps, err := Plan(st, target)
			require.NoError(t, err)
			golden(t).Assert(t, strings.ToLower(target), []byte(Render(steps)))
		})
	}
}

func TestPlan_SkipsSelfReferentialPair(t *testing.T) {
	steps, err := Plan(weatherStore(), "Steam")
	require.NoError(t, err)
	assert.Equal(t, []Step{{First: "Fire", Second: "Water", Result: "Steam"}}, steps)
}

func TestPlan_Deterministic(t *testing.T) {
	st := weatherStore()
	a, err := Plan(st, "Storm")
	require.NoError(t, err)
	b, err := Plan(st, "Storm")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPlan_BaseItems(t *testing.T) {
	st := weatherStore()
	for _, name := range []string{"Fire", "Goku"} {
		steps, err := Plan(st, name)
		require.NoError(t, err, name)
		assert.Empty(t, steps, name)
	}
}

func TestPlan_Unreachable(t *testing.T) {
	st := weatherStore()
	for _, name := range []string{"Orphan", "Ghost"} {
		_, err := Plan(st, name)
		assert.True(t, errors.Is(err, ErrUnreachable), "%s: %v", name, err)
	}
}

func TestPlan_Unknown(t *testing.T) {
	_, err := Plan(weatherStore(), "Plasma")
	assert.ErrorIs(t, err, ErrUnknownItem)
}

func TestRender_Empty(t *testing.T) {
	assert.Equal(t, "", Render(nil))
}
