package sizing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/fitlinehq/fitline-backend/pkg/errors"
)

func TestRecommendWithinBands(t *testing.T) {
	m := Measurements{
		HeightCM:   168,
		WeightKG:   65,
		ShoulderCM: 45,
		ChestCM:    93,
		WaistCM:    70,
		HipsCM:     95,
	}

	rec, err := Recommend(m)
	require.NoError(t, err)
	assert.Equal(t, "M", rec.TopSize)
	assert.Equal(t, "M", rec.BottomSize)
}

func TestRecommendTopPicksNearestRow(t *testing.T) {
	// Tall and broad enough that only XL fits everything.
	m := Measurements{
		HeightCM:   185,
		WeightKG:   82,
		ShoulderCM: 52,
		ChestCM:    108,
	}
	top, err := RecommendTop(m)
	require.NoError(t, err)
	assert.Equal(t, "XL", top)
}

func TestRecommendBottomOutOfAllBands(t *testing.T) {
	// Shorter and lighter than every band; S is the closest row.
	m := Measurements{
		HeightCM: 145,
		WeightKG: 40,
		WaistCM:  58,
		HipsCM:   78,
	}
	bottom, err := RecommendBottom(m)
	require.NoError(t, err)
	assert.Equal(t, "S", bottom)
}

func TestRecommendTieBreaksToSmallerSize(t *testing.T) {
	// Every value sits exactly on the S/M boundary, so both rows score
	// zero. The first minimum in chart order must win.
	m := Measurements{
		HeightCM:   160,
		WeightKG:   55,
		ShoulderCM: 44,
		ChestCM:    88,
	}
	top, err := RecommendTop(m)
	require.NoError(t, err)
	assert.Equal(t, "S", top)
}

func TestRecommendDeterministic(t *testing.T) {
	m := Measurements{
		HeightCM:   172,
		WeightKG:   68,
		ShoulderCM: 48,
		ChestCM:    99,
		WaistCM:    78,
		HipsCM:     100,
	}
	first, err := Recommend(m)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		again, err := Recommend(m)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestRecommendRejectsInvalidMeasurements(t *testing.T) {
	cases := []struct {
		name string
		m    Measurements
	}{
		{"zero height", Measurements{HeightCM: 0, WeightKG: 60, ShoulderCM: 45, ChestCM: 90, WaistCM: 70, HipsCM: 95}},
		{"negative weight", Measurements{HeightCM: 165, WeightKG: -2, ShoulderCM: 45, ChestCM: 90, WaistCM: 70, HipsCM: 95}},
		{"nan chest", Measurements{HeightCM: 165, WeightKG: 60, ShoulderCM: 45, ChestCM: math.NaN(), WaistCM: 70, HipsCM: 95}},
		{"inf waist", Measurements{HeightCM: 165, WeightKG: 60, ShoulderCM: 45, ChestCM: 90, WaistCM: math.Inf(1), HipsCM: 95}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Recommend(tc.m)
			require.Error(t, err)
			assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
		})
	}
}

func TestPenaltyIsSquaredDistance(t *testing.T) {
	r := valueRange{Min: 10, Max: 20}
	assert.Zero(t, penalty(10, r))
	assert.Zero(t, penalty(20, r))
	assert.Zero(t, penalty(15, r))
	assert.Equal(t, 4.0, penalty(8, r))
	assert.Equal(t, 9.0, penalty(23, r))
}
