package sizing

import (
	"math"

	pkgerrors "github.com/fitlinehq/fitline-backend/pkg/errors"
)

// Measurements carries the body dimensions the recommender scores
// against the size charts. All values are metric: centimetres except
// WeightKG.
type Measurements struct {
	HeightCM   float64
	WeightKG   float64
	ShoulderCM float64
	ChestCM    float64
	WaistCM    float64
	HipsCM     float64
}

// Recommendation holds the per-garment-class results.
type Recommendation struct {
	TopSize    string `json:"top_size"`
	BottomSize string `json:"bottom_size"`
}

// RecommendTop scores the measurements against the tops chart and
// returns the label with the lowest total penalty. Ties resolve to the
// smaller size.
func RecommendTop(m Measurements) (string, error) {
	if err := validateDims([]dim{
		{"height_cm", m.HeightCM},
		{"weight_kg", m.WeightKG},
		{"shoulder_cm", m.ShoulderCM},
		{"chest_cm", m.ChestCM},
	}); err != nil {
		return "", err
	}

	best := topChart[0].Label
	bestScore := math.Inf(1)
	for _, row := range topChart {
		score := penalty(m.HeightCM, row.Height) +
			penalty(m.WeightKG, row.Weight) +
			penalty(m.ShoulderCM, row.Shoulder) +
			penalty(m.ChestCM, row.Chest)
		if score < bestScore {
			bestScore = score
			best = row.Label
		}
	}
	return best, nil
}

// RecommendBottom scores the measurements against the bottoms chart.
func RecommendBottom(m Measurements) (string, error) {
	if err := validateDims([]dim{
		{"height_cm", m.HeightCM},
		{"weight_kg", m.WeightKG},
		{"waist_cm", m.WaistCM},
		{"hips_cm", m.HipsCM},
	}); err != nil {
		return "", err
	}

	best := bottomChart[0].Label
	bestScore := math.Inf(1)
	for _, row := range bottomChart {
		score := penalty(m.HeightCM, row.Height) +
			penalty(m.WeightKG, row.Weight) +
			penalty(m.WaistCM, row.Waist) +
			penalty(m.HipsCM, row.Hips)
		if score < bestScore {
			bestScore = score
			best = row.Label
		}
	}
	return best, nil
}

// Recommend computes both garment classes in one pass.
func Recommend(m Measurements) (Recommendation, error) {
	top, err := RecommendTop(m)
	if err != nil {
		return Recommendation{}, err
	}
	bottom, err := RecommendBottom(m)
	if err != nil {
		return Recommendation{}, err
	}
	return Recommendation{TopSize: top, BottomSize: bottom}, nil
}

type dim struct {
	name  string
	value float64
}

func validateDims(dims []dim) error {
	for _, d := range dims {
		if math.IsNaN(d.value) || math.IsInf(d.value, 0) || d.value <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "measurement out of range").
				WithDetails(map[string]any{"field": d.name})
		}
	}
	return nil
}
