package enums

// GarmentClass splits the size charts into tops and bottoms. The
// recommender scores each class independently.
type GarmentClass string

const (
	GarmentClassTop    GarmentClass = "top"
	GarmentClassBottom GarmentClass = "bottom"
)

func (g GarmentClass) String() string {
	return string(g)
}

func (g GarmentClass) IsValid() bool {
	return g == GarmentClassTop || g == GarmentClassBottom
}
