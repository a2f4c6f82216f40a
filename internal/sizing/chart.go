package sizing

// DefaultSize is recommended when a user has no saved measurements.
const DefaultSize = "M"

// SizeLabels is the catalog size run, smallest first. Chart rows and
// tie-breaking both follow this order.
var SizeLabels = []string{"S", "M", "L", "XL"}

type valueRange struct {
	Min float64
	Max float64
}

type topRow struct {
	Label    string
	Height   valueRange
	Weight   valueRange
	Shoulder valueRange
	Chest    valueRange
}

type bottomRow struct {
	Label  string
	Height valueRange
	Weight valueRange
	Waist  valueRange
	Hips   valueRange
}

// The charts mirror the printed size guide the merchandising team ships
// with every garment. Height and weight bands are shared between tops
// and bottoms; the remaining two dimensions differ per garment class.
var topChart = []topRow{
	{Label: "S", Height: valueRange{150, 160}, Weight: valueRange{45, 55}, Shoulder: valueRange{40, 44}, Chest: valueRange{80, 88}},
	{Label: "M", Height: valueRange{160, 170}, Weight: valueRange{55, 65}, Shoulder: valueRange{44, 47}, Chest: valueRange{88, 96}},
	{Label: "L", Height: valueRange{170, 178}, Weight: valueRange{65, 75}, Shoulder: valueRange{47, 50}, Chest: valueRange{96, 104}},
	{Label: "XL", Height: valueRange{178, 190}, Weight: valueRange{75, 90}, Shoulder: valueRange{50, 54}, Chest: valueRange{104, 112}},
}

var bottomChart = []bottomRow{
	{Label: "S", Height: valueRange{150, 160}, Weight: valueRange{45, 55}, Waist: valueRange{60, 68}, Hips: valueRange{82, 90}},
	{Label: "M", Height: valueRange{160, 170}, Weight: valueRange{55, 65}, Waist: valueRange{68, 76}, Hips: valueRange{90, 98}},
	{Label: "L", Height: valueRange{170, 178}, Weight: valueRange{65, 75}, Waist: valueRange{76, 84}, Hips: valueRange{98, 106}},
	{Label: "XL", Height: valueRange{178, 190}, Weight: valueRange{75, 90}, Waist: valueRange{84, 92}, Hips: valueRange{106, 114}},
}

// penalty is zero inside the band, otherwise the squared distance to
// the nearest bound. Squaring keeps a single far-off dimension from
// being washed out by three good ones.
func penalty(value float64, r valueRange) float64 {
	switch {
	case value < r.Min:
		d := r.Min - value
		return d * d
	case value > r.Max:
		d := value - r.Max
		return d * d
	default:
		return 0
	}
}
