package calculator

// Category is an age or role bracket with its own daily norm.
type Category string

const (
	Junior Category = "junior" // 7-10 years
	Middle Category = "middle" // 11-14 years
	Senior Category = "senior" // 15-17 years
	Staff  Category = "staff"  // 18+
)

// Categories lists the brackets in presentation order.
var Categories = []Category{Junior, Middle, Senior, Staff}

type Season string

const (
	Cold Season = "cold"
	Warm Season = "warm"
)

var Seasons = []Season{Cold, Warm}

type Activity string

const (
	Normal Activity = "normal"
	Sport  Activity = "sport"
	Trip   Activity = "trip"
)

var Activities = []Activity{Normal, Sport, Trip}

// Litres per person per day.
var norms = map[Category]float64{
	Junior: 1.6,
	Middle: 1.85,
	Senior: 2.15,
	Staff:  2.25,
}

var seasonCoefficients = map[Season]float64{
	Cold: 1.0,
	Warm: 1.3,
}

var activityCoefficients = map[Activity]float64{
	Normal: 1.0,
	Sport:  1.5,
	Trip:   2.0,
}

// Norm returns the daily norm for c, or 0 for an unknown category.
func Norm(c Category) float64 {
	return norms[c]
}

func SeasonCoefficient(s Season) (float64, bool) {
	k, ok := seasonCoefficients[s]
	return k, ok
}

func ActivityCoefficient(a Activity) (float64, bool) {
	k, ok := activityCoefficients[a]
	return k, ok
}

func (s Season) Valid() bool {
	_, ok := seasonCoefficients[s]
	return ok
}

func (a Activity) Valid() bool {
	_, ok := activityCoefficients[a]
	return ok
}
