package models

// AQIStatus is the categorical air-quality severity derived from a numeric
// pollutant value.
type AQIStatus string

const (
	AQIGood          AQIStatus = "Good"
	AQIModerate      AQIStatus = "Moderate"
	AQISensitive     AQIStatus = "Unhealthy for Sensitive"
	AQIUnhealthy     AQIStatus = "Unhealthy"
	AQIVeryUnhealthy AQIStatus = "Very Unhealthy"
	AQIHazardous     AQIStatus = "Hazardous"
)

// aqiBreakpoint is the inclusive upper bound of a severity band.
type aqiBreakpoint struct {
	upper  float64
	status AQIStatus
}

// EPA 24h breakpoints for the pollutants the air-quality provider reports.
// Unknown parameters fall back to interpreting the value as a composite AQI.
var aqiBreakpoints = map[string][]aqiBreakpoint{
	"pm25": {
		{12.0, AQIGood},
		{35.4, AQIModerate},
		{55.4, AQISensitive},
		{150.4, AQIUnhealthy},
		{250.4, AQIVeryUnhealthy},
	},
	"pm10": {
		{54, AQIGood},
		{154, AQIModerate},
		{254, AQISensitive},
		{354, AQIUnhealthy},
		{424, AQIVeryUnhealthy},
	},
}

var aqiIndexBreakpoints = []aqiBreakpoint{
	{50, AQIGood},
	{100, AQIModerate},
	{150, AQISensitive},
	{200, AQIUnhealthy},
	{300, AQIVeryUnhealthy},
}

// CategorizeAQI maps a pollutant value to its severity status. Values above
// the last band are Hazardous; negative values are treated as zero.
func CategorizeAQI(parameter string, value float64) AQIStatus {
	if value < 0 {
		value = 0
	}
	bands, ok := aqiBreakpoints[parameter]
	if !ok {
		bands = aqiIndexBreakpoints
	}
	for _, b := range bands {
		if value <= b.upper {
			return b.status
		}
	}
	return AQIHazardous
}
