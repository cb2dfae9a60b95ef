package entity

import "time"

// WeatherCode is a WMO weather interpretation code.
type WeatherCode int

const WeatherUnknown WeatherCode = 100

var weatherCodes = map[WeatherCode]struct {
	desc  string
	emoji string
}{
	0:   {"Clear", "☀️"},
	1:   {"Mostly clear", "🌤"},
	2:   {"Partly cloudy", "⛅"},
	3:   {"Cloudy", "☁️"},
	5:   {"Haze", "🌫️"},
	10:  {"Mist", "🌫️"},
	45:  {"Fog", "🌫️"},
	48:  {"Freezing fog", "🌫️❄️"},
	51:  {"Light drizzle", "🌦️"},
	53:  {"Drizzle", "🌧️"},
	55:  {"Heavy drizzle", "🌧️"},
	56:  {"Light freezing drizzle", "🌧️❄️"},
	57:  {"Freezing drizzle", "🌧️❄️"},
	61:  {"Light rain", "🌦️"},
	63:  {"Rain", "🌧️"},
	65:  {"Heavy rain", "🌧️"},
	66:  {"Light freezing rain", "🌧️❄️"},
	67:  {"Freezing rain", "🌧️❄️"},
	71:  {"Light snow", "🌨️"},
	73:  {"Snow", "❄️"},
	75:  {"Heavy snow", "❄️"},
	77:  {"Snow grains", "❄️"},
	79:  {"Ice pellets", "🌨️"},
	80:  {"Light rain shower", "🌦️"},
	81:  {"Rain shower", "🌧️"},
	82:  {"Heavy rain shower", "🌧️"},
	85:  {"Snow shower", "🌨️"},
	86:  {"Heavy snow shower", "❄️"},
	95:  {"Thunderstorm", "⛈️"},
	96:  {"Hailstorm", "🌨️"},
	97:  {"Heavy thunderstorm", "⛈️"},
	99:  {"Heavy hailstorm", "🌨️❄️"},
	100: {"Unknown", "❓"},
}

// WeatherCodeOf maps codes missing from the table to WeatherUnknown.
func WeatherCodeOf(code int) WeatherCode {
	if _, ok := weatherCodes[WeatherCode(code)]; ok {
		return WeatherCode(code)
	}
	return WeatherUnknown
}

func (c WeatherCode) Description() string {
	return weatherCodes[WeatherCodeOf(int(c))].desc
}

func (c WeatherCode) Emoji() string {
	return weatherCodes[WeatherCodeOf(int(c))].emoji
}

type Forecast struct {
	City                City        `json:"city"`
	Date                time.Time   `json:"date"`
	Code                WeatherCode `json:"code"`
	TemperatureMax      float64     `json:"temperature_max"`
	TemperatureMin      float64     `json:"temperature_min"`
	ApparentMax         float64     `json:"apparent_max"`
	ApparentMin         float64     `json:"apparent_min"`
	PrecipitationChance int         `json:"precipitation_chance"`
	Humidity            float64     `json:"humidity"`
}

// DefaultForecast is what callers get when no forecast could be fetched.
func DefaultForecast(city City, date time.Time) Forecast {
	return Forecast{
		City:     city,
		Date:     date,
		Code:     WeatherUnknown,
		Humidity: 50,
	}
}
