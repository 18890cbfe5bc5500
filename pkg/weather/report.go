package weather

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

// FailureMessage is shown to players when no report can be produced.
const FailureMessage = "\033[31mFailed to retrieve weather information.\033[0m"

// TimeLayout is the layout sunrise and sunset are displayed in.
const TimeLayout = "2006-01-02 15:04:05"

// Report is one decoded observation.
type Report struct {
	Kelvin  float64
	Sunrise time.Time
	Sunset  time.Time
}

// Fahrenheit returns the temperature in degrees Fahrenheit.
func (r Report) Fahrenheit() float64 {
	return KelvinToFahrenheit(r.Kelvin)
}

// KelvinToFahrenheit converts a temperature.
func KelvinToFahrenheit(k float64) float64 {
	return (k-273.15)*9/5 + 32
}

// Format renders the report for a player with sun times shown in loc.
func (r Report) Format(loc *time.Location) string {
	return fmt.Sprintf("\033[36mCurrent Temperature:\033[0m \033[33m%.2f F\033[0m\n"+
		"\033[36mSunrise:\033[0m \033[32m%s\033[0m\n"+
		"\033[36mSunset:\033[0m \033[31m%s\033[0m",
		r.Fahrenheit(),
		r.Sunrise.In(loc).Format(TimeLayout),
		r.Sunset.In(loc).Format(TimeLayout))
}

type currentXML struct {
	XMLName xml.Name `xml:"current"`
	City    struct {
		Sun struct {
			Rise string `xml:"rise,attr"`
			Set  string `xml:"set,attr"`
		} `xml:"sun"`
	} `xml:"city"`
	Temperature struct {
		Value string `xml:"value,attr"`
		Unit  string `xml:"unit,attr"`
	} `xml:"temperature"`
}

// ParseReport decodes a current-weather XML document.
func ParseReport(r io.Reader) (Report, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var doc currentXML
	if err := dec.Decode(&doc); err != nil {
		return Report{}, fmt.Errorf("weather: decode: %w", err)
	}
	temp, err := strconv.ParseFloat(strings.TrimSpace(doc.Temperature.Value), 64)
	if err != nil {
		return Report{}, fmt.Errorf("weather: temperature %q: %w", doc.Temperature.Value, err)
	}
	kelvin, err := toKelvin(temp, doc.Temperature.Unit)
	if err != nil {
		return Report{}, err
	}
	rise, err := parseTime(doc.City.Sun.Rise)
	if err != nil {
		return Report{}, fmt.Errorf("weather: sunrise: %w", err)
	}
	set, err := parseTime(doc.City.Sun.Set)
	if err != nil {
		return Report{}, fmt.Errorf("weather: sunset: %w", err)
	}
	return Report{Kelvin: kelvin, Sunrise: rise, Sunset: set}, nil
}

func toKelvin(v float64, unit string) (float64, error) {
	switch strings.ToLower(unit) {
	case "", "kelvin":
		return v, nil
	case "celsius", "metric":
		return v + 273.15, nil
	case "fahrenheit", "imperial":
		return (v-32)*5/9 + 273.15, nil
	default:
		return 0, fmt.Errorf("weather: unknown temperature unit %q", unit)
	}
}

// parseTime accepts ISO-8601 with or without a zone. Times without a zone
// are UTC.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05", s, time.UTC)
}
