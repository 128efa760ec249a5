package parse

import (
	"regexp"
	"strings"

	"github.com/Dicklesworthstone/droidscout/internal/model"
)

var (
	// Temperature{mValue=38.1, mType=0, mName=AP, mStatus=0}
	temperatureRecord = regexp.MustCompile(`Temperature\{mValue=(-?[\d.]+), mType=-?\d+, mName=([^,}]+), mStatus=-?\d+\}`)
	// AP: 38.1°C
	sensorLine = regexp.MustCompile(`^\s*([A-Za-z0-9_][A-Za-z0-9_ .\-]*?)\s*:\s*(-?\d+(?:\.\d+)?)\s*(°C|°F|℃|℉|C|F)\s*$`)
)

// Thermal parses sensor readings. Zero is a legitimate value (disabled or
// absent sensor) and is kept. Later readings for the same sensor replace
// earlier ones without moving them.
func Thermal(raw string) (model.Thermal, int) {
	var out model.Thermal
	skips := 0
	for _, line := range lines(raw) {
		if strings.Contains(line, "Temperature{") {
			m := temperatureRecord.FindStringSubmatch(line)
			if m == nil {
				skips++
				continue
			}
			v, ok := parseFloat(m[1])
			if !ok {
				skips++
				continue
			}
			out = out.Set(model.ThermalReading{Sensor: strings.TrimSpace(m[2]), Celsius: v})
			continue
		}
		m := sensorLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		v, ok := parseFloat(m[2])
		if !ok {
			skips++
			continue
		}
		if m[3] == "°F" || m[3] == "℉" || m[3] == "F" {
			v = (v - 32) * 5 / 9
		}
		out = out.Set(model.ThermalReading{Sensor: m[1], Celsius: v})
	}
	return out, skips
}
