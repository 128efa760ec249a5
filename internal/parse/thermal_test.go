package parse

import (
	"math"
	"testing"
)

func TestThermal_ZeroSensorsKept(t *testing.T) {
	raw := `AP: 0.0°C
BAT: 0.0°C
SKIN: 0.0°C
CPU0: 0.0°C
GPU: 0.0°C
PA: 0.0°C
`
	got, skips := Thermal(raw)
	if skips != 0 {
		t.Fatalf("zero readings must not be skips, got %d", skips)
	}
	if len(got) != 6 {
		t.Fatalf("expected 6 sensors, got %d: %+v", len(got), got)
	}
	for _, r := range got {
		if r.Celsius != 0 {
			t.Fatalf("sensor %s: expected 0, got %v", r.Sensor, r.Celsius)
		}
	}
	if got[0].Sensor != "AP" || got[5].Sensor != "PA" {
		t.Fatalf("device order not preserved: %+v", got)
	}
}

func TestThermal_Formats(t *testing.T) {
	raw := `IsStatusOverride: false
Current temperatures from HAL:
	Temperature{mValue=38.1, mType=0, mName=AP, mStatus=0}
	Temperature{mValue=31.5, mType=2, mName=BAT, mStatus=0}
	Temperature{mValue=oops, mType=2, mName=SKIN, mStatus=0}
SKIN: 104°F
usb_port: 28 C
random text line
modem : 33.5℃
AP: 52.0°C
`
	got, skips := Thermal(raw)
	if skips != 1 {
		t.Fatalf("expected the malformed record to be skipped, got %d", skips)
	}
	want := map[string]float64{"AP": 52, "BAT": 31.5, "SKIN": 40, "usb_port": 28, "modem": 33.5}
	if len(got) != len(want) {
		t.Fatalf("expected %d sensors, got %+v", len(want), got)
	}
	for name, c := range want {
		r, ok := got.Get(name)
		if !ok {
			t.Fatalf("sensor %s missing", name)
		}
		if math.Abs(r.Celsius-c) > 1e-9 {
			t.Fatalf("sensor %s: got %v want %v", name, r.Celsius, c)
		}
	}
	if got[0].Sensor != "AP" {
		t.Fatalf("a repeated sensor must keep its position, got %+v", got)
	}
}

func TestThermal_UnitRequired(t *testing.T) {
	got, skips := Thermal("Uptime: 12345\nversion: 3\n")
	if len(got) != 0 || skips != 0 {
		t.Fatalf("unitless lines must be ignored, got %+v skips=%d", got, skips)
	}
}
