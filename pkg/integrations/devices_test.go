package integrations

import (
	"sort"
	"testing"
)

func TestGetDeviceProfile(t *testing.T) {
	d, ok := GetDeviceProfile("kindle-paperwhite")
	if !ok {
		t.Fatal("expected kindle-paperwhite to be registered")
	}
	if d.Width != 1236 || d.Height != 1648 || !d.Grayscale {
		t.Errorf("unexpected profile %+v", d)
	}

	if _, ok := GetDeviceProfile("kindle-unknown"); ok {
		t.Error("unknown device should not resolve")
	}
}

func TestDeviceIDsSorted(t *testing.T) {
	ids := DeviceIDs()
	if len(ids) != len(Devices) {
		t.Fatalf("DeviceIDs() returned %d ids, want %d", len(ids), len(Devices))
	}
	if !sort.StringsAreSorted(ids) {
		t.Errorf("DeviceIDs() not sorted: %v", ids)
	}
}

func TestDeviceImageSettings(t *testing.T) {
	tests := []struct {
		name    string
		device  DeviceProfile
		quality int
	}{
		{"high dpi", DeviceProfile{Width: 1000, Height: 1400, DPI: 300, Grayscale: true}, 90},
		{"low dpi", DeviceProfile{Width: 600, Height: 800, DPI: 167}, defaultJPEGQuality},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.device.ImageSettings()
			if s.MaxWidth != tt.device.Width || s.MaxHeight != tt.device.Height {
				t.Errorf("bounds = %dx%d, want %dx%d", s.MaxWidth, s.MaxHeight, tt.device.Width, tt.device.Height)
			}
			if s.Grayscale != tt.device.Grayscale {
				t.Errorf("grayscale = %v, want %v", s.Grayscale, tt.device.Grayscale)
			}
			if s.Quality != tt.quality {
				t.Errorf("quality = %d, want %d", s.Quality, tt.quality)
			}
		})
	}
}
