package integrations

import "sort"

// DeviceProfile describes the screen of an e-reader the PDF is meant for.
type DeviceProfile struct {
	Name      string
	Width     int // Screen width in pixels
	Height    int // Screen height in pixels
	DPI       int
	Grayscale bool
}

// Devices are screen presets for sizing embedded images.
var Devices = map[string]DeviceProfile{
	"kindle-paperwhite": {
		Name:      "Kindle Paperwhite",
		Width:     1236,
		Height:    1648,
		DPI:       300,
		Grayscale: true,
	},
	"kindle-oasis": {
		Name:      "Kindle Oasis",
		Width:     1264,
		Height:    1680,
		DPI:       300,
		Grayscale: true,
	},
	"kindle-scribe": {
		Name:      "Kindle Scribe",
		Width:     1860,
		Height:    2480,
		DPI:       300,
		Grayscale: true,
	},
	"kobo-clara": {
		Name:      "Kobo Clara",
		Width:     1072,
		Height:    1448,
		DPI:       300,
		Grayscale: true,
	},
	"kobo-libra-colour": {
		Name:   "Kobo Libra Colour",
		Width:  1264,
		Height: 1680,
		DPI:    300,
	},
	"tablet": {
		Name:   "Tablet",
		Width:  1600,
		Height: 2560,
		DPI:    264,
	},
}

// GetDeviceProfile returns the profile registered under id.
func GetDeviceProfile(id string) (DeviceProfile, bool) {
	d, ok := Devices[id]
	return d, ok
}

// DeviceIDs returns the registered device ids in alphabetical order.
func DeviceIDs() []string {
	ids := make([]string, 0, len(Devices))
	for id := range Devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ImageSettings returns image limits matching the device screen.
func (d DeviceProfile) ImageSettings() ImageSettings {
	s := ImageSettings{
		MaxWidth:  d.Width,
		MaxHeight: d.Height,
		Quality:   defaultJPEGQuality,
		Grayscale: d.Grayscale,
	}
	if d.DPI >= 300 {
		s.Quality = 90
	}
	return s
}
