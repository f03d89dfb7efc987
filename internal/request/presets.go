package request

// Preset is the resolution and frame rate a GIF quality name pre-fills.
type Preset struct {
	Quality    GIFQuality `json:"quality"`
	Resolution string     `json:"resolution"`
	FPS        string     `json:"fps"`
}

// Presets lists the GIF quality shortcuts in display order.
var Presets = []Preset{
	{Quality: QualityTiny, Resolution: "360", FPS: "10"},
	{Quality: QualitySmall, Resolution: "480", FPS: "10"},
	{Quality: QualityMedium, Resolution: "640", FPS: "12"},
	{Quality: QualityHigh, Resolution: "720", FPS: "15"},
}

// LookupPreset returns the preset named q.
func LookupPreset(q GIFQuality) (Preset, bool) {
	for _, p := range Presets {
		if p.Quality == q {
			return p, true
		}
	}
	return Preset{}, false
}

// ApplyPreset records the chosen GIF quality and pre-fills Resolution and
// FPS from the preset table. Unknown names, including "custom", only set
// the quality. The filled values still go through Build like user input.
func (f *Form) ApplyPreset(q GIFQuality) {
	f.GIFQuality = string(q)
	if p, ok := LookupPreset(q); ok {
		f.Resolution = p.Resolution
		f.FPS = p.FPS
	}
}
