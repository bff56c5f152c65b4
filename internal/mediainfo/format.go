package mediainfo

import (
	"fmt"
	"math"
	"path"
	"strconv"
	"strings"
)

// aspectBucket maps a numeric aspect range onto its display label.
type aspectBucket struct {
	lo, hi float64
	label  string
}

var aspectBuckets = []aspectBucket{
	{1.77, 1.78, "16:9"},
	{2.35, 2.40, "21:9"},
	{1.33, 1.37, "4:3"},
	{1.85, 1.90, "1.85:1"},
	{2.20, 2.25, "2.20:1"},
}

// AspectLabel converts a numeric aspect ratio to a canonical label, or a
// raw "W:H" rendering when it matches no bucket.
func AspectLabel(aspect float64) string {
	if aspect <= 0 {
		return ""
	}
	for _, b := range aspectBuckets {
		if aspect >= b.lo && aspect <= b.hi {
			return b.label
		}
	}
	return fmt.Sprintf("%.2f:1", aspect)
}

// canonicalRates are the sample rates floating-point metadata tends to
// drift around. Anything within half a tenth of a kHz snaps to these.
var canonicalRates = []float64{44.1, 48.0, 96.0}

const rateEpsilon = 0.05

// FormatSampleRate renders a Hz value as "N.N kHz", snapping to the
// canonical consumer rates so 44099.6 Hz does not display as 44.0 kHz.
func FormatSampleRate(hz float64) string {
	if hz <= 0 {
		return ""
	}
	khz := hz / 1000.0
	for _, canonical := range canonicalRates {
		if math.Abs(khz-canonical) <= rateEpsilon {
			khz = canonical
			break
		}
	}
	return fmt.Sprintf("%.1f kHz", khz)
}

// ResolutionLabel classifies pixel dimensions. Width is checked first for
// 4K because scope crops report short heights.
func ResolutionLabel(width, height int) string {
	switch {
	case width >= 3840 || height >= 2160:
		return "4K"
	case height >= 1080:
		return "1080p"
	case height >= 720:
		return "720p"
	default:
		return ""
	}
}

// containerFromFile falls back to the file extension when the player does
// not report a container label.
func containerFromFile(file string) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(file)), ".")
	switch ext {
	case "mkv", "mp4", "avi", "m4v", "mov", "flac", "mp3", "m4a", "wav", "ogg", "aac":
		return strings.ToUpper(ext)
	}
	return ""
}

// parseLabelInt reads Kodi's stringly-typed numeric info labels, which
// may carry thousands separators ("1,920").
func parseLabelInt(s string) int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
