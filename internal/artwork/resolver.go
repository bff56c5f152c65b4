// Package artwork selects display assets for a playback snapshot from a
// device's asset listing. Resolution is a pure function: identical inputs
// always produce identical output, with no dependence on map iteration
// order.
package artwork

import (
	"github.com/kodiview/kodiview/internal/kodi"
	"github.com/kodiview/kodiview/internal/mediainfo"
)

// Asset kind names as they appear in a flattened Kodi art map.
const (
	KindPoster       = "poster"
	KindSeasonPoster = "season.poster"
	KindFanart       = "fanart"
	KindClearart     = "clearart"
	KindClearlogo    = "clearlogo"
	KindBanner       = "banner"
	KindDiscart      = "discart"
	KindCdart        = "cdart"
	KindThumbnail    = "thumbnail"
	KindFront        = "front"
	KindBack         = "back"
)

// backCoverAliases are the asset names a rear album cover may hide under.
var backCoverAliases = []string{KindBack, "backcover", "rear"}

// Overlay is the small logo-style art rendered above the main visual.
// When no image qualifies, TextFallback tells the presentation layer to
// render the title as text instead.
type Overlay struct {
	URL          string `json:"url,omitempty"`
	TextFallback bool   `json:"text_fallback"`
}

// Primary is the dominant visual for the current item. Rotates marks
// disc art the presentation layer spins during playback (and suspends
// while paused).
type Primary struct {
	URL     string `json:"url,omitempty"`
	Rotates bool   `json:"rotates"`
}

// Resolved is the full artwork selection for one snapshot. Derived fresh
// on every request and never persisted.
type Resolved struct {
	Overlay        Overlay  `json:"overlay"`
	Primary        Primary  `json:"primary"`
	Background     []string `json:"background,omitempty"`
	AlternateCover string   `json:"alternate_cover,omitempty"`
}

// Resolve picks artwork for the snapshot out of the listing according to
// the per-media-type fallback policy.
func Resolve(snap mediainfo.Snapshot, listing kodi.AssetListing) Resolved {
	if snap.MediaType == mediainfo.MediaTypeNone {
		return Resolved{Overlay: Overlay{TextFallback: true}}
	}

	resolved := Resolved{
		Overlay:    resolveOverlay(listing),
		Primary:    resolvePrimary(snap.MediaType, listing),
		Background: resolveBackground(listing),
	}
	if snap.MediaType == mediainfo.MediaTypeSong {
		resolved.AlternateCover = resolveBackCover(listing)
	}
	return resolved
}

// resolveOverlay walks clearart, then banner, then gives up to text.
func resolveOverlay(listing kodi.AssetListing) Overlay {
	for _, kind := range []string{KindClearart, KindBanner} {
		if url := listing.Art[kind]; url != "" {
			return Overlay{URL: url}
		}
	}
	return Overlay{TextFallback: true}
}

// resolvePrimary picks the dominant visual per media type. Episodes
// prefer the season poster over the show poster; movies prefer spinning
// disc art over the poster; music prefers the album thumbnail.
func resolvePrimary(mediaType mediainfo.MediaType, listing kodi.AssetListing) Primary {
	switch mediaType {
	case mediainfo.MediaTypeEpisode:
		if url := listing.Art[KindSeasonPoster]; url != "" {
			return Primary{URL: url}
		}
		return Primary{URL: listing.Art[KindPoster]}
	case mediainfo.MediaTypeMovie:
		if url := listing.Art[KindDiscart]; url != "" {
			return Primary{URL: url, Rotates: true}
		}
		return Primary{URL: listing.Art[KindPoster]}
	case mediainfo.MediaTypeSong:
		if url := listing.Art[KindThumbnail]; url != "" {
			return Primary{URL: url}
		}
		return Primary{URL: listing.Art[KindPoster]}
	default:
		return Primary{}
	}
}

// resolveBackground concatenates the main fanart with every extra fanart
// entry, deduplicated by URL with the main fanart first. The listing's
// extra fanart order is preserved.
func resolveBackground(listing kodi.AssetListing) []string {
	var out []string
	seen := map[string]bool{}
	add := func(url string) {
		if url == "" || seen[url] {
			return
		}
		seen[url] = true
		out = append(out, url)
	}
	add(listing.Art[KindFanart])
	for _, url := range listing.ExtraFanart {
		add(url)
	}
	return out
}

// resolveBackCover finds a rear album cover under any of its aliases.
// Empty means the cover cannot flip.
func resolveBackCover(listing kodi.AssetListing) string {
	for _, alias := range backCoverAliases {
		if url := listing.Art[alias]; url != "" {
			return url
		}
	}
	return ""
}
