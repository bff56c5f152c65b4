// Package mediainfo converts raw Kodi playback responses into the uniform
// snapshot the presentation layer renders. Everything here is a pure
// computation: malformed or partial input degrades to a partial snapshot,
// it never errors.
package mediainfo

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/kodiview/kodiview/internal/kodi"
)

// genericEpisodeTitle matches placeholder titles like "Episode 6",
// "episode #6" or "Episode   6". Such titles duplicate the episode badge
// and are suppressed from the subtitle.
var genericEpisodeTitle = regexp.MustCompile(`(?i)^episode\s*#?\s*\d+\s*$`)

// IsGenericEpisodeTitle reports whether a title is a bare episode-number
// placeholder rather than a real name.
func IsGenericEpisodeTitle(title string) bool {
	return genericEpisodeTitle.MatchString(title)
}

// Normalize builds a Snapshot from one captured playback state. A nil
// state or an unrecognized item type yields the none snapshot.
func Normalize(state *kodi.PlaybackState) Snapshot {
	if state == nil {
		return None()
	}

	var snap Snapshot
	switch state.Item.Type {
	case "episode":
		snap = normalizeEpisode(state)
	case "movie":
		snap = normalizeMovie(state)
	case "song":
		snap = normalizeSong(state)
	default:
		return None()
	}

	snap.IsPlaying = !state.Paused()
	snap.IsPaused = state.Paused()
	snap.Progress = Progress{Elapsed: state.Elapsed, Total: state.Duration}
	snap.Languages = collectLanguages(state)
	return snap
}

func normalizeEpisode(state *kodi.PlaybackState) Snapshot {
	item := state.Item
	snap := Snapshot{
		MediaType: MediaTypeEpisode,
		Title:     item.ShowTitle,
		Season:    item.Season,
		Episode:   item.Episode,
		Plot:      item.Plot,
	}
	if !IsGenericEpisodeTitle(item.Title) {
		snap.Subtitle = item.Title
	}
	fillCommonDetails(&snap, state)
	snap.Video = buildVideoInfo(state)
	snap.Audio = buildAudioInfo(state)
	return snap
}

func normalizeMovie(state *kodi.PlaybackState) Snapshot {
	item := state.Item
	snap := Snapshot{
		MediaType: MediaTypeMovie,
		Title:     item.Title,
		Subtitle:  state.Details.Tagline,
		Plot:      item.Plot,
		Tagline:   state.Details.Tagline,
	}
	fillCommonDetails(&snap, state)
	snap.Video = buildVideoInfo(state)
	snap.Audio = buildAudioInfo(state)
	return snap
}

func normalizeSong(state *kodi.PlaybackState) Snapshot {
	item := state.Item
	snap := Snapshot{
		MediaType: MediaTypeSong,
		Title:     item.Title,
		Subtitle:  songSubtitle(item),
		Track:     state.Details.Track,
	}
	// Disc badges only make sense on multi-disc albums.
	if state.Details.TotalDiscs >= 2 {
		snap.Disc = state.Details.Disc
	}
	fillCommonDetails(&snap, state)
	snap.Audio = buildAudioInfo(state)
	return snap
}

// songSubtitle joins artist and album into the secondary display line.
func songSubtitle(item kodi.Item) string {
	artist := strings.Join(item.Artist, ", ")
	switch {
	case artist != "" && item.Album != "":
		return artist + " · " + item.Album
	case artist != "":
		return artist
	default:
		return item.Album
	}
}

// fillCommonDetails copies the type-independent library metadata, with
// the enrichment record winning over the basic item where both report.
func fillCommonDetails(snap *Snapshot, state *kodi.PlaybackState) {
	item := state.Item
	details := state.Details

	snap.Year = parseLabelInt(state.Labels.Year)
	if snap.Year == 0 {
		snap.Year = item.Year
	}

	rating := details.Rating
	if rating == 0 {
		rating = item.Rating
	}
	snap.Rating = math.Round(rating*10) / 10

	genres := details.Genre
	if len(genres) == 0 {
		genres = item.Genre
	}
	for _, g := range genres {
		if g == "" {
			continue
		}
		snap.Genres = append(snap.Genres, capitalize(g))
		if len(snap.Genres) == 3 {
			break
		}
	}

	snap.Directors = firstNonEmptyList(details.Director, item.Director)

	cast := details.Cast
	if len(cast) == 0 {
		cast = item.Cast
	}
	for _, member := range cast {
		if member.Name == "" {
			continue
		}
		snap.Cast = append(snap.Cast, member.Name)
		if len(snap.Cast) == 10 {
			break
		}
	}

	if len(details.Studio) > 0 {
		snap.Studio = strings.Join(details.Studio, ", ")
	}
	snap.IMDbID = details.UniqueID["imdb"]
}

// buildVideoInfo assembles the technical video block, preferring the
// player's real-time info labels over the library's streamdetails. Nil
// when nothing was reported at all.
func buildVideoInfo(state *kodi.PlaybackState) *VideoInfo {
	stream := firstVideoStream(state)

	info := VideoInfo{}
	info.Codec = strings.ToUpper(firstNonEmpty(state.Labels.VideoCodec, stream.Codec))

	width := parseLabelInt(state.Labels.VideoWidth)
	height := parseLabelInt(state.Labels.VideoHeight)
	if width == 0 {
		width = stream.Width
	}
	if height == 0 {
		height = stream.Height
	}
	info.Resolution = ResolutionLabel(width, height)

	info.AspectRatio = state.Labels.VideoAspectLabel
	if info.AspectRatio == "" {
		aspect := stream.Aspect
		if parsed := parseLabelFloat(state.Labels.VideoAspect); parsed > 0 {
			aspect = parsed
		}
		info.AspectRatio = AspectLabel(aspect)
	}

	info.Container = strings.ToUpper(state.Labels.Container)
	if info.Container == "" {
		info.Container = containerFromFile(state.Item.File)
	}

	info.HDRType = strings.ToUpper(stream.HDRType)

	if info == (VideoInfo{}) {
		return nil
	}
	if info.HDRType == "" {
		info.HDRType = "SDR"
	}
	return &info
}

// buildAudioInfo assembles the technical audio block. Nil when nothing
// was reported.
func buildAudioInfo(state *kodi.PlaybackState) *AudioInfo {
	stream := firstAudioStream(state)

	info := AudioInfo{}
	info.Codec = strings.ToUpper(firstNonEmpty(state.Labels.AudioCodec, stream.Codec))
	info.Channels = stream.Channels
	if info.Channels == 0 {
		info.Channels = parseLabelInt(state.Labels.AudioChannels)
	}
	if info.Channels == 0 {
		info.Channels = state.Details.Channels
	}

	hz := float64(state.Details.SampleRate)
	if hz == 0 {
		hz = parseLabelFloat(state.Labels.SampleRate)
	}
	info.SampleRate = FormatSampleRate(hz)

	info.BitsPerSample = parseLabelInt(state.Labels.BitsPerSample)
	if info.BitsPerSample == 0 && hz > 0 {
		// High-resolution sources are de facto 24-bit.
		if hz >= 96000 {
			info.BitsPerSample = 24
		} else {
			info.BitsPerSample = 16
		}
	}

	if state.Item.Type == "song" {
		info.Container = strings.ToUpper(state.Labels.Container)
		if info.Container == "" {
			info.Container = containerFromFile(state.Item.File)
		}
	}

	if info == (AudioInfo{}) {
		return nil
	}
	return &info
}

// collectLanguages merges the stream listings with the active-track info
// labels into one ordered list covering both kinds.
func collectLanguages(state *kodi.PlaybackState) []Language {
	var audioCodes, subtitleCodes []string
	for _, s := range audioStreams(state) {
		audioCodes = append(audioCodes, s.Language)
	}
	for _, s := range subtitleStreams(state) {
		subtitleCodes = append(subtitleCodes, s.Language)
	}

	out := mergeLanguages(LanguageAudio, audioCodes, state.Labels.AudioLanguage)
	out = append(out, mergeLanguages(LanguageSubtitle, subtitleCodes, state.Labels.SubtitleLanguage)...)
	return out
}

// audioStreams prefers the player's live stream list over the library's
// streamdetails.
func audioStreams(state *kodi.PlaybackState) []kodi.AudioStream {
	if len(state.Audio) > 0 {
		return state.Audio
	}
	if state.Details.StreamInfo != nil && len(state.Details.StreamInfo.Audio) > 0 {
		return state.Details.StreamInfo.Audio
	}
	if state.Item.StreamInfo != nil {
		return state.Item.StreamInfo.Audio
	}
	return nil
}

func subtitleStreams(state *kodi.PlaybackState) []kodi.SubtitleStream {
	if len(state.Subtitles) > 0 {
		return state.Subtitles
	}
	if state.Details.StreamInfo != nil && len(state.Details.StreamInfo.Subtitle) > 0 {
		return state.Details.StreamInfo.Subtitle
	}
	if state.Item.StreamInfo != nil {
		return state.Item.StreamInfo.Subtitle
	}
	return nil
}

func firstVideoStream(state *kodi.PlaybackState) kodi.VideoStream {
	if state.Details.StreamInfo != nil && len(state.Details.StreamInfo.Video) > 0 {
		return state.Details.StreamInfo.Video[0]
	}
	if state.Item.StreamInfo != nil && len(state.Item.StreamInfo.Video) > 0 {
		return state.Item.StreamInfo.Video[0]
	}
	return kodi.VideoStream{}
}

func firstAudioStream(state *kodi.PlaybackState) kodi.AudioStream {
	if streams := audioStreams(state); len(streams) > 0 {
		return streams[0]
	}
	return kodi.AudioStream{}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonEmptyList(lists ...[]string) []string {
	for _, l := range lists {
		if len(l) > 0 {
			return l
		}
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func parseLabelFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
