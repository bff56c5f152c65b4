package mediainfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodiview/kodiview/internal/kodi"
)

func TestIsGenericEpisodeTitle(t *testing.T) {
	tests := []struct {
		title   string
		generic bool
	}{
		{"Episode #6", true},
		{"episode 6", true},
		{"Episode   6", true},
		{"EPISODE#12", true},
		{"Episode 6 ", true},
		{"The Pilot", false},
		{"Episode One", false},
		{"My Episode 6 Story", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.generic, IsGenericEpisodeTitle(tt.title), "title %q", tt.title)
	}
}

func episodeState() *kodi.PlaybackState {
	return &kodi.PlaybackState{
		Player: kodi.Player{PlayerID: 1, Type: "video"},
		Item: kodi.Item{
			ID:        42,
			Type:      "episode",
			Title:     "The Pilot",
			ShowTitle: "Some Show",
			Season:    2,
			Episode:   6,
			Plot:      "A plot.",
			Year:      2021,
			File:      "nfs://srv/tv/Some Show/Season 2/e06.mkv",
		},
		Details: kodi.ItemDetails{
			Rating:   7.84,
			Genre:    []string{"drama", "sci-fi"},
			Director: []string{"J. Doe"},
			UniqueID: map[string]string{"imdb": "tt1234567"},
			StreamInfo: &kodi.StreamDetails{
				Video: []kodi.VideoStream{{Codec: "hevc", Width: 3840, Height: 2160, Aspect: 1.78, HDRType: "dolbyvision"}},
				Audio: []kodi.AudioStream{{Codec: "eac3", Language: "ger", Channels: 6}},
			},
		},
		Labels: kodi.InfoLabels{
			AudioLanguage: "eng",
		},
		Elapsed:  300,
		Duration: 2700,
		Speed:    1,
	}
}

func TestNormalizeEpisode(t *testing.T) {
	snap := Normalize(episodeState())

	assert.Equal(t, MediaTypeEpisode, snap.MediaType)
	assert.True(t, snap.IsPlaying)
	assert.False(t, snap.IsPaused)
	assert.Equal(t, "Some Show", snap.Title)
	assert.Equal(t, "The Pilot", snap.Subtitle)
	assert.Equal(t, 2, snap.Season)
	assert.Equal(t, 6, snap.Episode)
	assert.Equal(t, 2021, snap.Year)
	assert.Equal(t, 7.8, snap.Rating)
	assert.Equal(t, []string{"Drama", "Sci-fi"}, snap.Genres)
	assert.Equal(t, "tt1234567", snap.IMDbID)
	assert.Equal(t, Progress{Elapsed: 300, Total: 2700}, snap.Progress)

	require.NotNil(t, snap.Video)
	assert.Equal(t, "HEVC", snap.Video.Codec)
	assert.Equal(t, "4K", snap.Video.Resolution)
	assert.Equal(t, "16:9", snap.Video.AspectRatio)
	assert.Equal(t, "MKV", snap.Video.Container)
	assert.Equal(t, "DOLBYVISION", snap.Video.HDRType)
}

func TestNormalizeEpisodeGenericTitleSuppressed(t *testing.T) {
	state := episodeState()
	state.Item.Title = "Episode 6"

	snap := Normalize(state)

	assert.Equal(t, "Some Show", snap.Title)
	assert.Empty(t, snap.Subtitle, "generic title must not duplicate the episode badge")
	assert.Equal(t, 6, snap.Episode)
}

func TestNormalizePausedState(t *testing.T) {
	state := episodeState()
	state.Speed = 0

	snap := Normalize(state)

	assert.False(t, snap.IsPlaying)
	assert.True(t, snap.IsPaused)
}

func TestNormalizeMovie(t *testing.T) {
	state := &kodi.PlaybackState{
		Item: kodi.Item{
			ID:    7,
			Type:  "movie",
			Title: "Blade Runner",
			File:  "nfs://srv/movies/Blade Runner/br.mkv",
			Year:  1982,
		},
		Details: kodi.ItemDetails{
			Tagline: "Man has made his match.",
			Studio:  []string{"Warner Bros."},
			StreamInfo: &kodi.StreamDetails{
				Video: []kodi.VideoStream{{Codec: "h264", Width: 1920, Height: 1080, Aspect: 2.39}},
			},
		},
		Speed:    1,
		Duration: 7020,
	}

	snap := Normalize(state)

	assert.Equal(t, MediaTypeMovie, snap.MediaType)
	assert.Equal(t, "Blade Runner", snap.Title)
	assert.Equal(t, "Man has made his match.", snap.Subtitle)
	assert.Equal(t, "Warner Bros.", snap.Studio)
	require.NotNil(t, snap.Video)
	assert.Equal(t, "21:9", snap.Video.AspectRatio)
	assert.Equal(t, "1080p", snap.Video.Resolution)
	assert.Equal(t, "SDR", snap.Video.HDRType)
}

func TestNormalizeSong(t *testing.T) {
	state := &kodi.PlaybackState{
		Item: kodi.Item{
			ID:     3,
			Type:   "song",
			Title:  "Speak to Me",
			Album:  "The Dark Side of the Moon",
			Artist: []string{"Pink Floyd"},
			File:   "nfs://srv/music/Pink Floyd/DSOTM/01.flac",
		},
		Details: kodi.ItemDetails{
			SampleRate: 96000,
			Channels:   2,
			Track:      1,
			Disc:       1,
			TotalDiscs: 1,
		},
		Speed: 1,
	}

	snap := Normalize(state)

	assert.Equal(t, MediaTypeSong, snap.MediaType)
	assert.Equal(t, "Speak to Me", snap.Title)
	assert.Equal(t, "Pink Floyd · The Dark Side of the Moon", snap.Subtitle)
	assert.Equal(t, 1, snap.Track)
	assert.Zero(t, snap.Disc, "single-disc albums carry no disc badge")
	assert.Nil(t, snap.Video)
	require.NotNil(t, snap.Audio)
	assert.Equal(t, "96.0 kHz", snap.Audio.SampleRate)
	assert.Equal(t, 24, snap.Audio.BitsPerSample)
	assert.Equal(t, "FLAC", snap.Audio.Container)
	assert.Equal(t, 2, snap.Audio.Channels)
}

func TestNormalizeSongMultiDisc(t *testing.T) {
	state := &kodi.PlaybackState{
		Item:    kodi.Item{ID: 3, Type: "song", Title: "x"},
		Details: kodi.ItemDetails{Disc: 2, TotalDiscs: 2},
		Speed:   1,
	}

	snap := Normalize(state)
	assert.Equal(t, 2, snap.Disc)
}

func TestNormalizeUnknownType(t *testing.T) {
	state := &kodi.PlaybackState{Item: kodi.Item{Type: "channel"}, Speed: 1}

	snap := Normalize(state)

	assert.Equal(t, MediaTypeNone, snap.MediaType)
	assert.False(t, snap.IsPlaying)
	assert.Empty(t, snap.Title)
	assert.Nil(t, snap.Video)
	assert.Nil(t, snap.Languages)
}

func TestNormalizeNil(t *testing.T) {
	assert.Equal(t, None(), Normalize(nil))
}

func TestNormalizeMissingFieldsStayAbsent(t *testing.T) {
	state := &kodi.PlaybackState{
		Item:  kodi.Item{ID: 1, Type: "movie", Title: "Bare"},
		Speed: 1,
	}

	snap := Normalize(state)

	assert.Equal(t, "Bare", snap.Title)
	assert.Empty(t, snap.Subtitle)
	assert.Zero(t, snap.Year)
	assert.Zero(t, snap.Rating)
	assert.Nil(t, snap.Genres)
	assert.Nil(t, snap.Cast)
	assert.Nil(t, snap.Video, "nothing reported means no video block")
	assert.Nil(t, snap.Audio)
}

func TestCollectLanguagesLabelWins(t *testing.T) {
	state := episodeState()
	// Stream list claims German tracks only; the active label says English.
	state.Details.StreamInfo.Audio = []kodi.AudioStream{
		{Language: "ger"},
		{Language: "eng"},
	}
	state.Labels.AudioLanguage = "eng"

	snap := Normalize(state)

	var audio []Language
	for _, l := range snap.Languages {
		if l.Kind == LanguageAudio {
			audio = append(audio, l)
		}
	}
	require.Len(t, audio, 2)
	assert.Equal(t, Language{Code: "DEU", Kind: LanguageAudio}, audio[0])
	assert.Equal(t, Language{Code: "ENG", Kind: LanguageAudio, Active: true}, audio[1])
}

func TestCollectLanguagesNoLabelMarksFirst(t *testing.T) {
	state := episodeState()
	state.Labels.AudioLanguage = ""
	state.Details.StreamInfo.Audio = []kodi.AudioStream{
		{Language: "fre"},
		{Language: "eng"},
	}

	snap := Normalize(state)

	var audio []Language
	for _, l := range snap.Languages {
		if l.Kind == LanguageAudio {
			audio = append(audio, l)
		}
	}
	require.Len(t, audio, 2)
	assert.Equal(t, "FRA", audio[0].Code)
	assert.True(t, audio[0].Active)
	assert.False(t, audio[1].Active)
}

func TestCollectLanguagesDeduplicates(t *testing.T) {
	state := episodeState()
	state.Details.StreamInfo.Audio = []kodi.AudioStream{
		{Language: "eng"},
		{Language: "ENG"},
		{Language: "eng"},
	}
	state.Labels.AudioLanguage = "eng"

	snap := Normalize(state)

	count := 0
	for _, l := range snap.Languages {
		if l.Kind == LanguageAudio {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
