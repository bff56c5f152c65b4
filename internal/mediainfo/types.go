package mediainfo

// MediaType tags the snapshot with the item shape it was built from.
type MediaType string

const (
	MediaTypeEpisode MediaType = "episode"
	MediaTypeMovie   MediaType = "movie"
	MediaTypeSong    MediaType = "song"
	MediaTypeNone    MediaType = "none"
)

// LanguageKind separates audio tracks from subtitle tracks.
type LanguageKind string

const (
	LanguageAudio    LanguageKind = "audio"
	LanguageSubtitle LanguageKind = "subtitle"
)

// Language is one normalized track language entry.
type Language struct {
	Code   string       `json:"code"`
	Kind   LanguageKind `json:"kind"`
	Active bool         `json:"active"`
}

// Progress is the playback position in seconds. Total is zero when the
// device does not report a duration.
type Progress struct {
	Elapsed int `json:"elapsed"`
	Total   int `json:"total"`
}

// VideoInfo carries the technical video metadata when the device reports
// any. Absent fields stay empty rather than being defaulted.
type VideoInfo struct {
	Codec       string `json:"codec,omitempty"`
	Container   string `json:"container,omitempty"`
	Resolution  string `json:"resolution,omitempty"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
	HDRType     string `json:"hdr_type,omitempty"`
}

// AudioInfo carries the technical audio metadata when reported.
type AudioInfo struct {
	Codec         string `json:"codec,omitempty"`
	Container     string `json:"container,omitempty"`
	Channels      int    `json:"channels,omitempty"`
	SampleRate    string `json:"sample_rate,omitempty"`
	BitsPerSample int    `json:"bits_per_sample,omitempty"`
}

// Snapshot is the uniform, point-in-time view of what a device is
// playing. It is a value type rebuilt wholesale on every poll; nothing
// patches an existing snapshot.
type Snapshot struct {
	IsPlaying bool      `json:"is_playing"`
	IsPaused  bool      `json:"is_paused"`
	MediaType MediaType `json:"media_type"`

	Title    string `json:"title,omitempty"`
	Subtitle string `json:"subtitle,omitempty"`

	// Episode numbering; zero when not an episode or not reported.
	Season  int `json:"season,omitempty"`
	Episode int `json:"episode,omitempty"`

	// Song numbering; disc is only meaningful on multi-disc albums.
	Track int `json:"track,omitempty"`
	Disc  int `json:"disc,omitempty"`

	Year      int      `json:"year,omitempty"`
	Plot      string   `json:"plot,omitempty"`
	Tagline   string   `json:"tagline,omitempty"`
	Rating    float64  `json:"rating,omitempty"`
	Genres    []string `json:"genres,omitempty"`
	Directors []string `json:"directors,omitempty"`
	Cast      []string `json:"cast,omitempty"`
	Studio    string   `json:"studio,omitempty"`
	IMDbID    string   `json:"imdb_id,omitempty"`

	Progress  Progress   `json:"progress"`
	Video     *VideoInfo `json:"video,omitempty"`
	Audio     *AudioInfo `json:"audio,omitempty"`
	Languages []Language `json:"languages,omitempty"`
}

// None is the snapshot for a device with nothing playing.
func None() Snapshot {
	return Snapshot{MediaType: MediaTypeNone}
}
