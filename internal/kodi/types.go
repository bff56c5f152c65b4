package kodi

import (
	"encoding/json"
	"time"
)

// DeviceConfig identifies one monitored Kodi instance. Instances are
// loaded once at startup and never mutated afterwards.
type DeviceConfig struct {
	ID       int    `yaml:"id" json:"id"`
	Host     string `yaml:"host" json:"host"`
	Username string `yaml:"username" json:"-"`
	Password string `yaml:"password" json:"-"`
}

// Reachability is the last-known probe outcome for a device.
type Reachability string

const (
	ReachabilityUnknown     Reachability = "unknown"
	ReachabilityReachable   Reachability = "reachable"
	ReachabilityUnreachable Reachability = "unreachable"
)

// ConnectionState is the per-device probe record. It is owned by the
// StatusRegistry and handed out by value.
type ConnectionState struct {
	Reachability Reachability `json:"reachability"`
	LastSuccess  time.Time    `json:"last_success,omitempty"`
	LastError    string       `json:"last_error,omitempty"`
}

// DeviceInfo is the result of a successful probe (JSONRPC.Version).
type DeviceInfo struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

// rpcRequest is the JSON-RPC 2.0 envelope Kodi expects.
type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      int         `json:"id"`
}

// rpcResponse is the JSON-RPC 2.0 envelope Kodi returns. Result is kept
// raw so each call site can decode its own shape.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Player is one entry of Player.GetActivePlayers.
type Player struct {
	PlayerID int    `json:"playerid"`
	Type     string `json:"type"`
}

// ClockTime is Kodi's hours/minutes/seconds time object.
type ClockTime struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// TotalSeconds flattens a ClockTime to a second count.
func (t ClockTime) TotalSeconds() int {
	return t.Hours*3600 + t.Minutes*60 + t.Seconds
}

// VideoStream is one streamdetails video entry.
type VideoStream struct {
	Codec    string  `json:"codec"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Aspect   float64 `json:"aspect"`
	HDRType  string  `json:"hdrtype"`
	Duration int     `json:"duration"`
}

// AudioStream is one streamdetails audio entry, also used for the
// Player.GetProperties audiostreams list.
type AudioStream struct {
	Codec    string `json:"codec"`
	Language string `json:"language"`
	Channels int    `json:"channels"`
	Name     string `json:"name"`
	Index    int    `json:"index"`
}

// SubtitleStream is one streamdetails subtitle entry, also used for the
// Player.GetProperties subtitles list.
type SubtitleStream struct {
	Language string `json:"language"`
	Name     string `json:"name"`
	Index    int    `json:"index"`
}

// StreamDetails groups the per-stream technical metadata of an item.
type StreamDetails struct {
	Video    []VideoStream    `json:"video"`
	Audio    []AudioStream    `json:"audio"`
	Subtitle []SubtitleStream `json:"subtitle"`
}

// CastMember is one entry of an item's cast list.
type CastMember struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// Item is the Player.GetItem payload, covering the episode, movie and
// song shapes. Fields that a given media type does not report stay at
// their zero value.
type Item struct {
	ID         int               `json:"id"`
	Type       string            `json:"type"`
	Title      string            `json:"title"`
	ShowTitle  string            `json:"showtitle"`
	TVShowID   int               `json:"tvshowid"`
	Season     int               `json:"season"`
	Episode    int               `json:"episode"`
	Album      string            `json:"album"`
	Artist     []string          `json:"artist"`
	Duration   int               `json:"duration"`
	File       string            `json:"file"`
	Plot       string            `json:"plot"`
	Year       int               `json:"year"`
	Rating     float64           `json:"rating"`
	Genre      []string          `json:"genre"`
	Director   []string          `json:"director"`
	Cast       []CastMember      `json:"cast"`
	Art        map[string]string `json:"art"`
	Thumbnail  string            `json:"thumbnail"`
	StreamInfo *StreamDetails    `json:"streamdetails"`
}

// ItemDetails carries the per-type library enrichment merged from
// VideoLibrary.Get*Details / AudioLibrary.Get*Details.
type ItemDetails struct {
	Rating      float64           `json:"rating"`
	Genre       []string          `json:"genre"`
	Director    []string          `json:"director"`
	Studio      []string          `json:"studio"`
	Tagline     string            `json:"tagline"`
	Cast        []CastMember      `json:"cast"`
	UniqueID    map[string]string `json:"uniqueid"`
	StreamInfo  *StreamDetails    `json:"streamdetails"`
	SampleRate  int               `json:"samplerate"`
	BitRate     int               `json:"bitrate"`
	Channels    int               `json:"channels"`
	Track       int               `json:"track"`
	Disc        int               `json:"disc"`
	AlbumID     int               `json:"albumid"`
	TotalDiscs  int               `json:"totaldiscs"`
	AlbumLabel  string            `json:"albumlabel"`
	Description string            `json:"description"`
}

// InfoLabels is the XBMC.GetInfoLabels result for the label set the
// normalizer consumes. Kodi returns every label as a string.
type InfoLabels struct {
	VideoAspect      string `json:"VideoPlayer.VideoAspect"`
	VideoAspectLabel string `json:"VideoPlayer.VideoAspectLabel"`
	VideoCodec       string `json:"VideoPlayer.VideoCodec"`
	AudioCodec       string `json:"VideoPlayer.AudioCodec"`
	Container        string `json:"VideoPlayer.Container"`
	VideoWidth       string `json:"Player.Process(VideoWidth)"`
	VideoHeight      string `json:"Player.Process(VideoHeight)"`
	AudioLanguage    string `json:"VideoPlayer.AudioLanguage"`
	SubtitleLanguage string `json:"VideoPlayer.SubtitlesLanguage"`
	Year             string `json:"VideoPlayer.Year"`
	SampleRate       string `json:"Player.Process(AudioSamplerate)"`
	AudioChannels    string `json:"Player.Process(AudioChannels)"`
	BitsPerSample    string `json:"MusicPlayer.BitsPerSample"`
}

// PlaybackState is one point-in-time capture of everything the active
// player reports. It is assembled by a single FetchPlaybackState call so
// downstream consumers never observe a half-updated view.
type PlaybackState struct {
	Player    Player
	Item      Item
	Details   ItemDetails
	Labels    InfoLabels
	Elapsed   int
	Duration  int
	Speed     int
	Audio     []AudioStream
	Subtitles []SubtitleStream
}

// Paused reports whether the player is paused. Kodi signals pause by a
// playback speed of zero.
func (s *PlaybackState) Paused() bool {
	return s.Speed == 0
}

// FileEntry is one Files.GetDirectory entry.
type FileEntry struct {
	File     string `json:"file"`
	FileType string `json:"filetype"`
	Label    string `json:"label"`
}

// AssetListing is the raw artwork surface of an item: the flattened art
// map plus any extra fanart files discovered next to the media. ExtraFanart
// preserves discovery order.
type AssetListing struct {
	Art         map[string]string
	ExtraFanart []string
}
