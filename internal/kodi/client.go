// Package kodi implements a read-only client for the Kodi JSON-RPC API.
// Every call is a single short-timeout HTTP round trip; retry policy is
// left to the caller. Each call also records its outcome in the shared
// StatusRegistry so the session layer can report per-device reachability.
package kodi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

const (
	probeTimeout = 5 * time.Second
	fetchTimeout = 8 * time.Second
)

// itemProperties is the Player.GetItem field set the normalizer consumes.
var itemProperties = []string{
	"title", "album", "artist", "season", "episode", "showtitle",
	"tvshowid", "duration", "file", "director", "art", "plot",
	"cast", "genre", "rating", "streamdetails", "year",
}

var infoLabelNames = []string{
	"VideoPlayer.VideoAspect",
	"VideoPlayer.VideoAspectLabel",
	"VideoPlayer.VideoCodec",
	"VideoPlayer.AudioCodec",
	"VideoPlayer.Container",
	"Player.Process(VideoWidth)",
	"Player.Process(VideoHeight)",
	"VideoPlayer.AudioLanguage",
	"VideoPlayer.SubtitlesLanguage",
	"VideoPlayer.Year",
	"Player.Process(AudioSamplerate)",
	"Player.Process(AudioChannels)",
	"MusicPlayer.BitsPerSample",
}

// Client talks to Kodi devices. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	status     *StatusRegistry
	logger     hclog.Logger
}

// NewClient builds a client that reports call outcomes to status.
func NewClient(status *StatusRegistry, logger hclog.Logger) *Client {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Client{
		httpClient: &http.Client{},
		status:     status,
		logger:     logger.Named("kodi"),
	}
}

// call performs one JSON-RPC round trip and decodes the result into out.
// Classifies transport and protocol failures into the package sentinels
// and updates the device's connection state in both directions.
func (c *Client) call(ctx context.Context, cfg DeviceConfig, timeout time.Duration, method string, params, out interface{}) error {
	err := c.doCall(ctx, cfg, timeout, method, params, out)
	if err != nil {
		c.status.markFailure(cfg.ID, err)
		return err
	}
	c.status.markSuccess(cfg.ID)
	return nil
}

func (c *Client) doCall(ctx context.Context, cfg DeviceConfig, timeout time.Duration, method string, params, out interface{}) error {
	if params == nil {
		params = struct{}{}
	}
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: 1})
	if err != nil {
		return wrapCallError(ErrMalformed, cfg.ID, method, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(cfg.Host, "/")+"/jsonrpc", bytes.NewReader(body))
	if err != nil {
		return wrapCallError(ErrUnreachable, cfg.ID, method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.Username != "" {
		req.SetBasicAuth(cfg.Username, cfg.Password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wrapCallError(ErrUnreachable, cfg.ID, method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return wrapCallError(ErrUnauthorized, cfg.ID, method, nil)
	}
	if resp.StatusCode != http.StatusOK {
		return wrapCallError(ErrMalformed, cfg.ID, method, fmt.Errorf("http status %d", resp.StatusCode))
	}

	var envelope rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return wrapCallError(ErrMalformed, cfg.ID, method, err)
	}
	if envelope.Error != nil {
		return wrapCallError(ErrMalformed, cfg.ID, method, fmt.Errorf("rpc error %d: %s", envelope.Error.Code, envelope.Error.Message))
	}
	if out != nil && envelope.Result != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return wrapCallError(ErrMalformed, cfg.ID, method, err)
		}
	}
	return nil
}

// Probe checks that the device answers authenticated RPC at all.
// Side-effect free on the device; updates only the connection state.
func (c *Client) Probe(ctx context.Context, cfg DeviceConfig) (DeviceInfo, error) {
	var result struct {
		Version DeviceInfo `json:"version"`
	}
	if err := c.call(ctx, cfg, probeTimeout, "JSONRPC.Version", nil, &result); err != nil {
		return DeviceInfo{}, err
	}
	return result.Version, nil
}

// FetchPlaybackState captures everything the active player reports in one
// pass. Auxiliary calls (info labels, stream lists, library details) are
// best effort: their absence degrades the snapshot, never the request.
func (c *Client) FetchPlaybackState(ctx context.Context, cfg DeviceConfig) (*PlaybackState, error) {
	var players []Player
	if err := c.call(ctx, cfg, fetchTimeout, "Player.GetActivePlayers", nil, &players); err != nil {
		return nil, err
	}
	if len(players) == 0 {
		return nil, wrapCallError(ErrNoPlayers, cfg.ID, "Player.GetActivePlayers", nil)
	}
	state := &PlaybackState{Player: players[0]}

	var itemResult struct {
		Item Item `json:"item"`
	}
	itemParams := map[string]interface{}{
		"playerid":   state.Player.PlayerID,
		"properties": itemProperties,
	}
	if err := c.call(ctx, cfg, fetchTimeout, "Player.GetItem", itemParams, &itemResult); err != nil {
		return nil, err
	}
	state.Item = itemResult.Item

	var props struct {
		Time      ClockTime `json:"time"`
		TotalTime ClockTime `json:"totaltime"`
		Speed     int       `json:"speed"`
	}
	propsParams := map[string]interface{}{
		"playerid":   state.Player.PlayerID,
		"properties": []string{"time", "totaltime", "speed"},
	}
	if err := c.call(ctx, cfg, fetchTimeout, "Player.GetProperties", propsParams, &props); err != nil {
		return nil, err
	}
	state.Elapsed = props.Time.TotalSeconds()
	state.Duration = props.TotalTime.TotalSeconds()
	state.Speed = props.Speed

	var streams struct {
		AudioStreams []AudioStream    `json:"audiostreams"`
		Subtitles    []SubtitleStream `json:"subtitles"`
	}
	streamParams := map[string]interface{}{
		"playerid":   state.Player.PlayerID,
		"properties": []string{"audiostreams", "subtitles"},
	}
	if err := c.call(ctx, cfg, fetchTimeout, "Player.GetProperties", streamParams, &streams); err != nil {
		c.logger.Debug("stream listing unavailable", "device", cfg.ID, "error", err)
	} else {
		state.Audio = streams.AudioStreams
		state.Subtitles = streams.Subtitles
	}

	labelParams := map[string]interface{}{"labels": infoLabelNames}
	if err := c.call(ctx, cfg, fetchTimeout, "XBMC.GetInfoLabels", labelParams, &state.Labels); err != nil {
		c.logger.Debug("info labels unavailable", "device", cfg.ID, "error", err)
	}

	c.fetchDetails(ctx, cfg, state)
	return state, nil
}

// fetchDetails enriches the state with the per-type library record.
func (c *Client) fetchDetails(ctx context.Context, cfg DeviceConfig, state *PlaybackState) {
	item := state.Item
	if item.ID == 0 {
		return
	}
	switch item.Type {
	case "episode":
		var result struct {
			Details ItemDetails `json:"episodedetails"`
		}
		params := map[string]interface{}{
			"episodeid":  item.ID,
			"properties": []string{"streamdetails", "genre", "director", "cast", "uniqueid", "rating", "studio"},
		}
		if err := c.call(ctx, cfg, fetchTimeout, "VideoLibrary.GetEpisodeDetails", params, &result); err == nil {
			state.Details = result.Details
		}
	case "movie":
		var result struct {
			Details ItemDetails `json:"moviedetails"`
		}
		params := map[string]interface{}{
			"movieid":    item.ID,
			"properties": []string{"streamdetails", "genre", "director", "cast", "uniqueid", "rating", "studio", "tagline"},
		}
		if err := c.call(ctx, cfg, fetchTimeout, "VideoLibrary.GetMovieDetails", params, &result); err == nil {
			state.Details = result.Details
		}
	case "song":
		var result struct {
			Details ItemDetails `json:"songdetails"`
		}
		params := map[string]interface{}{
			"songid":     item.ID,
			"properties": []string{"title", "album", "artist", "duration", "rating", "year", "genre", "bitrate", "channels", "samplerate", "track", "disc", "albumid"},
		}
		if err := c.call(ctx, cfg, fetchTimeout, "AudioLibrary.GetSongDetails", params, &result); err != nil {
			return
		}
		state.Details = result.Details
		if result.Details.AlbumID != 0 {
			var album struct {
				Details ItemDetails `json:"albumdetails"`
			}
			params := map[string]interface{}{
				"albumid":    result.Details.AlbumID,
				"properties": []string{"title", "year", "rating", "albumlabel", "totaldiscs", "description"},
			}
			if err := c.call(ctx, cfg, fetchTimeout, "AudioLibrary.GetAlbumDetails", params, &album); err == nil {
				state.Details.TotalDiscs = album.Details.TotalDiscs
				state.Details.AlbumLabel = album.Details.AlbumLabel
				if state.Details.Description == "" {
					state.Details.Description = album.Details.Description
				}
			}
		}
	}
}

// FetchAssetListing builds the item's artwork surface: the flattened art
// map with every path converted to a fetchable URL, plus any extra fanart
// discovered in the media folder.
func (c *Client) FetchAssetListing(ctx context.Context, cfg DeviceConfig, item Item) (AssetListing, error) {
	listing := AssetListing{Art: map[string]string{}}

	flat := flattenArtMap(item)
	for kind, raw := range flat {
		resolved := c.resolveAssetURL(ctx, cfg, raw)
		if resolved != "" {
			listing.Art[kind] = resolved
		}
	}

	for _, p := range c.scanExtraFanart(ctx, cfg, item) {
		resolved := c.resolveAssetURL(ctx, cfg, p)
		if resolved != "" {
			listing.ExtraFanart = append(listing.ExtraFanart, resolved)
		}
	}
	return listing, nil
}

// flattenArtMap collapses Kodi's prefixed art keys (tvshow.*, album.*,
// artist.*, albumartist.*) onto plain kinds. Music prefixes win over show
// prefixes, which win over plain keys, matching what the device itself
// would display. The thumbnail doubles as poster when no poster exists.
func flattenArtMap(item Item) map[string]string {
	flat := make(map[string]string, len(item.Art))
	for k, v := range item.Art {
		if !strings.Contains(k, ".") {
			flat[k] = v
		}
	}
	if item.Thumbnail != "" && flat["poster"] == "" {
		flat["poster"] = item.Thumbnail
	}
	// season.poster is a real kind, not a flattening prefix
	if v := item.Art["season.poster"]; v != "" {
		flat["season.poster"] = v
	}
	for k, v := range item.Art {
		if rest, ok := strings.CutPrefix(k, "tvshow."); ok {
			flat[rest] = v
		}
	}
	musicPrefixes := []string{"albumartist.", "artist.", "album."}
	for _, prefix := range musicPrefixes {
		for k, v := range item.Art {
			rest, ok := strings.CutPrefix(k, prefix)
			if !ok {
				continue
			}
			if rest == "thumb" {
				rest = "thumbnail"
			}
			flat[rest] = v
		}
	}
	return flat
}

// scanExtraFanart lists the media folder for an extrafanart directory and
// numbered fanart siblings. Episode paths sit under Show/Season X/, so the
// show root is two levels up; movies use their own folder.
func (c *Client) scanExtraFanart(ctx context.Context, cfg DeviceConfig, item Item) []string {
	if item.File == "" || (item.Type != "movie" && item.Type != "episode") {
		return nil
	}
	mediaDir := path.Dir(item.File)
	if item.Type == "episode" {
		mediaDir = path.Dir(mediaDir)
	}

	entries, err := c.listDirectory(ctx, cfg, mediaDir)
	if err != nil {
		c.logger.Debug("extra fanart scan failed", "device", cfg.ID, "dir", mediaDir, "error", err)
		return nil
	}

	var found []string
	for _, entry := range entries {
		switch {
		case entry.FileType == "directory" && strings.Contains(strings.ToLower(entry.File), "extrafanart"):
			sub, err := c.listDirectory(ctx, cfg, entry.File)
			if err != nil {
				continue
			}
			for _, f := range sub {
				if f.FileType == "file" && isImagePath(f.File) {
					found = append(found, f.File)
				}
			}
		case entry.FileType == "file" && isNumberedFanart(entry.File):
			found = append(found, entry.File)
		}
	}
	// fanart10 must follow fanart2, so a plain string sort is not enough
	sort.Slice(found, func(i, j int) bool {
		return fanartLess(found[i], found[j])
	})
	return found
}

// fanartLess orders image paths by base-name prefix, then by any numeric
// suffix (fanart2 before fanart10), then by the full path as a tiebreak.
func fanartLess(a, b string) bool {
	pa, na := splitNumericSuffix(a)
	pb, nb := splitNumericSuffix(b)
	if pa != pb {
		return pa < pb
	}
	if na != nb {
		return na < nb
	}
	return a < b
}

// splitNumericSuffix breaks an image path's base name into its prefix and
// trailing number. The number is -1 when the name has no digit suffix, so
// a bare fanart sorts ahead of fanart1.
func splitNumericSuffix(p string) (string, int) {
	base := strings.ToLower(path.Base(p))
	name := strings.TrimSuffix(base, path.Ext(base))
	i := len(name)
	for i > 0 && name[i-1] >= '0' && name[i-1] <= '9' {
		i--
	}
	if i == len(name) {
		return name, -1
	}
	n, err := strconv.Atoi(name[i:])
	if err != nil {
		return name, -1
	}
	return name[:i], n
}

func (c *Client) listDirectory(ctx context.Context, cfg DeviceConfig, dir string) ([]FileEntry, error) {
	var result struct {
		Files []FileEntry `json:"files"`
	}
	params := map[string]interface{}{
		"directory":  dir,
		"properties": []string{"file"},
	}
	if err := c.call(ctx, cfg, fetchTimeout, "Files.GetDirectory", params, &result); err != nil {
		return nil, err
	}
	return result.Files, nil
}

// resolveAssetURL turns a raw art reference into a URL the presentation
// layer can fetch. Remote URLs pass through; local paths go through
// Files.PrepareDownload for a tokenized /vfs URL.
func (c *Client) resolveAssetURL(ctx context.Context, cfg DeviceConfig, raw string) string {
	cleaned := cleanImageProtocol(raw)
	if cleaned == "" {
		return ""
	}
	if strings.HasPrefix(cleaned, "http://") || strings.HasPrefix(cleaned, "https://") {
		return cleaned
	}

	var result struct {
		Details struct {
			Token string `json:"token"`
			Path  string `json:"path"`
		} `json:"details"`
	}
	if err := c.call(ctx, cfg, fetchTimeout, "Files.PrepareDownload", map[string]interface{}{"path": raw}, &result); err != nil {
		c.logger.Debug("prepare download failed", "device", cfg.ID, "path", cleaned, "error", err)
		return ""
	}
	host := strings.TrimRight(cfg.Host, "/")
	if result.Details.Token != "" {
		return host + "/vfs/" + result.Details.Token + "/" + url.PathEscape(path.Base(cleaned))
	}
	if result.Details.Path != "" {
		return host + "/" + result.Details.Path
	}
	return ""
}

// cleanImageProtocol unwraps Kodi's image:// URL encoding and trims the
// trailing slash the encoding appends.
func cleanImageProtocol(raw string) string {
	if raw == "" {
		return ""
	}
	cleaned := raw
	if rest, ok := strings.CutPrefix(cleaned, "image://"); ok {
		if unescaped, err := url.QueryUnescape(rest); err == nil {
			cleaned = unescaped
		} else {
			cleaned = rest
		}
	}
	return strings.TrimRight(cleaned, "/")
}

func isImagePath(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".jpg", ".jpeg", ".png", ".webp":
		return true
	}
	return false
}

// isNumberedFanart matches fanart1.jpg .. fanartN.png siblings of the
// media file. The main fanart.jpg is already covered by the art map.
func isNumberedFanart(p string) bool {
	if !isImagePath(p) {
		return false
	}
	prefix, n := splitNumericSuffix(p)
	return prefix == "fanart" && n >= 0
}
