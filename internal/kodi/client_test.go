package kodi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevice serves canned JSON-RPC results keyed by method name. Methods
// without an entry answer with a method-not-found error, which the client
// treats as a malformed (best-effort) call.
func fakeDevice(results map[string]interface{}) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if result, ok := results[req.Method]; ok {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"jsonrpc": "2.0", "id": 1, "result": result,
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0", "id": 1,
			"error": map[string]interface{}{"code": -32601, "message": "Method not found"},
		})
	}))
}

func testClient(devices ...DeviceConfig) (*Client, *StatusRegistry) {
	reg := NewStatusRegistry(devices)
	return NewClient(reg, nil), reg
}

func TestProbe(t *testing.T) {
	srv := fakeDevice(map[string]interface{}{
		"JSONRPC.Version": map[string]interface{}{
			"version": map[string]int{"major": 13, "minor": 5, "patch": 0},
		},
	})
	defer srv.Close()

	cfg := DeviceConfig{ID: 1, Host: srv.URL}
	client, reg := testClient(cfg)

	info, err := client.Probe(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, DeviceInfo{Major: 13, Minor: 5}, info)
	assert.Equal(t, ReachabilityReachable, reg.State(1).Reachability)
}

func TestProbeUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "kodi" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"version":{"major":13,"minor":5,"patch":0}}}`))
	}))
	defer srv.Close()

	bad := DeviceConfig{ID: 1, Host: srv.URL, Username: "kodi", Password: "wrong"}
	client, reg := testClient(bad)
	_, err := client.Probe(context.Background(), bad)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, ReachabilityUnreachable, reg.State(1).Reachability)

	good := DeviceConfig{ID: 1, Host: srv.URL, Username: "kodi", Password: "secret"}
	client, reg = testClient(good)
	_, err = client.Probe(context.Background(), good)
	require.NoError(t, err)
	assert.Equal(t, ReachabilityReachable, reg.State(1).Reachability)
}

func TestProbeUnreachable(t *testing.T) {
	srv := fakeDevice(nil)
	srv.Close() // nothing listens anymore

	cfg := DeviceConfig{ID: 1, Host: srv.URL}
	client, reg := testClient(cfg)

	_, err := client.Probe(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrUnreachable)
	state := reg.State(1)
	assert.Equal(t, ReachabilityUnreachable, state.Reachability)
	assert.NotEmpty(t, state.LastError)
}

func TestProbeMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "invalid json", body: `{"jsonrpc":`, code: http.StatusOK},
		{name: "rpc error", body: `{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"Invalid params"}}`, code: http.StatusOK},
		{name: "server error", body: "boom", code: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			cfg := DeviceConfig{ID: 1, Host: srv.URL}
			client, _ := testClient(cfg)
			_, err := client.Probe(context.Background(), cfg)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestFetchPlaybackStateNoPlayers(t *testing.T) {
	srv := fakeDevice(map[string]interface{}{
		"Player.GetActivePlayers": []interface{}{},
	})
	defer srv.Close()

	cfg := DeviceConfig{ID: 1, Host: srv.URL}
	client, reg := testClient(cfg)

	_, err := client.FetchPlaybackState(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrNoPlayers)
	// an idle device is still a healthy device
	assert.Equal(t, ReachabilityReachable, reg.State(1).Reachability)
}

func TestFetchPlaybackStateEpisode(t *testing.T) {
	srv := fakeDevice(map[string]interface{}{
		"Player.GetActivePlayers": []map[string]interface{}{
			{"playerid": 1, "type": "video"},
		},
		"Player.GetItem": map[string]interface{}{
			"item": map[string]interface{}{
				"id": 42, "type": "episode",
				"title": "The Constant", "showtitle": "Lost",
				"season": 4, "episode": 5,
				"file": "/media/tv/Lost/Season 4/s04e05.mkv",
			},
		},
		// both property fetches share one handler; each decodes its fields
		"Player.GetProperties": map[string]interface{}{
			"time":      map[string]int{"hours": 0, "minutes": 12, "seconds": 34},
			"totaltime": map[string]int{"hours": 0, "minutes": 43, "seconds": 0},
			"speed":     1,
			"audiostreams": []map[string]interface{}{
				{"codec": "eac3", "language": "eng", "channels": 6, "index": 0},
			},
			"subtitles": []map[string]interface{}{
				{"language": "ger", "index": 0},
			},
		},
		"XBMC.GetInfoLabels": map[string]string{
			"VideoPlayer.VideoCodec":       "h264",
			"Player.Process(VideoWidth)":   "1,920",
			"Player.Process(VideoHeight)":  "1080",
			"VideoPlayer.VideoAspect":      "1.78",
			"VideoPlayer.AudioLanguage":    "eng",
		},
		"VideoLibrary.GetEpisodeDetails": map[string]interface{}{
			"episodedetails": map[string]interface{}{
				"rating":   8.7,
				"director": []string{"Jack Bender"},
				"uniqueid": map[string]string{"imdb": "tt1127519"},
			},
		},
	})
	defer srv.Close()

	cfg := DeviceConfig{ID: 1, Host: srv.URL}
	client, _ := testClient(cfg)

	state, err := client.FetchPlaybackState(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Player.PlayerID)
	assert.Equal(t, "episode", state.Item.Type)
	assert.Equal(t, "Lost", state.Item.ShowTitle)
	assert.Equal(t, 12*60+34, state.Elapsed)
	assert.Equal(t, 43*60, state.Duration)
	assert.Equal(t, 1, state.Speed)
	assert.False(t, state.Paused())
	require.Len(t, state.Audio, 1)
	assert.Equal(t, "eac3", state.Audio[0].Codec)
	require.Len(t, state.Subtitles, 1)
	assert.Equal(t, "ger", state.Subtitles[0].Language)
	assert.Equal(t, "h264", state.Labels.VideoCodec)
	assert.Equal(t, "1,920", state.Labels.VideoWidth)
	assert.Equal(t, 8.7, state.Details.Rating)
	assert.Equal(t, "tt1127519", state.Details.UniqueID["imdb"])
}

func TestFetchPlaybackStateSurvivesMissingExtras(t *testing.T) {
	// only the three required calls answer; labels, streams and library
	// details are method-not-found
	srv := fakeDevice(map[string]interface{}{
		"Player.GetActivePlayers": []map[string]interface{}{
			{"playerid": 0, "type": "audio"},
		},
		"Player.GetItem": map[string]interface{}{
			"item": map[string]interface{}{"id": 7, "type": "song", "title": "Roundabout"},
		},
		"Player.GetProperties": map[string]interface{}{
			"time":      map[string]int{"seconds": 30},
			"totaltime": map[string]int{"minutes": 8, "seconds": 29},
			"speed":     0,
		},
	})
	defer srv.Close()

	cfg := DeviceConfig{ID: 1, Host: srv.URL}
	client, _ := testClient(cfg)

	state, err := client.FetchPlaybackState(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "Roundabout", state.Item.Title)
	assert.True(t, state.Paused())
	assert.Empty(t, state.Audio)
	assert.Zero(t, state.Details)
	assert.Zero(t, state.Labels)
}

func TestFetchPlaybackStateSongAlbumEnrichment(t *testing.T) {
	srv := fakeDevice(map[string]interface{}{
		"Player.GetActivePlayers": []map[string]interface{}{
			{"playerid": 0, "type": "audio"},
		},
		"Player.GetItem": map[string]interface{}{
			"item": map[string]interface{}{"id": 7, "type": "song", "title": "Money"},
		},
		"Player.GetProperties": map[string]interface{}{
			"time":      map[string]int{"seconds": 0},
			"totaltime": map[string]int{"minutes": 6, "seconds": 22},
			"speed":     1,
		},
		"AudioLibrary.GetSongDetails": map[string]interface{}{
			"songdetails": map[string]interface{}{
				"samplerate": 96000, "channels": 2,
				"track": 6, "disc": 1, "albumid": 12,
			},
		},
		"AudioLibrary.GetAlbumDetails": map[string]interface{}{
			"albumdetails": map[string]interface{}{
				"totaldiscs": 2, "albumlabel": "Harvest", "description": "1973 studio album",
			},
		},
	})
	defer srv.Close()

	cfg := DeviceConfig{ID: 1, Host: srv.URL}
	client, _ := testClient(cfg)

	state, err := client.FetchPlaybackState(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 96000, state.Details.SampleRate)
	assert.Equal(t, 6, state.Details.Track)
	assert.Equal(t, 2, state.Details.TotalDiscs)
	assert.Equal(t, "Harvest", state.Details.AlbumLabel)
	assert.Equal(t, "1973 studio album", state.Details.Description)
}

func TestFlattenArtMap(t *testing.T) {
	tests := []struct {
		name     string
		item     Item
		expected map[string]string
	}{
		{
			name: "plain keys pass through",
			item: Item{Art: map[string]string{"poster": "p.jpg", "fanart": "f.jpg"}},
			expected: map[string]string{"poster": "p.jpg", "fanart": "f.jpg"},
		},
		{
			name: "thumbnail promotes to poster",
			item: Item{Thumbnail: "t.jpg", Art: map[string]string{"fanart": "f.jpg"}},
			expected: map[string]string{"poster": "t.jpg", "fanart": "f.jpg"},
		},
		{
			name: "existing poster beats thumbnail",
			item: Item{Thumbnail: "t.jpg", Art: map[string]string{"poster": "p.jpg"}},
			expected: map[string]string{"poster": "p.jpg"},
		},
		{
			name: "tvshow prefix flattens and season poster survives",
			item: Item{Art: map[string]string{
				"thumb":         "episode-still.jpg",
				"tvshow.poster": "show.jpg",
				"tvshow.fanart": "show-fanart.jpg",
				"season.poster": "season.jpg",
			}},
			expected: map[string]string{
				"thumb":         "episode-still.jpg",
				"poster":        "show.jpg",
				"fanart":        "show-fanart.jpg",
				"season.poster": "season.jpg",
			},
		},
		{
			name: "album prefix wins and thumb maps to thumbnail",
			item: Item{Art: map[string]string{
				"thumbnail":    "old.jpg",
				"album.thumb":  "cover.jpg",
				"artist.fanart": "artist.jpg",
			}},
			expected: map[string]string{
				"thumbnail": "cover.jpg",
				"fanart":    "artist.jpg",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, flattenArtMap(tt.item))
		})
	}
}

func TestCleanImageProtocol(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"image://http%3a%2f%2ffanart.tv%2fimg.jpg/", "http://fanart.tv/img.jpg"},
		{"image://%2fmedia%2fmovies%2fposter.jpg/", "/media/movies/poster.jpg"},
		{"http://example.org/poster.jpg", "http://example.org/poster.jpg"},
		{"/media/poster.jpg", "/media/poster.jpg"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, cleanImageProtocol(tt.raw), "raw %q", tt.raw)
	}
}

func TestResolveAssetURLTokenized(t *testing.T) {
	srv := fakeDevice(map[string]interface{}{
		"Files.PrepareDownload": map[string]interface{}{
			"details": map[string]string{"token": "abc123"},
		},
	})
	defer srv.Close()

	cfg := DeviceConfig{ID: 1, Host: srv.URL + "/"}
	client, _ := testClient(cfg)

	got := client.resolveAssetURL(context.Background(), cfg, "image://%2fmedia%2fmovies%2fposter.jpg/")
	assert.Equal(t, srv.URL+"/vfs/abc123/poster.jpg", got)

	// remote URLs never hit the device
	got = client.resolveAssetURL(context.Background(), cfg, "image://https%3a%2f%2ffanart.tv%2fimg.jpg/")
	assert.Equal(t, "https://fanart.tv/img.jpg", got)
}

func TestFetchAssetListingScansExtraFanart(t *testing.T) {
	srv := fakeDevice(map[string]interface{}{
		"Files.GetDirectory": map[string]interface{}{
			"files": []map[string]interface{}{
				{"file": "/media/movies/Dune/fanart10.jpg", "filetype": "file"},
				{"file": "/media/movies/Dune/fanart2.jpg", "filetype": "file"},
				{"file": "/media/movies/Dune/fanart1.jpg", "filetype": "file"},
				{"file": "/media/movies/Dune/Dune.nfo", "filetype": "file"},
			},
		},
		"Files.PrepareDownload": map[string]interface{}{
			"details": map[string]string{"token": "tok"},
		},
	})
	defer srv.Close()

	cfg := DeviceConfig{ID: 1, Host: srv.URL}
	client, _ := testClient(cfg)

	item := Item{
		Type: "movie",
		File: "/media/movies/Dune/Dune.mkv",
		Art:  map[string]string{"poster": "/media/movies/Dune/poster.jpg"},
	}
	listing, err := client.FetchAssetListing(context.Background(), cfg, item)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/vfs/tok/poster.jpg", listing.Art["poster"])
	// numbered fanart siblings in index order, nfo skipped
	assert.Equal(t, []string{
		srv.URL + "/vfs/tok/fanart1.jpg",
		srv.URL + "/vfs/tok/fanart2.jpg",
		srv.URL + "/vfs/tok/fanart10.jpg",
	}, listing.ExtraFanart)
}

func TestFanartLess(t *testing.T) {
	paths := []string{
		"/m/extrafanart/fanart10.jpg",
		"/m/extrafanart/fanart.jpg",
		"/m/extrafanart/fanart2.jpg",
		"/m/extrafanart/fanart1.jpg",
	}
	sort.Slice(paths, func(i, j int) bool { return fanartLess(paths[i], paths[j]) })
	assert.Equal(t, []string{
		"/m/extrafanart/fanart.jpg",
		"/m/extrafanart/fanart1.jpg",
		"/m/extrafanart/fanart2.jpg",
		"/m/extrafanart/fanart10.jpg",
	}, paths)
}

func TestIsNumberedFanart(t *testing.T) {
	assert.True(t, isNumberedFanart("/m/fanart1.jpg"))
	assert.True(t, isNumberedFanart("/m/FANART12.PNG"))
	assert.False(t, isNumberedFanart("/m/fanart.jpg"), "main fanart comes from the art map")
	assert.False(t, isNumberedFanart("/m/fanart1.nfo"))
	assert.False(t, isNumberedFanart("/m/fanartextra.jpg"))
}
