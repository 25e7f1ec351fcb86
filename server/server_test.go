package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"gitlab.com/csgowatch/csgo-gsi/avatar"
	"gitlab.com/csgowatch/csgo-gsi/snapshot"
)

type stubClient struct {
	calls int
}

func (c *stubClient) PlayerSummaries(steamIds []string) ([]avatar.PlayerSummary, error) {
	c.calls++
	summaries := make([]avatar.PlayerSummary, 0, len(steamIds))
	for _, steamId := range steamIds {
		summaries = append(summaries, avatar.PlayerSummary{
			SteamId:      steamId,
			AvatarMedium: "https://avatars.example/" + steamId + ".jpg",
		})
	}
	return summaries, nil
}

const updatePayload = `{
	"provider": {"name": "csgo", "appid": 730, "version": 1, "steamid": "1", "timestamp": 1},
	"map": {"mode": "competitive", "name": "de_dust2", "phase": "live", "round": 0, "team_ct": {"score": 0}, "team_t": {"score": 0}},
	"round": {"phase": "live"},
	"allplayers": {
		"10": {"name": "a", "team": "CT", "state": {"health": 100}},
		"20": {"name": "b", "team": "T", "state": {"health": 100}}
	},
	"auth": {"token": "secret"}
}`

func newTestServer(client avatar.Client) *server {
	filter := &ToggleTokenFilter{Value: true}
	return New("127.0.0.1", 0, 15, filter, avatar.New(client)).(*server)
}

func TestUpdateEnrichesAndStores(t *testing.T) {
	client := new(stubClient)
	testServer := newTestServer(client)
	defer testServer.store.Close()

	postRecorder := httptest.NewRecorder()
	testServer.handlePost(postRecorder, httptest.NewRequest("POST", "/gsi/update", strings.NewReader(updatePayload)))
	assert.Equal(t, 200, postRecorder.Code)
	assert.Equal(t, 1, client.calls)

	getRequest := httptest.NewRequest("GET", "/gsi/get", nil)
	getRequest.Header.Set("Authorization", "GSI secret")
	getRecorder := httptest.NewRecorder()
	testServer.handleGet(getRecorder, getRequest)
	assert.Equal(t, 200, getRecorder.Code)

	snap := new(snapshot.Snapshot)
	assert.NoError(t, json.Unmarshal(getRecorder.Body.Bytes(), snap))

	assert.Nil(t, snap.Auth, "the auth token must be stripped before storing")
	assert.Len(t, snap.Players, 2)
	for _, player := range snap.Players {
		assert.Equal(t, "https://avatars.example/"+player.SteamId+".jpg", player.Image)
	}
}

func TestUpdateReusesCachedImages(t *testing.T) {
	client := new(stubClient)
	testServer := newTestServer(client)
	defer testServer.store.Close()

	for i := 0; i < 3; i++ {
		recorder := httptest.NewRecorder()
		testServer.handlePost(recorder, httptest.NewRequest("POST", "/gsi/update", strings.NewReader(updatePayload)))
		assert.Equal(t, 200, recorder.Code)
	}

	assert.Equal(t, 1, client.calls, "repeated updates with a stable roster must reuse cached images")
}

func TestUpdateWithoutAuth(t *testing.T) {
	testServer := newTestServer(new(stubClient))
	defer testServer.store.Close()

	recorder := httptest.NewRecorder()
	testServer.handlePost(recorder, httptest.NewRequest("POST", "/gsi/update", strings.NewReader(`{"provider": {}}`)))
	assert.Equal(t, 400, recorder.Code)
}

func TestUpdateWithRejectedToken(t *testing.T) {
	client := new(stubClient)
	filter := NewStaticTokenFilter([]string{"other"})
	testServer := New("127.0.0.1", 0, 15, filter, avatar.New(client)).(*server)
	defer testServer.store.Close()

	recorder := httptest.NewRecorder()
	testServer.handlePost(recorder, httptest.NewRequest("POST", "/gsi/update", strings.NewReader(updatePayload)))
	assert.Equal(t, 401, recorder.Code)
	assert.Equal(t, 0, client.calls)
}

func TestUpdateWithoutProviderRemovesSnapshot(t *testing.T) {
	testServer := newTestServer(new(stubClient))
	defer testServer.store.Close()

	postRecorder := httptest.NewRecorder()
	testServer.handlePost(postRecorder, httptest.NewRequest("POST", "/gsi/update", strings.NewReader(updatePayload)))
	assert.Equal(t, 200, postRecorder.Code)

	removeRecorder := httptest.NewRecorder()
	testServer.handlePost(removeRecorder, httptest.NewRequest("POST", "/gsi/update", strings.NewReader(`{"auth": {"token": "secret"}}`)))
	assert.Equal(t, 200, removeRecorder.Code)

	getRequest := httptest.NewRequest("GET", "/gsi/get", nil)
	getRequest.Header.Set("Authorization", "GSI secret")
	getRecorder := httptest.NewRecorder()
	testServer.handleGet(getRecorder, getRequest)
	assert.Equal(t, 404, getRecorder.Code)
}

func TestGetWithoutToken(t *testing.T) {
	testServer := newTestServer(new(stubClient))
	defer testServer.store.Close()

	recorder := httptest.NewRecorder()
	testServer.handleGet(recorder, httptest.NewRequest("GET", "/gsi/get", nil))
	assert.Equal(t, 401, recorder.Code)
}
