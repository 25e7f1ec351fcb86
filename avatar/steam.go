package avatar

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// The public Steam Web API endpoint resolving steam ids to player summaries.
const DefaultApiUrl = "https://api.steampowered.com/ISteamUser/GetPlayerSummaries/v0002/"

// Defines the API for looking up player summaries on the Steam Web API. The lookup accepts a batch of steam ids and
// resolves them with a single call. The order of the returned summaries is not guaranteed to match the input order.
type Client interface {
	// Resolves the given steam ids to player summaries. Any non-OK response status, transport error or malformed
	// response body is returned as an error.
	PlayerSummaries(steamIds []string) ([]PlayerSummary, error)
}

// A single player record of the GetPlayerSummaries response. Only the fields this service consumes are mapped.
type PlayerSummary struct {
	SteamId      string `json:"steamid"`
	PersonaName  string `json:"personaname"`
	Avatar       string `json:"avatar"`
	AvatarMedium string `json:"avatarmedium"`
	AvatarFull   string `json:"avatarfull"`
}

type summaryResponse struct {
	Response struct {
		Players []PlayerSummary `json:"players"`
	} `json:"response"`
}

type client struct {
	apiKey     string
	apiUrl     string
	httpClient *http.Client
}

// Creates a new client for the public Steam Web API, authenticated with the given API key.
func NewClient(apiKey string) Client {
	return NewClientWithUrl(apiKey, DefaultApiUrl)
}

// Creates a new client against a custom endpoint, mainly useful for testing.
func NewClientWithUrl(apiKey, apiUrl string) Client {
	return &client{apiKey, apiUrl, new(http.Client)}
}

func (c *client) PlayerSummaries(steamIds []string) ([]PlayerSummary, error) {
	query := url.Values{}
	query.Set("key", c.apiKey)
	query.Set("steamids", strings.Join(steamIds, ","))
	query.Set("format", "json")

	response, requestError := c.httpClient.Get(c.apiUrl + "?" + query.Encode())
	if requestError != nil {
		return nil, requestError
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("steam api returned status %d", response.StatusCode)
	}

	body := new(summaryResponse)
	if jsonError := json.NewDecoder(response.Body).Decode(body); jsonError != nil {
		return nil, fmt.Errorf("could not de-serialize steam api response: %w", jsonError)
	}

	return body.Response.Players, nil
}
