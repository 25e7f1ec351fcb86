package model

// Raw game state payload as sent by the CSGO GSI web-hook. All top level sections are optional: when the game sits in
// the menu or in warmup, the client omits the sections it has no data for. Field names follow the GSI wire format.
type GameState struct {
	Provider   *ProviderState          `json:"provider"`
	Map        *MapState               `json:"map"`
	Round      *RoundState             `json:"round"`
	Player     *PlayerState            `json:"player"`
	AllPlayers map[string]*PlayerState `json:"allplayers"`
	Auth       *AuthState              `json:"auth"`
}

type AuthState struct {
	Token string `json:"token"`
}

type ProviderState struct {
	Name      string `json:"name"`
	AppId     int    `json:"appid"`
	Version   int    `json:"version"`
	SteamId   string `json:"steamid"`
	Timestamp int64  `json:"timestamp"`
}

type MapState struct {
	Mode   string     `json:"mode"`
	Name   string     `json:"name"`
	Phase  string     `json:"phase"`
	Round  int        `json:"round"`
	TeamCT *TeamState `json:"team_ct"`
	TeamT  *TeamState `json:"team_t"`
}

type RoundState struct {
	Phase   string `json:"phase"`
	Bomb    string `json:"bomb"`
	WinTeam string `json:"win_team"`
}

type TeamState struct {
	Score int    `json:"score"`
	Name  string `json:"name"`
	Flag  string `json:"flag"`
}

// The steamid field is only present on the screen player section. Within the allplayers section the steam id is the
// key the player is stored under instead.
type PlayerState struct {
	SteamId    string                  `json:"steamid"`
	Name       string                  `json:"name"`
	Team       string                  `json:"team"`
	Activity   string                  `json:"activity"`
	State      *LiveState              `json:"state"`
	Weapons    map[string]*WeaponState `json:"weapons"`
	MatchStats *MatchStats             `json:"match_stats"`
}

type LiveState struct {
	Health      int  `json:"health"`
	Armor       int  `json:"armor"`
	Helmet      bool `json:"helmet"`
	Flashed     int  `json:"flashed"`
	Burning     int  `json:"burning"`
	Money       int  `json:"money"`
	RoundKills  int  `json:"round_kills"`
	RoundKillHS int  `json:"round_killhs"`
}

type WeaponState struct {
	Name        string `json:"name"`
	State       string `json:"state"`
	Type        string `json:"type"`
	AmmoClip    int    `json:"ammo_clip"`
	AmmoClipMax *int   `json:"ammo_clip_max"`
	AmmoReserve int    `json:"ammo_reserve"`
}

type MatchStats struct {
	Kills   int `json:"kills"`
	Assists int `json:"assists"`
	Deaths  int `json:"deaths"`
	Mvps    int `json:"mvps"`
	Score   int `json:"score"`
}
