package snapshot

import (
	"sort"
	"strings"

	"gitlab.com/csgowatch/csgo-gsi/model"
)

// Team side tags as reported by the game. Players without a team are spectating.
const (
	SideCT   = "CT"
	SideT    = "T"
	SideSpec = "SPEC"
)

// The class of a weapon, derived from its raw GSI category. Categories outside the known set map to ClassUnknown,
// never silently to one of the real classes.
type WeaponClass string

const (
	ClassSecondary WeaponClass = "secondary"
	ClassPrimary   WeaponClass = "primary"
	ClassKnife     WeaponClass = "knife"
	ClassGrenade   WeaponClass = "grenade"
	ClassUnknown   WeaponClass = "unknown"
)

// The normalized state of the game at one polling tick. All sections except the provider are optional: in the menu or
// during warmup the GSI client omits the data they would be built from, so consumers have to check for nil before use.
// A snapshot is immutable once built, except for the player image fields that the avatar enricher fills in.
type Snapshot struct {
	Provider     *Provider `json:"provider"`
	Map          *Map      `json:"map,omitempty"`
	Team         *Teams    `json:"team,omitempty"`
	Round        *Round    `json:"round,omitempty"`
	ScreenPlayer *Player   `json:"screenPlayer,omitempty"`
	Players      []*Player `json:"players,omitempty"`
	Auth         *Auth     `json:"auth,omitempty"`
}

type Provider struct {
	Name      string `json:"name"`
	AppId     int    `json:"appid"`
	Version   int    `json:"version"`
	SteamId   string `json:"steamid"`
	Timestamp int64  `json:"timestamp"`
}

type Map struct {
	Mode  string `json:"mode"`
	Name  string `json:"name"`
	Phase string `json:"phase"`
	// 1-indexed, unlike the raw payload.
	Round int `json:"round"`
}

type Teams struct {
	CT *Team `json:"ct"`
	T  *Team `json:"t"`
}

type Team struct {
	Score int    `json:"score"`
	Side  string `json:"side"`
	Name  string `json:"name"`
	Flag  string `json:"flag"`
}

// Bomb and WinTeam normalize to the empty string when the payload carries no value, so comparisons never have to deal
// with an absent field.
type Round struct {
	Phase   string `json:"phase"`
	Bomb    string `json:"bomb"`
	WinTeam string `json:"winTeam"`
}

type Auth struct {
	Token string `json:"token"`
}

// A single player on the roster. LiveState and MatchStats are only present when the source game state carries them and
// flatten into the player object when serialized. Image is empty until the avatar enricher has resolved it.
type Player struct {
	SteamId  string `json:"steamid"`
	Name     string `json:"name"`
	Team     string `json:"team"`
	Activity string `json:"activity,omitempty"`
	*LiveState
	Weapons []*Weapon `json:"weapons,omitempty"`
	*MatchStats
	Image string `json:"image,omitempty"`
}

type LiveState struct {
	Health       int  `json:"health"`
	Armor        int  `json:"armor"`
	Helmet       bool `json:"helmet"`
	Flashed      int  `json:"flashed"`
	Burning      int  `json:"burning"`
	Money        int  `json:"money"`
	RoundKills   int  `json:"roundKills"`
	RoundKillsHS int  `json:"roundKillsHS"`
}

type MatchStats struct {
	Kills   int `json:"kills"`
	Assists int `json:"assists"`
	Deaths  int `json:"deaths"`
	Mvps    int `json:"mvps"`
	Score   int `json:"score"`
}

type Weapon struct {
	Name  string      `json:"name"`
	State string      `json:"state"`
	Type  string      `json:"type"`
	Class WeaponClass `json:"class"`
	*Ammo
}

type Ammo struct {
	Clip    int `json:"ammo"`
	ClipMax int `json:"ammoMax"`
	Reserve int `json:"ammoReserve"`
}

// Builds a snapshot from a raw GSI payload. Sections missing from the payload stay nil on the snapshot, no defaults
// are synthesized for them. The payload is trusted to have the GSI shape, no validation happens here.
func FromRaw(raw *model.GameState) *Snapshot {
	snap := new(Snapshot)

	if raw.Provider != nil {
		snap.Provider = &Provider{
			Name:      raw.Provider.Name,
			AppId:     raw.Provider.AppId,
			Version:   raw.Provider.Version,
			SteamId:   raw.Provider.SteamId,
			Timestamp: raw.Provider.Timestamp,
		}
	}

	if raw.Map != nil {
		snap.Map = &Map{
			Mode:  raw.Map.Mode,
			Name:  raw.Map.Name,
			Phase: raw.Map.Phase,
			Round: raw.Map.Round + 1,
		}
		snap.Team = &Teams{
			CT: teamFromRaw(raw.Map.TeamCT, SideCT),
			T:  teamFromRaw(raw.Map.TeamT, SideT),
		}
	}

	if raw.Round != nil {
		snap.Round = &Round{
			Phase:   raw.Round.Phase,
			Bomb:    raw.Round.Bomb,
			WinTeam: raw.Round.WinTeam,
		}
	}

	if raw.Player != nil {
		snap.ScreenPlayer = playerFromRaw(raw.Player, "")
	}

	if raw.AllPlayers != nil {
		snap.Players = make([]*Player, 0, len(raw.AllPlayers))
		for steamId, rawPlayer := range raw.AllPlayers {
			snap.Players = append(snap.Players, playerFromRaw(rawPlayer, steamId))
		}
	}

	if raw.Auth != nil {
		snap.Auth = &Auth{raw.Auth.Token}
	}

	return snap
}

// The team name falls back to the side tag when the team has not set a clan name.
func teamFromRaw(raw *model.TeamState, side string) *Team {
	name := raw.Name
	if name == "" {
		name = side
	}
	return &Team{raw.Score, side, name, raw.Flag}
}

// The fallback steam id is used for players coming from the allplayers section, where the id is the key of the mapping
// rather than a field of the player itself.
func playerFromRaw(raw *model.PlayerState, steamId string) *Player {
	player := &Player{
		SteamId:  raw.SteamId,
		Name:     raw.Name,
		Team:     raw.Team,
		Activity: raw.Activity,
	}
	if player.SteamId == "" {
		player.SteamId = steamId
	}
	if player.Team == "" {
		player.Team = SideSpec
	}

	if raw.State != nil {
		player.LiveState = &LiveState{
			Health:       raw.State.Health,
			Armor:        raw.State.Armor,
			Helmet:       raw.State.Helmet,
			Flashed:      raw.State.Flashed,
			Burning:      raw.State.Burning,
			Money:        raw.State.Money,
			RoundKills:   raw.State.RoundKills,
			RoundKillsHS: raw.State.RoundKillHS,
		}
	}

	if raw.Weapons != nil {
		slots := make([]string, 0, len(raw.Weapons))
		for slot := range raw.Weapons {
			slots = append(slots, slot)
		}
		sort.Strings(slots)

		player.Weapons = make([]*Weapon, 0, len(slots))
		for _, slot := range slots {
			player.Weapons = append(player.Weapons, weaponFromRaw(raw.Weapons[slot]))
		}
	}

	if raw.MatchStats != nil {
		player.MatchStats = &MatchStats{
			Kills:   raw.MatchStats.Kills,
			Assists: raw.MatchStats.Assists,
			Deaths:  raw.MatchStats.Deaths,
			Mvps:    raw.MatchStats.Mvps,
			Score:   raw.MatchStats.Score,
		}
	}

	return player
}

func weaponFromRaw(raw *model.WeaponState) *Weapon {
	weapon := &Weapon{
		Name:  strings.TrimPrefix(raw.Name, "weapon_"),
		State: raw.State,
		Type:  raw.Type,
		Class: classOf(raw.Type),
	}
	if raw.AmmoClipMax != nil {
		weapon.Ammo = &Ammo{raw.AmmoClip, *raw.AmmoClipMax, raw.AmmoReserve}
	}
	return weapon
}

func classOf(category string) WeaponClass {
	switch category {
	case "Pistol":
		return ClassSecondary
	case "Shotgun", "Submachine Gun", "Rifle", "SniperRifle", "Machine Gun":
		return ClassPrimary
	case "Knife":
		return ClassKnife
	case "Grenade":
		return ClassGrenade
	default:
		return ClassUnknown
	}
}

// Sorts the roster in place by team side.
func (s *Snapshot) SortPlayersByTeam() {
	sort.SliceStable(s.Players, func(i, j int) bool {
		return s.Players[i].Team < s.Players[j].Team
	})
}

// Sorts the roster in place by steam id.
func (s *Snapshot) SortPlayersBySteamId() {
	sort.SliceStable(s.Players, func(i, j int) bool {
		return s.Players[i].SteamId < s.Players[j].SteamId
	})
}
