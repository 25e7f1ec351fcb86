package snapshot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"gitlab.com/csgowatch/csgo-gsi/model"
)

const fullPayload = `{
	"provider": {"name": "Counter-Strike: Global Offensive", "appid": 730, "version": 13694, "steamid": "76561198000000001", "timestamp": 1556309880},
	"map": {
		"mode": "competitive", "name": "de_dust2", "phase": "live", "round": 11,
		"team_ct": {"score": 7, "name": "Alpha", "flag": "SE"},
		"team_t": {"score": 4, "name": "", "flag": ""}
	},
	"round": {"phase": "live", "bomb": "planted", "win_team": ""},
	"player": {
		"steamid": "76561198000000001", "name": "observer", "team": "CT", "activity": "playing",
		"state": {"health": 100, "armor": 100, "helmet": true, "flashed": 0, "burning": 0, "money": 3250, "round_kills": 2, "round_killhs": 1},
		"match_stats": {"kills": 14, "assists": 3, "deaths": 9, "mvps": 2, "score": 33}
	},
	"allplayers": {
		"76561198000000001": {
			"name": "observer", "team": "CT",
			"state": {"health": 100, "armor": 100, "helmet": true, "flashed": 0, "burning": 0, "money": 3250, "round_kills": 2, "round_killhs": 1},
			"weapons": {
				"weapon_0": {"name": "weapon_knife", "state": "holstered", "type": "Knife"},
				"weapon_1": {"name": "weapon_ak47", "state": "active", "type": "Rifle", "ammo_clip": 21, "ammo_clip_max": 30, "ammo_reserve": 90}
			}
		},
		"76561198000000002": {"name": "spectator"}
	},
	"auth": {"token": "secret"}
}`

func parsePayload(t *testing.T, payload string) *model.GameState {
	rawState := new(model.GameState)
	assert.NoError(t, json.Unmarshal([]byte(payload), rawState))
	return rawState
}

func TestFromRawFullPayload(t *testing.T) {
	snap := FromRaw(parsePayload(t, fullPayload))

	assert.Equal(t, "76561198000000001", snap.Provider.SteamId)
	assert.Equal(t, 730, snap.Provider.AppId)

	assert.Equal(t, "de_dust2", snap.Map.Name)
	assert.Equal(t, 12, snap.Map.Round, "round counter should be 1-indexed")

	assert.Equal(t, "Alpha", snap.Team.CT.Name)
	assert.Equal(t, SideCT, snap.Team.CT.Side)
	assert.Equal(t, 7, snap.Team.CT.Score)
	assert.Equal(t, "T", snap.Team.T.Name, "empty team name should fall back to the side tag")

	assert.Equal(t, "live", snap.Round.Phase)
	assert.Equal(t, "planted", snap.Round.Bomb)

	assert.Equal(t, "secret", snap.Auth.Token)
	assert.Equal(t, "76561198000000001", snap.ScreenPlayer.SteamId)
	assert.Equal(t, 2, snap.ScreenPlayer.RoundKills)
	assert.Equal(t, 14, snap.ScreenPlayer.Kills)
}

func TestFromRawAllPlayers(t *testing.T) {
	snap := FromRaw(parsePayload(t, fullPayload))

	assert.Len(t, snap.Players, 2)
	snap.SortPlayersBySteamId()

	observer := snap.Players[0]
	assert.Equal(t, "76561198000000001", observer.SteamId, "steam id should be taken from the allplayers key")
	assert.Equal(t, SideCT, observer.Team)
	assert.True(t, observer.IsAlive())

	spectator := snap.Players[1]
	assert.Equal(t, SideSpec, spectator.Team, "players without a team should default to SPEC")
	assert.Nil(t, spectator.LiveState)
	assert.Nil(t, spectator.MatchStats)
	assert.False(t, spectator.IsAlive())
}

func TestFromRawWeapons(t *testing.T) {
	snap := FromRaw(parsePayload(t, fullPayload))
	snap.SortPlayersBySteamId()

	weapons := snap.Players[0].Weapons
	assert.Len(t, weapons, 2)

	knife := weapons[0]
	assert.Equal(t, "knife", knife.Name, "raw weapon prefix should be stripped")
	assert.Equal(t, ClassKnife, knife.Class)
	assert.Nil(t, knife.Ammo)

	rifle := weapons[1]
	assert.Equal(t, "ak47", rifle.Name)
	assert.Equal(t, ClassPrimary, rifle.Class)
	assert.Equal(t, &Ammo{21, 30, 90}, rifle.Ammo)
}

func TestFromRawMenuPayload(t *testing.T) {
	snap := FromRaw(parsePayload(t, `{"provider": {"name": "csgo", "appid": 730, "steamid": "1", "timestamp": 1}}`))

	assert.NotNil(t, snap.Provider)
	assert.Nil(t, snap.Map)
	assert.Nil(t, snap.Team)
	assert.Nil(t, snap.Round)
	assert.Nil(t, snap.ScreenPlayer)
	assert.Nil(t, snap.Players)
	assert.Nil(t, snap.Auth)
}

func TestWeaponClasses(t *testing.T) {
	assert.Equal(t, ClassSecondary, classOf("Pistol"))
	assert.Equal(t, ClassPrimary, classOf("Shotgun"))
	assert.Equal(t, ClassPrimary, classOf("Submachine Gun"))
	assert.Equal(t, ClassPrimary, classOf("Rifle"))
	assert.Equal(t, ClassPrimary, classOf("SniperRifle"))
	assert.Equal(t, ClassPrimary, classOf("Machine Gun"))
	assert.Equal(t, ClassKnife, classOf("Knife"))
	assert.Equal(t, ClassGrenade, classOf("Grenade"))
	assert.Equal(t, ClassUnknown, classOf("C4"))
	assert.Equal(t, ClassUnknown, classOf(""))
}

func TestSnapshotSerializesCamelCase(t *testing.T) {
	snap := FromRaw(parsePayload(t, fullPayload))
	snap.SortPlayersBySteamId()

	serialized, jsonError := json.Marshal(snap)
	assert.NoError(t, jsonError)

	assert.Contains(t, string(serialized), `"screenPlayer"`)
	assert.Contains(t, string(serialized), `"roundKills"`)
	assert.Contains(t, string(serialized), `"ammoMax"`)
	assert.NotContains(t, string(serialized), `"image"`, "image should be absent before enrichment")
}
