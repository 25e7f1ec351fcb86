package snapshot

import "fmt"

// The helpers below derive simple facts from one or two snapshots. They are pure and never mutate a snapshot. Helpers
// touching the map, round or roster assume the caller has checked that the section is present.

// Reports whether the round phase differs between this snapshot and the previous one.
func (s *Snapshot) RoundPhaseChanged(old *Snapshot) bool {
	return s.Round.Phase != old.Round.Phase
}

// Reports whether the bomb status differs between this snapshot and the previous one. The status is an open set of
// strings ("planted", ...) with the empty string standing for no bomb event.
func (s *Snapshot) BombStatusChanged(old *Snapshot) bool {
	return s.Round.Bomb != old.Round.Bomb
}

// Reports whether the rosters of the two snapshots differ in positional presence, meaning one of them has an index the
// other lacks. A player swapped out for another at the same index does not count as a change here.
func (s *Snapshot) PlayersChanged(old *Snapshot) bool {
	return len(s.Players) != len(old.Players)
}

// The name of the team that won the round. Any win team value other than "CT" counts as a T win.
func (s *Snapshot) WinnerName() string {
	if s.Round.WinTeam == SideCT {
		return s.Team.CT.Name
	}
	return s.Team.T.Name
}

// The side of the team that won the round. Any win team value other than "CT" counts as a T win.
func (s *Snapshot) WinnerSide() string {
	if s.Round.WinTeam == SideCT {
		return s.Team.CT.Side
	}
	return s.Team.T.Side
}

// Reports whether the game is in its warmup phase.
func (s *Snapshot) IsWarmup() bool {
	return s.Map.Phase == "warmup"
}

// Reports whether the screen player is the player whose client reported this snapshot.
func (s *Snapshot) IsScreenPlayerProvider() bool {
	return s.Provider.SteamId == s.ScreenPlayer.SteamId
}

// Reports whether the screen player is actually in a game, rather than browsing menus or spectating.
func (s *Snapshot) IsScreenPlayerPlaying() bool {
	return s.ScreenPlayer.Activity == "playing"
}

// The players on the given side, in roster order.
func (s *Snapshot) PlayersBySide(side string) []*Player {
	players := make([]*Player, 0, len(s.Players))
	for _, player := range s.Players {
		if player.Team == side {
			players = append(players, player)
		}
	}
	return players
}

// The number of players on the given side that are still alive.
func (s *Snapshot) TeamAlive(side string) int {
	alive := 0
	for _, player := range s.Players {
		if player.Team == side && player.IsAlive() {
			alive++
		}
	}
	return alive
}

// Debug helper that words the current score as a comparison between the two teams.
func (s *Snapshot) WinningTeamSummary() string {
	ct, t := s.Team.CT, s.Team.T
	if t.Score > ct.Score {
		return fmt.Sprintf("%s is winning against %s %d-%d", t.Name, ct.Name, t.Score, ct.Score)
	}
	if t.Score == ct.Score {
		return fmt.Sprintf("Game is tied between %s and %s %d-%d", t.Name, ct.Name, t.Score, ct.Score)
	}
	return fmt.Sprintf("%s is winning against %s %d-%d", ct.Name, t.Name, ct.Score, t.Score)
}

// Reports whether the player is alive. Players without live state data count as dead.
func (p *Player) IsAlive() bool {
	return p.LiveState != nil && p.Health > 0
}
