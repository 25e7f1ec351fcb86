package avatar

import (
	"log"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"gitlab.com/csgowatch/csgo-gsi/snapshot"
)

var (
	lookupCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "csgowatch",
		Subsystem: "avatar",
		Name:      "lookups",
		Help:      "Counts avatar lookups against the Steam API per mode and outcome",
	}, []string{"mode", "outcome"})
	copyForwardCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "csgowatch",
		Subsystem: "avatar",
		Name:      "copy_forwards",
		Help:      "Counts enrichments served from the previous snapshot without a lookup",
	}, []string{"mode"})
)

// Defines the public API for the avatar enricher. The enricher attaches avatar image URLs to the players of a
// snapshot while keeping Steam API traffic minimal: when the roster is unchanged against the previous tick and every
// player already carries an image, the images are copied forward without any network call. Otherwise a single batched
// lookup covers the whole roster.
//
// Both methods are best effort. A failed lookup is logged and the new snapshot is returned without fresh images, the
// caller never sees an error. An existing image is never overwritten because of a failure.
//
// Calls are serialized internally, so at most one lookup is in flight at any time. Overlapping calls queue up rather
// than race on the snapshots they share.
type Enricher interface {
	// Enriches the full roster of the new snapshot, using the previous tick's snapshot as image cache. A nil old
	// snapshot forces a lookup.
	EnrichAllPlayers(newSnap, oldSnap *snapshot.Snapshot) *snapshot.Snapshot
	// Enriches just the screen player of the new snapshot, with the same policy as EnrichAllPlayers.
	EnrichScreenPlayer(newSnap, oldSnap *snapshot.Snapshot) *snapshot.Snapshot
}

type enricher struct {
	client Client
	logger *log.Logger
	lock   sync.Mutex
}

// Creates a new enricher on top of the given Steam API client.
func New(client Client) Enricher {
	return &enricher{
		client: client,
		logger: log.New(os.Stdout, "Avatar-Enricher > ", log.LstdFlags),
	}
}

func (e *enricher) EnrichAllPlayers(newSnap, oldSnap *snapshot.Snapshot) *snapshot.Snapshot {
	e.lock.Lock()
	defer e.lock.Unlock()

	if oldSnap != nil && !rosterChanged(newSnap, oldSnap) && allHaveImages(oldSnap.Players) {
		copyImages(newSnap.Players, oldSnap.Players)
		copyForwardCounter.WithLabelValues("batch").Inc()
		return newSnap
	}

	steamIds := make([]string, 0, len(newSnap.Players))
	for _, player := range newSnap.Players {
		steamIds = append(steamIds, player.SteamId)
	}
	if len(steamIds) == 0 {
		return newSnap
	}

	e.lookup(newSnap.Players, steamIds, "batch")
	return newSnap
}

func (e *enricher) EnrichScreenPlayer(newSnap, oldSnap *snapshot.Snapshot) *snapshot.Snapshot {
	e.lock.Lock()
	defer e.lock.Unlock()

	player := newSnap.ScreenPlayer
	if player == nil {
		return newSnap
	}

	if oldSnap != nil && oldSnap.ScreenPlayer != nil &&
		oldSnap.ScreenPlayer.SteamId == player.SteamId && oldSnap.ScreenPlayer.Image != "" {
		player.Image = oldSnap.ScreenPlayer.Image
		copyForwardCounter.WithLabelValues("single").Inc()
		return newSnap
	}

	e.lookup([]*snapshot.Player{player}, []string{player.SteamId}, "single")
	return newSnap
}

// Issues one batched Steam API call and merges the returned avatars into the given players by steam id. Players
// missing from the response keep whatever image they had. Failures are logged and absorbed.
func (e *enricher) lookup(players []*snapshot.Player, steamIds []string, mode string) {
	summaries, lookupError := e.client.PlayerSummaries(steamIds)
	if lookupError != nil {
		lookupCounter.WithLabelValues(mode, "error").Inc()
		e.logger.Printf("Could not look up avatars for %d players: %s\n", len(steamIds), lookupError)
		return
	}
	lookupCounter.WithLabelValues(mode, "ok").Inc()

	byId := make(map[string]*snapshot.Player, len(players))
	for _, player := range players {
		byId[player.SteamId] = player
	}
	for _, summary := range summaries {
		if player, present := byId[summary.SteamId]; present {
			player.Image = summary.AvatarMedium
		}
	}
}

// Roster stability is judged by identity, not position: the same set of steam ids counts as unchanged even when the
// roster order differs, since the source mapping's iteration order is not stable across ticks.
func rosterChanged(newSnap, oldSnap *snapshot.Snapshot) bool {
	if len(newSnap.Players) != len(oldSnap.Players) {
		return true
	}

	known := make(map[string]bool, len(oldSnap.Players))
	for _, player := range oldSnap.Players {
		known[player.SteamId] = true
	}
	for _, player := range newSnap.Players {
		if !known[player.SteamId] {
			return true
		}
	}
	return false
}

func allHaveImages(players []*snapshot.Player) bool {
	for _, player := range players {
		if player.Image == "" {
			return false
		}
	}
	return true
}

func copyImages(players, cached []*snapshot.Player) {
	images := make(map[string]string, len(cached))
	for _, player := range cached {
		images[player.SteamId] = player.Image
	}
	for _, player := range players {
		if image, present := images[player.SteamId]; present {
			player.Image = image
		}
	}
}
