package snapstore

import (
	"reflect"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"gitlab.com/csgowatch/csgo-gsi/snapshot"
)

const (
	channelBufferSize = 10
)

var (
	operationsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "csgowatch",
		Subsystem: "snapstore",
		Name:      "operations",
		Help:      "Counts the number of operations on the snapshot store per token",
	}, []string{"token", "operation"})
)

// Defines the public API for the snapshot store. The store keeps the latest enriched snapshot per auth token and
// evicts it once it goes stale. Additionally the store provides a channel object, that can be used to get notified,
// if a snapshot updates.
type Store interface {
	// Returns a channel that is filled with updates of the snapshot for the given auth token. Calling this method
	// also means that the caller needs to call ReleaseChannel(authToken), once he is done with using the channel.
	GetChannel(authToken string) chan *snapshot.Snapshot
	// Releases a channel that was previously acquired by GetChannel(authToken).
	ReleaseChannel(authToken string)
	// Returns the snapshot for the given auth token, if one is present.
	Get(authToken string) (snap *snapshot.Snapshot, present bool)
	// Puts a new snapshot for the given auth token, if none is already present. Otherwise the existing snapshot
	// will be replaced with the passed one.
	Put(authToken string, snap *snapshot.Snapshot)
	// Removes the snapshot for the given auth token, if one is present.
	Remove(authToken string)
	// Closes the store and releases all resources held by it.
	Close()
}

type store struct {
	channels      map[string]*channelContainer
	internalCache *cache.Cache
	locker        sync.Locker
}

type channelContainer struct {
	channel chan *snapshot.Snapshot
	clients int
}

// Creates a new snapshot store, with a given TTL. The TTL is the duration for snapshots, before they are considered
// stale.
func New(ttl time.Duration) Store {
	return newStore(ttl)
}

func newStore(ttl time.Duration) *store {
	internalCache := cache.New(ttl, ttl*10)
	channels := make(map[string]*channelContainer)
	store := &store{channels, internalCache, &sync.Mutex{}}

	internalCache.OnEvicted(func(authToken string, item interface{}) {
		store.pushUpdate(authToken, nil)
	})

	return store
}

func (s *store) GetChannel(authToken string) chan *snapshot.Snapshot {
	operationsCounter.WithLabelValues(authToken, "channel_get").Inc()

	s.locker.Lock()

	if _, present := s.channels[authToken]; !present {
		snap, _ := s.Get(authToken)

		s.channels[authToken] = &channelContainer{make(chan *snapshot.Snapshot, channelBufferSize), 0}
		s.channels[authToken].channel <- snap
	}

	container := s.channels[authToken]
	container.clients++

	s.locker.Unlock()

	return container.channel
}

func (s *store) ReleaseChannel(authToken string) {
	operationsCounter.WithLabelValues(authToken, "channel_release").Inc()

	if _, present := s.channels[authToken]; present {
		s.locker.Lock()

		if container, present := s.channels[authToken]; present {
			container.clients--
			if container.clients < 1 {
				delete(s.channels, authToken)
				close(container.channel)
			}
		}

		s.locker.Unlock()
	}
}

func (s *store) Get(authToken string) (snap *snapshot.Snapshot, present bool) {
	operationsCounter.WithLabelValues(authToken, "get").Inc()

	if cached, isCached := s.internalCache.Get(authToken); isCached {
		snap = cached.(*snapshot.Snapshot)
		present = isCached
	}
	return
}

func (s *store) Put(authToken string, snap *snapshot.Snapshot) {
	operationsCounter.WithLabelValues(authToken, "put").Inc()

	previousSnap, _ := s.internalCache.Get(authToken)
	s.internalCache.Set(authToken, snap, cache.DefaultExpiration)

	if !reflect.DeepEqual(previousSnap, snap) {
		s.pushUpdate(authToken, snap)
	}
}

func (s *store) Remove(authToken string) {
	operationsCounter.WithLabelValues(authToken, "remove").Inc()

	s.internalCache.Delete(authToken)
}

func (s *store) Close() {
	for authToken, channelContainer := range s.channels {
		delete(s.channels, authToken)
		close(channelContainer.channel)
	}
}

func (s *store) pushUpdate(authToken string, snap *snapshot.Snapshot) {
	if _, present := s.channels[authToken]; present {
		s.locker.Lock()

		if channel, present := s.channels[authToken]; present {
			channel.channel <- snap
		}

		s.locker.Unlock()
	}
}
