package network

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ErrOffline marks work that was deferred because the client has no connectivity.
var ErrOffline = errors.New("offline")

// Connectivity is the online predicate consulted before any network request.
type Connectivity interface {
	Online() bool
}

// Normalize maps network names to store keys.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Stores keeps one state container per network. Containers are created lazily
// and are only dropped explicitly.
type Stores[T any] struct {
	mu     sync.Mutex
	create func(name string) T
	stores map[string]T
}

func NewStores[T any](create func(name string) T) *Stores[T] {
	return &Stores[T]{
		create: create,
		stores: make(map[string]T),
	}
}

func (s *Stores[T]) Get(name string) T {
	name = Normalize(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	store, ok := s.stores[name]
	if !ok {
		store = s.create(name)
		s.stores[name] = store
	}
	return store
}

func (s *Stores[T]) Lookup(name string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	store, ok := s.stores[Normalize(name)]
	return store, ok
}

func (s *Stores[T]) Drop(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.stores, Normalize(name))
}

// Names returns known networks sorted by name.
func (s *Stores[T]) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := maps.Keys(s.stores)
	slices.Sort(names)
	return names
}

// Monitor tracks connectivity and the active network and fans changes out to subscribers.
type Monitor struct {
	online atomic.Bool

	mu                sync.Mutex
	current           string
	connectivityHooks []func(online bool)
	switchHooks       []func(from, to string)
}

func NewMonitor(current string, online bool) *Monitor {
	ret := &Monitor{current: Normalize(current)}
	ret.online.Store(online)
	return ret
}

func (m *Monitor) Online() bool {
	return m.online.Load()
}

func (m *Monitor) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *Monitor) OnConnectivityChange(hook func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectivityHooks = append(m.connectivityHooks, hook)
}

func (m *Monitor) OnNetworkSwitch(hook func(from, to string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.switchHooks = append(m.switchHooks, hook)
}

// SetOnline updates connectivity. Hooks only fire on an actual change.
func (m *Monitor) SetOnline(online bool) {
	if m.online.Swap(online) == online {
		return
	}

	m.mu.Lock()
	hooks := slices.Clone(m.connectivityHooks)
	m.mu.Unlock()

	for _, hook := range hooks {
		hook(online)
	}
}

// Switch makes name the active network. Hooks only fire on an actual change.
func (m *Monitor) Switch(name string) {
	name = Normalize(name)

	m.mu.Lock()
	from := m.current
	if from == name {
		m.mu.Unlock()
		return
	}
	m.current = name
	hooks := slices.Clone(m.switchHooks)
	m.mu.Unlock()

	for _, hook := range hooks {
		hook(from, name)
	}
}

// Always is a Connectivity that is always online.
type Always struct{}

func (Always) Online() bool { return true }
