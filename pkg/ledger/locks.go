package ledger

import (
	"sort"
	"sync"

	"github.com/chainsafe/custody-ledger/pkg/currency"
)

// keyedMutex hands out one mutex per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock blocks until key is held and returns its unlock func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// lockCurrencies takes the currency mutexes in sorted order so two updates
// touching the same pools can never wait on each other in a cycle.
func (k *keyedMutex) lockCurrencies(curs []currency.Symbol) func() {
	sorted := dedupe(curs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	unlocks := make([]func(), 0, len(sorted))
	for _, c := range sorted {
		unlocks = append(unlocks, k.Lock(string(c)))
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}

func dedupe(curs []currency.Symbol) []currency.Symbol {
	seen := make(map[currency.Symbol]struct{}, len(curs))
	out := make([]currency.Symbol, 0, len(curs))
	for _, c := range curs {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
