package chain

import (
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
)

var (
	selectorMu    sync.RWMutex
	selectorCache = make(map[string]Felt)
)

// Selector returns the entry point selector for name: keccak256 of the
// name truncated to 250 bits.
func Selector(name string) Felt {
	selectorMu.RLock()
	sel, ok := selectorCache[name]
	selectorMu.RUnlock()
	if ok {
		return sel
	}

	d := crypto.Keccak256([]byte(name))
	d[0] &= 3
	sel.SetBytes(d)

	selectorMu.Lock()
	selectorCache[name] = sel
	selectorMu.Unlock()
	return sel
}
