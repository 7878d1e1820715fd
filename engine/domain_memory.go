package engine

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// domainMemorySize bounds how many hosts are remembered.
const domainMemorySize = 4096

// DomainMemory remembers which engine last won for each host, so the next
// page of the same listing skips the race. Entries expire after the TTL.
// A nil *DomainMemory remembers nothing.
type DomainMemory struct {
	entries *expirable.LRU[string, string]
}

// NewDomainMemory creates a DomainMemory with the given TTL.
func NewDomainMemory(ttl time.Duration) *DomainMemory {
	return &DomainMemory{
		entries: expirable.NewLRU[string, string](domainMemorySize, nil, ttl),
	}
}

// Get returns the remembered engine name for a domain, or "".
func (dm *DomainMemory) Get(domain string) string {
	if dm == nil {
		return ""
	}
	name, _ := dm.entries.Get(domain)
	return name
}

// Set records which engine succeeded for a domain.
func (dm *DomainMemory) Set(domain, engineName string) {
	if dm == nil {
		return
	}
	dm.entries.Add(domain, engineName)
}

// Delete forgets a domain after its remembered engine failed.
func (dm *DomainMemory) Delete(domain string) {
	if dm == nil {
		return
	}
	dm.entries.Remove(domain)
}

// Len returns the number of remembered domains.
func (dm *DomainMemory) Len() int {
	if dm == nil {
		return 0
	}
	return dm.entries.Len()
}
