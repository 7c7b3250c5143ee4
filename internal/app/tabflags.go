package app

import "sync"

// Tab names the client surfaces that need refreshing after a completion.
type Tab string

const (
	TabRank   Tab = "rank"
	TabReport Tab = "report"
)

// TabFlags tracks which tabs are stale per player. Completing a quiz marks
// the rank and report tabs; each tab consumes its own flag once, so a tab
// refreshes at most once per completion.
type TabFlags struct {
	mu    sync.Mutex
	stale map[string]map[Tab]bool
}

func NewTabFlags() *TabFlags {
	return &TabFlags{stale: make(map[string]map[Tab]bool)}
}

// MarkStale flags every completion-sensitive tab for the player.
func (f *TabFlags) MarkStale(openID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tabs, ok := f.stale[openID]
	if !ok {
		tabs = make(map[Tab]bool)
		f.stale[openID] = tabs
	}
	tabs[TabRank] = true
	tabs[TabReport] = true
}

// Consume reports whether the tab was stale and clears only that tab's flag.
func (f *TabFlags) Consume(openID string, tab Tab) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	tabs, ok := f.stale[openID]
	if !ok || !tabs[tab] {
		return false
	}
	delete(tabs, tab)
	if len(tabs) == 0 {
		delete(f.stale, openID)
	}
	return true
}
