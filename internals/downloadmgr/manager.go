// Package downloadmgr queues downloads in named groups and drains
// them through a bounded set of workers. The account core uses it to
// fetch skin textures into the local cache.
package downloadmgr

import (
	"context"
	"sync"
)

// Downloader allows the manager to download one item
type Downloader interface {
	Download(ctx context.Context) error
}

// Manager hands out download groups
type Manager struct {
	mu     sync.Mutex
	groups map[string]*Group
}

// New creates a new download manager
func New() *Manager {
	return &Manager{groups: map[string]*Group{}}
}

// Enqueue adds items to the named group, creating it on first use,
// and returns the group as progress handle
func (m *Manager) Enqueue(groupID string, items ...Downloader) *Group {
	m.mu.Lock()
	defer m.mu.Unlock()

	group, ok := m.groups[groupID]
	if !ok {
		group = &Group{id: groupID}
		m.groups[groupID] = group
	}
	group.mu.Lock()
	group.queue = append(group.queue, items...)
	group.mu.Unlock()
	return group
}

// Group is a progress handle for one batch of downloads
type Group struct {
	id    string
	mu    sync.Mutex
	queue []Downloader
	// OnProgress gets called with a 0-100 percentage
	OnProgress func(p int)
}

// Len returns the number of queued items
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.queue)
}

// Start downloads all queued items with up to 16 workers. The first
// error aborts; the queue is consumed either way.
func (g *Group) Start(ctx context.Context) error {
	g.mu.Lock()
	queue := g.queue
	g.queue = nil
	g.mu.Unlock()

	if len(queue) == 0 {
		return nil
	}

	sem := make(chan int, 16)
	errc := make(chan error)

	go func() {
		for _, item := range queue {
			sem <- 1
			go func(item Downloader) {
				errc <- item.Download(ctx)
				<-sem
			}(item)
		}
	}()

	var firstErr error
	for i := 0; i < len(queue); i++ {
		if err := <-errc; err != nil && firstErr == nil {
			firstErr = err
		}
		if g.OnProgress != nil {
			g.OnProgress(int(float32(i+1) / float32(len(queue)) * 100))
		}
	}
	return firstErr
}
