package cache

import (
	"context"
	"sync"

	"github.com/abner20953/bidding-data/internal/ingest"
)

// Memory is a process-local cache. Batch runs reuse it so a file shared by
// several pairs is extracted once.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]ingest.Document
}

func NewMemory() *Memory {
	return &Memory{docs: map[string]ingest.Document{}}
}

func (m *Memory) Get(_ context.Context, key string) (*ingest.Document, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[key]
	if !ok {
		return nil, false, nil
	}
	doc.Pages = append([]ingest.Page(nil), doc.Pages...)
	return &doc, true, nil
}

func (m *Memory) Put(_ context.Context, key string, doc *ingest.Document) error {
	if doc == nil {
		return nil
	}
	cp := *doc
	cp.Pages = append([]ingest.Page(nil), doc.Pages...)
	m.mu.Lock()
	m.docs[key] = cp
	m.mu.Unlock()
	return nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}
