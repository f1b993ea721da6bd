package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/model"
)

type memoryEntry struct {
	id         string
	key        string
	payload    []byte
	recordedAt time.Time
}

// MemoryStore 内存存储，用于测试与试运行；与 SQLStore 一样经过编码往返
type MemoryStore struct {
	mu      sync.Mutex
	latest  map[string][]byte
	history []memoryEntry
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{latest: make(map[string][]byte)}
}

func (m *MemoryStore) ReadLatest(_ context.Context, key string) (*model.Observation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.latest[key]
	if !ok {
		return nil, nil
	}
	return model.Decode(payload)
}

func (m *MemoryStore) WriteLatest(_ context.Context, key string, obs model.Observation) error {
	payload, err := model.Encode(obs)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.latest[key] = payload
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) AppendHistory(_ context.Context, key string, obs model.Observation) error {
	payload, err := model.Encode(obs)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.history = append(m.history, memoryEntry{id: uuid.NewString(), key: key, payload: payload, recordedAt: time.Now().UTC()})
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) ListHistory(_ context.Context, key string, limit int) ([]model.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var entries []model.HistoryEntry
	for i := len(m.history) - 1; i >= 0; i-- {
		h := m.history[i]
		if h.key != key {
			continue
		}
		obs, err := model.Decode(h.payload)
		if err != nil {
			return nil, err
		}
		entries = append(entries, model.HistoryEntry{ID: h.id, SourceKey: h.key, Observation: *obs, RecordedAt: h.recordedAt})
		if limit > 0 && len(entries) == limit {
			break
		}
	}
	return entries, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
