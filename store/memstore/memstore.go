// Package memstore holds the in-memory state-store implementations. They
// stand in for what would be a persistent, queryable store in production;
// durability across restarts is deliberately out of scope.
package memstore

import (
	"context"
	"sync"

	"github.com/coinfold/mixer/core"
)

// kv is the minimal key-value contract the mixing core consumes:
// unconditional upsert returning the previous value, lookup with an explicit
// absent signal, and an existence check. Safe for concurrent use.
type kv[V any] struct {
	mu sync.RWMutex
	m  map[string]V
}

func newKV[V any]() *kv[V] {
	return &kv[V]{m: make(map[string]V)}
}

func (s *kv[V]) put(key string, value V) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.m[key]
	s.m[key] = value
	return prev, ok
}

func (s *kv[V]) get(key string) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok
}

func (s *kv[V]) contains(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.m[key]
	return ok
}

type DepositRegistry struct {
	kv *kv[[]string]
}

func NewDepositRegistry() *DepositRegistry {
	return &DepositRegistry{kv: newKV[[]string]()}
}

func (r *DepositRegistry) Register(ctx context.Context, depositAddress string, payoutAddresses []string) error {
	addrs := make([]string, len(payoutAddresses))
	copy(addrs, payoutAddresses)
	r.kv.put(depositAddress, addrs)
	return nil
}

func (r *DepositRegistry) Lookup(ctx context.Context, depositAddress string) ([]string, bool, error) {
	stored, ok := r.kv.get(depositAddress)
	if !ok {
		return nil, false, nil
	}
	addrs := make([]string, len(stored))
	copy(addrs, stored)
	return addrs, true, nil
}

func (r *DepositRegistry) Contains(ctx context.Context, depositAddress string) (bool, error) {
	return r.kv.contains(depositAddress), nil
}

type RequestStatusStore struct {
	kv *kv[core.Status]
}

func NewRequestStatusStore() *RequestStatusStore {
	return &RequestStatusStore{kv: newKV[core.Status]()}
}

func (s *RequestStatusStore) Put(ctx context.Context, requestId string, status core.Status) error {
	s.kv.put(requestId, status)
	return nil
}

func (s *RequestStatusStore) Get(ctx context.Context, requestId string) (core.Status, bool, error) {
	status, ok := s.kv.get(requestId)
	return status, ok, nil
}

func (s *RequestStatusStore) Contains(ctx context.Context, requestId string) (bool, error) {
	return s.kv.contains(requestId), nil
}

var (
	_ core.DepositRegistry    = (*DepositRegistry)(nil)
	_ core.RequestStatusStore = (*RequestStatusStore)(nil)
)
