// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgpu

import "sync"

// registry maps opaque IDs to HAL objects of one kind. IDs are shared
// across registries through a common counter so a stale ID of one kind
// can never resolve in another.
type registry[T any] struct {
	mu    sync.Mutex
	items map[uint64]T
}

func newRegistry[T any]() *registry[T] {
	return &registry[T]{items: make(map[uint64]T)}
}

func (r *registry[T]) put(id uint64, v T) {
	r.mu.Lock()
	r.items[id] = v
	r.mu.Unlock()
}

func (r *registry[T]) get(id uint64) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.items[id]
	return v, ok
}

func (r *registry[T]) take(id uint64) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.items[id]
	if ok {
		delete(r.items, id)
	}
	return v, ok
}

func (r *registry[T]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
