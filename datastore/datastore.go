// Package datastore is a small JSON-file key/value store with periodic
// autosave and atomic writes. It backs per-guild bot settings; it is not a
// cache and has no expiry semantics.
package datastore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const defaultAutoSaveInterval = 30 * time.Second

// DataStore holds the in-memory map and flushes it to disk on a timer and
// on Close.
type DataStore struct {
	mu    sync.RWMutex
	data  map[string]json.RawMessage
	file  string
	dirty bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New opens (or creates) the store at filePath and starts the autosave
// routine.
func New(filePath string) (*DataStore, error) {
	ctx, cancel := context.WithCancel(context.Background())
	ds := &DataStore{
		data:   make(map[string]json.RawMessage),
		file:   filePath,
		ctx:    ctx,
		cancel: cancel,
	}

	if err := ds.load(); err != nil {
		cancel()
		return nil, err
	}

	ds.wg.Add(1)
	go ds.autoSave()

	return ds, nil
}

// Get unmarshals the value stored under key into out. ok is false when the
// key is absent.
func (ds *DataStore) Get(key string, out any) (ok bool, err error) {
	ds.mu.RLock()
	raw, exists := ds.data[key]
	ds.mu.RUnlock()

	if !exists {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("failed to decode value for key %q: %w", key, err)
	}
	return true, nil
}

// Set stores value under key. The write hits disk on the next autosave
// tick or on Close.
func (ds *DataStore) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value for key %q: %w", key, err)
	}

	ds.mu.Lock()
	ds.data[key] = raw
	ds.dirty = true
	ds.mu.Unlock()
	return nil
}

// Delete removes key. Deleting an absent key is a no-op.
func (ds *DataStore) Delete(key string) {
	ds.mu.Lock()
	if _, exists := ds.data[key]; exists {
		delete(ds.data, key)
		ds.dirty = true
	}
	ds.mu.Unlock()
}

// Keys returns all stored keys.
func (ds *DataStore) Keys() []string {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	keys := make([]string, 0, len(ds.data))
	for k := range ds.data {
		keys = append(keys, k)
	}
	return keys
}

// Close flushes pending changes and stops the autosave routine.
func (ds *DataStore) Close() error {
	ds.cancel()
	ds.wg.Wait()
	return ds.save()
}

func (ds *DataStore) load() error {
	raw, err := os.ReadFile(ds.file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read datastore file: %w", err)
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("datastore file is not valid JSON: %w", err)
	}
	ds.data = data
	return nil
}

// save writes the whole map atomically: temp file, sync, rename.
func (ds *DataStore) save() error {
	ds.mu.Lock()
	if !ds.dirty {
		ds.mu.Unlock()
		return nil
	}
	raw, err := json.MarshalIndent(ds.data, "", "  ")
	ds.dirty = false
	ds.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to encode datastore: %w", err)
	}

	tmpFile := ds.file + ".tmp"
	f, err := os.OpenFile(tmpFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := f.Write(raw); err != nil {
		f.Close()
		os.Remove(tmpFile)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpFile)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	f.Close()

	if err := os.Rename(tmpFile, ds.file); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func (ds *DataStore) autoSave() {
	defer ds.wg.Done()

	ticker := time.NewTicker(defaultAutoSaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ds.ctx.Done():
			return
		case <-ticker.C:
			if err := ds.save(); err != nil {
				log.Errorf("[DataStore] Auto-save failed: %v", err)
			}
		}
	}
}
