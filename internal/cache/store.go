package cache

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"
)

// Store layers the memory tier over an optional disk tier. Values found on
// disk are promoted to memory.
type Store struct {
	mem  *Memory
	disk *Disk // nil when disabled
}

// Open builds a Store from cfg. A leading ~ in DiskPath is expanded.
func Open(cfg Config) (*Store, error) {
	s := &Store{mem: NewMemory(cfg.MemoryCapacity, cfg.TTL)}
	if cfg.DiskPath == "" {
		return s, nil
	}

	dir, err := homedir.Expand(cfg.DiskPath)
	if err != nil {
		return nil, fmt.Errorf("expand cache path: %w", err)
	}
	s.disk, err = NewDisk(dir, cfg.DiskCapacity, cfg.CompressionLevel, cfg.TTL)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Get looks key up in memory, then on disk.
func (s *Store) Get(key string) ([]byte, bool) {
	v, _, ok := s.Lookup(key)
	return v, ok
}

// Lookup is Get that also reports which tier answered.
func (s *Store) Lookup(key string) ([]byte, Tier, bool) {
	if v, ok := s.mem.Get(key); ok {
		return v, TierMemory, true
	}
	if s.disk == nil {
		return nil, TierNone, false
	}
	v, ok := s.disk.Get(key)
	if !ok {
		return nil, TierNone, false
	}
	if err := s.mem.Put(key, v); err != nil && !errors.Is(err, ErrItemTooLarge) {
		log.Debug("unable to promote cache entry", "error", err)
	}
	return v, TierDisk, true
}

// Put writes value to every tier. A value too large for memory still goes
// to disk.
func (s *Store) Put(key string, value []byte) error {
	memErr := s.mem.Put(key, value)
	if memErr != nil && !errors.Is(memErr, ErrItemTooLarge) {
		return memErr
	}
	if s.disk == nil {
		return memErr
	}
	return s.disk.Put(key, value)
}

// Clear empties every tier.
func (s *Store) Clear() error {
	if err := s.mem.Clear(); err != nil {
		return err
	}
	if s.disk != nil {
		return s.disk.Clear()
	}
	return nil
}

// Size returns the bytes held across tiers.
func (s *Store) Size() int64 {
	n := s.mem.Size()
	if s.disk != nil {
		n += s.disk.Size()
	}
	return n
}

// Stats returns memory-tier counters; see TierStats for the disk.
func (s *Store) Stats() Stats {
	return s.mem.Stats()
}

// TierStats returns the counters of each enabled tier.
func (s *Store) TierStats() map[Tier]Stats {
	out := map[Tier]Stats{TierMemory: s.mem.Stats()}
	if s.disk != nil {
		out[TierDisk] = s.disk.Stats()
	}
	return out
}

// Close flushes the disk index.
func (s *Store) Close() error {
	if s.disk == nil {
		return nil
	}
	return s.disk.Close()
}

var _ Cache = (*Store)(nil)
var _ Cache = (*Memory)(nil)
var _ Cache = (*Disk)(nil)
