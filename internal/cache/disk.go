package cache

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zstd"
)

const (
	indexFile = "index.gob"

	// Values smaller than this are stored as-is.
	compressThreshold = 1024
)

// Disk is a persistent cache. Each value lives in its own file under dir,
// optionally zstd-compressed; a gob index written on Close tracks them.
type Disk struct {
	mu sync.Mutex

	dir      string
	capacity int64
	size     int64
	ttl      time.Duration

	enc *zstd.Encoder
	dec *zstd.Decoder

	index map[string]*diskEntry

	hits, misses, evictions int64
}

type diskEntry struct {
	File       string
	Size       int64 // on disk
	Raw        int64 // before compression
	Stored     time.Time
	LastAccess time.Time
	Compressed bool
}

// NewDisk opens (or creates) a disk cache in dir. A compression level of
// zero stores values uncompressed.
func NewDisk(dir string, capacity int64, level int, ttl time.Duration) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	d := &Disk{
		dir:      dir,
		capacity: capacity,
		ttl:      ttl,
		index:    make(map[string]*diskEntry),
	}

	if level > 0 {
		var err error
		d.enc, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
		if err != nil {
			return nil, fmt.Errorf("create zstd encoder: %w", err)
		}
		d.dec, err = zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("create zstd decoder: %w", err)
		}
	}

	if err := d.loadIndex(); err != nil {
		log.Warn("ignoring unreadable cache index", "dir", dir, "error", err)
		d.index = make(map[string]*diskEntry)
	}
	for _, e := range d.index {
		d.size += e.Size
	}

	log.Debug("disk cache opened",
		"dir", dir,
		"items", len(d.index),
		"size", humanize.IBytes(uint64(d.size)), //nolint:gosec
		"capacity", humanize.IBytes(uint64(capacity)), //nolint:gosec
	)
	return d, nil
}

// Get reads the value for key. Missing, expired or undecodable files are
// dropped from the index and reported as misses.
func (d *Disk) Get(key string) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, ok := d.index[key]
	if !ok {
		d.misses++
		return nil, false
	}
	if d.ttl > 0 && time.Since(entry.Stored) > d.ttl {
		d.drop(key)
		d.misses++
		return nil, false
	}

	data, err := d.read(entry)
	if err != nil {
		log.Debug("dropping cache entry", "file", entry.File, "error", err)
		d.drop(key)
		d.misses++
		return nil, false
	}

	entry.LastAccess = time.Now()
	d.hits++
	return data, true
}

// Put writes value for key, evicting least recently accessed entries until
// it fits.
func (d *Disk) Put(key string, value []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, compressed := value, false
	if d.enc != nil && len(value) > compressThreshold {
		if packed := d.enc.EncodeAll(value, nil); len(packed) < len(value) {
			data, compressed = packed, true
		}
	}

	n := int64(len(data))
	if n > d.capacity {
		return ErrItemTooLarge
	}

	if _, ok := d.index[key]; ok {
		d.drop(key)
	}
	for d.size+n > d.capacity && len(d.index) > 0 {
		d.evictOldest()
	}

	file := filepath.Join(d.dir, key+".bin")
	if err := writeAtomic(file, data); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}

	now := time.Now()
	d.index[key] = &diskEntry{
		File:       file,
		Size:       n,
		Raw:        int64(len(value)),
		Stored:     now,
		LastAccess: now,
		Compressed: compressed,
	}
	d.size += n
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (d *Disk) Delete(key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.drop(key)
	return nil
}

// Clear removes every cached file and writes an empty index.
func (d *Disk) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key := range d.index {
		d.drop(key)
	}
	return d.saveIndex()
}

// Size returns the bytes used on disk.
func (d *Disk) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.size
}

// Contains reports whether key is indexed.
func (d *Disk) Contains(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.index[key]
	return ok
}

// Stats returns a snapshot of the counters.
func (d *Disk) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Stats{
		Capacity:  d.capacity,
		Size:      d.size,
		Items:     len(d.index),
		Hits:      d.hits,
		Misses:    d.misses,
		Evictions: d.evictions,
	}
}

// RemoveOlderThan drops entries stored before cutoff.
func (d *Disk) RemoveOlderThan(cutoff time.Time) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	removed := 0
	for key, e := range d.index {
		if e.Stored.Before(cutoff) {
			d.drop(key)
			removed++
		}
	}
	return removed
}

// Close persists the index.
func (d *Disk) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.enc != nil {
		_ = d.enc.Close()
	}
	if d.dec != nil {
		d.dec.Close()
	}
	return d.saveIndex()
}

func (d *Disk) read(e *diskEntry) ([]byte, error) {
	data, err := os.ReadFile(e.File)
	if err != nil {
		return nil, err
	}
	if !e.Compressed {
		return data, nil
	}
	if d.dec == nil {
		return nil, ErrCacheCorrupted
	}
	out, err := d.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheCorrupted, err)
	}
	return out, nil
}

// must hold d.mu
func (d *Disk) drop(key string) {
	e, ok := d.index[key]
	if !ok {
		return
	}
	_ = os.Remove(e.File)
	d.size -= e.Size
	delete(d.index, key)
}

// must hold d.mu
func (d *Disk) evictOldest() {
	keys := make([]string, 0, len(d.index))
	for k := range d.index {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return d.index[keys[i]].LastAccess.Before(d.index[keys[j]].LastAccess)
	})
	if len(keys) == 0 {
		return
	}
	e := d.index[keys[0]]
	log.Debug("evicting cache entry", "size", humanize.IBytes(uint64(e.Size))) //nolint:gosec
	d.drop(keys[0])
	d.evictions++
}

func (d *Disk) loadIndex() error {
	f, err := os.Open(filepath.Join(d.dir, indexFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck
	return gob.NewDecoder(f).Decode(&d.index)
}

func (d *Disk) saveIndex() error {
	path := filepath.Join(d.dir, indexFile)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(d.index); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
