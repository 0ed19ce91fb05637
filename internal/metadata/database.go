package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cineform-go/cineform/internal/cfhdlog"
)

// refreshFloor is the minimum wall-clock interval between re-reads of the
// external (DATABASE/OVERRIDE) layer files, per spec.md §8.
const refreshFloor = 100 * time.Millisecond

// Database holds one clip's layered metadata buffers and produces the
// priority-resolved CFHDDATA for a given channel on demand. It is the
// active-metadata analogue of internal/sample.Sample: sample.Sample holds
// one frame's wavelet data, Database holds the tweaks layered on top of
// however many frames share a clip GUID.
type Database struct {
	mu          sync.Mutex
	clipGUID    [16]byte
	haveGUID    bool
	layers      [numLayers][]byte
	lastRefresh time.Time
	searchDir   string
	log         cfhdlog.Logger

	watcher    *fsnotify.Watcher
	watchDirty bool
}

// NewDatabase returns a Database that looks for external .colr/.col1/
// .col2 files under searchDir. log may be nil, in which case warnings
// about a failed file watch are discarded.
func NewDatabase(searchDir string, log cfhdlog.Logger) *Database {
	if log == nil {
		log = cfhdlog.NewNop()
	}
	return &Database{searchDir: searchDir, log: log}
}

// externalFilename implements spec.md §8's naming convention:
// %08X-%04X-%04X-%02X%02X-%02X%02X%02X%02X%02X%02X.colr, keyed by clip
// GUID, with .col1/.col2 extensions for the per-eye DATABASE_1/2 layers.
func externalFilename(guid [16]byte, layer Layer) string {
	ext := "colr"
	switch layer {
	case LayerDatabaseEye1, LayerOverrideEye1:
		ext = "col1"
	case LayerDatabaseEye2, LayerOverrideEye2:
		ext = "col2"
	}
	name := fmt.Sprintf("%08X-%04X-%04X-%02X%02X-%02X%02X%02X%02X%02X%02X.%s",
		u32be(guid[0:4]), u16be(guid[4:6]), u16be(guid[6:8]),
		guid[8], guid[9], guid[10], guid[11], guid[12], guid[13], guid[14], guid[15], ext)
	return name
}

func u32be(b []byte) uint32 { return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]) }
func u16be(b []byte) uint16 { return uint16(b[0])<<8 | uint16(b[1]) }

// overrideFilename is the universal override file, applied to every clip
// regardless of GUID (spec.md §8).
const overrideFilename = "override.colr"

// SetFrameLayer installs the sample-embedded FRAME-priority metadata
// buffer (the current frame's own CFHDDATA chunks, channelDelta 0) or one
// of its per-eye variants (channelDelta 1 or 2).
func (db *Database) SetFrameLayer(channelDelta int, buf []byte) {
	db.mu.Lock()
	defer db.mu.Unlock()
	switch channelDelta {
	case 1:
		db.layers[LayerFrameEye1] = buf
	case 2:
		db.layers[LayerFrameEye2] = buf
	default:
		db.layers[LayerFrame] = buf
	}
}

// SetClipGUID records the active clip GUID, resetting lastRefresh so the
// next RefreshExternal call always re-reads the external layers (spec.md §8:
// "always on first sample of a new clip GUID").
func (db *Database) SetClipGUID(guid [16]byte) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.haveGUID && db.clipGUID == guid {
		return
	}
	db.clipGUID = guid
	db.haveGUID = true
	db.lastRefresh = time.Time{}
}

// RefreshExternal re-reads the BASE/DATABASE/DATABASE_1/DATABASE_2/
// OVERRIDE/OVERRIDE_1/OVERRIDE_2 layer files from disk if the refresh
// floor has elapsed, the watcher flagged a change, or this is the first
// refresh for the current clip GUID. It never errors on a missing file -
// an absent layer simply contributes nothing - only on read/parse
// failures of a file that does exist.
func (db *Database) RefreshExternal() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.refreshLocked()
}

func (db *Database) refreshLocked() error {
	now := time.Now()
	due := db.lastRefresh.IsZero() || now.Sub(db.lastRefresh) >= refreshFloor || db.watchDirty
	if !due {
		return nil
	}
	db.watchDirty = false
	db.lastRefresh = now

	if db.searchDir == "" {
		return nil
	}

	// OVERRIDE comes from the universal override.colr (applies to all
	// clips); the DATABASE tiers and the per-eye OVERRIDE tiers come from
	// the per-GUID files.
	if err := db.loadFile(LayerOverride, filepath.Join(db.searchDir, overrideFilename)); err != nil {
		return err
	}
	if db.haveGUID {
		for _, layer := range []Layer{LayerDatabase, LayerDatabaseEye1, LayerDatabaseEye2, LayerOverrideEye1, LayerOverrideEye2} {
			path := filepath.Join(db.searchDir, externalFilename(db.clipGUID, layer))
			if err := db.loadFile(layer, path); err != nil {
				return err
			}
		}
	}
	return nil
}

func (db *Database) loadFile(layer Layer, path string) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			db.layers[layer] = nil
			return nil
		}
		return fmt.Errorf("metadata: reading %s: %w", path, err)
	}
	db.layers[layer] = buf
	return nil
}

// Effective resolves the priority-ordered merge of every populated layer
// into a single CFHDDATA for the given channelDelta (0 = mono, 1/2 =
// stereo eye). Layers are applied lowest-priority first so each
// subsequent UpdateCFHDDATA call's fields naturally take precedence,
// implementing spec.md §8's
// OVERRIDE_{1,2} > OVERRIDE > DATABASE_{1,2} > DATABASE > FRAME_{1,2} >
// FRAME > BASE > built-in defaults ordering.
func (db *Database) Effective(channelDelta int) (CFHDDATA, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var d CFHDDATA
	d.Reset()

	order := []Layer{LayerBase, LayerFrame}
	switch channelDelta {
	case 1:
		order = append(order, LayerFrameEye1)
	case 2:
		order = append(order, LayerFrameEye2)
	}
	order = append(order, LayerDatabase)
	switch channelDelta {
	case 1:
		order = append(order, LayerDatabaseEye1)
	case 2:
		order = append(order, LayerDatabaseEye2)
	}
	order = append(order, LayerOverride)
	switch channelDelta {
	case 1:
		order = append(order, LayerOverrideEye1)
	case 2:
		order = append(order, LayerOverrideEye2)
	}

	for _, layer := range order {
		buf := db.layers[layer]
		if buf == nil {
			continue
		}
		if err := UpdateCFHDDATA(&d, buf, channelDelta); err != nil {
			return CFHDDATA{}, fmt.Errorf("metadata: layer %d: %w", layer, err)
		}
	}
	return d, nil
}

// Watch starts an fsnotify watch on the external metadata directory so
// the next RefreshExternal call picks up changes sooner than the
// refresh floor would otherwise allow. If the watch cannot be
// established (sandboxed filesystem, missing inotify, ...) it logs a
// warning and falls back to the plain refresh-floor timer; a failed watch
// is never fatal (spec.md §8 treats the watch as a latency optimization,
// not a correctness requirement).
func (db *Database) Watch() {
	if db.searchDir == "" {
		return
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		db.log.Warning("metadata: fsnotify unavailable, falling back to polling", "error", err)
		return
	}
	if err := w.Add(db.searchDir); err != nil {
		db.log.Warning("metadata: could not watch directory, falling back to polling", "dir", db.searchDir, "error", err)
		w.Close()
		return
	}
	db.mu.Lock()
	db.watcher = w
	db.mu.Unlock()

	go db.watchLoop(w)
}

func (db *Database) watchLoop(w *fsnotify.Watcher) {
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				db.mu.Lock()
				db.watchDirty = true
				db.mu.Unlock()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			db.log.Warning("metadata: fsnotify error", "error", err)
		}
	}
}

// Close stops the file watcher, if one is running.
func (db *Database) Close() error {
	db.mu.Lock()
	w := db.watcher
	db.watcher = nil
	db.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.Close()
}
