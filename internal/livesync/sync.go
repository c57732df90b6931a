// Package livesync reconciles in-memory state against on-disk changes.
// It detects external edits by modification signature, re-parses changed
// files, and defers external changes to files that carry unflushed local
// edits so a local toggle is never silently lost.
package livesync

import (
	"crypto/sha256"
	"os"
	"sort"
	"time"

	"daybook/internal/note"

	"github.com/rs/zerolog"
)

// Signature identifies one version of a file's content. ModTime and
// Size are the cheap first-level check; Hash guards against
// timestamp-only resolution producing false positives.
type Signature struct {
	ModTime time.Time
	Size    int64
	Hash    [sha256.Size]byte
	hashed  bool
}

func (s Signature) quickEqual(o Signature) bool {
	return s.ModTime.Equal(o.ModTime) && s.Size == o.Size
}

// SyncRecord is the per-file reconciliation state.
type SyncRecord struct {
	Sig         Signature
	Dirty       bool // unflushed local edit; external changes deferred
	Conflict    bool // external change seen while dirty
	ParseFailed bool

	// pending is the external signature seen while dirty, so the same
	// conflict is reported once, not every poll.
	pending Signature
}

// Change is one reconciliation outcome for a tracked file.
type Change struct {
	Path     string
	Record   *note.Record // parsed content; nil on error, conflict or delete
	Deleted  bool
	Conflict bool
	Err      error // *note.ParseError
}

// Reconciler polls tracked files and reports what changed. Per-poll work
// is capped: at most budget files are examined each poll, resuming
// round-robin where the previous poll stopped, so a large notes
// collection cannot stall the input loop.
type Reconciler struct {
	records map[string]*SyncRecord
	order   []string
	cursor  int
	budget  int
	log     zerolog.Logger
}

// NewReconciler creates a reconciler polling at most budget files per
// call; budget <= 0 means no cap.
func NewReconciler(budget int, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		records: make(map[string]*SyncRecord),
		budget:  budget,
		log:     log,
	}
}

// Track starts following a path. A freshly tracked file has a zero
// signature, so the next poll reports it as changed and parses it.
func (r *Reconciler) Track(path string) {
	if _, ok := r.records[path]; ok {
		return
	}
	r.records[path] = &SyncRecord{}
	r.order = append(r.order, path)
	sort.Strings(r.order)
}

// Tracked reports whether the path is followed.
func (r *Reconciler) Tracked(path string) bool {
	_, ok := r.records[path]
	return ok
}

// MarkDirty flags a path as locally edited. Reconciliation will not
// overwrite it until Flush clears the flag.
func (r *Reconciler) MarkDirty(path string) {
	if rec, ok := r.records[path]; ok {
		rec.Dirty = true
	}
}

func (r *Reconciler) IsDirty(path string) bool {
	rec, ok := r.records[path]
	return ok && rec.Dirty
}

// Conflicts lists the paths whose external changes are deferred behind a
// local edit.
func (r *Reconciler) Conflicts() []string {
	var out []string
	for path, rec := range r.records {
		if rec.Conflict {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}

// DirtyPaths lists the paths with unflushed local edits.
func (r *Reconciler) DirtyPaths() []string {
	var out []string
	for path, rec := range r.records {
		if rec.Dirty {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}

// Poll examines up to the budget of tracked files and returns the
// changes since the previous poll. With no underlying changes it
// returns nothing.
func (r *Reconciler) Poll() []Change {
	n := len(r.order)
	if n == 0 {
		return nil
	}
	limit := n
	if r.budget > 0 && r.budget < n {
		limit = r.budget
	}

	var changes []Change
	for i := 0; i < limit; i++ {
		if r.cursor >= len(r.order) {
			r.cursor = 0
		}
		path := r.order[r.cursor]
		r.cursor++
		if ch, ok := r.pollOne(path); ok {
			changes = append(changes, ch)
		}
	}
	return changes
}

func (r *Reconciler) pollOne(path string) (Change, bool) {
	rec := r.records[path]

	info, err := os.Stat(path)
	if err != nil {
		// Backing file is gone; the source id disappears with it.
		r.untrack(path)
		r.log.Debug().Str("path", path).Msg("tracked file removed")
		return Change{Path: path, Deleted: true}, true
	}

	cur := Signature{ModTime: info.ModTime(), Size: info.Size()}
	if cur.quickEqual(rec.Sig) {
		return Change{}, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		rec.ParseFailed = true
		rec.Sig = cur
		perr := &note.ParseError{Path: path, Err: err}
		r.log.Warn().Err(err).Str("path", path).Msg("unreadable tracked file")
		return Change{Path: path, Err: perr}, true
	}
	cur.Hash = sha256.Sum256(data)
	cur.hashed = true

	if rec.Sig.hashed && cur.Hash == rec.Sig.Hash {
		// Touched but identical; refresh the cheap signature only.
		rec.Sig = cur
		return Change{}, false
	}

	if rec.Dirty {
		// Local edits win until flushed. Report the conflict once per
		// distinct external version.
		if rec.Conflict && cur.quickEqual(rec.pending) {
			return Change{}, false
		}
		rec.Conflict = true
		rec.pending = cur
		r.log.Info().Str("path", path).Msg("external change deferred behind local edit")
		return Change{Path: path, Conflict: true}, true
	}

	parsed, perr := note.Parse(path, data)
	rec.Sig = cur
	if perr != nil {
		rec.ParseFailed = true
		r.log.Warn().Err(perr).Str("path", path).Msg("parse failure, keeping stale state")
		return Change{Path: path, Err: perr}, true
	}
	rec.ParseFailed = false
	return Change{Path: path, Record: parsed}, true
}

// Flush writes locally edited content back to disk. On success the
// dirty and conflict flags clear and the signature matches the written
// content; on failure the dirty flag stays set so the edit is not lost.
func (r *Reconciler) Flush(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		r.log.Error().Err(err).Str("path", path).Msg("flush failed, keeping local edit")
		return err
	}
	rec, ok := r.records[path]
	if !ok {
		r.Track(path)
		rec = r.records[path]
	}
	info, err := os.Stat(path)
	if err == nil {
		rec.Sig = Signature{
			ModTime: info.ModTime(),
			Size:    info.Size(),
			Hash:    sha256.Sum256(data),
			hashed:  true,
		}
	}
	rec.Dirty = false
	rec.Conflict = false
	rec.pending = Signature{}
	rec.ParseFailed = false
	return nil
}

func (r *Reconciler) untrack(path string) {
	delete(r.records, path)
	for i, p := range r.order {
		if p == path {
			r.order = append(r.order[:i], r.order[i+1:]...)
			if r.cursor > i {
				r.cursor--
			}
			break
		}
	}
}
