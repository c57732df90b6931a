package livesync

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"daybook/internal/note"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReconciler(budget int) *Reconciler {
	return NewReconciler(budget, zerolog.Nop())
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const taskFile = `---
title: water the plants
status: open
tags:
  - task
---
remember the balcony
`

func TestPollPicksUpNewFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "plants.md", taskFile)

	r := newTestReconciler(0)
	r.Track(path)

	changes := r.Poll()
	require.Len(t, changes, 1)
	require.NotNil(t, changes[0].Record)
	assert.Equal(t, "water the plants", changes[0].Record.Title)
}

func TestPollIdempotentWithoutChanges(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "plants.md", taskFile)

	r := newTestReconciler(0)
	r.Track(path)

	require.Len(t, r.Poll(), 1)
	assert.Empty(t, r.Poll())
	assert.Empty(t, r.Poll())
}

func TestPollDetectsRewrite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "plants.md", taskFile)

	r := newTestReconciler(0)
	r.Track(path)
	require.Len(t, r.Poll(), 1)

	// Backdate then rewrite so ModTime moves even on coarse clocks.
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))
	require.Empty(t, r.Poll())
	writeFile(t, dir, "plants.md", taskFile+"\nmore\n")

	changes := r.Poll()
	require.Len(t, changes, 1)
	require.NotNil(t, changes[0].Record)
	assert.Contains(t, changes[0].Record.Body, "more")
}

func TestTouchWithoutContentChangeIsQuiet(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "plants.md", taskFile)

	r := newTestReconciler(0)
	r.Track(path)
	require.Len(t, r.Poll(), 1)

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	assert.Empty(t, r.Poll())
}

func TestDirtyDefersExternalChange(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "plants.md", taskFile)

	r := newTestReconciler(0)
	r.Track(path)
	require.Len(t, r.Poll(), 1)

	r.MarkDirty(path)
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))
	writeFile(t, dir, "plants.md", taskFile+"\nexternal edit\n")

	changes := r.Poll()
	require.Len(t, changes, 1)
	assert.True(t, changes[0].Conflict)
	assert.Nil(t, changes[0].Record, "dirty file must not be re-parsed over local state")
	assert.Equal(t, []string{path}, r.Conflicts())

	// The same external version is not re-reported.
	assert.Empty(t, r.Poll())
}

func TestFlushClearsDirtyAndConflict(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "plants.md", taskFile)

	r := newTestReconciler(0)
	r.Track(path)
	require.Len(t, r.Poll(), 1)

	r.MarkDirty(path)
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))
	writeFile(t, dir, "plants.md", taskFile+"\nexternal edit\n")
	require.Len(t, r.Poll(), 1)

	local := []byte(taskFile + "\nlocal wins\n")
	require.NoError(t, r.Flush(path, local))
	assert.False(t, r.IsDirty(path))
	assert.Empty(t, r.Conflicts())

	// The flushed content is the new baseline.
	assert.Empty(t, r.Poll())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, local, data)
}

func TestUnparsableFileReportedOnceStateRetained(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "plants.md", taskFile)

	r := newTestReconciler(0)
	r.Track(path)
	require.Len(t, r.Poll(), 1)

	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))
	writeFile(t, dir, "plants.md", "---\ntitle: [unclosed\n---\nbody\n")

	changes := r.Poll()
	require.Len(t, changes, 1)
	require.Error(t, changes[0].Err)
	var perr *note.ParseError
	assert.ErrorAs(t, changes[0].Err, &perr)
	assert.Nil(t, changes[0].Record)

	// No repeat report until the file changes again.
	assert.Empty(t, r.Poll())
}

func TestDeletedFileReported(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "plants.md", taskFile)

	r := newTestReconciler(0)
	r.Track(path)
	require.Len(t, r.Poll(), 1)

	require.NoError(t, os.Remove(path))
	changes := r.Poll()
	require.Len(t, changes, 1)
	assert.True(t, changes[0].Deleted)
	assert.False(t, r.Tracked(path))
}

func TestPollBudgetRoundRobin(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.md", "b.md", "c.md", "d.md", "e.md"} {
		paths = append(paths, writeFile(t, dir, name, taskFile))
	}

	r := newTestReconciler(2)
	for _, p := range paths {
		r.Track(p)
	}

	var seen []string
	for i := 0; i < 3; i++ {
		for _, ch := range r.Poll() {
			seen = append(seen, ch.Path)
		}
	}
	// Three polls of two files each cover all five exactly once; the
	// wrapped-around file is unchanged and stays quiet.
	assert.ElementsMatch(t, paths, seen)
}
