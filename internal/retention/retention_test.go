package retention

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	snapfs "github.com/raoulx24/snapkeep/internal/fs"
	"github.com/raoulx24/snapkeep/internal/logging"
	"github.com/raoulx24/snapkeep/internal/snapshot"
)

var t0 = time.Date(2025, 2, 1, 8, 0, 0, 0, time.Local)

// seed creates one snapshot per offset, named after and modified at
// t0+offset, and returns their names oldest first.
func seed(c *qt.C, root string, offsets ...time.Duration) []string {
	var out []string
	for _, off := range offsets {
		at := t0.Add(off)
		name := snapshot.DirName(at, 0)
		p := filepath.Join(root, name)
		c.Assert(os.MkdirAll(p, 0o755), qt.IsNil)
		c.Assert(os.WriteFile(filepath.Join(p, "profile.ini"), []byte(name), 0o644), qt.IsNil)
		c.Assert(os.Chtimes(p, at, at), qt.IsNil)
		out = append(out, name)
	}
	return out
}

func dirNames(c *qt.C, root string) []string {
	entries, err := os.ReadDir(root)
	c.Assert(err, qt.IsNil)
	var out []string
	for _, e := range entries {
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func recNames(recs []snapshot.Record) []string {
	var out []string
	for _, r := range recs {
		out = append(out, r.Name())
	}
	return out
}

func TestPruneKeepsNewestThree(t *testing.T) {
	c := qt.New(t)
	root := t.TempDir()
	n := seed(c, root, 0, time.Hour, 2*time.Hour, 3*time.Hour)

	e := New(Policy{MaxSnapshots: 3}, logging.Nop(), nil)
	removed, err := e.Prune(context.Background(), root, 3)
	c.Assert(err, qt.IsNil)
	c.Assert(recNames(removed), qt.DeepEquals, []string{n[0]})
	c.Assert(dirNames(c, root), qt.DeepEquals, n[1:])
}

func TestPruneRemovesExactlyTheOldest(t *testing.T) {
	c := qt.New(t)
	root := t.TempDir()
	// created out of order on purpose; ordering is by modification time
	n := seed(c, root, 5*time.Minute, time.Minute, 4*time.Minute, 2*time.Minute, 3*time.Minute, 6*time.Minute)

	removed, err := New(Policy{}, logging.Nop(), nil).Prune(context.Background(), root, 2)
	c.Assert(err, qt.IsNil)
	c.Assert(recNames(removed), qt.DeepEquals, []string{n[1], n[3], n[4], n[2]})

	want := []string{n[0], n[5]}
	sort.Strings(want)
	c.Assert(dirNames(c, root), qt.DeepEquals, want)
}

func TestPruneIsNoOpWithinLimit(t *testing.T) {
	c := qt.New(t)
	root := t.TempDir()
	n := seed(c, root, 0, time.Hour)

	e := New(Policy{}, logging.Nop(), nil)
	for i := 0; i < 2; i++ {
		removed, err := e.Prune(context.Background(), root, 2)
		c.Assert(err, qt.IsNil)
		c.Assert(removed, qt.HasLen, 0)
	}
	c.Assert(dirNames(c, root), qt.DeepEquals, n)
}

func TestPruneNeverTouchesForeignDirectories(t *testing.T) {
	c := qt.New(t)
	root := t.TempDir()
	n := seed(c, root, time.Hour, 2*time.Hour)
	for _, foreign := range []string{"my stuff", "backup_old", ".tmp-backup_20250201_080000"} {
		p := filepath.Join(root, foreign)
		c.Assert(os.Mkdir(p, 0o755), qt.IsNil)
		c.Assert(os.Chtimes(p, t0.Add(-time.Hour), t0.Add(-time.Hour)), qt.IsNil)
	}

	removed, err := New(Policy{}, logging.Nop(), nil).Prune(context.Background(), root, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(recNames(removed), qt.DeepEquals, []string{n[0]})
	c.Assert(dirNames(c, root), qt.DeepEquals, []string{".tmp-backup_20250201_080000", n[1], "backup_old", "my stuff"})
}

func TestPruneRejectsZeroLimit(t *testing.T) {
	c := qt.New(t)
	_, err := New(Policy{}, logging.Nop(), nil).Prune(context.Background(), t.TempDir(), 0)
	c.Assert(err, qt.ErrorMatches, "max snapshots must be >= 1, got 0")
}

// stubbornFS refuses to delete one path.
type stubbornFS struct {
	*snapfs.OSFS
	locked string
}

func (f stubbornFS) RemoveAll(path string) error {
	if filepath.Base(path) == f.locked {
		return os.ErrPermission
	}
	return f.OSFS.RemoveAll(path)
}

func TestPruneContinuesPastFailures(t *testing.T) {
	c := qt.New(t)
	root := t.TempDir()
	n := seed(c, root, 0, time.Hour, 2*time.Hour, 3*time.Hour)

	e := New(Policy{}, logging.Nop(), stubbornFS{OSFS: snapfs.New(), locked: n[0]})
	removed, err := e.Prune(context.Background(), root, 2)

	c.Assert(errors.Is(err, ErrPruneFailed), qt.IsTrue)
	c.Assert(errors.Is(err, os.ErrPermission), qt.IsTrue)
	var pe *PruneError
	c.Assert(errors.As(err, &pe), qt.IsTrue)
	c.Assert(pe.Record.Name(), qt.Equals, n[0])

	// the locked one stays, so the next two oldest go to honour the limit
	c.Assert(recNames(removed), qt.DeepEquals, []string{n[1], n[2]})
	c.Assert(dirNames(c, root), qt.DeepEquals, []string{n[0], n[3]})
}

func TestApplyCountThenAge(t *testing.T) {
	c := qt.New(t)
	root := t.TempDir()
	n := seed(c, root, 0, 24*time.Hour, 48*time.Hour, 72*time.Hour, 96*time.Hour)

	e := New(Policy{MaxSnapshots: 4, MaxAge: 36 * time.Hour}, logging.Nop(), nil)
	removed, err := e.Apply(context.Background(), root, t0.Add(96*time.Hour))
	c.Assert(err, qt.IsNil)
	// count drops n[0]; age (cutoff t0+60h) drops n[1] and n[2]
	c.Assert(recNames(removed), qt.DeepEquals, []string{n[0], n[1], n[2]})
	c.Assert(dirNames(c, root), qt.DeepEquals, []string{n[3], n[4]})
}

func TestAgePruningKeepsNewest(t *testing.T) {
	c := qt.New(t)
	root := t.TempDir()
	n := seed(c, root, 0, time.Hour)

	removed, err := New(Policy{}, logging.Nop(), nil).PruneOlderThan(context.Background(), root, t0.Add(365*24*time.Hour))
	c.Assert(err, qt.IsNil)
	c.Assert(recNames(removed), qt.DeepEquals, []string{n[0]})
	c.Assert(dirNames(c, root), qt.DeepEquals, []string{n[1]})
}

func TestPolicyUpdates(t *testing.T) {
	c := qt.New(t)
	e := New(Policy{MaxSnapshots: 10, MaxAge: time.Hour}, logging.Nop(), nil)

	e.SetMaxSnapshots(3)
	c.Assert(e.Policy(), qt.Equals, Policy{MaxSnapshots: 3, MaxAge: time.Hour})

	e.UpdateConfig(Policy{MaxSnapshots: 5})
	c.Assert(e.Policy(), qt.Equals, Policy{MaxSnapshots: 5})
}
