package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	qt "github.com/frankban/quicktest"
)

func writeFile(c *qt.C, path, content string) {
	c.Assert(os.MkdirAll(filepath.Dir(path), 0o755), qt.IsNil)
	c.Assert(os.WriteFile(path, []byte(content), 0o644), qt.IsNil)
}

func TestCopyTreeMirrorsStructure(t *testing.T) {
	c := qt.New(t)
	src := filepath.Join(t.TempDir(), "settings")
	writeFile(c, filepath.Join(src, "profile.ini"), "volume=7")
	writeFile(c, filepath.Join(src, "slots", "slot1.dat"), "abc")
	writeFile(c, filepath.Join(src, "slots", "deep", "slot2.dat"), "defgh")
	c.Assert(os.MkdirAll(filepath.Join(src, "empty"), 0o755), qt.IsNil)

	dst := filepath.Join(t.TempDir(), "copy")
	n, err := New().CopyTree(context.Background(), src, dst)
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, int64(len("volume=7")+len("abc")+len("defgh")))

	for rel, want := range map[string]string{
		"profile.ini":          "volume=7",
		"slots/slot1.dat":      "abc",
		"slots/deep/slot2.dat": "defgh",
	} {
		got, err := os.ReadFile(filepath.Join(dst, filepath.FromSlash(rel)))
		c.Assert(err, qt.IsNil)
		c.Assert(string(got), qt.Equals, want)
	}
	st, err := os.Stat(filepath.Join(dst, "empty"))
	c.Assert(err, qt.IsNil)
	c.Assert(st.IsDir(), qt.IsTrue)
}

func TestCopyTreeRefusesExistingDestination(t *testing.T) {
	c := qt.New(t)
	src := t.TempDir()
	writeFile(c, filepath.Join(src, "a"), "a")

	_, err := New().CopyTree(context.Background(), src, t.TempDir())
	c.Assert(errors.Is(err, os.ErrExist), qt.IsTrue)
}

func TestCopyTreeHonoursCancellation(t *testing.T) {
	c := qt.New(t)
	src := t.TempDir()
	writeFile(c, filepath.Join(src, "a"), "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().CopyTree(ctx, src, filepath.Join(t.TempDir(), "out"))
	c.Assert(errors.Is(err, context.Canceled), qt.IsTrue)
}

func TestReadDir(t *testing.T) {
	c := qt.New(t)
	root := t.TempDir()
	writeFile(c, filepath.Join(root, "file"), "x")
	c.Assert(os.Mkdir(filepath.Join(root, "dir"), 0o755), qt.IsNil)

	infos, err := New().ReadDir(root)
	c.Assert(err, qt.IsNil)
	c.Assert(infos, qt.HasLen, 2)

	byName := map[string]FileInfo{}
	for _, fi := range infos {
		byName[fi.Name] = fi
	}
	c.Assert(byName["dir"].IsDir(), qt.IsTrue)
	c.Assert(byName["file"].IsDir(), qt.IsFalse)
	c.Assert(byName["file"].Path, qt.Equals, filepath.Join(root, "file"))
}

func TestRetryTransientThenSuccess(t *testing.T) {
	c := qt.New(t)
	calls := 0
	err := retry(context.Background(), "op", func() error {
		calls++
		if calls < 3 {
			return syscall.EBUSY
		}
		return nil
	})
	c.Assert(err, qt.IsNil)
	c.Assert(calls, qt.Equals, 3)
}

func TestRetryPermanentFailsFast(t *testing.T) {
	c := qt.New(t)
	calls := 0
	err := retry(context.Background(), "op", func() error {
		calls++
		return os.ErrPermission
	})
	c.Assert(err, qt.ErrorMatches, "op failed permanently: .*")
	c.Assert(errors.Is(err, os.ErrPermission), qt.IsTrue)
	c.Assert(calls, qt.Equals, 1)
}

func TestSourceChanged(t *testing.T) {
	c := qt.New(t)
	base := FileInfo{Size: 10, Inode: 5}
	c.Assert(sourceChanged(base, base), qt.IsFalse)

	grown := base
	grown.Size = 11
	c.Assert(sourceChanged(base, grown), qt.IsTrue)

	replaced := base
	replaced.Inode = 6
	c.Assert(sourceChanged(base, replaced), qt.IsTrue)
}
