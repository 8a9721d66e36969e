package snapshot

import (
	"sort"
	"strings"

	"github.com/raoulx24/snapkeep/internal/fs"
)

// FromFileInfo builds a Record from a directory entry. The second result is
// false for anything that is not a conforming snapshot directory.
func FromFileInfo(info fs.FileInfo) (Record, bool) {
	if !info.IsDir() {
		return Record{}, false
	}
	t, seq, ok := ParseName(info.Name)
	if !ok {
		return Record{}, false
	}
	return Record{
		CreatedAt: t,
		Seq:       seq,
		Path:      info.Path,
		ModTime:   info.MTime,
	}, true
}

// List returns the conforming snapshots under root, oldest first by
// modification time with ties broken by name. Non-conforming entries are
// skipped.
func List(fsys fs.FS, root string) ([]Record, error) {
	infos, err := fsys.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var out []Record
	for _, info := range infos {
		if rec, ok := FromFileInfo(info); ok {
			out = append(out, rec)
		}
	}
	SortOldestFirst(out)
	return out, nil
}

// SortOldestFirst orders by modification time, then by name.
func SortOldestFirst(recs []Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		if !recs[i].ModTime.Equal(recs[j].ModTime) {
			return recs[i].ModTime.Before(recs[j].ModTime)
		}
		return less(recs[i], recs[j])
	})
}

// less compares names so that "backup_X_10" sorts after "backup_X_9".
func less(a, b Record) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	if a.Seq != b.Seq {
		return a.Seq < b.Seq
	}
	return strings.Compare(a.Name(), b.Name()) < 0
}

// IsStaging reports whether name is a leftover staging directory.
func IsStaging(name string) bool {
	if !strings.HasPrefix(name, StagingPrefix) {
		return false
	}
	_, _, ok := ParseName(strings.TrimPrefix(name, StagingPrefix))
	return ok
}
