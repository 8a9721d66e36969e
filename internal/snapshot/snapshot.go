// Package snapshot defines snapshot records and the on-disk naming
// convention that retention relies on to find them.
package snapshot

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

const (
	// Prefix starts every snapshot directory name.
	Prefix = "backup_"
	// TimeLayout is the second-resolution stamp following Prefix.
	TimeLayout = "20060102_150405"
	// StagingPrefix marks a snapshot that is still being written.
	StagingPrefix = ".tmp-"
)

var namePattern = regexp.MustCompile(`^backup_(\d{8}_\d{6})(?:_(\d+))?$`)

// Record represents a single finished snapshot directory.
type Record struct {
	CreatedAt time.Time
	Seq       int // same-second disambiguator, 0 when absent
	Path      string
	Size      int64 // bytes copied; 0 when unknown
	ModTime   time.Time
}

// Name is the directory name, which is also the record's identity.
func (r Record) Name() string {
	return filepath.Base(r.Path)
}

// DirName builds the directory name for a snapshot taken at t. seq > 0
// appends the collision suffix.
func DirName(t time.Time, seq int) string {
	name := Prefix + t.Format(TimeLayout)
	if seq > 0 {
		name += "_" + strconv.Itoa(seq)
	}
	return name
}

// ParseName reports whether name follows the snapshot convention and, if
// so, the timestamp and suffix encoded in it. Stamps are local time.
func ParseName(name string) (time.Time, int, bool) {
	m := namePattern.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, 0, false
	}

	t, err := time.ParseInLocation(TimeLayout, m[1], time.Local)
	if err != nil {
		return time.Time{}, 0, false
	}

	seq := 0
	if m[2] != "" {
		seq, err = strconv.Atoi(m[2])
		if err != nil || seq < 1 {
			return time.Time{}, 0, false
		}
	}
	return t, seq, true
}

// StagingName is where a snapshot named name is assembled before it is
// renamed into place.
func StagingName(name string) string {
	return StagingPrefix + name
}

// String is used in logs and notifications.
func (r Record) String() string {
	if r.Size > 0 {
		return fmt.Sprintf("%s (%d bytes)", r.Name(), r.Size)
	}
	return r.Name()
}
