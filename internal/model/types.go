package model

import (
	"os"
	"time"
)

// Reserved inode numbers, fixed for the lifetime of a mount.
const (
	RootIno    uint64 = 1
	FastaDirIno uint64 = 2
	SeqDirIno  uint64 = 3
	AppendDirIno uint64 = 4
	GetDirIno  uint64 = 5

	InfosTxtIno  uint64 = 10
	InfosCsvIno  uint64 = 11
	LabelsTxtIno uint64 = 12

	// firstDynamicIno is the first inode handed out by the monotonic
	// counter backing fragments, pending appends, and subfragments. It is
	// never reused within a run, per spec.md §9's note on kernel dentry
	// caches being keyed on (ino, generation).
	firstDynamicIno uint64 = 100
)

// CachePolicy selects the initial storage backing for freshly loaded
// fragments.
type CachePolicy string

const (
	CacheMMap   CachePolicy = "mmap"
	CacheFile   CachePolicy = "file"
	CacheMemory CachePolicy = "memory"
)

// Options configures a Model. It is the model package's own narrow view of
// configuration, populated by the cmd layer from internal/cfg.Config; the
// model package does not import internal/cfg; so that the core has no
// dependency on the CLI/config ambient stack.
type Options struct {
	Cache               CachePolicy
	ConcretizeThreshold int64
	CSVSeparator        rune
	NoOverwrite         bool
}

// FileClass tags which kind of virtual file a SyntheticFile or resolved
// inode represents. This tagged-variant approach replaces the source
// implementation's trait-object dispatch per spec.md §9's design note.
type FileClass int

const (
	ClassFragmentFa FileClass = iota
	ClassFragmentSeq
	ClassBuiltin
	ClassPendingAppend
	ClassSubfragment
)

// SyntheticFile is any file visible through FUSE that has no independent
// storage of its own: a fragment's .fa or .seq view, a summary file, a
// pending append, or a subfragment.
type SyntheticFile struct {
	Ino   uint64
	Name  string
	Size  uint64
	Mode  os.FileMode
	Class FileClass

	Atime, Mtime, Ctime, Crtime time.Time
}

func dirMode() os.FileMode { return os.ModeDir | 0o755 }

func fileMode(writable bool) os.FileMode {
	if writable {
		return 0o644
	}
	return 0o444
}
