// Package fusefs translates FUSE operations delivered by jacobsa/fuse into
// calls against internal/model, and serializes every mutation onto the
// single goroutine that reads ops off the kernel connection.
package fusefs

import (
	"log/slog"
	"os"

	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/timeutil"

	"github.com/delehef/fusta/internal/model"
)

// dirHandle is the state kept for an open directory: a snapshot of its
// entries taken at OpenDir time, so concurrent mutation of the model
// mid-readdir can't corrupt a single listing.
type dirHandle struct {
	ino     fuseops.InodeID
	entries []fuseDirent
}

// fileHandle is the state kept for an open file. For a file under
// append/, writes accumulate in the associated model.PendingAppend and
// materialize into fragments only on the handle's final release.
type fileHandle struct {
	ino          fuseops.InodeID
	appendName   string // non-empty only for a handle opened under append/
	createdEmpty bool
}

// FileSystem implements fuseutil-style dispatch for one mounted FASTA
// source. It holds no mutex: every exported method is only ever called
// from the single goroutine running ServeOps (see server.go), per the
// serialized-mutation requirement this filesystem must uphold.
type FileSystem struct {
	model    *model.Model
	clock    timeutil.Clock
	logger   *slog.Logger
	readOnly bool

	uid, gid uint32

	nextHandle  fuseops.HandleID
	dirHandles  map[fuseops.HandleID]*dirHandle
	fileHandles map[fuseops.HandleID]*fileHandle
}

// New constructs a FileSystem backed by m, logging through logger. When
// readOnly is set, every mutating operation is refused regardless of
// what the model would otherwise allow.
func New(m *model.Model, clock timeutil.Clock, logger *slog.Logger, readOnly bool) *FileSystem {
	return &FileSystem{
		model:       m,
		clock:       clock,
		logger:      logger,
		readOnly:    readOnly,
		uid:         uint32(os.Getuid()),
		gid:         uint32(os.Getgid()),
		dirHandles:  make(map[fuseops.HandleID]*dirHandle),
		fileHandles: make(map[fuseops.HandleID]*fileHandle),
	}
}

func (fs *FileSystem) allocHandle() fuseops.HandleID {
	fs.nextHandle++
	return fs.nextHandle
}

// Destroy concretizes one last time, forced regardless of footprint or
// cache policy. Called by the server loop when the kernel connection
// closes (unmount), per spec.md §4.4.
func (fs *FileSystem) Destroy() {
	if err := fs.model.Concretize(true); err != nil {
		fs.logger.Error("final concretize failed", "error", err)
	}
}
