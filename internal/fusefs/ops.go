package fusefs

import (
	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"

	"github.com/delehef/fusta/internal/model"
)

// Init handles the single op sent when the kernel establishes the
// connection. Nothing in this filesystem needs negotiated capabilities.
func (fs *FileSystem) Init(op *fuseops.InitOp) {
	op.Respond(nil)
}

// entryFor builds a ChildInodeEntry for ino by resolving it through the
// model; the fixed directories (root, fasta/, seqs/, append/, get/) get
// the shared directory attributes.
func (fs *FileSystem) entryFor(ino uint64) (fuseops.ChildInodeEntry, error) {
	resolved, ok := fs.model.Resolve(ino)
	if !ok {
		return fuseops.ChildInodeEntry{}, model.ErrNoSuchEntry
	}

	if resolved.IsDir() {
		return fuseops.ChildInodeEntry{
			Child:      fuseops.InodeID(ino),
			Generation: 1,
			Attributes: fs.attrsForDir(),
		}, nil
	}

	sf, _ := resolved.SyntheticFile()
	return fuseops.ChildInodeEntry{
		Child:      fuseops.InodeID(sf.Ino),
		Generation: 1,
		Attributes: fs.attrsForFile(sf),
	}, nil
}

// LookUpInode resolves one path component under the root or one of the
// four fixed directories, per spec.md §4.1's namespace layout.
func (fs *FileSystem) LookUpInode(op *fuseops.LookUpInodeOp) {
	var err error
	defer func() { op.Respond(translate(err)) }()

	var ino uint64
	switch uint64(op.Parent) {
	case model.RootIno:
		for _, d := range fs.topLevelChildren() {
			if d.name == op.Name {
				ino = uint64(d.ino)
			}
		}
		if ino == 0 {
			err = model.ErrNoSuchEntry
			return
		}

	case model.FastaDirIno:
		f, sf, ok := fs.model.FragmentFileByName(op.Name)
		if !ok || sf.Class != model.ClassFragmentFa {
			err = model.ErrNoSuchEntry
			return
		}
		_ = f
		ino = sf.Ino

	case model.SeqDirIno:
		f, sf, ok := fs.model.FragmentFileByName(op.Name)
		if !ok || sf.Class != model.ClassFragmentSeq {
			err = model.ErrNoSuchEntry
			return
		}
		_ = f
		ino = sf.Ino

	case model.AppendDirIno:
		p, ok := fs.model.PendingByName(op.Name)
		if !ok {
			err = model.ErrNoSuchEntry
			return
		}
		ino = p.Ino

	case model.GetDirIno:
		sf, lookupErr := fs.model.LookupSubfragment(op.Name)
		if lookupErr != nil {
			err = lookupErr
			return
		}
		ino = sf.Ino

	default:
		err = model.ErrNoSuchEntry
		return
	}

	op.Entry, err = fs.entryFor(ino)
}

// GetInodeAttributes answers getattr for any inode this filesystem has
// ever handed out.
func (fs *FileSystem) GetInodeAttributes(op *fuseops.GetInodeAttributesOp) {
	var err error
	defer func() { op.Respond(translate(err)) }()

	resolved, ok := fs.model.Resolve(uint64(op.Inode))
	if !ok {
		err = model.ErrNoSuchEntry
		return
	}
	if resolved.IsDir() {
		op.Attributes = fs.attrsForDir()
		return
	}
	sf, _ := resolved.SyntheticFile()
	op.Attributes = fs.attrsForFile(sf)
}

// SetInodeAttributes answers setattr. Only a fragment's .seq view and a
// file open under append/ accept a size change (truncate/zero-extend); a
// size change on any other inode is refused. Other requested attributes
// are not applied; the current ones are returned, per spec.md §4.4.
func (fs *FileSystem) SetInodeAttributes(op *fuseops.SetInodeAttributesOp) {
	var err error
	defer func() { op.Respond(translate(err)) }()

	resolved, ok := fs.model.Resolve(uint64(op.Inode))
	if !ok {
		err = model.ErrNoSuchEntry
		return
	}

	if op.Size != nil {
		if fs.readOnly {
			err = model.ErrAccessDenied
			return
		}
		switch {
		case resolved.IsFragmentSeq():
			resolved.Fragment().SetSize(int(*op.Size))
			fs.model.Concretize(false)
		case resolved.IsPending():
			resolved.Pending().SetSize(int(*op.Size))
		default:
			err = model.ErrAccessDenied
			return
		}
	}

	if resolved.IsDir() {
		op.Attributes = fs.attrsForDir()
		return
	}
	sf, _ := resolved.SyntheticFile()
	op.Attributes = fs.attrsForFile(sf)
}

// ForgetInode is a no-op: every inode this filesystem hands out stays
// valid for the life of the mount, so there is nothing to release.
func (fs *FileSystem) ForgetInode(op *fuseops.ForgetInodeOp) {
	op.Respond(nil)
}

// MkDir is unsupported: every directory in this namespace is one of the
// four fixed directories spec.md §4.1 names, none of which users create.
func (fs *FileSystem) MkDir(op *fuseops.MkDirOp) {
	op.Respond(fuse.ENOSYS)
}

// RmDir is unsupported for the same reason as MkDir.
func (fs *FileSystem) RmDir(op *fuseops.RmDirOp) {
	op.Respond(fuse.ENOSYS)
}

// CreateFile implements mknod/open(O_CREAT). Allowed only under append/,
// per spec.md §4.4's directory policy: fasta/ and seqs/ are read/write
// views onto existing fragments, not a place to mint new ones.
func (fs *FileSystem) CreateFile(op *fuseops.CreateFileOp) {
	var err error
	defer func() { op.Respond(translate(err)) }()

	if fs.readOnly {
		err = model.ErrAccessDenied
		return
	}

	var ino uint64
	switch uint64(op.Parent) {
	case model.AppendDirIno:
		p, createErr := fs.model.CreatePendingAppend(op.Name)
		if createErr != nil {
			err = createErr
			return
		}
		ino = p.Ino

	default:
		err = model.ErrAccessDenied
		return
	}

	op.Entry, err = fs.entryFor(ino)
	if err != nil {
		return
	}
	handle := fs.allocHandle()
	op.Handle = handle
	fh := &fileHandle{ino: fuseops.InodeID(ino), createdEmpty: true}
	if uint64(op.Parent) == model.AppendDirIno {
		fh.appendName = op.Name
	}
	fs.fileHandles[handle] = fh
}

// stripFragmentExtension validates and strips the .fa/.seq suffix a
// rename/unlink under fasta/ or seqs/ must carry, returning the bare fragment id.
func stripFragmentExtension(name string) (string, bool) {
	for _, suffix := range []string{".fa", ".seq"} {
		if len(name) > len(suffix) && name[len(name)-len(suffix):] == suffix {
			return name[:len(name)-len(suffix)], true
		}
	}
	return "", false
}

// Unlink implements rm. Allowed only under fasta/ or seqs/, per spec.md
// §4.4's directory policy; append/ and every other directory refuse it.
func (fs *FileSystem) Unlink(op *fuseops.UnlinkOp) {
	var err error
	defer func() { op.Respond(translate(err)) }()

	if fs.readOnly {
		err = model.ErrAccessDenied
		return
	}

	switch uint64(op.Parent) {
	case model.FastaDirIno, model.SeqDirIno:
		id, ok := stripFragmentExtension(op.Name)
		if !ok {
			err = model.ErrNoSuchEntry
			return
		}
		if removeErr := fs.model.RemoveFragment(id); removeErr != nil {
			err = removeErr
			return
		}
		fs.model.Concretize(false)

	default:
		err = model.ErrAccessDenied
	}
}

// Rename implements mv, used to rename a fragment in place by renaming
// both its .fa and .seq entries (the kernel issues one RenameOp per
// directory it touches; each is independently valid since a fragment's
// id is shared across both views). Cross-directory moves are denied.
func (fs *FileSystem) Rename(op *fuseops.RenameOp) {
	var err error
	defer func() { op.Respond(translate(err)) }()

	if fs.readOnly {
		err = model.ErrAccessDenied
		return
	}

	if uint64(op.OldParent) != uint64(op.NewParent) {
		err = model.ErrAccessDenied
		return
	}

	switch uint64(op.OldParent) {
	case model.FastaDirIno, model.SeqDirIno:
		oldID, ok1 := stripFragmentExtension(op.OldName)
		newID, ok2 := stripFragmentExtension(op.NewName)
		if !ok1 || !ok2 {
			err = model.ErrInvalidData
			return
		}
		if renameErr := fs.model.RenameFragment(oldID, newID); renameErr != nil {
			err = renameErr
			return
		}
		fs.model.Concretize(false)

	default:
		err = model.ErrAccessDenied
	}
}

////////////////////////////////////////////////////////////////////////
// Directory handles
////////////////////////////////////////////////////////////////////////

// OpenDir snapshots the directory's children at open time, per
// dirHandle's documented rationale.
func (fs *FileSystem) OpenDir(op *fuseops.OpenDirOp) {
	var err error
	defer func() { op.Respond(translate(err)) }()

	var entries []fuseDirent
	switch uint64(op.Inode) {
	case model.RootIno:
		entries = fs.topLevelChildren()
	case model.FastaDirIno:
		entries = fs.fastaDirChildren()
	case model.SeqDirIno:
		entries = fs.seqDirChildren()
	case model.AppendDirIno:
		entries = fs.appendDirChildren()
	case model.GetDirIno:
		entries = nil // get/ has no stable listing; entries exist only on lookup
	default:
		err = model.ErrNoSuchEntry
		return
	}

	handle := fs.allocHandle()
	fs.dirHandles[handle] = &dirHandle{ino: op.Inode, entries: entries}
	op.Handle = handle
}

// ReadDir serves one page of a directory previously snapshotted by
// OpenDir, following hellofs's offset/size pagination pattern.
func (fs *FileSystem) ReadDir(op *fuseops.ReadDirOp) {
	var err error
	defer func() { op.Respond(translate(err)) }()

	dh, ok := fs.dirHandles[op.Handle]
	if !ok {
		err = model.ErrNoSuchEntry
		return
	}

	if int(op.Offset) > len(dh.entries) {
		err = model.ErrInvalidData
		return
	}

	for i, e := range dh.entries[op.Offset:] {
		d := fuseops.Dirent{
			Offset: op.Offset + fuseops.DirOffset(i) + 1,
			Inode:  e.ino,
			Name:   e.name,
			Type:   direntType(e),
		}
		tmp := make([]byte, op.Size-len(op.Data))
		n := fuseutil.WriteDirent(tmp, d)
		if n == 0 {
			break
		}
		op.Data = append(op.Data, tmp[:n]...)
	}
}

// ReleaseDirHandle drops a directory handle's snapshot.
func (fs *FileSystem) ReleaseDirHandle(op *fuseops.ReleaseDirHandleOp) {
	delete(fs.dirHandles, op.Handle)
	op.Respond(nil)
}

////////////////////////////////////////////////////////////////////////
// File handles
////////////////////////////////////////////////////////////////////////

// OpenFile mints a handle for any already-resolved inode. Creation
// (mknod) is handled separately by CreateFile.
func (fs *FileSystem) OpenFile(op *fuseops.OpenFileOp) {
	var err error
	defer func() { op.Respond(translate(err)) }()

	if _, ok := fs.model.Resolve(uint64(op.Inode)); !ok {
		err = model.ErrNoSuchEntry
		return
	}

	handle := fs.allocHandle()
	fs.fileHandles[handle] = &fileHandle{ino: op.Inode}
	op.Handle = handle
}

// ReadFile dispatches a read by the resolved inode's kind, per spec.md
// §4.4's read-path table.
func (fs *FileSystem) ReadFile(op *fuseops.ReadFileOp) {
	var err error
	defer func() { op.Respond(translate(err)) }()

	if h, ok := fs.fileHandles[op.Handle]; ok && h.appendName != "" {
		if p, ok := fs.model.PendingByName(h.appendName); ok {
			op.Data = p.Chunk(int(op.Offset), op.Size)
			return
		}
	}

	resolved, ok := fs.model.Resolve(uint64(op.Inode))
	if !ok {
		err = model.ErrNoSuchEntry
		return
	}

	switch {
	case resolved.IsFragmentFa():
		op.Data = resolved.Fragment().ReadFa(int(op.Offset), op.Size)
	case resolved.IsFragmentSeq():
		op.Data = resolved.Fragment().Chunk(int(op.Offset), op.Size)
	case resolved.IsBuiltin():
		op.Data = sliceChunk(resolved.BuiltinData(), int(op.Offset), op.Size)
	case resolved.IsPending():
		op.Data = resolved.Pending().Chunk(int(op.Offset), op.Size)
	case resolved.IsSubfragment():
		data, subErr := fs.model.SubfragmentChunk(resolved.Subfragment(), int(op.Offset), op.Size)
		if subErr != nil {
			err = subErr
			return
		}
		op.Data = data
	default:
		err = model.ErrIOError
	}
}

// WriteFile dispatches a write by the resolved inode's kind. Only a
// fragment's .seq view and a file open under append/ accept writes.
func (fs *FileSystem) WriteFile(op *fuseops.WriteFileOp) {
	var err error
	defer func() { op.Respond(translate(err)) }()

	if fs.readOnly {
		err = model.ErrAccessDenied
		return
	}

	if h, ok := fs.fileHandles[op.Handle]; ok && h.appendName != "" {
		p, ok := fs.model.PendingByName(h.appendName)
		if !ok {
			err = model.ErrNoSuchEntry
			return
		}
		_, err = p.Write(op.Data, int(op.Offset))
		return
	}

	resolved, ok := fs.model.Resolve(uint64(op.Inode))
	if !ok {
		err = model.ErrNoSuchEntry
		return
	}
	if !resolved.IsFragmentSeq() {
		err = model.ErrAccessDenied
		return
	}
	if _, writeErr := resolved.Fragment().WriteSeq(op.Data, int(op.Offset)); writeErr != nil {
		err = writeErr
		return
	}
	fs.model.Concretize(false)
}

// SyncFile attempts a non-forced concretize, so fsync(2) rewrites the
// source only when Model.Concretize's footprint and cache-policy test
// lets it.
func (fs *FileSystem) SyncFile(op *fuseops.SyncFileOp) {
	var err error
	defer func() { op.Respond(translate(err)) }()

	if cErr := fs.model.Concretize(false); cErr != nil {
		err = cErr
	}
}

// FlushFile is a no-op: flush(2) fires on every close(2) of a duplicated
// handle, not just the last one, so it is not the right point to
// materialize a pending append. That happens once, in
// ReleaseFileHandle, when the kernel confirms the handle is truly gone.
func (fs *FileSystem) FlushFile(op *fuseops.FlushFileOp) {
	op.Respond(nil)
}

// ReleaseFileHandle drops a file handle. If it was open under append/,
// its accumulated bytes are parsed and integrated into the fragment set
// now, per spec.md §4.4's release contract; a parse failure is logged
// since release(2) has no way to report it back to the caller.
func (fs *FileSystem) ReleaseFileHandle(op *fuseops.ReleaseFileHandleOp) {
	if h, ok := fs.fileHandles[op.Handle]; ok {
		if h.appendName != "" {
			if relErr := fs.model.ReleasePendingAppend(h.appendName); relErr != nil {
				fs.logger.Error("append release failed", "name", h.appendName, "error", relErr)
			} else {
				fs.model.Concretize(false)
			}
		}
		delete(fs.fileHandles, op.Handle)
	}
	op.Respond(nil)
}

// sliceChunk bounds-checks a plain byte slice read, the same contract
// internal/backing's Chunk implementations uphold.
func sliceChunk(data []byte, offset, size int) []byte {
	if offset >= len(data) {
		return nil
	}
	end := offset + size
	if end > len(data) {
		end = len(data)
	}
	return data[offset:end]
}
