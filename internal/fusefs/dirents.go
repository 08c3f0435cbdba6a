package fusefs

import (
	"os"

	"github.com/jacobsa/fuse/fuseops"

	"github.com/delehef/fusta/internal/model"
)

// fuseDirent is our own tiny stand-in for a directory entry: inode, name,
// and whether it is a directory. OpenDir snapshots these and ReadDir
// renders them; attributes are not stored here.
type fuseDirent struct {
	ino   fuseops.InodeID
	name  string
	isDir bool
}

// topLevelChildren lists the fixed entries directly under the mount
// root, per spec.md §4.1's directory structure.
func (fs *FileSystem) topLevelChildren() []fuseDirent {
	return []fuseDirent{
		{ino: fuseops.InodeID(model.FastaDirIno), name: "fasta", isDir: true},
		{ino: fuseops.InodeID(model.SeqDirIno), name: "seqs", isDir: true},
		{ino: fuseops.InodeID(model.AppendDirIno), name: "append", isDir: true},
		{ino: fuseops.InodeID(model.GetDirIno), name: "get", isDir: true},
		{ino: fuseops.InodeID(model.InfosTxtIno), name: "infos.txt"},
		{ino: fuseops.InodeID(model.InfosCsvIno), name: "infos.csv"},
		{ino: fuseops.InodeID(model.LabelsTxtIno), name: "labels.txt"},
	}
}

// fastaDirChildren lists every fragment's .fa view (label + body).
func (fs *FileSystem) fastaDirChildren() []fuseDirent {
	frags := fs.model.Fragments()
	out := make([]fuseDirent, 0, len(frags))
	for _, f := range frags {
		fa := f.FaFile()
		out = append(out, fuseDirent{ino: fuseops.InodeID(fa.Ino), name: fa.Name})
	}
	return out
}

// seqDirChildren lists every fragment's .seq view (body only, writable).
func (fs *FileSystem) seqDirChildren() []fuseDirent {
	frags := fs.model.Fragments()
	out := make([]fuseDirent, 0, len(frags))
	for _, f := range frags {
		seq := f.SeqFile()
		out = append(out, fuseDirent{ino: fuseops.InodeID(seq.Ino), name: seq.Name})
	}
	return out
}

// appendDirChildren is always empty: append/ lists only "." and ".."
// per spec.md §4.4's directory policy, even while a write is in flight.
func (fs *FileSystem) appendDirChildren() []fuseDirent {
	return nil
}

func direntType(d fuseDirent) fuseops.DirentType {
	if d.isDir {
		return fuseops.DT_Directory
	}
	return fuseops.DT_File
}

// attrsForDir builds the fixed attributes shared by every directory.
func (fs *FileSystem) attrsForDir() fuseops.InodeAttributes {
	now := fs.clock.Now()
	return fuseops.InodeAttributes{
		Nlink:  1,
		Mode:   os.ModeDir | 0o755,
		Atime:  now,
		Mtime:  now,
		Ctime:  now,
		Crtime: now,
		Uid:    fs.uid,
		Gid:    fs.gid,
	}
}

// attrsForFile converts a model.SyntheticFile into FUSE attributes.
func (fs *FileSystem) attrsForFile(sf model.SyntheticFile) fuseops.InodeAttributes {
	return fuseops.InodeAttributes{
		Size:   sf.Size,
		Nlink:  1,
		Mode:   sf.Mode,
		Atime:  sf.Atime,
		Mtime:  sf.Mtime,
		Ctime:  sf.Ctime,
		Crtime: sf.Crtime,
		Uid:    fs.uid,
		Gid:    fs.gid,
	}
}
