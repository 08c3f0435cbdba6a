package fusefs

import (
	"io"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
)

// ServeOps implements fuse.Server. Unlike fuseutil.NewFileSystemServer,
// which spawns a goroutine per op, this reads and handles one op at a
// time on the calling goroutine so every mutation of the underlying
// model is strictly serialized, per spec.md §5.
func (fs *FileSystem) ServeOps(c *fuse.Connection) {
	for {
		_, op, err := c.ReadOp()
		if err == io.EOF {
			break
		}
		if err != nil {
			panic(err)
		}

		fs.handleOp(op)
	}

	fs.Destroy()
}

func (fs *FileSystem) handleOp(op interface{}) {
	switch typed := op.(type) {
	default:
		if r, ok := op.(interface{ Respond(error) }); ok {
			r.Respond(fuse.ENOSYS)
		}

	case *fuseops.InitOp:
		fs.Init(typed)
	case *fuseops.LookUpInodeOp:
		fs.LookUpInode(typed)
	case *fuseops.GetInodeAttributesOp:
		fs.GetInodeAttributes(typed)
	case *fuseops.SetInodeAttributesOp:
		fs.SetInodeAttributes(typed)
	case *fuseops.ForgetInodeOp:
		fs.ForgetInode(typed)
	case *fuseops.MkDirOp:
		fs.MkDir(typed)
	case *fuseops.CreateFileOp:
		fs.CreateFile(typed)
	case *fuseops.RmDirOp:
		fs.RmDir(typed)
	case *fuseops.UnlinkOp:
		fs.Unlink(typed)
	case *fuseops.OpenDirOp:
		fs.OpenDir(typed)
	case *fuseops.ReadDirOp:
		fs.ReadDir(typed)
	case *fuseops.ReleaseDirHandleOp:
		fs.ReleaseDirHandle(typed)
	case *fuseops.OpenFileOp:
		fs.OpenFile(typed)
	case *fuseops.ReadFileOp:
		fs.ReadFile(typed)
	case *fuseops.WriteFileOp:
		fs.WriteFile(typed)
	case *fuseops.SyncFileOp:
		fs.SyncFile(typed)
	case *fuseops.FlushFileOp:
		fs.FlushFile(typed)
	case *fuseops.ReleaseFileHandleOp:
		fs.ReleaseFileHandle(typed)
	case *fuseops.RenameOp:
		fs.Rename(typed)
	}
}
