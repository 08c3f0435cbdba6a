package model

import (
	"io"
	"strings"
	"time"

	"github.com/delehef/fusta/internal/backing"
)

// Fragment represents one sequence and its two synthetic file views. A
// Fragment owns its backing and its two SyntheticFile records; see
// spec.md §3 for the invariants maintained across every mutation.
type Fragment struct {
	id      string
	comment string
	backing backing.Backing

	fa  SyntheticFile
	seq SyntheticFile

	// faSynthBuf stitches the label and leading body bytes for reads that
	// straddle the header; grown on demand, never shrunk by a read, but
	// discarded whenever the backing is replaced or the body is written or
	// resized (see DESIGN.md's open question decision).
	faSynthBuf []byte
}

// newEmptyBacking backs a brand-new fragment created by InsertFragment
// with an empty, writable Buffer.
func newEmptyBacking() backing.Backing {
	return backing.NewBuffer(nil)
}

func newFragment(id, comment string, back backing.Backing, faIno, seqIno uint64, now time.Time) *Fragment {
	f := &Fragment{id: id, comment: comment, backing: back}
	f.fa = SyntheticFile{Ino: faIno, Class: ClassFragmentFa, Mode: fileMode(false), Atime: now, Mtime: now, Ctime: now, Crtime: now}
	f.seq = SyntheticFile{Ino: seqIno, Class: ClassFragmentSeq, Mode: fileMode(true), Atime: now, Mtime: now, Ctime: now, Crtime: now}
	f.refreshNames()
	f.refreshSizes()
	return f
}

func (f *Fragment) ID() string      { return f.id }
func (f *Fragment) Comment() string { return f.comment }

// FaFile and SeqFile expose copies of the current synthetic-file records.
func (f *Fragment) FaFile() SyntheticFile  { return f.fa }
func (f *Fragment) SeqFile() SyntheticFile { return f.seq }

func (f *Fragment) refreshNames() {
	f.fa.Name = f.id + ".fa"
	f.seq.Name = f.id + ".seq"
}

func (f *Fragment) refreshSizes() {
	f.fa.Size = uint64(f.LabelSize() + f.DataSize())
	f.seq.Size = uint64(f.DataSize())
}

// RefreshSyntheticFiles restores invariant (I2) of spec.md §3. Must be
// called after every mutation, before the next FUSE reply.
func (f *Fragment) RefreshSyntheticFiles() {
	f.refreshNames()
	f.refreshSizes()
}

// DataSize is the size of the body as stored in the backing (may include
// embedded newlines for a multi-line on-disk body).
func (f *Fragment) DataSize() int { return f.backing.Len() }

// Label renders the canonical header line: ">id[ comment]\n".
func (f *Fragment) Label() string {
	var b strings.Builder
	b.WriteByte('>')
	b.WriteString(f.id)
	if f.comment != "" {
		b.WriteByte(' ')
		b.WriteString(f.comment)
	}
	b.WriteByte('\n')
	return b.String()
}

func (f *Fragment) LabelSize() int { return len(f.Label()) }

// Chunk delegates to the backing.
func (f *Fragment) Chunk(offset, size int) []byte { return f.backing.Chunk(offset, size) }

// PureChunk delegates to the backing, always newline-free.
func (f *Fragment) PureChunk(offset, size int) []byte { return f.backing.PureChunk(offset, size) }

// FileByName returns the .fa or .seq record matching name, if any.
func (f *Fragment) FileByName(name string) (SyntheticFile, bool) {
	switch name {
	case f.fa.Name:
		return f.fa, true
	case f.seq.Name:
		return f.seq, true
	}
	return SyntheticFile{}, false
}

// FileByIno returns the .fa or .seq record matching ino, if any, along
// with whether it was the .fa (true) or .seq (false) record.
func (f *Fragment) FileByIno(ino uint64) (SyntheticFile, bool, bool) {
	if f.fa.Ino == ino {
		return f.fa, true, true
	}
	if f.seq.Ino == ino {
		return f.seq, false, true
	}
	return SyntheticFile{}, false, false
}

// rename updates the id, the synthetic file names, and the .fa size (the
// label's length may have changed). The caller must call
// RefreshSyntheticFiles (rename does so itself for convenience).
func (f *Fragment) rename(newID string) {
	f.id = newID
	f.discardSynthesis()
	f.RefreshSyntheticFiles()
}

// discardSynthesis drops the .fa synthesis buffer; called whenever the
// backing is replaced wholesale (write-upgrade, concretize) and on every
// rename, write, and truncation, so a stale synthesis can never outlive
// the bytes it was built from.
func (f *Fragment) discardSynthesis() {
	f.faSynthBuf = nil
}

// ensureBuffer upgrades the backing to a *backing.Buffer if it is not
// already one, copying the current bytes across. Returns the (possibly
// newly created) mutable buffer.
func (f *Fragment) ensureBuffer() *backing.Buffer {
	if buf, ok := f.backing.(*backing.Buffer); ok {
		return buf
	}
	buf := backing.NewBuffer(f.backing.Snapshot())
	f.backing = buf
	f.discardSynthesis()
	return buf
}

// setSize truncates or zero-extends the body to exactly size bytes,
// upgrading the backing to a Buffer first if needed (setattr on .seq).
func (f *Fragment) setSize(size int) {
	buf := f.ensureBuffer()
	buf.Truncate(size)
	f.discardSynthesis()
	f.RefreshSyntheticFiles()
}

// writeSeq splices data into the body at offset, upgrading the backing to
// a Buffer and extending as necessary. Returns the number of bytes
// written (always len(data); FUSE write semantics never short-write).
// Validates the FASTA-permissible character set before touching the
// backing, so a rejected write leaves the fragment unchanged.
func (f *Fragment) writeSeq(data []byte, offset int) (int, error) {
	if err := validateWriteBytes(data); err != nil {
		return 0, err
	}
	buf := f.ensureBuffer()
	end := offset + len(data)
	if end > buf.Len() {
		buf.ExtendTo(end)
	}
	buf.WriteAt(data, offset)
	f.discardSynthesis()
	f.RefreshSyntheticFiles()
	return len(data), nil
}

// setBacking replaces the backing wholesale, as the concretizer does when
// rebasing onto a fresh FileSlice after a rewrite. The outgoing backing
// is closed first if it holds a resource (an MMap's mapped region) that
// would otherwise leak.
func (f *Fragment) setBacking(b backing.Backing) {
	if closer, ok := f.backing.(io.Closer); ok {
		closer.Close()
	}
	f.backing = b
	f.discardSynthesis()
	f.RefreshSyntheticFiles()
}

// readFa serves a read against the .fa view: label || body. See spec.md
// §4.4's read dispatch for the straddling-read synthesis rule.
func (f *Fragment) readFa(offset, size int) []byte {
	labelSize := f.LabelSize()
	if offset >= labelSize {
		return f.Chunk(offset-labelSize, size)
	}

	bodySize := f.DataSize()
	want := size
	if want > bodySize {
		want = bodySize
	}
	needed := labelSize + want

	if len(f.faSynthBuf) < needed {
		buf := make([]byte, 0, needed)
		buf = append(buf, f.Label()...)
		buf = append(buf, f.Chunk(0, want)...)
		f.faSynthBuf = buf
	}

	end := offset + size
	if end > len(f.faSynthBuf) {
		end = len(f.faSynthBuf)
	}
	if end < offset {
		end = offset
	}
	out := make([]byte, end-offset)
	copy(out, f.faSynthBuf[offset:end])
	return out
}

// ReadFa serves a read against this fragment's .fa view at offset/size.
func (f *Fragment) ReadFa(offset, size int) []byte { return f.readFa(offset, size) }

// WriteSeq writes data at offset into this fragment's body, upgrading the
// backing to a mutable Buffer if necessary. Always writes the whole of
// data, matching FUSE's no-short-write contract, unless data contains a
// byte outside the permitted FASTA character set, in which case nothing
// is written and an error wrapping ErrInvalidData is returned.
func (f *Fragment) WriteSeq(data []byte, offset int) (int, error) { return f.writeSeq(data, offset) }

// SetSize truncates or zero-extends this fragment's body to exactly size
// bytes, as required by setattr(2) on its .seq view.
func (f *Fragment) SetSize(size int) { f.setSize(size) }

// Rename changes this fragment's id. The caller is responsible for
// updating any index keyed on the old id.
func (f *Fragment) Rename(newID string) { f.rename(newID) }

