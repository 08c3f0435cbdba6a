// Package backing implements the four storage variants a Fragment's bytes
// can live in: a byte range in the source file, an owned mutable buffer, an
// owned immutable buffer already known to be newline-free, and a
// memory-mapped region of the source file.
package backing

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Backing is the uniform read interface over the four storage variants.
// Implementations never panic on a well-formed request; the caller (the
// fusefs dispatcher, via the model) is responsible for never asking for an
// out-of-range chunk.
type Backing interface {
	// Len returns the number of bytes currently held.
	Len() int

	// Snapshot returns the full contents as a freshly allocated copy.
	Snapshot() []byte

	// Chunk returns the bytes at [offset, offset+size), intersected with
	// [0, Len()). offset is clamped to Len(); a request entirely past the
	// end returns an empty slice.
	Chunk(offset, size int) []byte

	// PureChunk behaves like Chunk but with '\n' elided from the logical
	// byte stream before slicing, so the window always lands on
	// biological characters.
	PureChunk(offset, size int) []byte
}

// Mutable is implemented only by Buffer: the sole variant that supports
// in-place writes and growth.
type Mutable interface {
	Backing
	WriteAt(data []byte, offset int)
	ExtendTo(size int)
}

func clampWindow(length, offset, size int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > length {
		offset = length
	}
	end := offset + size
	if end > length {
		end = length
	}
	if end < offset {
		end = offset
	}
	return offset, end
}

func sliceChunk(b []byte, offset, size int) []byte {
	start, end := clampWindow(len(b), offset, size)
	out := make([]byte, end-start)
	copy(out, b[start:end])
	return out
}

// stripNewlines returns a copy of b with every '\n' byte removed.
func stripNewlines(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		if c != '\n' {
			out = append(out, c)
		}
	}
	return out
}

////////////////////////////////////////////////////////////////////////
// FileSlice
////////////////////////////////////////////////////////////////////////

// FileSlice addresses a byte range [Start, End) within a named file on
// disk. The file is opened, sought, and read on every access; it holds no
// open handle between calls.
type FileSlice struct {
	Path  string
	Start int
	End   int
}

func NewFileSlice(path string, start, end int) *FileSlice {
	return &FileSlice{Path: path, Start: start, End: end}
}

func (f *FileSlice) Len() int {
	if f.End < f.Start {
		return 0
	}
	return f.End - f.Start
}

func (f *FileSlice) readRange(start, end int) ([]byte, error) {
	if end <= start {
		return []byte{}, nil
	}
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("backing: open %s: %w", f.Path, err)
	}
	defer file.Close()

	buf := make([]byte, end-start)
	n, err := file.ReadAt(buf, int64(f.Start+start))
	if err != nil && n != len(buf) {
		return nil, fmt.Errorf("backing: read %s: %w", f.Path, err)
	}
	return buf[:n], nil
}

func (f *FileSlice) Snapshot() []byte {
	b, err := f.readRange(0, f.Len())
	if err != nil {
		// Any I/O failure here is surfaced to the caller as an empty read
		// and the error itself is dropped; Chunk and PureChunk behave the
		// same way. The concretizer reads FileSlice bodies through
		// SnapshotErr instead, so a failed read aborts the rewrite.
		return nil
	}
	return b
}

func (f *FileSlice) Chunk(offset, size int) []byte {
	start, end := clampWindow(f.Len(), offset, size)
	b, err := f.readRange(start, end)
	if err != nil {
		return nil
	}
	return b
}

func (f *FileSlice) PureChunk(offset, size int) []byte {
	return sliceChunk(stripNewlines(f.Snapshot()), offset, size)
}

// SnapshotErr is Snapshot but surfaces the I/O error instead of swallowing
// it, for callers (the concretizer) that must distinguish "empty" from
// "read failed". The bytes are returned as stored, newlines included.
func (f *FileSlice) SnapshotErr() ([]byte, error) {
	return f.readRange(0, f.Len())
}

////////////////////////////////////////////////////////////////////////
// Buffer
////////////////////////////////////////////////////////////////////////

// Buffer is mutable, owned bytes. It is the only variant that supports
// WriteAt and ExtendTo, and is what every other variant upgrades to on the
// first write.
type Buffer struct {
	bytes []byte
}

func NewBuffer(initial []byte) *Buffer {
	b := &Buffer{bytes: make([]byte, len(initial))}
	copy(b.bytes, initial)
	return b
}

func (b *Buffer) Len() int { return len(b.bytes) }

func (b *Buffer) Snapshot() []byte {
	out := make([]byte, len(b.bytes))
	copy(out, b.bytes)
	return out
}

func (b *Buffer) Chunk(offset, size int) []byte {
	return sliceChunk(b.bytes, offset, size)
}

func (b *Buffer) PureChunk(offset, size int) []byte {
	return sliceChunk(stripNewlines(b.bytes), offset, size)
}

// ExtendTo zero-fills the buffer so that Len() >= size. It is a no-op if
// the buffer is already at least that long.
func (b *Buffer) ExtendTo(size int) {
	if size <= len(b.bytes) {
		return
	}
	grown := make([]byte, size)
	copy(grown, b.bytes)
	b.bytes = grown
}

// WriteAt splices data into place starting at offset, extending the buffer
// first if necessary. The caller is responsible for validating data.
func (b *Buffer) WriteAt(data []byte, offset int) {
	end := offset + len(data)
	if end > len(b.bytes) {
		b.ExtendTo(end)
	}
	copy(b.bytes[offset:end], data)
}

// Truncate resets the buffer to length n, zero-filling if n is larger than
// the current length or dropping the tail if smaller.
func (b *Buffer) Truncate(n int) {
	if n <= len(b.bytes) {
		b.bytes = b.bytes[:n]
		return
	}
	b.ExtendTo(n)
}

////////////////////////////////////////////////////////////////////////
// PureBuffer
////////////////////////////////////////////////////////////////////////

// PureBuffer is immutable, owned bytes already known to be free of '\n'.
// It is produced only by the in-memory cache policy at load time and by
// finalized appends, where the reader has already stripped newlines while
// building the fragment's raw bytes. Because it is already pure,
// PureChunk never needs to filter.
type PureBuffer struct {
	bytes []byte
}

func NewPureBuffer(b []byte) *PureBuffer {
	cp := make([]byte, len(b))
	copy(cp, b)
	return &PureBuffer{bytes: cp}
}

func (p *PureBuffer) Len() int { return len(p.bytes) }

func (p *PureBuffer) Snapshot() []byte {
	out := make([]byte, len(p.bytes))
	copy(out, p.bytes)
	return out
}

func (p *PureBuffer) Chunk(offset, size int) []byte {
	return sliceChunk(p.bytes, offset, size)
}

func (p *PureBuffer) PureChunk(offset, size int) []byte {
	return sliceChunk(p.bytes, offset, size)
}

////////////////////////////////////////////////////////////////////////
// MMap
////////////////////////////////////////////////////////////////////////

// MMap is a read-only memory-mapped slice [Start, End) of the source
// file. It must be released with Close when the fragment's backing is
// replaced (on concretize) so the mapping does not outlive the file
// generation it was created against.
type MMap struct {
	region []byte
	start  int
	end    int
}

// NewMMap maps the whole file at path and returns an MMap windowed to
// [start, end).
func NewMMap(path string, start, end int) (*MMap, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("backing: open %s for mmap: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("backing: stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		return &MMap{region: nil, start: start, end: end}, nil
	}

	region, err := unix.Mmap(int(file.Fd()), 0, int(info.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("backing: mmap %s: %w", path, err)
	}

	return &MMap{region: region, start: start, end: end}, nil
}

func (m *MMap) Len() int {
	if m.end < m.start {
		return 0
	}
	return m.end - m.start
}

func (m *MMap) window() []byte {
	if m.region == nil {
		return nil
	}
	lo := m.start
	hi := m.end
	if lo > len(m.region) {
		lo = len(m.region)
	}
	if hi > len(m.region) {
		hi = len(m.region)
	}
	if hi < lo {
		hi = lo
	}
	return m.region[lo:hi]
}

func (m *MMap) Snapshot() []byte {
	w := m.window()
	out := make([]byte, len(w))
	copy(out, w)
	return out
}

func (m *MMap) Chunk(offset, size int) []byte {
	return sliceChunk(m.window(), offset, size)
}

func (m *MMap) PureChunk(offset, size int) []byte {
	return sliceChunk(stripNewlines(m.window()), offset, size)
}

// Close unmaps the region. Safe to call on a zero-length MMap.
func (m *MMap) Close() error {
	if m.region == nil {
		return nil
	}
	err := unix.Munmap(m.region)
	m.region = nil
	return err
}
