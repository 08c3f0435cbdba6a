package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/delehef/fusta/internal/backing"
)

// Concretize rewrites the FASTA source in place: every fragment's label
// and body are serialized, in their current order, to a fresh temporary
// file which is then renamed over the source, making the write visible
// atomically to any other reader of the mount point (spec.md §4.8).
//
// Every fragment's backing is then unconditionally rebased onto a fresh
// FileSlice into the new file, regardless of the mount's cache policy,
// so no stale mapping or buffer references the file generation that was
// just replaced.
//
// Unless forced, the rewrite is skipped when the in-memory footprint of
// dirty fragments hasn't crossed the configured threshold, or when the
// cache policy isn't RAM-backed to begin with — rewriting on every
// mutation of a disk- or mmap-backed mount would thrash the source file
// for no benefit, since those backings are already mostly on disk.
func (m *Model) Concretize(forced bool) error {
	if !m.Dirty() {
		return nil
	}
	if !forced && (int64(m.bufferFootprint()) < m.opts.ConcretizeThreshold || m.opts.Cache != CacheMemory) {
		return nil
	}

	dir := filepath.Dir(m.sourcePath)
	tmp, err := os.CreateTemp(dir, ".fusta-concretize-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIOError, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	offset := 0
	ranges := make([]struct{ start, end int }, len(m.fragments))

	for i, f := range m.fragments {
		label := f.Label()
		if _, err := tmp.Write([]byte(label)); err != nil {
			return fmt.Errorf("%w: %v", ErrIOError, err)
		}
		offset += len(label)

		var body []byte
		if fsl, ok := f.backing.(*backing.FileSlice); ok {
			raw, err := fsl.SnapshotErr()
			if err != nil {
				return fmt.Errorf("%w: %v", ErrIOError, err)
			}
			body = backing.NewBuffer(raw).PureChunk(0, len(raw))
		} else {
			body = f.PureChunk(0, f.DataSize())
		}
		if _, err := tmp.Write(body); err != nil {
			return fmt.Errorf("%w: %v", ErrIOError, err)
		}
		ranges[i] = struct{ start, end int }{offset, offset + len(body)}
		offset += len(body)

		if _, err := tmp.Write([]byte("\n")); err != nil {
			return fmt.Errorf("%w: %v", ErrIOError, err)
		}
		offset++
	}

	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("%w: %v", ErrIOError, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrIOError, err)
	}
	closed := tmp
	tmp = nil

	if err := os.Rename(tmpPath, m.sourcePath); err != nil {
		tmp = closed
		return fmt.Errorf("%w: %v", ErrIOError, err)
	}

	for i, f := range m.fragments {
		r := ranges[i]
		f.setBacking(backing.NewFileSlice(m.sourcePath, r.start, r.end))
	}

	m.dirty = false
	return nil
}

// bufferFootprint sums the size of every fragment currently backed by a
// mutable in-memory Buffer, the quantity spec.md §4.6 tests against
// ConcretizeThreshold.
func (m *Model) bufferFootprint() int {
	total := 0
	for _, f := range m.fragments {
		if buf, ok := f.backing.(*backing.Buffer); ok {
			total += buf.Len()
		}
	}
	return total
}
