package model

import (
	"fmt"
	"strings"

	"github.com/delehef/fusta/internal/backing"
	"github.com/delehef/fusta/internal/fastaio"
	"github.com/jacobsa/timeutil"
)

// PendingAppend accumulates bytes written into the append/ directory
// under a basename, materializing into one or more fragments on release.
type PendingAppend struct {
	Ino            uint64
	Basename       string
	buf            *backing.Buffer
	ReservedFaIno  uint64
	ReservedSeqIno uint64
}

// Subfragment is a read-only window (ParentID, Start, Length) over a
// fragment's newline-free body, identified by a synthetic inode.
type Subfragment struct {
	Ino      uint64
	ParentID string
	Start    int
	Length   int
}

// inoKind tags what ResolvedFile.Kind carries, replacing the source's
// trait-object dispatch with the tagged-variant design named in
// spec.md §9.
type inoKind int

const (
	kindDir inoKind = iota
	kindFragmentFa
	kindFragmentSeq
	kindBuiltin
	kindPending
	kindSubfragment
)

// ResolvedFile is what Model.Resolve returns: everything the dispatcher
// needs to answer getattr/read/write for a given inode, without runtime
// polymorphism.
type ResolvedFile struct {
	kind        inoKind
	dirIno      uint64
	fragment    *Fragment
	builtin     *builtinFile
	pending     *PendingAppend
	subfragment *Subfragment
}

type builtinFile struct {
	file SyntheticFile
	data []byte
}

// Model owns every fragment, pending append, and subfragment for one
// mount. It is mutated exclusively by internal/fusefs on a single
// goroutine (spec.md §5); it holds no locks.
type Model struct {
	opts       Options
	sourcePath string
	clock      timeutil.Clock

	fragments []*Fragment // insertion order, authoritative serialization order
	byID      map[string]*Fragment

	pendingAppends map[uint64]*PendingAppend
	pendingByName  map[string]*PendingAppend

	subfragByKey map[string]*Subfragment
	subfragByIno map[uint64]*Subfragment

	infosTxt  builtinFile
	infosCsv  builtinFile
	labelsTxt builtinFile

	nextIno uint64
	dirty   bool
}

// New constructs an empty Model. Load must be called to populate it from
// a FASTA source, or fragments may be inserted directly by tests.
func New(sourcePath string, opts Options, clock timeutil.Clock) *Model {
	if opts.CSVSeparator == 0 {
		opts.CSVSeparator = ','
	}
	m := &Model{
		opts:           opts,
		sourcePath:     sourcePath,
		clock:          clock,
		byID:           make(map[string]*Fragment),
		pendingAppends: make(map[uint64]*PendingAppend),
		pendingByName:  make(map[string]*PendingAppend),
		subfragByKey:   make(map[string]*Subfragment),
		subfragByIno:   make(map[uint64]*Subfragment),
		nextIno:        firstDynamicIno,
	}
	m.infosTxt.file = SyntheticFile{Ino: InfosTxtIno, Name: "infos.txt", Class: ClassBuiltin, Mode: fileMode(false)}
	m.infosCsv.file = SyntheticFile{Ino: InfosCsvIno, Name: "infos.csv", Class: ClassBuiltin, Mode: fileMode(false)}
	m.labelsTxt.file = SyntheticFile{Ino: LabelsTxtIno, Name: "labels.txt", Class: ClassBuiltin, Mode: fileMode(false)}
	m.RefreshSummaries()
	return m
}

func (m *Model) allocIno() uint64 {
	m.nextIno++
	return m.nextIno - 1
}

// SourcePath returns the FASTA file this model serializes to.
func (m *Model) SourcePath() string { return m.sourcePath }

// Dirty reports whether any mutation is pending a concretize. A fragment
// backed by a mutable Buffer has been written or resized since the last
// concretize (which rebases every backing onto a FileSlice), so it counts
// as pending too.
func (m *Model) Dirty() bool {
	if m.dirty {
		return true
	}
	for _, f := range m.fragments {
		if _, ok := f.backing.(*backing.Buffer); ok {
			return true
		}
	}
	return false
}

func (m *Model) markDirty() { m.dirty = true }

// Fragments returns the live fragment set in serialization order. Callers
// must not mutate the returned slice.
func (m *Model) Fragments() []*Fragment { return m.fragments }

////////////////////////////////////////////////////////////////////////
// Loading
////////////////////////////////////////////////////////////////////////

// Load streams sourcePath with internal/fastaio and inserts one fragment
// per descriptor, choosing the backing per m.opts.Cache. Duplicate ids are
// fatal, per spec.md §4.1.
func (m *Model) Load() error {
	withBytes := m.opts.Cache == CacheMemory
	var loadErr error

	visit := func(d fastaio.Descriptor) error {
		if err := validateID(d.ID); err != nil {
			return err
		}
		if _, exists := m.byID[d.ID]; exists {
			return fmt.Errorf("%w: duplicate id %q", ErrLoadError, d.ID)
		}

		back, err := m.makeLoadBacking(d)
		if err != nil {
			return err
		}

		f := newFragment(d.ID, d.Comment, back, m.allocIno(), m.allocIno(), m.clock.Now())
		m.fragments = append(m.fragments, f)
		m.byID[d.ID] = f
		return nil
	}

	if withBytes {
		loadErr = fastaio.ReadWithBytes(m.sourcePath, visit)
	} else {
		loadErr = fastaio.Read(m.sourcePath, visit)
	}
	if loadErr != nil {
		return fmt.Errorf("%w: %s: %v", ErrLoadError, m.sourcePath, loadErr)
	}

	m.RefreshSummaries()
	return nil
}

func (m *Model) makeLoadBacking(d fastaio.Descriptor) (backing.Backing, error) {
	switch m.opts.Cache {
	case CacheMemory:
		return backing.NewPureBuffer(d.Raw), nil
	case CacheMMap:
		mm, err := backing.NewMMap(m.sourcePath, d.Start, d.End)
		if err != nil {
			return nil, fmt.Errorf("%w: mmap %s: %v", ErrLoadError, m.sourcePath, err)
		}
		return mm, nil
	case CacheFile, "":
		return backing.NewFileSlice(m.sourcePath, d.Start, d.End), nil
	default:
		return nil, fmt.Errorf("%w: unknown cache policy %q", ErrLoadError, m.opts.Cache)
	}
}

// validateID enforces spec.md §3's id invariants: non-empty, no
// backslash and no NUL. The further characters forbidden only on
// non-UNIX systems are not checked; this module builds only on UNIX.
func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrLoadError)
	}
	if strings.ContainsAny(id, "\\\x00") {
		return fmt.Errorf("%w: id %q contains a forbidden character", ErrLoadError, id)
	}
	return nil
}

////////////////////////////////////////////////////////////////////////
// Resolution
////////////////////////////////////////////////////////////////////////

// Resolve classifies ino into a ResolvedFile, or reports it unknown.
func (m *Model) Resolve(ino uint64) (ResolvedFile, bool) {
	switch ino {
	case RootIno, FastaDirIno, SeqDirIno, AppendDirIno, GetDirIno:
		return ResolvedFile{kind: kindDir, dirIno: ino}, true
	case InfosTxtIno:
		return ResolvedFile{kind: kindBuiltin, builtin: &m.infosTxt}, true
	case InfosCsvIno:
		return ResolvedFile{kind: kindBuiltin, builtin: &m.infosCsv}, true
	case LabelsTxtIno:
		return ResolvedFile{kind: kindBuiltin, builtin: &m.labelsTxt}, true
	}

	for _, f := range m.fragments {
		if rec, isFa, ok := f.FileByIno(ino); ok {
			if isFa {
				return ResolvedFile{kind: kindFragmentFa, fragment: f}, true
			}
			_ = rec
			return ResolvedFile{kind: kindFragmentSeq, fragment: f}, true
		}
	}

	if p, ok := m.pendingAppends[ino]; ok {
		return ResolvedFile{kind: kindPending, pending: p}, true
	}

	if sf, ok := m.subfragByIno[ino]; ok {
		return ResolvedFile{kind: kindSubfragment, subfragment: sf}, true
	}

	return ResolvedFile{}, false
}

// Kind accessors used by internal/fusefs; exported as methods rather than
// fields so the tag stays read-only from outside the package.
func (r ResolvedFile) IsDir() bool         { return r.kind == kindDir }
func (r ResolvedFile) IsFragmentFa() bool  { return r.kind == kindFragmentFa }
func (r ResolvedFile) IsFragmentSeq() bool { return r.kind == kindFragmentSeq }
func (r ResolvedFile) IsBuiltin() bool     { return r.kind == kindBuiltin }
func (r ResolvedFile) IsPending() bool     { return r.kind == kindPending }
func (r ResolvedFile) IsSubfragment() bool { return r.kind == kindSubfragment }
func (r ResolvedFile) DirIno() uint64      { return r.dirIno }
func (r ResolvedFile) Fragment() *Fragment { return r.fragment }
func (r ResolvedFile) Pending() *PendingAppend { return r.pending }
func (r ResolvedFile) Subfragment() *Subfragment { return r.subfragment }

// BuiltinData returns the current bytes of a builtin summary file, or
// nil if r is not a builtin resolution.
func (r ResolvedFile) BuiltinData() []byte {
	if r.kind != kindBuiltin {
		return nil
	}
	return r.builtin.data
}

// SyntheticFile returns the attribute-bearing record for any non-dir
// resolution, synthesizing one on the fly for subfragments and pending
// appends, which have no owned SyntheticFile record.
func (r ResolvedFile) SyntheticFile() (SyntheticFile, bool) {
	switch r.kind {
	case kindFragmentFa:
		return r.fragment.FaFile(), true
	case kindFragmentSeq:
		return r.fragment.SeqFile(), true
	case kindBuiltin:
		return r.builtin.file, true
	case kindPending:
		return SyntheticFile{Ino: r.pending.Ino, Name: r.pending.Basename, Size: uint64(r.pending.buf.Len()), Mode: fileMode(true), Class: ClassPendingAppend}, true
	case kindSubfragment:
		return SubfragmentFile(r.subfragment), true
	}
	return SyntheticFile{}, false
}
