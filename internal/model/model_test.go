package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jacobsa/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClock() *timeutil.SimulatedClock {
	c := &timeutil.SimulatedClock{}
	c.SetTime(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	return c
}

func writeSource(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "source.fasta")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func loadedModel(t *testing.T, content string, cache CachePolicy) *Model {
	t.Helper()
	path := writeSource(t, content)
	m := New(path, Options{Cache: cache}, newTestClock())
	require.NoError(t, m.Load())
	return m
}

func TestLoadBasicFragments(t *testing.T) {
	m := loadedModel(t, ">a\nACGT\n>b comment here\nTTTT\n", CacheFile)

	require.Len(t, m.Fragments(), 2)
	f, ok := m.FragmentByID("a")
	require.True(t, ok)
	assert.Equal(t, 4, f.DataSize())
	assert.Equal(t, "ACGT", string(f.Chunk(0, 4)))

	g, ok := m.FragmentByID("b")
	require.True(t, ok)
	assert.Equal(t, "comment here", g.Comment())
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	path := writeSource(t, ">a\nACGT\n>a\nTTTT\n")
	m := New(path, Options{Cache: CacheFile}, newTestClock())
	err := m.Load()
	assert.ErrorIs(t, err, ErrLoadError)
}

func TestResolveFragmentInodes(t *testing.T) {
	m := loadedModel(t, ">a\nACGT\n", CacheFile)
	f, _ := m.FragmentByID("a")

	rf, ok := m.Resolve(f.FaFile().Ino)
	require.True(t, ok)
	assert.True(t, rf.IsFragmentFa())

	rf, ok = m.Resolve(f.SeqFile().Ino)
	require.True(t, ok)
	assert.True(t, rf.IsFragmentSeq())

	_, ok = m.Resolve(999999)
	assert.False(t, ok)
}

func TestInsertRenameRemoveFragment(t *testing.T) {
	m := loadedModel(t, ">a\nACGT\n", CacheFile)

	f, err := m.InsertFragment("b", "new fragment")
	require.NoError(t, err)
	assert.Equal(t, 0, f.DataSize())
	assert.True(t, m.Dirty())

	_, err = m.InsertFragment("a", "")
	assert.ErrorIs(t, err, ErrAlreadyExists)

	require.NoError(t, m.RenameFragment("b", "c"))
	_, ok := m.FragmentByID("b")
	assert.False(t, ok)
	_, ok = m.FragmentByID("c")
	assert.True(t, ok)

	require.NoError(t, m.RemoveFragment("c"))
	_, ok = m.FragmentByID("c")
	assert.False(t, ok)
}

func TestRenameFragmentEvictsCollisionUnlessNoOverwrite(t *testing.T) {
	m := loadedModel(t, ">a\nACGT\n>b\nTTTT\n", CacheFile)

	require.NoError(t, m.RenameFragment("a", "b"))
	survivor, ok := m.FragmentByID("b")
	require.True(t, ok)
	assert.Equal(t, "ACGT", string(survivor.Chunk(0, 4)), "renaming over an existing id evicts it")
	assert.Len(t, m.Fragments(), 1)
}

func TestRenameFragmentDeniedOnCollisionWithNoOverwrite(t *testing.T) {
	path := writeSource(t, ">a\nACGT\n>b\nTTTT\n")
	m := New(path, Options{Cache: CacheFile, NoOverwrite: true}, newTestClock())
	require.NoError(t, m.Load())

	err := m.RenameFragment("a", "b")
	assert.ErrorIs(t, err, ErrAccessDenied)
	_, ok := m.FragmentByID("a")
	assert.True(t, ok, "a failed rename must not mutate either fragment")
}

func TestWriteSeqUpgradesBackingAndUpdatesSizes(t *testing.T) {
	m := loadedModel(t, ">a\nACGT\n", CacheFile)
	f, _ := m.FragmentByID("a")

	n, err := f.writeSeq([]byte("NNNN"), 4)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 8, f.DataSize())
	assert.Equal(t, "ACGTNNNN", string(f.Chunk(0, 8)))
	assert.Equal(t, uint64(8), f.SeqFile().Size)
}

func TestReadFaSynthesizesLabelAndBody(t *testing.T) {
	m := loadedModel(t, ">a comment\nACGT\n", CacheFile)
	f, _ := m.FragmentByID("a")

	label := f.Label()
	assert.Equal(t, ">a comment\n", label)
	out := f.readFa(0, len(label)+2)
	assert.Equal(t, label+"AC", string(out))

	out = f.readFa(len(label), 4)
	assert.Equal(t, "ACGT", string(out))
}

func TestPendingAppendMaterializesOnRelease(t *testing.T) {
	m := loadedModel(t, ">a\nACGT\n", CacheFile)

	p, err := m.CreatePendingAppend("upload.fa")
	require.NoError(t, err)
	_, err = p.Write([]byte(">b\nTTTT\n>c\nGGGG\n"), 0)
	require.NoError(t, err)

	require.NoError(t, m.ReleasePendingAppend("upload.fa"))

	_, ok := m.FragmentByID("b")
	assert.True(t, ok)
	_, ok = m.FragmentByID("c")
	assert.True(t, ok)
	assert.Len(t, m.Fragments(), 3)
}

func TestPendingAppendDuplicateIDReplacesExistingFragment(t *testing.T) {
	m := loadedModel(t, ">a\nACGT\n", CacheFile)

	p, err := m.CreatePendingAppend("upload.fa")
	require.NoError(t, err)
	_, err = p.Write([]byte(">b\nTTTT\n>a\nGGGG\n"), 0)
	require.NoError(t, err)

	require.NoError(t, m.ReleasePendingAppend("upload.fa"))

	_, ok := m.FragmentByID("b")
	assert.True(t, ok)
	a, ok := m.FragmentByID("a")
	require.True(t, ok)
	assert.Equal(t, "GGGG", string(a.Chunk(0, 4)), "the later record replaces the original fragment's body")
	assert.Len(t, m.Fragments(), 2)
}

func TestPendingAppendDuplicateIDSkippedWhenNoOverwrite(t *testing.T) {
	path := writeSource(t, ">a\nACGT\n")
	m := New(path, Options{Cache: CacheFile, NoOverwrite: true}, newTestClock())
	require.NoError(t, m.Load())

	p, err := m.CreatePendingAppend("upload.fa")
	require.NoError(t, err)
	_, err = p.Write([]byte(">b\nTTTT\n>a\nGGGG\n"), 0)
	require.NoError(t, err)

	require.NoError(t, m.ReleasePendingAppend("upload.fa"))

	_, ok := m.FragmentByID("b")
	assert.True(t, ok)
	a, ok := m.FragmentByID("a")
	require.True(t, ok)
	assert.Equal(t, "ACGT", string(a.Chunk(0, 4)), "NoOverwrite keeps the original fragment body")
	assert.Len(t, m.Fragments(), 2)
}

func TestReleasePendingAppendAbortsOnParseFailure(t *testing.T) {
	m := loadedModel(t, ">a\nACGT\n", CacheFile)

	p, err := m.CreatePendingAppend("upload.fa")
	require.NoError(t, err)
	_, err = p.Write([]byte(">b\nTTTT\n>bad\\id\nGGGG\n"), 0)
	require.NoError(t, err)

	err = m.ReleasePendingAppend("upload.fa")
	assert.ErrorIs(t, err, ErrInvalidData)
	_, ok := m.FragmentByID("b")
	assert.False(t, ok, "a bad record anywhere in the batch aborts the whole append")
	assert.Len(t, m.Fragments(), 1)
}

func TestLookupSubfragmentWholeAndRanged(t *testing.T) {
	m := loadedModel(t, ">a\nACGTACGT\n", CacheFile)

	sf, err := m.LookupSubfragment("a")
	require.NoError(t, err)
	assert.Equal(t, 0, sf.Start)
	assert.Equal(t, 8, sf.Length)

	sf2, err := m.LookupSubfragment("a:2-5")
	require.NoError(t, err)
	assert.Equal(t, 1, sf2.Start)
	assert.Equal(t, 4, sf2.Length)

	chunk, err := m.SubfragmentChunk(sf2, 0, 4)
	require.NoError(t, err)
	assert.Equal(t, "CGTA", string(chunk))
}

func TestLookupSubfragmentClampsOutOfRange(t *testing.T) {
	m := loadedModel(t, ">a\nACGT\n", CacheFile)

	sf, err := m.LookupSubfragment("a:2-100")
	require.NoError(t, err)
	assert.Equal(t, 1, sf.Start)
	assert.Equal(t, 3, sf.Length)
}

func TestLookupSubfragmentOneBasedInclusiveCoordinates(t *testing.T) {
	m := loadedModel(t, ">a\nACGT\n", CacheFile)

	sf, err := m.LookupSubfragment("a:2-3")
	require.NoError(t, err)
	chunk, err := m.SubfragmentChunk(sf, 0, sf.Length)
	require.NoError(t, err)
	assert.Equal(t, "CG", string(chunk))
}

func TestLookupSubfragmentUnknownParent(t *testing.T) {
	m := loadedModel(t, ">a\nACGT\n", CacheFile)
	_, err := m.LookupSubfragment("missing:0-1")
	assert.ErrorIs(t, err, ErrNoSuchEntry)
}

func TestConcretizeRewritesSourceAndClearsDirty(t *testing.T) {
	m := loadedModel(t, ">a\nACGT\n", CacheFile)
	_, err := m.InsertFragment("b", "")
	require.NoError(t, err)
	f, _ := m.FragmentByID("b")
	_, err = f.writeSeq([]byte("TTTT"), 0)
	require.NoError(t, err)

	require.True(t, m.Dirty())
	require.NoError(t, m.Concretize(true))
	assert.False(t, m.Dirty())

	raw, err := os.ReadFile(m.SourcePath())
	require.NoError(t, err)
	assert.Contains(t, string(raw), ">a\n")
	assert.Contains(t, string(raw), "ACGT")
	assert.Contains(t, string(raw), ">b\n")
	assert.Contains(t, string(raw), "TTTT")

	fAfter, _ := m.FragmentByID("a")
	assert.Equal(t, "ACGT", string(fAfter.Chunk(0, 4)))
}

func TestConcretizeSkipsBelowThresholdUnlessForced(t *testing.T) {
	path := writeSource(t, ">a\nACGT\n")
	m := New(path, Options{Cache: CacheMemory, ConcretizeThreshold: 1 << 20}, newTestClock())
	require.NoError(t, m.Load())

	f, _ := m.FragmentByID("a")
	_, err := f.writeSeq([]byte("TTTT"), 0)
	require.NoError(t, err)

	require.NoError(t, m.Concretize(false))
	assert.True(t, m.Dirty(), "footprint below threshold must not trigger a rewrite")

	require.NoError(t, m.Concretize(true))
	assert.False(t, m.Dirty())
}

func TestSummariesReflectFragmentSet(t *testing.T) {
	m := loadedModel(t, ">a\nACGT\n>b second\nTTTTGGGG\n", CacheFile)

	rf, ok := m.Resolve(InfosTxtIno)
	require.True(t, ok)
	assert.True(t, rf.IsBuiltin())
	assert.Contains(t, string(m.infosTxt.data), "a")
	assert.Contains(t, string(m.infosTxt.data), "2 sequences")

	assert.Contains(t, string(m.infosCsv.data), "id,name,length")
	assert.Contains(t, string(m.infosCsv.data), "b,second,8")

	assert.Equal(t, ">a\n>b second\n", string(m.labelsTxt.data))
}

func TestGroupThousands(t *testing.T) {
	assert.Equal(t, "0", groupThousands(0))
	assert.Equal(t, "123", groupThousands(123))
	assert.Equal(t, "1,234", groupThousands(1234))
	assert.Equal(t, "1,234,567", groupThousands(1234567))
	assert.Equal(t, "-1,234", groupThousands(-1234))
}
