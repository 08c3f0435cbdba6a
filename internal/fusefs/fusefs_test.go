package fusefs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/timeutil"
	"github.com/stretchr/testify/require"

	"github.com/delehef/fusta/internal/fusefs"
	"github.com/delehef/fusta/internal/logger"
	"github.com/delehef/fusta/internal/model"
)

// mountFixture loads source into a Model, mounts it on a fresh temp
// directory, and returns the mount point; unmounting is registered with
// t.Cleanup, following jacobsa-fuse's mount-then-Join-on-unmount samples.
func mountFixture(t *testing.T, source string) string {
	t.Helper()

	srcPath := filepath.Join(t.TempDir(), "source.fasta")
	require.NoError(t, os.WriteFile(srcPath, []byte(source), 0o644))

	m := model.New(srcPath, model.Options{Cache: model.CacheFile}, timeutil.RealClock())
	require.NoError(t, m.Load())

	fs := fusefs.New(m, timeutil.RealClock(), logger.Logger(), false)

	dir := t.TempDir()
	mfs, err := fuse.Mount(dir, fs, &fuse.MountConfig{})
	if err != nil {
		t.Skipf("fuse.Mount unavailable in this environment: %v", err)
	}

	t.Cleanup(func() {
		fuse.Unmount(dir)
		_ = mfs.Join(context.Background())
	})

	return dir
}

func TestSeqsDirectoryListsFragmentsAndReadsRawBody(t *testing.T) {
	dir := mountFixture(t, ">a\nACGT\n>b long comment\nTTTT\nGGGG\n")

	entries, err := os.ReadDir(filepath.Join(dir, "seqs"))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.ElementsMatch(t, []string{"a.seq", "b.seq"}, names)

	a, err := os.ReadFile(filepath.Join(dir, "seqs", "a.seq"))
	require.NoError(t, err)
	require.Equal(t, "ACGT", string(a))

	b, err := os.ReadFile(filepath.Join(dir, "seqs", "b.seq"))
	require.NoError(t, err)
	require.Equal(t, "TTTT\nGGGG", string(b))
}

func TestWriteToSeqUpdatesFaAndSeqSizes(t *testing.T) {
	dir := mountFixture(t, ">a\nACGT\n")

	f, err := os.OpenFile(filepath.Join(dir, "seqs", "a.seq"), os.O_WRONLY|os.O_TRUNC, 0)
	require.NoError(t, err)
	_, err = f.WriteString("CCCC")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	st, err := os.Stat(filepath.Join(dir, "seqs", "a.seq"))
	require.NoError(t, err)
	require.EqualValues(t, 4, st.Size())

	fst, err := os.Stat(filepath.Join(dir, "fasta", "a.fa"))
	require.NoError(t, err)
	require.EqualValues(t, len(">a\n")+4, fst.Size())
}

func TestAppendMaterializesNewFragmentOnClose(t *testing.T) {
	dir := mountFixture(t, ">a\nACGT\n")

	f, err := os.Create(filepath.Join(dir, "append", "new"))
	require.NoError(t, err)
	_, err = f.WriteString(">x\nAAAA")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	body, err := os.ReadFile(filepath.Join(dir, "seqs", "x.seq"))
	require.NoError(t, err)
	require.Equal(t, "AAAA", string(body))
}

func TestRenameMovesBothFaAndSeqViews(t *testing.T) {
	dir := mountFixture(t, ">a\nACGT\n")

	require.NoError(t, os.Rename(
		filepath.Join(dir, "seqs", "a.seq"),
		filepath.Join(dir, "seqs", "renamed.seq"),
	))

	_, err := os.Stat(filepath.Join(dir, "seqs", "a.seq"))
	require.True(t, os.IsNotExist(err))

	body, err := os.ReadFile(filepath.Join(dir, "seqs", "renamed.seq"))
	require.NoError(t, err)
	require.Equal(t, "ACGT", string(body))

	_, err = os.Stat(filepath.Join(dir, "fasta", "renamed.fa"))
	require.NoError(t, err)
}

func TestGetSubfragmentReturnsOneBasedInclusiveRange(t *testing.T) {
	dir := mountFixture(t, ">a\nACGT\n")

	body, err := os.ReadFile(filepath.Join(dir, "get", "a:2-3"))
	require.NoError(t, err)
	require.Equal(t, "CG", string(body))
}

func TestWriteRejectsDisallowedCharacterWithoutMutating(t *testing.T) {
	dir := mountFixture(t, ">a\nACGT\n")

	f, err := os.OpenFile(filepath.Join(dir, "seqs", "a.seq"), os.O_WRONLY|os.O_TRUNC, 0)
	require.NoError(t, err)
	_, werr := f.WriteString("AC GT")
	_ = f.Close()
	require.Error(t, werr)

	body, err := os.ReadFile(filepath.Join(dir, "seqs", "a.seq"))
	require.NoError(t, err)
	require.Equal(t, "ACGT", string(body))
}
