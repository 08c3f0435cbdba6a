package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateWriteBytesAcceptsPermittedCharset(t *testing.T) {
	require.NoError(t, validateWriteBytes([]byte("ACGTacgt09\n-_.+=")))
}

func TestValidateWriteBytesRejectsDisallowedByte(t *testing.T) {
	err := validateWriteBytes([]byte("ACGT GGGG"))
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestWriteSeqRejectsInvalidByteWithoutMutating(t *testing.T) {
	m := loadedModel(t, ">a\nACGT\n", CacheFile)
	f, _ := m.FragmentByID("a")

	_, err := f.writeSeq([]byte("NN NN"), 0)
	assert.ErrorIs(t, err, ErrInvalidData)
	assert.Equal(t, "ACGT", string(f.Chunk(0, 4)), "a rejected write must leave the body untouched")
}
