package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreAndRetrieve(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	handle, err := store.Store("slides.pdf", []byte("content"))
	require.NoError(t, err)
	assert.NotEmpty(t, handle)
	assert.NotContains(t, handle, "slides")

	data, err := store.Retrieve(handle)
	require.NoError(t, err)
	assert.Equal(t, []byte("content"), data)
}

func TestRetrieveRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Retrieve("../etc/passwd")
	assert.Error(t, err)
}

func TestDeleteMissingIsNoop(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Delete("missing.pdf"))
}
