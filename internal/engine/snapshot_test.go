package engine

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikolaykusch/TODOtoNOTION/internal/remote"
)

func TestFetchSnapshotIndexes(t *testing.T) {
	store := newFakeStore()
	store.seed(remote.Record{Key: "k1", ID: "aa-11", Text: "one"})
	store.seed(remote.Record{Key: "k2", ID: "bb-22", Text: "two"})

	snap := FetchSnapshot(context.Background(), store, log.New(os.Stderr, "", 0))

	require.True(t, snap.Complete)
	assert.Len(t, snap.Records, 2)
	assert.Equal(t, "one", snap.ByID["aa-11"].Text)
	assert.Equal(t, "two", snap.ByKey["k2"].Text)
}

func TestFetchSnapshotDegradesOnFailure(t *testing.T) {
	store := newFakeStore()
	store.listErr = fmt.Errorf("%w: boom", remote.ErrUnavailable)

	snap := FetchSnapshot(context.Background(), store, log.New(os.Stderr, "", 0))

	assert.False(t, snap.Complete)
	assert.Empty(t, snap.Records)
	assert.Empty(t, snap.ByID)
}

func TestFetchSnapshotExcludesInvalidIDs(t *testing.T) {
	store := newFakeStore()
	store.seed(remote.Record{Key: "k1", ID: "", Text: "no id"})
	store.seed(remote.Record{Key: "k2", ID: "NOT-HEX!", Text: "bad id"})
	store.seed(remote.Record{Key: "k3", ID: "cc-33", Text: "good"})

	snap := FetchSnapshot(context.Background(), store, log.New(os.Stderr, "", 0))

	require.True(t, snap.Complete)
	assert.Len(t, snap.Records, 3, "unmatched records stay visible")
	assert.Len(t, snap.ByKey, 3)
	require.Len(t, snap.ByID, 1, "only valid tokens join")
	assert.Equal(t, "good", snap.ByID["cc-33"].Text)
}
