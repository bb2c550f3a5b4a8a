package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikolaykusch/TODOtoNOTION/internal/marker"
	"github.com/nikolaykusch/TODOtoNOTION/internal/remote"
)

func TestPlanPushClassification(t *testing.T) {
	local := []marker.Record{
		{ID: "new-1", Text: "brand new", Kind: marker.KindTodo, File: "a.go", Line: 0},
		{ID: "same-2", Text: "unchanged", Kind: marker.KindBug, File: "a.go", Line: 1},
		{ID: "drift-3", Text: "new wording", Kind: marker.KindTodo, File: "a.go", Line: 2},
	}
	remoteByID := map[string]remote.Record{
		"same-2":  {Key: "k2", ID: "same-2", Text: "unchanged", Kind: marker.KindBug, File: "a.go", Line: 1},
		"drift-3": {Key: "k3", ID: "drift-3", Text: "old wording", Kind: marker.KindTodo, File: "a.go", Line: 2},
	}

	ops := PlanPush(local, nil, remoteByID)
	require.Len(t, ops, 2)

	assert.Equal(t, OpCreate, ops[0].Kind)
	assert.Equal(t, "new-1", ops[0].Record.ID)
	assert.Equal(t, OpUpdate, ops[1].Kind)
	assert.Equal(t, "k3", ops[1].RemoteKey)
}

// Join correctness as a pure property: any id present in the remote index
// is never classified CREATE.
func TestPlanPushNeverCreatesJoinedRecords(t *testing.T) {
	local := []marker.Record{
		{ID: "aa-11", Text: "anything at all", Kind: marker.KindHack, File: "z.go", Line: 9},
	}
	remoteByID := map[string]remote.Record{
		"aa-11": {Key: "k1", ID: "aa-11", Text: "totally different", Kind: marker.KindTodo},
	}

	for _, op := range PlanPush(local, nil, remoteByID) {
		assert.NotEqual(t, OpCreate, op.Kind)
	}
}

// Unassigned records are excluded from classification entirely.
func TestPlanPushSkipsUnassigned(t *testing.T) {
	local := []marker.Record{{Text: "not stamped yet", Kind: marker.KindTodo}}

	ops := PlanPush(local, nil, map[string]remote.Record{})
	assert.Empty(t, ops)
}

func TestPlanPushArchive(t *testing.T) {
	cached := map[string]marker.Record{
		"gone-1": {ID: "gone-1", Text: "was here"},
	}
	remoteByID := map[string]remote.Record{
		"gone-1": {Key: "k1", ID: "gone-1", Text: "was here", Status: marker.StatusOpen},
	}

	ops := PlanPush(nil, cached, remoteByID)
	require.Len(t, ops, 1)
	assert.Equal(t, OpArchive, ops[0].Kind)
	assert.Equal(t, "k1", ops[0].RemoteKey)
}

func TestPlanPushArchiveSkipsAlreadyArchived(t *testing.T) {
	cached := map[string]marker.Record{"gone-1": {ID: "gone-1"}}
	remoteByID := map[string]remote.Record{
		"gone-1": {Key: "k1", ID: "gone-1", Status: marker.StatusArchived},
	}

	assert.Empty(t, PlanPush(nil, cached, remoteByID))
}

func TestPlanPushArchiveSkipsUnknownRemote(t *testing.T) {
	// Cached id with no remote counterpart: nothing to archive.
	cached := map[string]marker.Record{"gone-1": {ID: "gone-1"}}

	assert.Empty(t, PlanPush(nil, cached, map[string]remote.Record{}))
}

func TestPlanPullClassification(t *testing.T) {
	remoteByID := map[string]remote.Record{
		"del-1":   {Key: "k1", ID: "del-1", Status: marker.StatusArchived},
		"upd-2":   {Key: "k2", ID: "upd-2", Text: "remote wording", Status: marker.StatusOpen},
		"same-3":  {Key: "k3", ID: "same-3", Text: "stable", Status: marker.StatusOpen},
		"noloc-4": {Key: "k4", ID: "noloc-4", Text: "remote only", Status: marker.StatusOpen},
	}
	localByID := map[string]marker.Record{
		"del-1":  {ID: "del-1", Line: 4, Raw: "// TODO: doomed [id:del-1]", Text: "doomed"},
		"upd-2":  {ID: "upd-2", Line: 1, Raw: "// TODO: local wording [id:upd-2]", Text: "local wording"},
		"same-3": {ID: "same-3", Line: 2, Raw: "// TODO: stable [id:same-3]", Text: "stable"},
	}

	ops := PlanPull(remoteByID, localByID)
	require.Len(t, ops, 2)

	// Ordered by line.
	assert.Equal(t, OpLocalUpdate, ops[0].Kind)
	assert.Equal(t, 1, ops[0].Line)
	assert.Equal(t, "// TODO: remote wording [id:upd-2]", ops[0].NewText)

	assert.Equal(t, OpLocalDelete, ops[1].Kind)
	assert.Equal(t, 4, ops[1].Line)
}

func TestOpKindString(t *testing.T) {
	assert.Equal(t, "create", OpCreate.String())
	assert.Equal(t, "archive", OpArchive.String())
	assert.Equal(t, "local-delete", OpLocalDelete.String())
}
