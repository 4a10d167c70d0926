package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/costing-engine/costing"
	coststore "github.com/warp/costing-engine/costing/store"
)

func TestMemory_CreateVersion_DuplicateNumber_Conflicts(t *testing.T) {
	m := coststore.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.SaveSheet(ctx, costing.Sheet{ID: "sh-1", Style: "DNM-5021"}))
	require.NoError(t, m.CreateVersion(ctx, costing.Version{ID: "v-1", SheetID: "sh-1", Number: 2, Status: costing.StatusDraft}))

	// Two racing revisions both computed number 2; the late insert loses.
	err := m.CreateVersion(ctx, costing.Version{ID: "v-2", SheetID: "sh-1", Number: 2, Status: costing.StatusDraft})
	assert.ErrorIs(t, err, costing.ErrConcurrentModification)

	versions, err := m.VersionsBySheet(ctx, "sh-1")
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}

func TestMemory_CreateVersion_SameNumberDifferentSheets(t *testing.T) {
	m := coststore.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.CreateVersion(ctx, costing.Version{ID: "v-1", SheetID: "sh-1", Number: 1, Status: costing.StatusDraft}))
	assert.NoError(t, m.CreateVersion(ctx, costing.Version{ID: "v-2", SheetID: "sh-2", Number: 1, Status: costing.StatusDraft}))
}
