// internal/workflow/attachments_test.go
package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequirementsVaryByEntityType(t *testing.T) {
	ltd := RequirementsFor(EntityPrivateLimited)
	names := make([]string, len(ltd))
	for i, r := range ltd {
		names[i] = r.Name
	}
	assert.Contains(t, names, "memorandum_of_association")

	bn := RequirementsFor(EntityBusinessName)
	for _, r := range bn {
		assert.NotEqual(t, "memorandum_of_association", r.Name)
	}

	// Common documents come first in declaration order for all types.
	assert.Equal(t, "means_of_identification", ltd[0].Name)
	assert.Equal(t, "means_of_identification", bn[0].Name)
}

func TestTrackerCompleteness(t *testing.T) {
	tracker := NewAttachmentTracker(EntityBusinessName)
	assert.False(t, tracker.IsComplete())

	require.NoError(t, tracker.Attach("means_of_identification", "s3://docs/id.pdf"))
	require.NoError(t, tracker.Attach("passport_photo", "s3://docs/photo.jpg"))
	assert.False(t, tracker.IsComplete(), "signature still missing")

	require.NoError(t, tracker.Attach("signature", "s3://docs/sig.png"))
	assert.True(t, tracker.IsComplete(), "optional utility bill must not block")
}

func TestAttachReplaceSemantics(t *testing.T) {
	tracker := NewAttachmentTracker(EntityBusinessName)
	require.NoError(t, tracker.Attach("passport_photo", "s3://docs/first.jpg"))
	require.NoError(t, tracker.Attach("passport_photo", "s3://docs/second.jpg"))

	for _, st := range tracker.States() {
		if st.Name == "passport_photo" {
			assert.True(t, st.Fulfilled)
			assert.Equal(t, "s3://docs/second.jpg", st.FileRef)
			return
		}
	}
	t.Fatal("passport_photo not tracked")
}

func TestAttachUnknownRequirement(t *testing.T) {
	tracker := NewAttachmentTracker(EntityBusinessName)
	err := tracker.Attach("tax_clearance", "s3://docs/tax.pdf")
	require.Error(t, err)
	assert.True(t, IsConsistencyError(err))
}

func TestTrackerRestore(t *testing.T) {
	tracker := NewAttachmentTracker(EntityIncorporatedTrustees)
	require.NoError(t, tracker.Attach("trustee_declaration", "s3://docs/decl.pdf"))

	restored := NewAttachmentTracker(EntityIncorporatedTrustees)
	restored.Restore(tracker.States())

	assert.Equal(t, tracker.States(), restored.States())
}
