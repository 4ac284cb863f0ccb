// internal/workflow/store_test.go
package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreRoundTrip(t *testing.T) {
	store := NewStageStore()
	data := StageData{"name_option_1": "Ada Ventures", "name_option_2": "Obi Trading"}

	store.Set(StageProposedNames, data)
	assert.Equal(t, data, store.Get(StageProposedNames))
}

func TestStoreSetIsIdempotent(t *testing.T) {
	store := NewStageStore()
	data := StageData{"city": "Enugu", "state": "Enugu"}

	store.Set(StageContactAddress, data)
	store.Set(StageContactAddress, data)
	assert.Equal(t, data, store.Get(StageContactAddress))
}

func TestStoreUnvisitedStageReturnsDefaults(t *testing.T) {
	store := NewStageStore()

	got := store.Get(StageContactAddress)
	assert.Equal(t, "Nigeria", got["country"])
	_, hasCity := got["city"]
	assert.False(t, hasCity)
}

func TestStoreSetDoesNotTouchOtherStages(t *testing.T) {
	store := NewStageStore()
	names := StageData{"name_option_1": "Ada Ventures", "name_option_2": "Obi Trading"}
	store.Set(StageProposedNames, names)

	store.Set(StageContactAddress, StageData{"city": "Ibadan"})
	assert.Equal(t, names, store.Get(StageProposedNames))
}

func TestStoreCopiesInAndOut(t *testing.T) {
	store := NewStageStore()
	data := StageData{"city": "Kano"}
	store.Set(StageContactAddress, data)

	// Mutating the caller's map or a returned map must not leak.
	data["city"] = "changed"
	got := store.Get(StageContactAddress)
	assert.Equal(t, "Kano", got["city"])

	got["city"] = "also changed"
	assert.Equal(t, "Kano", store.Get(StageContactAddress)["city"])
}

func TestStoreSnapshotRestore(t *testing.T) {
	store := NewStageStore()
	store.Set(StageProposedNames, StageData{"name_option_1": "Zuri Foods", "name_option_2": "Zuri Meals"})
	store.Set(StageContactAddress, StageData{"city": "Abuja", "state": "FCT"})

	restored := NewStageStore()
	restored.Restore(store.Snapshot())

	assert.Equal(t, store.Get(StageProposedNames), restored.Get(StageProposedNames))
	assert.Equal(t, store.Get(StageContactAddress), restored.Get(StageContactAddress))
	assert.False(t, restored.Has(StageDirectors))
}
