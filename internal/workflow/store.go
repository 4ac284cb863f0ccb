// internal/workflow/store.go
package workflow

// StageData is the loosely-typed value bag one stage collects. Shapes are
// the Field Validator's concern; the store accepts anything.
type StageData map[string]interface{}

func (d StageData) clone() StageData {
	if d == nil {
		return nil
	}
	out := make(StageData, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// StageStore holds the partially-completed application keyed by stage. It
// survives forward and backward navigation; nothing here validates.
type StageStore struct {
	data map[StageID]StageData
}

func NewStageStore() *StageStore {
	return &StageStore{data: make(map[StageID]StageData)}
}

// Get returns a copy of the stored values for a stage, or the stage's
// schema defaults if the stage has never been visited.
func (s *StageStore) Get(stageID StageID) StageData {
	if stored, ok := s.data[stageID]; ok {
		return stored.clone()
	}
	return defaultsFor(stageID)
}

// Set overwrites the stored values for a stage. Other stages are untouched.
// The input is copied so later caller mutation cannot leak into the store.
func (s *StageStore) Set(stageID StageID, data StageData) {
	s.data[stageID] = data.clone()
}

// Has reports whether a stage has ever been stored.
func (s *StageStore) Has(stageID StageID) bool {
	_, ok := s.data[stageID]
	return ok
}

// Snapshot returns a deep-enough copy of every stored stage, for
// persistence and for the final submission payload.
func (s *StageStore) Snapshot() map[StageID]StageData {
	out := make(map[StageID]StageData, len(s.data))
	for id, data := range s.data {
		out[id] = data.clone()
	}
	return out
}

// Restore replaces the store contents from a persisted snapshot.
func (s *StageStore) Restore(snapshot map[StageID]StageData) {
	s.data = make(map[StageID]StageData, len(snapshot))
	for id, data := range snapshot {
		s.data[id] = data.clone()
	}
}

func defaultsFor(stageID StageID) StageData {
	def, ok := stageDefs[stageID]
	if !ok {
		return StageData{}
	}
	data := StageData{}
	for _, f := range def.Fields {
		if f.Default != nil {
			data[f.Name] = f.Default
		}
	}
	if def.EntryField != "" {
		data[def.EntryField] = []interface{}{}
	}
	return data
}
