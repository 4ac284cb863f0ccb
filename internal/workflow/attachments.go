// internal/workflow/attachments.go
package workflow

// AttachmentRequirement declares one document an entity type must (or may)
// supply. Composition is static per entity type.
type AttachmentRequirement struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

// AttachmentState is a requirement plus its fulfilment record.
type AttachmentState struct {
	AttachmentRequirement
	Fulfilled bool   `json:"fulfilled"`
	FileRef   string `json:"file_ref,omitempty"`
}

var commonRequirements = []AttachmentRequirement{
	{Name: "means_of_identification", Label: "Means of identification", Required: true},
	{Name: "passport_photo", Label: "Passport photograph", Required: true},
	{Name: "signature", Label: "Specimen signature", Required: true},
	{Name: "utility_bill", Label: "Utility bill", Required: false},
}

var entityRequirements = map[EntityType][]AttachmentRequirement{
	EntityPrivateLimited: {
		{Name: "memorandum_of_association", Label: "Memorandum and articles of association", Required: true},
	},
	EntityIncorporatedTrustees: {
		{Name: "trustee_declaration", Label: "Trustee declaration form", Required: true},
		{Name: "constitution", Label: "Organization constitution", Required: false},
	},
}

// RequirementsFor returns the ordered attachment requirements for an entity
// type: the common set first, then entity-specific documents.
func RequirementsFor(entityType EntityType) []AttachmentRequirement {
	out := make([]AttachmentRequirement, 0, len(commonRequirements)+2)
	out = append(out, commonRequirements...)
	out = append(out, entityRequirements[entityType]...)
	return out
}

// AttachmentTracker records which required documents have been supplied.
// Actual file storage belongs to the storage collaborator; only the opaque
// reference it returned is held here.
type AttachmentTracker struct {
	order   []string
	records map[string]*AttachmentState
}

func NewAttachmentTracker(entityType EntityType) *AttachmentTracker {
	t := &AttachmentTracker{records: make(map[string]*AttachmentState)}
	for _, req := range RequirementsFor(entityType) {
		t.order = append(t.order, req.Name)
		t.records[req.Name] = &AttachmentState{AttachmentRequirement: req}
	}
	return t
}

// Attach records fulfilment of a named requirement, replacing any prior
// attachment under the same name.
func (t *AttachmentTracker) Attach(name, fileRef string) error {
	rec, ok := t.records[name]
	if !ok {
		return consistencyErr("Attach", "no attachment requirement named %q", name)
	}
	rec.Fulfilled = true
	rec.FileRef = fileRef
	return nil
}

// IsComplete reports whether every required document has been supplied.
func (t *AttachmentTracker) IsComplete() bool {
	for _, rec := range t.records {
		if rec.Required && !rec.Fulfilled {
			return false
		}
	}
	return true
}

// States returns fulfilment records in declaration order.
func (t *AttachmentTracker) States() []AttachmentState {
	out := make([]AttachmentState, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, *t.records[name])
	}
	return out
}

// Restore replays persisted fulfilment records into the tracker. Unknown
// names are ignored; the requirement set is configuration, not data.
func (t *AttachmentTracker) Restore(states []AttachmentState) {
	for _, st := range states {
		if rec, ok := t.records[st.Name]; ok && st.Fulfilled {
			rec.Fulfilled = true
			rec.FileRef = st.FileRef
		}
	}
}
