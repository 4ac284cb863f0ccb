// internal/workflow/stage.go
package workflow

// Package workflow implements the stepwise CAC registration wizard: stage
// sequencing, per-stage validation, attachment tracking and final
// submission. It is UI and storage independent; handlers construct one
// Application per wizard run and services persist its snapshots.

type EntityType string

const (
	EntityBusinessName         EntityType = "business_name"
	EntityPrivateLimited       EntityType = "private_limited"
	EntityIncorporatedTrustees EntityType = "incorporated_trustees"
)

func (e EntityType) Valid() bool {
	switch e {
	case EntityBusinessName, EntityPrivateLimited, EntityIncorporatedTrustees:
		return true
	}
	return false
}

type StageID string

const (
	StageProposedNames   StageID = "proposed_names"
	StageBusinessDetails StageID = "business_details"
	StageShareCapital    StageID = "share_capital"
	StageDirectors       StageID = "directors"
	StageProprietor      StageID = "proprietor"
	StageTrustees        StageID = "trustees"
	StageContactAddress  StageID = "contact_address"
)

type FieldKind int

const (
	FieldText FieldKind = iota
	FieldEmail
	FieldNumber
)

// FieldDef describes one field of a stage. Order within the stage definition
// is the order validation errors are reported in.
type FieldDef struct {
	Name     string
	Label    string
	Kind     FieldKind
	Required bool
	Default  interface{}
}

// StageDef describes one wizard stage. Stages that collect a list of people
// (directors, trustees) declare EntryField as the slice key and EntryFields
// as the per-entry schema.
type StageDef struct {
	ID          StageID
	Title       string
	Fields      []FieldDef
	EntryField  string
	EntryLabel  string
	EntryFields []FieldDef
	MinEntries  int
}

var stageDefs = map[StageID]StageDef{
	StageProposedNames: {
		ID:    StageProposedNames,
		Title: "Proposed Business Names",
		Fields: []FieldDef{
			{Name: "name_option_1", Label: "first name option", Kind: FieldText, Required: true},
			{Name: "name_option_2", Label: "second name option", Kind: FieldText, Required: true},
		},
	},
	StageBusinessDetails: {
		ID:    StageBusinessDetails,
		Title: "Business Details",
		Fields: []FieldDef{
			{Name: "business_nature", Label: "nature of business", Kind: FieldText, Required: true},
			{Name: "business_email", Label: "business email", Kind: FieldEmail, Required: true},
			{Name: "business_phone", Label: "business phone", Kind: FieldText, Required: true},
			{Name: "commencement_date", Label: "commencement date", Kind: FieldText, Required: false},
		},
	},
	StageShareCapital: {
		ID:    StageShareCapital,
		Title: "Share Capital",
		Fields: []FieldDef{
			{Name: "authorized_share_capital", Label: "authorized share capital", Kind: FieldNumber, Required: true},
			{Name: "share_unit_price", Label: "price per share", Kind: FieldNumber, Required: true},
		},
	},
	StageDirectors: {
		ID:         StageDirectors,
		Title:      "Directors & Shareholders",
		EntryField: "directors",
		EntryLabel: "director",
		MinEntries: 1,
		EntryFields: []FieldDef{
			{Name: "full_name", Label: "full name", Kind: FieldText, Required: true},
			{Name: "email", Label: "email", Kind: FieldEmail, Required: true},
			{Name: "share_percent", Label: "shareholding percent", Kind: FieldNumber, Required: true},
		},
	},
	StageProprietor: {
		ID:    StageProprietor,
		Title: "Proprietor Details",
		Fields: []FieldDef{
			{Name: "full_name", Label: "full name", Kind: FieldText, Required: true},
			{Name: "email", Label: "email", Kind: FieldEmail, Required: true},
			{Name: "nationality", Label: "nationality", Kind: FieldText, Required: true, Default: "Nigerian"},
			{Name: "residential_address", Label: "residential address", Kind: FieldText, Required: true},
		},
	},
	StageTrustees: {
		ID:         StageTrustees,
		Title:      "Board of Trustees",
		EntryField: "trustees",
		EntryLabel: "trustee",
		MinEntries: 2,
		EntryFields: []FieldDef{
			{Name: "full_name", Label: "full name", Kind: FieldText, Required: true},
			{Name: "email", Label: "email", Kind: FieldEmail, Required: true},
		},
	},
	StageContactAddress: {
		ID:    StageContactAddress,
		Title: "Registered Address",
		Fields: []FieldDef{
			{Name: "street", Label: "street address", Kind: FieldText, Required: true},
			{Name: "city", Label: "city", Kind: FieldText, Required: true},
			{Name: "state", Label: "state", Kind: FieldText, Required: true},
			{Name: "postal_code", Label: "postal code", Kind: FieldText, Required: false},
			{Name: "country", Label: "country", Kind: FieldText, Required: true, Default: "Nigeria"},
		},
	},
}

var entityStages = map[EntityType][]StageID{
	EntityBusinessName: {
		StageProposedNames,
		StageBusinessDetails,
		StageProprietor,
		StageContactAddress,
	},
	EntityPrivateLimited: {
		StageProposedNames,
		StageBusinessDetails,
		StageShareCapital,
		StageDirectors,
		StageContactAddress,
	},
	EntityIncorporatedTrustees: {
		StageProposedNames,
		StageBusinessDetails,
		StageTrustees,
		StageContactAddress,
	},
}

// StagesFor returns the ordered stage sequence for an entity type. The
// returned slice is a copy.
func StagesFor(entityType EntityType) []StageID {
	ids, ok := entityStages[entityType]
	if !ok {
		return nil
	}
	out := make([]StageID, len(ids))
	copy(out, ids)
	return out
}

// Definition returns the stage definition for a stage identifier.
func Definition(stageID StageID) (StageDef, bool) {
	def, ok := stageDefs[stageID]
	return def, ok
}
