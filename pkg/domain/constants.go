package domain

// Field names shared by the engine and the products.
const (
	// FieldSelfAge is the derived age of the "self" member, exposed to persona rules.
	FieldSelfAge = "selfAge"

	// RelationSelf is the relation tag of the policy holder.
	RelationSelf = "self"
)

// DefaultSkipLimit caps the number of consecutive silent skips.
const DefaultSkipLimit = 64
