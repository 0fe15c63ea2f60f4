package domain

// Member is one insured party of a journey.
type Member struct {
	Relation string `json:"relation"`
	Age      int    `json:"age"`
}

// Members decodes the "members" field of a state.
func Members(s *State) []Member {
	raw := s.Get("members")
	if raw == nil {
		return nil
	}
	if typed, ok := raw.([]Member); ok {
		return typed
	}
	var out []Member
	if err := Decode(raw, &out); err != nil {
		return nil
	}
	return out
}

// SelfMember returns the member with the "self" relation.
func SelfMember(s *State) (Member, bool) {
	for _, m := range Members(s) {
		if m.Relation == RelationSelf {
			return m, true
		}
	}
	return Member{}, false
}
