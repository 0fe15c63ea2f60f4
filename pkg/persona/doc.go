// Package persona classifies a journey into the persona tag its scripts are
// written for.
//
// Rules are expr-lang expressions evaluated top-down over an environment built
// from an allow-list of state fields plus values derived from the member
// composition (memberCount, hasSpouse, hasChildren, hasParents, seniorCount,
// selfKnown, selfAge).
package persona
