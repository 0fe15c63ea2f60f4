package health

import (
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/persona"
)

// Rules classify a health journey, most specific first.
var Rules = []persona.Rule{
	{Persona: domain.PersonaSwitcher, When: `existingCover == "yes"`},
	{Persona: domain.PersonaSeniorCare, When: `selfKnown && selfAge >= 60`},
	{Persona: domain.PersonaFamilyWithSeniors, When: `hasParents && seniorCount > 0`},
	{Persona: domain.PersonaYoungFamily, When: `hasSpouse || hasChildren`},
	{Persona: domain.PersonaYoungIndividual, When: `memberCount == 1 && selfKnown && selfAge < 35`},
}

// Classifier builds the health persona classifier.
func Classifier(opts ...persona.Option) (*persona.Classifier, error) {
	return persona.NewClassifier([]string{FieldMembers, FieldCoverageFor, FieldExistingCover}, Rules, opts...)
}
