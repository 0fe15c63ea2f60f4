package domain

// Persona tags the audience a script variant is written for.
type Persona string

const (
	PersonaGeneral           Persona = "general"
	PersonaYoungIndividual   Persona = "young_individual"
	PersonaYoungFamily       Persona = "young_family"
	PersonaFamilyWithSeniors Persona = "family_with_seniors"
	PersonaSeniorCare        Persona = "senior_care"
	PersonaSwitcher          Persona = "switcher"
	PersonaFirstTimeOwner    Persona = "first_time_owner"
	PersonaRenewingOwner     Persona = "renewing_owner"
	PersonaBreadwinner       Persona = "breadwinner"
	PersonaEarlyPlanner      Persona = "early_planner"
)

// Personas lists the closed enumeration of persona tags.
var Personas = []Persona{
	PersonaGeneral,
	PersonaYoungIndividual,
	PersonaYoungFamily,
	PersonaFamilyWithSeniors,
	PersonaSeniorCare,
	PersonaSwitcher,
	PersonaFirstTimeOwner,
	PersonaRenewingOwner,
	PersonaBreadwinner,
	PersonaEarlyPlanner,
}

// Valid reports whether p belongs to the enumeration.
func (p Persona) Valid() bool {
	for _, known := range Personas {
		if p == known {
			return true
		}
	}
	return false
}
