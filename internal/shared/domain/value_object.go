package domain

import (
	"errors"
	"fmt"
)

// Skill is one entry of the closed care-skill vocabulary, shared by care
// givers (what they can provide) and visit templates (what a visit
// requires).
type Skill string

const (
	SkillPersonalCare         Skill = "personal_care"
	SkillMedicationManagement Skill = "medication_management"
	SkillDementiaCare         Skill = "dementia_care"
	SkillMobilityAssistance   Skill = "mobility_assistance"
	SkillMealPreparation      Skill = "meal_preparation"
	SkillCompanionship        Skill = "companionship"
	SkillHouseholdTasks       Skill = "household_tasks"
	SkillSpecializedMedical   Skill = "specialized_medical"
)

var ErrUnknownSkill = errors.New("unknown skill")

// AllSkills returns the vocabulary in canonical order.
func AllSkills() []Skill {
	return []Skill{
		SkillPersonalCare,
		SkillMedicationManagement,
		SkillDementiaCare,
		SkillMobilityAssistance,
		SkillMealPreparation,
		SkillCompanionship,
		SkillHouseholdTasks,
		SkillSpecializedMedical,
	}
}

// IsValid reports whether s belongs to the vocabulary.
func (s Skill) IsValid() bool {
	switch s {
	case SkillPersonalCare, SkillMedicationManagement, SkillDementiaCare,
		SkillMobilityAssistance, SkillMealPreparation, SkillCompanionship,
		SkillHouseholdTasks, SkillSpecializedMedical:
		return true
	}
	return false
}

func (s Skill) String() string { return string(s) }

// ParseSkills validates a list of raw skill strings.
func ParseSkills(raw []string) ([]Skill, error) {
	skills := make([]Skill, 0, len(raw))
	for _, r := range raw {
		s := Skill(r)
		if !s.IsValid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSkill, r)
		}
		skills = append(skills, s)
	}
	return skills, nil
}

// SkillStrings converts a skill list to its string form for storage.
func SkillStrings(skills []Skill) []string {
	out := make([]string, len(skills))
	for i, s := range skills {
		out[i] = string(s)
	}
	return out
}

// HasAllSkills reports whether have covers every skill in want.
func HasAllSkills(have, want []Skill) bool {
	return len(MissingSkills(have, want)) == 0
}

// MissingSkills returns the skills in want that have does not cover.
func MissingSkills(have, want []Skill) []Skill {
	var missing []Skill
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, w)
		}
	}
	return missing
}

// Gender of a care giver or care receiver.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

var ErrUnknownGender = errors.New("unknown gender")

// IsValid reports whether g is a recognized gender value.
func (g Gender) IsValid() bool {
	return g == GenderMale || g == GenderFemale
}

func (g Gender) String() string { return string(g) }

// ParseGender validates a raw gender string.
func ParseGender(raw string) (Gender, error) {
	g := Gender(raw)
	if !g.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownGender, raw)
	}
	return g, nil
}

// GenderPreference expresses which care-giver gender a receiver accepts.
type GenderPreference string

const (
	PreferMale   GenderPreference = "Male"
	PreferFemale GenderPreference = "Female"
	NoPreference GenderPreference = "No Preference"
)

var ErrUnknownGenderPreference = errors.New("unknown gender preference")

// IsValid reports whether p is a recognized preference value.
func (p GenderPreference) IsValid() bool {
	return p == PreferMale || p == PreferFemale || p == NoPreference
}

func (p GenderPreference) String() string { return string(p) }

// Accepts reports whether a care giver of gender g satisfies the
// preference.
func (p GenderPreference) Accepts(g Gender) bool {
	return p == NoPreference || string(p) == string(g)
}

// ParseGenderPreference validates a raw preference string. Empty input
// means no preference.
func ParseGenderPreference(raw string) (GenderPreference, error) {
	if raw == "" {
		return NoPreference, nil
	}
	p := GenderPreference(raw)
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownGenderPreference, raw)
	}
	return p, nil
}
