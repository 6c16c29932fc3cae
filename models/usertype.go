package models

import (
	"fmt"
	"strings"
	"unicode"
)

// userTypeSynonyms maps whole words of free-form input to a canonical user
// type. Checked in order, first match wins: "student developer" stays a
// student and a bare "final year" only matches the last entry.
var userTypeSynonyms = []struct {
	words []string
	value string
}{
	{[]string{"student", "students", "fresher", "freshers", "college", "graduate", "undergraduate", "intern", "interns"}, UserTypeStudent},
	{[]string{"professional", "professionals", "working", "employed", "engineer", "engineers", "developer", "developers", "experienced"}, UserTypeWorkingProfessional},
	{[]string{"year"}, UserTypeStudent}, // "3rd year", "final year"; not "5 years"
}

// userTypeWords splits lowercase input on anything that is not a letter or
// digit, so "working_professional" and "working-professional" both yield
// two words.
func userTypeWords(s string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		words[w] = true
	}
	return words
}

// NormalizeUserType canonicalizes free-form user type text to one of the two
// supported values.
func NormalizeUserType(raw string) (string, error) {
	words := userTypeWords(raw)
	if len(words) == 0 {
		return "", fmt.Errorf("user_type is required")
	}
	for _, syn := range userTypeSynonyms {
		for _, w := range syn.words {
			if words[w] {
				return syn.value, nil
			}
		}
	}
	return "", fmt.Errorf("unrecognized user_type %q", raw)
}

// Normalize fills defaults and canonicalizes the profile in place.
func (p *UserProfile) Normalize() error {
	userType, err := NormalizeUserType(p.UserType)
	if err != nil {
		return err
	}
	p.UserType = userType
	p.PrimarySkill = strings.TrimSpace(p.PrimarySkill)
	p.TargetRole = strings.TrimSpace(p.TargetRole)
	if p.TargetRole == "" {
		p.TargetRole = p.PrimarySkill + " Developer"
	}
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	return nil
}
