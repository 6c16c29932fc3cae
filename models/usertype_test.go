package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeUserType(t *testing.T) {
	cases := map[string]string{
		"student":                  UserTypeStudent,
		"  Student ":               UserTypeStudent,
		"3rd year student":         UserTypeStudent,
		"final year":               UserTypeStudent,
		"Fresher":                  UserTypeStudent,
		"college":                  UserTypeStudent,
		"working_professional":     UserTypeWorkingProfessional,
		"Working Professional":     UserTypeWorkingProfessional,
		"working-professional":     UserTypeWorkingProfessional,
		"software engineer":        UserTypeWorkingProfessional,
		"5 years working":          UserTypeWorkingProfessional,
		"student developer intern": UserTypeStudent,
		"International developer":  UserTypeWorkingProfessional,
		"5 years experienced":      UserTypeWorkingProfessional,
		"Graduate (2024)":          UserTypeStudent,
	}
	for in, want := range cases {
		got, err := NormalizeUserType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	// matches are on whole words only
	for _, bad := range []string{"", "   ", "-_-", "astronaut", "international", "5 years", "internship seeker"} {
		_, err := NormalizeUserType(bad)
		assert.Error(t, err, bad)
	}
}

func TestProfileNormalize(t *testing.T) {
	p := UserProfile{UserType: "Professional", PrimarySkill: " Python ", Email: " a@b.co "}
	require.NoError(t, p.Normalize())

	assert.Equal(t, UserTypeWorkingProfessional, p.UserType)
	assert.Equal(t, "Python", p.PrimarySkill)
	assert.Equal(t, "Python Developer", p.TargetRole)
	assert.Equal(t, "a@b.co", p.Email)
	assert.True(t, p.HasContact())
}

func TestSubmissionNormalizeTrimsAnswers(t *testing.T) {
	s := EvaluationSubmission{Answers: []string{" Yes", "No "}, CorrectAnswers: []string{"Yes\n"}}
	s.Normalize()
	assert.Equal(t, []string{"Yes", "No"}, s.Answers)
	assert.Equal(t, []string{"Yes"}, s.CorrectAnswers)
}
