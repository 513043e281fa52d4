package csvparser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecipients(t *testing.T) {
	csv := strings.Join([]string{
		"Email,Name,Certificate,Course,Score",
		"ann@test,Ann,c1,Go 101,95",
		"bo@test,Bo,,Go 101,88",
	}, "\n")

	recipients, err := ParseRecipients(strings.NewReader(csv), 0)
	require.NoError(t, err)
	require.Len(t, recipients, 2)

	assert.Equal(t, "ann@test", recipients[0].Email)
	assert.Equal(t, "Ann", recipients[0].Name)
	assert.Equal(t, "c1", recipients[0].CertificateRef)
	assert.Equal(t, map[string]string{"Course": "Go 101", "Score": "95"}, recipients[0].Fields)

	assert.Empty(t, recipients[1].CertificateRef)
}

func TestParseRecipientsHeaderCaseInsensitive(t *testing.T) {
	csv := "EMAIL,name\nann@test,Ann\n"

	recipients, err := ParseRecipients(strings.NewReader(csv), 0)
	require.NoError(t, err)
	require.Len(t, recipients, 1)
	assert.Equal(t, "Ann", recipients[0].Name)
	assert.Nil(t, recipients[0].Fields)
}

func TestParseRecipientsSkipsBadRows(t *testing.T) {
	csv := strings.Join([]string{
		"Email,Name",
		",Empty Email",
		"ok@test,Ok",
	}, "\n")

	recipients, err := ParseRecipients(strings.NewReader(csv), 0)
	require.NoError(t, err)
	require.Len(t, recipients, 1)
	assert.Equal(t, "ok@test", recipients[0].Email)
}

func TestParseRecipientsMaxRows(t *testing.T) {
	csv := "Email\na@test\nb@test\nc@test\n"

	recipients, err := ParseRecipients(strings.NewReader(csv), 2)
	require.NoError(t, err)
	assert.Len(t, recipients, 2)
}

func TestParseRecipientsErrors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"no email column", "Name,Course\nAnn,Go\n"},
		{"header only", "Email,Name\n"},
		{"empty input", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecipients(strings.NewReader(tt.csv), 0)
			assert.Error(t, err)
		})
	}
}
