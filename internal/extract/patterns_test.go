package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmails(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"plain", "reach us at info@acme.com today", []string{"info@acme.com"}},
		{"deduped case-insensitive", "Info@Acme.com info@acme.com", []string{"info@acme.com"}},
		{"multiple in order", "a@x.com then b@y.org", []string{"a@x.com", "b@y.org"}},
		{"placeholder filtered", "mail user@example.com", nil},
		{"noreply filtered", "noreply@acme.com", nil},
		{"asset false positive", "logo@2x.png", nil},
		{"embedded in markup", `<a href="mailto:sales@acme.co.uk">mail</a>`, []string{"sales@acme.co.uk"}},
		{"none", "no contact details here", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Emails(tt.text))
		})
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		minDigits int
		want      string
		ok        bool
	}{
		{"us format", "call (231) 456-7890 now", 10, "(231) 456-7890", true},
		{"international", "+30 2310 123456", 10, "+30 2310 123456", true},
		{"too few digits", "room 1234", 10, "", false},
		{"repeated digit junk", "0000000000", 10, "", false},
		{"fragments too short", "ref 123 45 67", 10, "", false},
		{"lower threshold", "210-1234", 7, "210-1234", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Phone(tt.text, tt.minDigits)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleanWebsiteURL(t *testing.T) {
	tests := []struct {
		name string
		href string
		want string
	}{
		{"strips query", "https://acme.com/?utm_source=maps", "https://acme.com"},
		{"strips fragment", "https://acme.com/contact#top", "https://acme.com/contact"},
		{"trailing slash", "https://acme.com/", "https://acme.com"},
		{"social excluded", "https://www.facebook.com/acme", ""},
		{"directory excluded", "https://business.google.com/acme", ""},
		{"empty", "  ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanWebsiteURL(tt.href))
		})
	}
}

func TestMergeEmails(t *testing.T) {
	got := MergeEmails([]string{"B@x.com", "a@x.com"}, []string{"a@x.com", "c@x.com"})
	assert.Equal(t, []string{"a@x.com", "b@x.com", "c@x.com"}, got)

	assert.Nil(t, MergeEmails(nil, nil))
}
