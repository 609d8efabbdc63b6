package fingerprint_test

import (
	"testing"

	"github.com/oatrack/oadb/pkg/fingerprint"
	"github.com/stretchr/testify/assert"
)

func TestPlain(t *testing.T) {
	tests := []struct {
		msg      string
		title    string
		surnames []string
		want     string
	}{
		{
			msg:      "basic",
			title:    "On the Origin of Species",
			surnames: []string{"Darwin"},
			want:     "on-the-origin-of-species/darwin",
		},
		{
			msg:      "punctuation stripped",
			title:    "Graphs, trees & (other) structures!",
			surnames: []string{"Knuth"},
			want:     "graphs-trees-other-structures/knuth",
		},
		{
			msg:      "digits kept",
			title:    "SARS-CoV-2 genome analysis",
			surnames: []string{"Wu"},
			want:     "sars-cov-2-genome-analysis/wu",
		},
		{
			msg:      "surnames sorted",
			title:    "A result",
			surnames: []string{"Zhang", "Abbot"},
			want:     "a-result/abbot-zhang",
		},
		{
			msg:      "accents folded",
			title:    "Les réseaux électriques",
			surnames: []string{"Müller", "Dvořák"},
			want:     "les-reseaux-electriques/dvorak-muller",
		},
		{
			msg:      "compound surname collapses",
			title:    "Topology",
			surnames: []string{"Van der Waals"},
			want:     "topology/vanderwaals",
		},
		{
			msg:      "empty surname dropped",
			title:    "Anonymous report",
			surnames: []string{"", "  ", "Doe"},
			want:     "anonymous-report/doe",
		},
		{
			msg:      "no authors",
			title:    "Editorial",
			surnames: nil,
			want:     "editorial/",
		},
	}

	for _, v := range tests {
		t.Run(v.msg, func(t *testing.T) {
			assert.Equal(t, v.want, fingerprint.Plain(v.title, v.surnames))
		})
	}
}

func TestComputeDeterministic(t *testing.T) {
	a := fingerprint.Compute("A Title", []string{"Smith", "Jones"})
	b := fingerprint.Compute("a title!", []string{"Jones", "Smith"})
	assert.Equal(t, a, b, "case, punctuation and author order are irrelevant")
	assert.Len(t, a, 32, "md5 hex digest")

	c := fingerprint.Compute("A Different Title", []string{"Smith", "Jones"})
	assert.NotEqual(t, a, c)
}
