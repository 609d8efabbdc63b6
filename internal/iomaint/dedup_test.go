package iomaint

import (
	"testing"

	"github.com/oatrack/oadb/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeAuthorLists(t *testing.T) {
	id := func(n int64) *int64 { return &n }

	tests := []struct {
		msg   string
		base  schema.AuthorList
		extra schema.AuthorList
		want  []string
	}{
		{
			msg:   "disjoint lists concatenate",
			base:  schema.AuthorList{{Name: "A"}, {Name: "B"}},
			extra: schema.AuthorList{{Name: "C"}},
			want:  []string{"A", "B", "C"},
		},
		{
			msg:   "duplicates keep the base entry",
			base:  schema.AuthorList{{Name: "A", ResearcherID: id(7)}},
			extra: schema.AuthorList{{Name: "A"}, {Name: "B"}},
			want:  []string{"A", "B"},
		},
		{
			msg:   "empty base",
			base:  nil,
			extra: schema.AuthorList{{Name: "A"}},
			want:  []string{"A"},
		},
		{
			msg:   "empty extra",
			base:  schema.AuthorList{{Name: "A"}},
			extra: nil,
			want:  []string{"A"},
		},
	}

	for _, v := range tests {
		t.Run(v.msg, func(t *testing.T) {
			got := mergeAuthorLists(v.base, v.extra)
			names := make([]string, len(got))
			for i, a := range got {
				names[i] = a.Name
			}
			assert.Equal(t, v.want, names)
		})
	}
}

func TestMergeAuthorListsKeepsResearcherLink(t *testing.T) {
	rid := int64(12)
	base := schema.AuthorList{{Name: "A", ResearcherID: &rid}}
	extra := schema.AuthorList{{Name: "A"}}

	got := mergeAuthorLists(base, extra)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].ResearcherID)
	assert.Equal(t, rid, *got[0].ResearcherID)
}

func TestFingerprintRowSurnames(t *testing.T) {
	row := fingerprintRow{
		Authors: []byte(`[{"name":"Ada Lovelace"},{"name":"Babbage"}]`),
	}
	surnames, err := row.surnames()
	require.NoError(t, err)
	assert.Equal(t, []string{"Lovelace", "Babbage"}, surnames)

	empty := fingerprintRow{}
	surnames, err = empty.surnames()
	require.NoError(t, err)
	assert.Empty(t, surnames)

	bad := fingerprintRow{Authors: []byte(`{not json`)}
	_, err = bad.surnames()
	assert.Error(t, err)
}
