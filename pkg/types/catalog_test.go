package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManuscriptValidate(t *testing.T) {
	valid := func() Manuscript {
		return Manuscript{
			Title:               "MS-1",
			TextDirection:       DirectionRTL,
			PageDirection:       DirectionRTL,
			PageCount:           10,
			CurrentlyMarking:    1,
			CurrentlyAnnotating: 1,
		}
	}

	tests := []struct {
		name    string
		mutate  func(m *Manuscript)
		wantErr error
	}{
		{name: "valid", mutate: func(m *Manuscript) {}},
		{name: "last page", mutate: func(m *Manuscript) { m.CurrentlyAnnotating = 10 }},
		{name: "unknown page count accepts any positive page", mutate: func(m *Manuscript) {
			m.PageCount = 0
			m.CurrentlyMarking = 250
		}},
		{name: "empty title", mutate: func(m *Manuscript) { m.Title = "" }, wantErr: ErrInvalidName},
		{name: "bad text direction", mutate: func(m *Manuscript) { m.TextDirection = "ttb" }, wantErr: ErrInvalidDirection},
		{name: "bad page direction", mutate: func(m *Manuscript) { m.PageDirection = "" }, wantErr: ErrInvalidDirection},
		{name: "marking beyond last page", mutate: func(m *Manuscript) { m.CurrentlyMarking = 11 }, wantErr: ErrInvalidPage},
		{name: "annotating page zero", mutate: func(m *Manuscript) { m.CurrentlyAnnotating = 0 }, wantErr: ErrInvalidPage},
		{name: "negative page count", mutate: func(m *Manuscript) { m.PageCount = -1 }, wantErr: ErrInvalidPage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid()
			tt.mutate(&m)
			err := m.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestIdentityKindTable(t *testing.T) {
	name, err := KindEditor.Table()
	assert.NoError(t, err)
	assert.Equal(t, EditorsTable, name)

	_, err = IdentityKind("publisher").Table()
	assert.ErrorIs(t, err, ErrInvalidData)
}
