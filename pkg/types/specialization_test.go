package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpecializationValidate(t *testing.T) {
	hypo := "reconstructed"

	tests := []struct {
		name    string
		spec    *Specialization
		wantErr error
	}{
		{name: "plain chapter", spec: NewChapter(1, nil)},
		{name: "aligned chapter", spec: NewChapter(1, Ref(7))},
		{name: "aside", spec: NewAside(1)},
		{name: "line with text field and hypo text", spec: NewLine(1, Ref(3), &hypo)},
		{
			name:    "chapter with line pointer",
			spec:    &Specialization{AnnotationID: 1, Kind: KindChapter, NextLine: Ref(2)},
			wantErr: ErrIntegrityFault,
		},
		{
			name:    "aside with same_as",
			spec:    &Specialization{AnnotationID: 1, Kind: KindAside, SameAs: Ref(2)},
			wantErr: ErrIntegrityFault,
		},
		{
			name:    "line with same_as",
			spec:    &Specialization{AnnotationID: 1, Kind: KindAnnotatedLine, SameAs: Ref(2)},
			wantErr: ErrIntegrityFault,
		},
		{
			name:    "unknown kind",
			spec:    &Specialization{AnnotationID: 1, Kind: "footnote"},
			wantErr: ErrIntegrityFault,
		},
		{
			name:    "none is never stored",
			spec:    &Specialization{AnnotationID: 1, Kind: KindNone},
			wantErr: ErrIntegrityFault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSpecializationIsLine(t *testing.T) {
	var missing *Specialization
	assert.False(t, missing.IsLine())
	assert.False(t, NewAside(1).IsLine())
	assert.True(t, NewLine(1, nil, nil).IsLine())
}
