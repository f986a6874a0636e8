package graph

import (
	"testing"
)

// BenchmarkInsertLineAfter appends to the head of a growing chain, so each
// iteration rewires the head and its old successor.
func BenchmarkInsertLineAfter(b *testing.B) {
	w := setup(b)
	newLine := func() int64 {
		id, err := w.m.CreateLine(NewAnnotation{ManuscriptID: w.msA, Page: 1, AnnotatorID: w.annotator}, LineSpec{TextFieldID: &w.tfA})
		if err != nil {
			b.Fatal(err)
		}
		return id
	}
	head := newLine()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		id := newLine()
		b.StartTimer()
		if err := w.m.InsertLineAfter(head, id); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCreateAnnotation(b *testing.B) {
	w := setup(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := w.m.CreateAnnotation(NewAnnotation{ManuscriptID: w.msA, Page: 1, Annotator: "reader"}); err != nil {
			b.Fatal(err)
		}
	}
}
