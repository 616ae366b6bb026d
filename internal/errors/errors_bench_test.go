package errors

import (
	"fmt"
	"testing"
)

func BenchmarkCollector_Add(b *testing.B) {
	collector := NewCollector()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.Add(ErrNotFound(fmt.Sprintf("uiComponents!c%d", i), fmt.Sprintf("src/mod_%d/@alias", i%10)))
	}
}

func BenchmarkCollector_Errors(b *testing.B) {
	collector := NewCollector()

	for i := 0; i < 1000; i++ {
		collector.Add(ErrNotFound(fmt.Sprintf("uiComponents!c%d", i), "src/mod_a/@alias"))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.Errors()
	}
}

func BenchmarkCollection_Error(b *testing.B) {
	errs := make([]error, 0, 100)
	for i := 0; i < 100; i++ {
		errs = append(errs, ErrDuplicate(fmt.Sprintf("events!e%d", i), "src/mod_b/@alias", "src/mod_a/@alias"))
	}
	collection := &Collection{Errors: errs}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = collection.Error()
	}
}

func BenchmarkLinkerError_Error(b *testing.B) {
	err := ErrTypeMismatch("list already declared with type uiComponents",
		"src/mod_b/@alias/uiComposites/menu", "src/mod_a/@alias/uiComposites/menu").
		WithCause(fmt.Errorf("conflict"))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = err.Error()
	}
}
