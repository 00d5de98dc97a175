package catalog

import "testing"

func TestModels(t *testing.T) {
	got, ok := Models("openai")
	if !ok || len(got) != 3 || got[0] != "gpt-4o-mini" {
		t.Fatalf("unexpected openai catalog %v (%v)", got, ok)
	}
	got[0] = "mutated"
	again, _ := Models("openai")
	if again[0] != "gpt-4o-mini" {
		t.Fatalf("catalog must not be mutable through returned slice")
	}

	unknown, ok := Models("nope")
	if ok || unknown == nil || len(unknown) != 0 {
		t.Fatalf("expected empty non-nil list for unknown provider, got %v (%v)", unknown, ok)
	}
}
