package pairing

import "testing"

func TestExtractCodeTopLevel(t *testing.T) {
	payload := map[string]interface{}{"PairingCode": "123"}
	if got := ExtractCode(payload); got != "123" {
		t.Errorf("ExtractCode = %q, want 123", got)
	}
}

func TestExtractCodeNestedData(t *testing.T) {
	payload := map[string]interface{}{
		"data": map[string]interface{}{"code": "456"},
	}
	if got := ExtractCode(payload); got != "456" {
		t.Errorf("ExtractCode = %q, want 456", got)
	}
}

func TestExtractCodeDoublyNested(t *testing.T) {
	payload := map[string]interface{}{
		"data": map[string]interface{}{
			"data": map[string]interface{}{"Code": "789"},
		},
	}
	if got := ExtractCode(payload); got != "789" {
		t.Errorf("ExtractCode = %q, want 789", got)
	}
}

func TestExtractCodeKeyPriority(t *testing.T) {
	// PairingCode wins over later keys at the same level.
	payload := map[string]interface{}{
		"PairingCode": "first",
		"code":        "second",
	}
	if got := ExtractCode(payload); got != "first" {
		t.Errorf("ExtractCode = %q, want first", got)
	}
}

func TestExtractCodeEmptyAndNil(t *testing.T) {
	if got := ExtractCode(map[string]interface{}{}); got != "" {
		t.Errorf("ExtractCode({}) = %q, want empty", got)
	}
	if got := ExtractCode(nil); got != "" {
		t.Errorf("ExtractCode(nil) = %q, want empty", got)
	}
	if got := ExtractCode("not an object"); got != "" {
		t.Errorf("ExtractCode(string) = %q, want empty", got)
	}
	// Empty string values don't count as a code.
	if got := ExtractCode(map[string]interface{}{"code": ""}); got != "" {
		t.Errorf("ExtractCode(empty code) = %q, want empty", got)
	}
}

func TestExtractCodeDepthBound(t *testing.T) {
	// Pathologically deep nesting stops at the recursion bound instead
	// of finding a code buried below it.
	payload := map[string]interface{}{}
	current := payload
	for i := 0; i < 20; i++ {
		next := map[string]interface{}{}
		current["data"] = next
		current = next
	}
	current["PairingCode"] = "too-deep"

	if got := ExtractCode(payload); got != "" {
		t.Errorf("ExtractCode(deep payload) = %q, want empty", got)
	}
}
