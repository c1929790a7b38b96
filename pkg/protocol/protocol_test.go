package protocol

import "testing"

func TestKindsAreUnique(t *testing.T) {
	seen := make(map[Kind]bool)
	for _, kind := range Kinds() {
		if kind == "" {
			t.Error("empty kind in Kinds()")
		}
		if seen[kind] {
			t.Errorf("duplicate kind %q", kind)
		}
		seen[kind] = true
	}
	if len(seen) != 18 {
		t.Errorf("expected 18 kinds, got %d", len(seen))
	}
}

func TestOKAndFail(t *testing.T) {
	ok := OK("req_1", map[string]any{"rows": 3})
	if !ok.Success || ok.RequestID != "req_1" || ok.Error != "" {
		t.Errorf("unexpected OK response: %+v", ok)
	}

	fail := Fail("req_2", "boom")
	if fail.Success || fail.RequestID != "req_2" || fail.Error != "boom" {
		t.Errorf("unexpected Fail response: %+v", fail)
	}
	if fail.Data != nil {
		t.Errorf("Fail should carry no data, got %v", fail.Data)
	}
}

func TestPayloadBuilder(t *testing.T) {
	p := Payload("table_name", "sales", "limit", 10, "force_refresh", true)
	if len(p) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(p))
	}
	if p["table_name"] != "sales" || p["limit"] != 10 || p["force_refresh"] != true {
		t.Errorf("unexpected payload: %v", p)
	}
}

func TestPayloadPanicsOnOddArguments(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on odd argument count")
		}
	}()
	Payload("only_key")
}

func TestGetString(t *testing.T) {
	p := map[string]any{"name": "sales", "limit": 10}

	if got := GetString(p, "name", "x"); got != "sales" {
		t.Errorf("GetString(name) = %q", got)
	}
	if got := GetString(p, "missing", "fallback"); got != "fallback" {
		t.Errorf("GetString(missing) = %q", got)
	}
	if got := GetString(p, "limit", "fallback"); got != "fallback" {
		t.Errorf("GetString on non-string = %q", got)
	}
}

func TestRequireString(t *testing.T) {
	p := map[string]any{"name": "sales", "empty": ""}

	if v, err := RequireString(p, "name"); err != nil || v != "sales" {
		t.Errorf("RequireString(name) = %q, %v", v, err)
	}
	if _, err := RequireString(p, "empty"); err == nil {
		t.Error("RequireString should reject empty strings")
	}
	if _, err := RequireString(p, "missing"); err == nil {
		t.Error("RequireString should reject missing fields")
	}
}

func TestGetInt(t *testing.T) {
	p := map[string]any{
		"as_int":     7,
		"as_int64":   int64(8),
		"as_float64": float64(9), // decoded JSON numbers arrive this way
		"as_string":  "10",
	}

	tests := []struct {
		key      string
		expected int
	}{
		{key: "as_int", expected: 7},
		{key: "as_int64", expected: 8},
		{key: "as_float64", expected: 9},
		{key: "as_string", expected: -1},
		{key: "missing", expected: -1},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := GetInt(p, tt.key, -1); got != tt.expected {
				t.Errorf("GetInt(%q) = %d, want %d", tt.key, got, tt.expected)
			}
		})
	}
}

func TestGetBool(t *testing.T) {
	p := map[string]any{"force": true, "limit": 1}

	if !GetBool(p, "force", false) {
		t.Error("GetBool(force) should be true")
	}
	if GetBool(p, "missing", false) {
		t.Error("GetBool(missing) should fall back")
	}
	if !GetBool(p, "limit", true) {
		t.Error("GetBool on non-bool should fall back")
	}
}
