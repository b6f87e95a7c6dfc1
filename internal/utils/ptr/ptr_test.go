package ptr

import "testing"

func TestTo(t *testing.T) {
	s := "test"
	p := To(s)
	if p == nil {
		t.Fatal("Expected non-nil pointer")
	}
	if *p != s {
		t.Errorf("Expected %q, got %q", s, *p)
	}
	if p == &s {
		t.Error("Expected different address")
	}
}

func TestBool(t *testing.T) {
	if p := Bool(true); p == nil || !*p {
		t.Error("Bool(true) should point to true")
	}
	if p := Bool(false); p == nil || *p {
		t.Error("Bool(false) should point to false")
	}
}

func TestDeref(t *testing.T) {
	if got := Deref[bool](nil, true); !got {
		t.Error("Deref(nil, true) should fall back to true")
	}
	if got := Deref(Bool(false), true); got {
		t.Error("Deref(&false, true) should return false")
	}
	if got := Deref(To(3), 0); got != 3 {
		t.Errorf("Deref(&3, 0) = %d, want 3", got)
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b *bool
		want bool
	}{
		{"both nil", nil, nil, true},
		{"one nil", Bool(true), nil, false},
		{"same value", Bool(false), Bool(false), true},
		{"different value", Bool(true), Bool(false), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}
