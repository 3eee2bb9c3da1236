package version

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    Version
		wantErr bool
	}{
		{"1.0", Version{1, 0}, false},
		{"1.5", Version{1, 5}, false},
		{"10.23", Version{10, 23}, false},
		{"0.1", Version{0, 1}, false},
		{"1", Version{}, true},
		{"1.0.0", Version{}, true},
		{"", Version{}, true},
		{"a.b", Version{}, true},
		{"1.", Version{}, true},
		{".0", Version{}, true},
		{"-1.0", Version{}, true},
		{"99999.0", Version{}, true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Parse(%q): expected error, got %v", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestString(t *testing.T) {
	v := Version{Major: 2, Minor: 7}
	if v.String() != "2.7" {
		t.Errorf("String() = %q, want 2.7", v.String())
	}
}

func TestRoundTrip(t *testing.T) {
	v, err := Parse(Current)
	if err != nil {
		t.Fatalf("Current %q does not parse: %v", Current, err)
	}
	if v.String() != Current {
		t.Errorf("round trip: %q != %q", v.String(), Current)
	}
}

func TestMustParsePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for invalid version")
		}
	}()
	MustParse("not-a-version")
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"1.0", "1.0", true},
		{"1.0", "1.9", true},
		{"1.0", "2.0", false},
		{"2.3", "1.3", false},
	}

	for _, tt := range tests {
		a := MustParse(tt.a)
		b := MustParse(tt.b)
		if got := a.Compatible(b); got != tt.want {
			t.Errorf("%s.Compatible(%s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestAtLeast(t *testing.T) {
	tests := []struct {
		v, min string
		want   bool
	}{
		{"1.0", "1.0", true},
		{"1.5", "1.0", true},
		{"1.0", "1.5", false},
		{"2.0", "1.9", true},
		{"1.9", "2.0", false},
	}

	for _, tt := range tests {
		v := MustParse(tt.v)
		min := MustParse(tt.min)
		if got := v.AtLeast(min); got != tt.want {
			t.Errorf("%s.AtLeast(%s) = %v, want %v", tt.v, tt.min, got, tt.want)
		}
	}
}
