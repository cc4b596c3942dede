package bytesize

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want ByteSize
	}{
		{"0", 0},
		{"1024", 1024},
		{"1Ki", KiB},
		{"4Ki", 4 * KiB},
		{"1KiB", KiB},
		{"100Mi", 100 * MiB},
		{"1Gi", GiB},
		{"2TiB", 2 * TiB},
		{"1KB", KB},
		{"100MB", 100 * MB},
		{"1.5Ki", ByteSize(1536)},
		{" 8 Ki ", 8 * KiB},
		{"512B", 512},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "10Xi", "-5"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", in)
		}
	}
}

func TestUnmarshalText(t *testing.T) {
	var b ByteSize
	if err := b.UnmarshalText([]byte("4Ki")); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if b != 4*KiB {
		t.Errorf("UnmarshalText gave %d, want %d", b, 4*KiB)
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		in   ByteSize
		want string
	}{
		{512, "512B"},
		{KiB, "1.00KiB"},
		{100 * MiB, "100.00MiB"},
		{GiB, "1.00GiB"},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", uint64(tt.in), got, tt.want)
		}
	}
}
