package conv

import "testing"

func TestHex(t *testing.T) {
	var buf [8]byte
	tests := []struct {
		n      uint32
		digits int
		want   string
	}{
		{0x14, 2, "14"},
		{0x0a, 2, "0a"},
		{0x1234, 2, "34"},
		{0xdeadbeef, 8, "deadbeef"},
		{0, 4, "0000"},
	}
	for _, tc := range tests {
		if got := string(Hex(buf[:], tc.n, tc.digits)); got != tc.want {
			t.Errorf("Hex(%#x, %d) = %q, want %q", tc.n, tc.digits, got, tc.want)
		}
	}
	if got := Hex(buf[:1], 0xff, 2); len(got) != 0 {
		t.Errorf("short buffer: got %q", got)
	}
}

func TestAppendHexBytes(t *testing.T) {
	got := string(AppendHexBytes([]byte("w "), []byte{0x02, 0xc8}))
	if got != "w 0x02 0xc8" {
		t.Fatalf("got %q", got)
	}
}

func TestUtoa(t *testing.T) {
	var buf [20]byte
	if got := string(Utoa(buf[:], 3000000)); got != "3000000" {
		t.Errorf("Utoa = %q", got)
	}
	if got := string(Utoa(buf[:], 0)); got != "0" {
		t.Errorf("Utoa(0) = %q", got)
	}
}
