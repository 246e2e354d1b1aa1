package nftpreview

import (
	"testing"

	"github.com/gogpu/nftpreview/internal/blend"
)

func TestParseCompositeOp(t *testing.T) {
	tests := []struct {
		in      string
		want    CompositeOp
		wantErr bool
	}{
		{"source-over", SourceOver, false},
		{"  Multiply ", Multiply, false},
		{"normal", SourceOver, false},
		{"DESTINATION-OUT", DestinationOut, false},
		{"color", ColorOp, false},
		{"", "", true},
		{"plus-lighter", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCompositeOp(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCompositeOp(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCompositeOp(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCompositeOpsCoverBlendModes(t *testing.T) {
	seen := make(map[blend.Mode]bool)
	for op, m := range compositeModes {
		if !op.Valid() {
			t.Errorf("%q.Valid() = false", op)
		}
		if !m.Valid() {
			t.Errorf("%q maps to invalid mode %d", op, m)
		}
		if seen[m] {
			t.Errorf("mode %d mapped twice", m)
		}
		seen[m] = true
	}
	if len(compositeModes) != 26 {
		t.Errorf("got %d composite operations, want 26", len(compositeModes))
	}
}

func TestCompositeOpModeFallback(t *testing.T) {
	if got := CompositeOp("bogus").mode(); got != blend.SourceOver {
		t.Errorf("mode() = %v, want SourceOver", got)
	}
	if got := Normal.mode(); got != blend.SourceOver {
		t.Errorf("Normal.mode() = %v, want SourceOver", got)
	}
}
