package tiff

import "testing"

func TestFieldTypeWidth(t *testing.T) {
	cases := map[FieldType]int{
		Byte: 1, ASCII: 1, SByte: 1, Undefined: 1,
		Short: 2, SShort: 2,
		Long: 4, SLong: 4, Float: 4, IFDType: 4,
		Rationals: 8, SRationals: 8, Double: 8, Long8: 8, SLong8: 8, IFD8Type: 8,
	}
	for ft, want := range cases {
		if got := ft.Width(); got != want {
			t.Errorf("%s.Width(): expected %d, got %d", ft, want, got)
		}
		if !ft.known() {
			t.Errorf("%s: expected known() true", ft)
		}
	}
}

func TestFieldTypeUnknown(t *testing.T) {
	ft := FieldType(999)
	if ft.known() {
		t.Fatal("expected unknown field type to report known() == false")
	}
	if ft.Width() != 0 {
		t.Fatalf("expected width 0 for unknown type, got %d", ft.Width())
	}
	if ft.String() != "UNKNOWN" {
		t.Fatalf("expected UNKNOWN, got %q", ft.String())
	}
}

func TestModeGeometry(t *testing.T) {
	if Classic.inlineCap() != 4 || Big.inlineCap() != 8 {
		t.Fatal("unexpected inlineCap values")
	}
	if Classic.entryWidth() != 12 || Big.entryWidth() != 20 {
		t.Fatal("unexpected entryWidth values")
	}
	if Classic.headerSize() != 8 || Big.headerSize() != 16 {
		t.Fatal("unexpected headerSize values")
	}
	if Classic.countWidth() != 2 || Big.countWidth() != 8 {
		t.Fatal("unexpected countWidth values")
	}
	if Classic.nextIFDWidth() != 4 || Big.nextIFDWidth() != 8 {
		t.Fatal("unexpected nextIFDWidth values")
	}
}
