package platform

import (
	"reflect"
	"testing"
)

func TestDefaultMatrix_Pairs(t *testing.T) {
	got := DefaultMatrix().Pairs()
	want := []Pair{
		{OSLinux, ArchX8664},
		{OSWindows, ArchI686},
		{OSWindows, ArchX8664},
		{OSDarwin, ArchARM64},
		{OSDarwin, ArchX8664},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Pairs() = %v, want %v", got, want)
	}
}

func TestDefaultMatrix_Lookup(t *testing.T) {
	m := DefaultMatrix()

	tests := []struct {
		name       string
		os         OS
		arch       Arch
		wantOK     bool
		wantPrefix string
		wantMinOS  string
	}{
		{"windows i686", OSWindows, ArchI686, true, "/mingw32/bin", ""},
		{"windows x86_64", OSWindows, ArchX8664, true, "/mingw64/bin", ""},
		{"windows arm64", OSWindows, ArchARM64, false, "", ""},
		{"linux x86_64", OSLinux, ArchX8664, true, "", ""},
		{"linux i686", OSLinux, ArchI686, false, "", ""},
		{"linux arm64", OSLinux, ArchARM64, false, "", ""},
		{"darwin x86_64", OSDarwin, ArchX8664, true, "", "10.10"},
		{"darwin arm64", OSDarwin, ArchARM64, true, "", "11.0"},
		{"darwin i686", OSDarwin, ArchI686, false, "", ""},
		{"unknown os", OS("plan9"), ArchX8664, false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, ok := m.Lookup(tt.os, tt.arch)
			if ok != tt.wantOK {
				t.Fatalf("Lookup() ok = %v, want %v", ok, tt.wantOK)
			}
			if spec.PrependPath != tt.wantPrefix {
				t.Errorf("PrependPath = %q, want %q", spec.PrependPath, tt.wantPrefix)
			}
			if spec.MinOSVersion != tt.wantMinOS {
				t.Errorf("MinOSVersion = %q, want %q", spec.MinOSVersion, tt.wantMinOS)
			}
		})
	}
}

func TestMatrix_Restrict(t *testing.T) {
	m := DefaultMatrix()

	sub, err := m.Restrict(map[OS][]Arch{
		OSWindows: {ArchI686, ArchX8664},
		OSDarwin:  {ArchX8664},
	})
	if err != nil {
		t.Fatalf("Restrict() error = %v", err)
	}

	if _, ok := sub.Lookup(OSDarwin, ArchARM64); ok {
		t.Error("restricted matrix should not contain darwin/arm64")
	}
	if sub.HasOS(OSLinux) {
		t.Error("restricted matrix should not contain linux")
	}
	spec, ok := sub.Lookup(OSWindows, ArchI686)
	if !ok || spec.PrependPath != "/mingw32/bin" {
		t.Errorf("windows/i686 spec not carried over: %+v, %v", spec, ok)
	}

	if _, err := m.Restrict(map[OS][]Arch{OSLinux: {ArchARM64}}); err == nil {
		t.Error("Restrict() should reject pairs missing from the base matrix")
	}
}

func TestMatrix_Arches(t *testing.T) {
	got := DefaultMatrix().Arches(OSWindows)
	want := []Arch{ArchI686, ArchX8664}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Arches(windows) = %v, want %v", got, want)
	}
	if got := DefaultMatrix().Arches(OS("plan9")); len(got) != 0 {
		t.Errorf("Arches(plan9) = %v, want empty", got)
	}
}
