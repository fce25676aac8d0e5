package platform

import (
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func evalLua(t *testing.T, L *lua.LState, code string, want lua.LValue) {
	t.Helper()
	if err := L.DoString(code); err != nil {
		t.Fatalf("failed to execute code: %v", err)
	}
	got := L.Get(-1)
	L.Pop(1)

	if got.Type() != want.Type() {
		t.Errorf("type mismatch: got %v, want %v", got.Type(), want.Type())
		return
	}
	if got.String() != want.String() {
		t.Errorf("value mismatch: got %v, want %v", got, want)
	}
}

func TestInjectPlatformTable_Linux(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	info := &Info{
		OS:       "linux",
		Arch:     ArchX8664,
		ArchRaw:  "amd64",
		Platform: "ubuntu",
		Family:   "debian",
		Version:  "22.04",
	}

	if err := InjectPlatformTable(L, info); err != nil {
		t.Fatalf("InjectPlatformTable() error = %v", err)
	}

	tests := []struct {
		name string
		code string
		want lua.LValue
	}{
		{"os", `return platform.os`, lua.LString("linux")},
		{"arch", `return platform.arch`, lua.LString("x86_64")},
		{"arch_raw", `return platform.arch_raw`, lua.LString("amd64")},
		{"is_linux", `return platform.is_linux`, lua.LTrue},
		{"is_macos", `return platform.is_macos`, lua.LFalse},
		{"is_windows", `return platform.is_windows`, lua.LFalse},
		{"is_apple_silicon", `return platform.is_apple_silicon`, lua.LFalse},
		{"name", `return platform.name`, lua.LString("ubuntu")},
		{"version", `return platform.version`, lua.LString("22.04")},
		{"linux_family", `return platform.linux_family`, lua.LString("debian")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evalLua(t, L, tt.code, tt.want)
		})
	}
}

func TestInjectPlatformTable_MacOS(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	info := &Info{
		OS:      "darwin",
		Arch:    ArchARM64,
		ArchRaw: "arm64",
	}

	if err := InjectPlatformTable(L, info); err != nil {
		t.Fatalf("InjectPlatformTable() error = %v", err)
	}

	tests := []struct {
		name string
		code string
		want lua.LValue
	}{
		{"os", `return platform.os`, lua.LString("darwin")},
		{"arch", `return platform.arch`, lua.LString("arm64")},
		{"is_macos", `return platform.is_macos`, lua.LTrue},
		{"is_apple_silicon", `return platform.is_apple_silicon`, lua.LTrue},
		{"name is nil", `return platform.name`, lua.LNil},
		{"linux_family is nil", `return platform.linux_family`, lua.LNil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evalLua(t, L, tt.code, tt.want)
		})
	}
}

func TestInjectPlatformTable_WindowsNoFamily(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	info := &Info{
		OS:       "windows",
		Arch:     ArchI686,
		ArchRaw:  "386",
		Platform: "microsoft windows 10 pro",
		Family:   "standalone workstation",
	}

	if err := InjectPlatformTable(L, info); err != nil {
		t.Fatalf("InjectPlatformTable() error = %v", err)
	}

	evalLua(t, L, `return platform.is_windows`, lua.LTrue)
	evalLua(t, L, `return platform.arch`, lua.LString("i686"))
	evalLua(t, L, `return platform.linux_family`, lua.LNil)
}

func TestPlatformTable_ReadOnly(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	if err := InjectPlatformTable(L, &Info{OS: "linux", Arch: ArchX8664}); err != nil {
		t.Fatalf("InjectPlatformTable() error = %v", err)
	}

	tests := []struct {
		name string
		code string
	}{
		{"modify os", `platform.os = "windows"`},
		{"add new field", `platform.new_field = "value"`},
		{"modify boolean", `platform.is_linux = false`},
		{"replace metatable", `setmetatable(platform, {})`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := L.DoString(tt.code); err == nil {
				t.Error("expected error when modifying read-only table, got nil")
			}
		})
	}
}

func TestPlatformTable_WhenHelper(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	if err := InjectPlatformTable(L, &Info{OS: "linux", Arch: ArchX8664}); err != nil {
		t.Fatalf("InjectPlatformTable() error = %v", err)
	}

	tests := []struct {
		name string
		code string
		want lua.LValue
	}{
		{"when true returns value", `return platform.when(true, "gtk_3_22")`, lua.LString("gtk_3_22")},
		{"when false returns nil", `return platform.when(false, "gtk_3_22")`, lua.LNil},
		{"when with platform boolean", `return platform.when(platform.is_linux, "pango_1_42")`, lua.LString("pango_1_42")},
		{"when with false platform boolean", `return platform.when(platform.is_macos, "x")`, lua.LNil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evalLua(t, L, tt.code, tt.want)
		})
	}
}
