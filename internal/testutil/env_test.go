package testutil_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/ZebulonRouseFrantzich/setupship/internal/runner"
	"github.com/ZebulonRouseFrantzich/setupship/internal/testutil"
)

func TestSetupTestEnv(t *testing.T) {
	t.Setenv("GITHUB_REF_NAME", "leaked")

	ws := testutil.SetupTestEnv(t)

	if got := os.Getenv("GITHUB_REF_NAME"); got != "" {
		t.Errorf("GITHUB_REF_NAME = %q, want empty", got)
	}

	for _, dir := range []string{ws.Artifacts, ws.Tools} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("%s not created: %v", dir, err)
		}
	}
}

func TestFakeRunner(t *testing.T) {
	f := testutil.NewFakeRunner().
		On("go", testutil.Reply("go version go1.25.2 linux/amd64\n")).
		On("objdump", testutil.Fail(1, "bad file"))
	f.Missing["signtool"] = true
	ctx := context.Background()

	out, err := f.Output(ctx, runner.Command{Name: "go", Args: []string{"version"}})
	if err != nil || out != "go version go1.25.2 linux/amd64\n" {
		t.Errorf("Output(go) = %q, %v", out, err)
	}

	err = f.Run(ctx, runner.Command{Name: "objdump"})
	var te *runner.ToolError
	if !errors.As(err, &te) || te.ExitCode != 1 {
		t.Errorf("Run(objdump) error = %v", err)
	}

	if err := f.Run(ctx, runner.Command{Name: "file"}); err != nil {
		t.Errorf("Run(file) error = %v", err)
	}

	if got := f.Names(); len(got) != 3 || got[0] != "go" || got[2] != "file" {
		t.Errorf("Names() = %v", got)
	}

	if _, err := f.LookPath("signtool"); !errors.Is(err, runner.ErrToolNotFound) {
		t.Errorf("LookPath(signtool) error = %v", err)
	}
	if _, err := f.LookPath("codesign"); err != nil {
		t.Errorf("LookPath(codesign) error = %v", err)
	}
}
