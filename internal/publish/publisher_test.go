package publish

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/ZebulonRouseFrantzich/setupship/internal/artifact"
	"github.com/ZebulonRouseFrantzich/setupship/internal/runner"
	"github.com/ZebulonRouseFrantzich/setupship/internal/testutil"
)

// seedArtifacts creates one variant directory per entry of variants.
func seedArtifacts(t *testing.T, root string, variants map[string][]string) artifact.Layout {
	t.Helper()
	for target, names := range variants {
		for _, v := range names {
			dir := filepath.Join(root, target, v)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(filepath.Join(dir, target), []byte("bin"), 0o755); err != nil {
				t.Fatal(err)
			}
		}
	}
	return artifact.NewLayout(root)
}

func remotes(pushes []Push) []string {
	out := make([]string, 0, len(pushes))
	for _, p := range pushes {
		out = append(out, p.Remote)
	}
	return out
}

var headDecision = Decision{Publish: true, Suffix: HeadSuffix, UserVersion: "abc123"}

func TestPublisher_PushesEveryVariant(t *testing.T) {
	layout := seedArtifacts(t, t.TempDir(), map[string][]string{
		"itch-setup":  {"windows-386", "linux-amd64", "darwin-arm64"},
		"kitch-setup": {"linux-amd64"},
	})
	fake := testutil.NewFakeRunner()
	butler := &Butler{Path: "/tools/butler", Runner: fake}

	result, err := NewPublisher(layout, "itchio", butler, false, nil).
		Publish(context.Background(), []string{"itch-setup", "kitch-setup"}, headDecision)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	want := []string{
		"itchio/itch-setup:darwin-arm64-head",
		"itchio/itch-setup:linux-amd64-head",
		"itchio/itch-setup:windows-386-head",
		"itchio/kitch-setup:linux-amd64-head",
	}
	if got := remotes(result.Pushed); !slices.Equal(got, want) {
		t.Errorf("pushed = %v, want %v", got, want)
	}

	if len(fake.Calls) != 4 {
		t.Fatalf("butler calls = %d, want 4", len(fake.Calls))
	}
	first := fake.Calls[0]
	wantArgs := []string{
		"push", "--userversion", "abc123",
		layout.VariantDir("itch-setup", "darwin-arm64"),
		"itchio/itch-setup:darwin-arm64-head",
	}
	if first.Name != "/tools/butler" || !slices.Equal(first.Args, wantArgs) {
		t.Errorf("first call = %s %v, want %v", first.Name, first.Args, wantArgs)
	}
}

func TestPublisher_StableChannel(t *testing.T) {
	layout := seedArtifacts(t, t.TempDir(), map[string][]string{"itch-setup": {"linux-amd64"}})
	fake := testutil.NewFakeRunner()

	decision := ResolveChannel(signalsForTag("v25.0.1"), "master")
	result, err := NewPublisher(layout, "itchio", &Butler{Path: "butler", Runner: fake}, false, nil).
		Publish(context.Background(), []string{"itch-setup"}, decision)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if got := remotes(result.Pushed); !slices.Equal(got, []string{"itchio/itch-setup:linux-amd64"}) {
		t.Errorf("pushed = %v", got)
	}
	if !slices.Contains(fake.Calls[0].Args, "25.0.1") {
		t.Errorf("args = %v, want user version 25.0.1", fake.Calls[0].Args)
	}
}

func TestPublisher_Skip(t *testing.T) {
	fake := testutil.NewFakeRunner()
	decision := Decision{Reason: "not pushing non-master branch feature-x"}

	result, err := NewPublisher(artifact.NewLayout(t.TempDir()), "itchio", &Butler{Path: "butler", Runner: fake}, false, nil).
		Publish(context.Background(), []string{"itch-setup"}, decision)
	if err != nil {
		t.Fatalf("Publish() error = %v, skipped publish is not an error", err)
	}
	if len(result.Pushed) != 0 || len(fake.Calls) != 0 {
		t.Errorf("nothing should be pushed, got %v", fake.CommandLines())
	}
}

func TestPublisher_ContinuesPastFailures(t *testing.T) {
	layout := seedArtifacts(t, t.TempDir(), map[string][]string{
		"itch-setup": {"darwin-amd64", "linux-amd64", "windows-amd64"},
	})
	fake := testutil.NewFakeRunner().On("butler", func(cmd runner.Command) (string, error) {
		if strings.HasSuffix(cmd.Args[len(cmd.Args)-1], "linux-amd64-head") {
			return "", &runner.ToolError{Tool: "butler", Args: cmd.Args, ExitCode: 1, Stderr: "403 forbidden"}
		}
		return "", nil
	})

	result, err := NewPublisher(layout, "itchio", &Butler{Path: "butler", Runner: fake}, false, nil).
		Publish(context.Background(), []string{"itch-setup"}, headDecision)
	if err == nil {
		t.Fatal("Publish() should report the failed variant")
	}

	if len(fake.Calls) != 3 {
		t.Errorf("butler calls = %d, want all 3 variants attempted", len(fake.Calls))
	}
	if len(result.Pushed) != 2 || len(result.Failed) != 1 {
		t.Errorf("pushed %d failed %d, want 2 and 1", len(result.Pushed), len(result.Failed))
	}

	var pushErr *PushError
	if !errors.As(err, &pushErr) {
		t.Fatalf("error = %v, want *PushError", err)
	}
	if pushErr.Variant != "linux-amd64" || pushErr.Target != "itch-setup" {
		t.Errorf("PushError = %+v", pushErr)
	}
	var toolErr *runner.ToolError
	if !errors.As(err, &toolErr) {
		t.Error("PushError should unwrap to the tool error")
	}
}

func TestPublisher_MissingArtifacts(t *testing.T) {
	layout := seedArtifacts(t, t.TempDir(), map[string][]string{"itch-setup": {"linux-amd64"}})
	fake := testutil.NewFakeRunner()

	result, err := NewPublisher(layout, "itchio", &Butler{Path: "butler", Runner: fake}, false, nil).
		Publish(context.Background(), []string{"itch-setup", "kitch-setup"}, headDecision)
	if !errors.Is(err, artifact.ErrNoArtifacts) {
		t.Fatalf("Publish() error = %v, want ErrNoArtifacts", err)
	}
	if len(result.Pushed) != 1 {
		t.Errorf("existing target should still be pushed, got %v", remotes(result.Pushed))
	}
}

func TestPublisher_DryRun(t *testing.T) {
	layout := seedArtifacts(t, t.TempDir(), map[string][]string{"itch-setup": {"linux-amd64", "windows-386"}})
	fake := testutil.NewFakeRunner()

	result, err := NewPublisher(layout, "itchio", &Butler{Path: "butler", Runner: fake}, true, nil).
		Publish(context.Background(), []string{"itch-setup"}, headDecision)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(fake.Calls) != 0 {
		t.Errorf("dry run should not call butler, got %v", fake.CommandLines())
	}
	if len(result.Pushed) != 2 {
		t.Errorf("dry run should report planned pushes, got %v", remotes(result.Pushed))
	}
}

func TestButler_PrintVersion(t *testing.T) {
	fake := testutil.NewFakeRunner()
	if err := (&Butler{Path: "/tools/butler", Runner: fake}).PrintVersion(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := fake.CommandLines(); len(got) != 1 || got[0] != "/tools/butler -V" {
		t.Errorf("commands = %v", got)
	}
}
