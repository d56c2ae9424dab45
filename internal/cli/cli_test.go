package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/temirov/repobundle/internal/config"
	"github.com/temirov/repobundle/internal/tokenizer"
	"github.com/temirov/repobundle/internal/types"
)

type recordingCopier struct {
	text string
}

func (copier *recordingCopier) Copy(text string) error {
	copier.text = text
	return nil
}

type commandHarness struct {
	workingDirectory string
	stdout           bytes.Buffer
	stderr           bytes.Buffer
	copier           recordingCopier
}

func newHarness(t *testing.T, files map[string]string) *commandHarness {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	workingDirectory := t.TempDir()
	files[".git/HEAD"] = "ref: refs/heads/main\n"
	for relativePath, content := range files {
		absolutePath := filepath.Join(workingDirectory, filepath.FromSlash(relativePath))
		if err := os.MkdirAll(filepath.Dir(absolutePath), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(absolutePath, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", relativePath, err)
		}
	}
	return &commandHarness{workingDirectory: workingDirectory}
}

func (harness *commandHarness) run(arguments ...string) error {
	command := createRootCommand(Environment{
		Stdout:           &harness.stdout,
		Stderr:           &harness.stderr,
		WorkingDirectory: harness.workingDirectory,
		Copier:           &harness.copier,
	})
	command.SetArgs(normalizeBooleanFlagArguments(command.Flags(), arguments))
	return command.Execute()
}

func (harness *commandHarness) readOutput(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(harness.workingDirectory, name))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	return string(data)
}

func TestVersionFlag(t *testing.T) {
	harness := newHarness(t, map[string]string{})
	if err := harness.run("-V"); err != nil {
		t.Fatalf("run error: %v", err)
	}
	if !strings.HasPrefix(harness.stdout.String(), "repobundle version ") {
		t.Fatalf("unexpected version output %q", harness.stdout.String())
	}
}

func TestBundleToFilePrintsSummary(t *testing.T) {
	harness := newHarness(t, map[string]string{"main.go": "package main\n", "LICENSE": "MIT\n"})
	if err := harness.run("-m", "embedded:gpt4o", "-f", "bundle.xml"); err != nil {
		t.Fatalf("run error: %v", err)
	}
	output := harness.readOutput(t, "bundle.xml")
	if !strings.Contains(output, "<file path=\"main.go\" size=\"13\" lines=\"1\">\npackage main\n</file>") {
		t.Fatalf("main.go block missing:\n%s", output)
	}
	if strings.Contains(output, `path="LICENSE"`) || strings.Contains(output, `path=".git`) {
		t.Fatalf("default excludes not applied:\n%s", output)
	}
	summary := harness.stderr.String()
	for _, fragment := range []string{"Summary", "Files", "Tokens", "(GPT-4o)", "bundle.xml"} {
		if !strings.Contains(summary, fragment) {
			t.Fatalf("summary missing %q:\n%s", fragment, summary)
		}
	}
	if strings.Contains(summary, "\x1b[") {
		t.Fatalf("expected no color codes outside a terminal:\n%s", summary)
	}
}

func TestBundleToStdout(t *testing.T) {
	harness := newHarness(t, map[string]string{"a.txt": "hi"})
	if err := harness.run("--stdout", "yes", "-m", "embedded:gpt2"); err != nil {
		t.Fatalf("run error: %v", err)
	}
	if !strings.Contains(harness.stdout.String(), "<file path=\"a.txt\" size=\"2\" lines=\"1\">\nhi</file>") {
		t.Fatalf("stdout document missing:\n%s", harness.stdout.String())
	}
	if harness.stderr.Len() != 0 {
		t.Fatalf("expected no summary for stdout, got %q", harness.stderr.String())
	}
	if _, err := os.Stat(filepath.Join(harness.workingDirectory, types.DefaultOutputFile)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no output file, got %v", err)
	}
}

func TestBundleToClipboard(t *testing.T) {
	harness := newHarness(t, map[string]string{"a.txt": "hi"})
	if err := harness.run("-c", "-m", "embedded:gpt4"); err != nil {
		t.Fatalf("run error: %v", err)
	}
	if !strings.HasPrefix(harness.copier.text, "<?xml") {
		t.Fatalf("clipboard did not receive the document: %q", harness.copier.text)
	}
	if !strings.Contains(harness.stderr.String(), "clipboard") {
		t.Fatalf("summary should name the clipboard:\n%s", harness.stderr.String())
	}
}

func TestReplaceExcludeDisablesExtendExclude(t *testing.T) {
	harness := newHarness(t, map[string]string{"secret.txt": "s", "README.md": "r", "LICENSE": "l"})
	if err := harness.run("-s", "-m", "embedded:gpt4o", "--exclude", "secret", "--extend-exclude", ".md"); err != nil {
		t.Fatalf("run error: %v", err)
	}
	output := harness.stdout.String()
	if strings.Contains(output, `path="secret.txt"`) {
		t.Fatalf("secret.txt should be excluded")
	}
	if !strings.Contains(output, `<file path="README.md"`) || !strings.Contains(output, `<file path="LICENSE"`) {
		t.Fatalf("replace mode should keep README.md and LICENSE:\n%s", output)
	}
}

func TestExcludeFromFile(t *testing.T) {
	harness := newHarness(t, map[string]string{"keep.txt": "k", "drop.log": "d", "patterns.txt": "# excluded\n.log\npatterns\n"})
	if err := harness.run("-s", "-m", "embedded:gpt4o", "--extend-exclude-from", filepath.Join(harness.workingDirectory, "patterns.txt")); err != nil {
		t.Fatalf("run error: %v", err)
	}
	output := harness.stdout.String()
	if strings.Contains(output, `path="drop.log"`) || strings.Contains(output, `path="patterns.txt"`) {
		t.Fatalf("pattern file entries not excluded:\n%s", output)
	}
	if !strings.Contains(output, `<file path="keep.txt"`) {
		t.Fatalf("keep.txt missing:\n%s", output)
	}
}

func TestConfigurationFileAndFlagPrecedence(t *testing.T) {
	harness := newHarness(t, map[string]string{
		"x.txt":                    "one\ntwo\n",
		config.LocalConfigFileName: "line_numbers = true\nmodel = \"embedded:gpt3\"\nstdout = true\n",
	})
	if err := harness.run(); err != nil {
		t.Fatalf("run error: %v", err)
	}
	if !strings.Contains(harness.stdout.String(), "lines=\"2\">\n1  one\n2  two\n</file>") {
		t.Fatalf("configuration did not enable line numbers:\n%s", harness.stdout.String())
	}

	harness.stdout.Reset()
	if err := harness.run("--lnumbers=false"); err != nil {
		t.Fatalf("run error: %v", err)
	}
	if !strings.Contains(harness.stdout.String(), "lines=\"2\">\none\ntwo\n</file>") {
		t.Fatalf("flag did not override configuration:\n%s", harness.stdout.String())
	}
}

func TestUnsupportedModel(t *testing.T) {
	harness := newHarness(t, map[string]string{"a.txt": "hi"})
	err := harness.run("-m", "gpt5")
	var unsupported *tokenizer.UnsupportedModelError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedModelError, got %v", err)
	}
}

func TestInvalidWorkers(t *testing.T) {
	harness := newHarness(t, map[string]string{"a.txt": "hi"})
	if err := harness.run("-s", "--workers", "0"); err == nil || !strings.Contains(err.Error(), "workers") {
		t.Fatalf("expected workers error, got %v", err)
	}
}

func TestNotARepository(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	harness := &commandHarness{workingDirectory: t.TempDir()}
	err := harness.run("-s", "-m", "embedded:gpt4o")
	if err == nil || err.Error() != notRepositoryMessage {
		t.Fatalf("expected not-a-repository error, got %v", err)
	}
}

func TestInitConfig(t *testing.T) {
	harness := newHarness(t, map[string]string{})
	if err := harness.run("--init-config"); err != nil {
		t.Fatalf("run error: %v", err)
	}
	expectedPath := filepath.Join(harness.workingDirectory, config.LocalConfigFileName)
	if !strings.Contains(harness.stdout.String(), expectedPath) {
		t.Fatalf("unexpected output %q", harness.stdout.String())
	}
	if err := harness.run("--init-config"); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	if err := harness.run("--init-config", "--force"); err != nil {
		t.Fatalf("expected forced overwrite: %v", err)
	}
}

func TestPrintSummary(t *testing.T) {
	var buffer bytes.Buffer
	summary := types.RunSummary{Files: 3, SizeBytes: 1536, Tokens: 42, Model: "GPT-4", Destination: "out.xml", Sink: types.SinkKindFile}
	if err := printSummary(&buffer, summary, false); err != nil {
		t.Fatalf("printSummary error: %v", err)
	}
	expected := "Summary\n  Files    3\n  Size     1.5 KB\n  Tokens   42 (GPT-4)\n  Output   out.xml\n"
	if buffer.String() != expected {
		t.Fatalf("unexpected summary:\n%q\nexpected:\n%q", buffer.String(), expected)
	}
}
