package bundle_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/temirov/repobundle/internal/bundle"
	"github.com/temirov/repobundle/internal/patterns"
	"github.com/temirov/repobundle/internal/sink"
	"github.com/temirov/repobundle/internal/tokenizer"
	"github.com/temirov/repobundle/internal/types"
)

const embeddedModel = "embedded:gpt4o"

type memoryCopier struct {
	text string
}

func (copier *memoryCopier) Copy(text string) error {
	copier.text = text
	return nil
}

func createRepository(t *testing.T, files map[string][]byte) string {
	t.Helper()
	rootDirectory := t.TempDir()
	for relativePath, data := range files {
		absolutePath := filepath.Join(rootDirectory, filepath.FromSlash(relativePath))
		if err := os.MkdirAll(filepath.Dir(absolutePath), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(absolutePath, data, 0o644); err != nil {
			t.Fatalf("write %s: %v", relativePath, err)
		}
	}
	return rootDirectory
}

func runToFile(t *testing.T, options bundle.Options) (bundle.Result, string) {
	t.Helper()
	outputPath := filepath.Join(t.TempDir(), types.DefaultOutputFile)
	options.Sink = sink.FileSink{Path: outputPath}
	if options.Model == "" {
		options.Model = embeddedModel
	}
	result, err := bundle.Run(context.Background(), options)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	return result, string(data)
}

func TestRunTextAndBinaryFiles(t *testing.T) {
	rootDirectory := createRepository(t, map[string][]byte{
		"a.txt": []byte("hi"),
		"b.bin": {0x00, 0x01, 0x02, 0x03},
	})

	result, output := runToFile(t, bundle.Options{Root: rootDirectory, Excludes: patterns.NewRuleSet(nil, nil, nil)})

	if result.Files != 2 {
		t.Fatalf("expected 2 files, got %d", result.Files)
	}
	if result.SizeBytes != uint64(len(output)) {
		t.Fatalf("expected size %d, got %d", len(output), result.SizeBytes)
	}
	if result.Tokens <= 0 {
		t.Fatalf("expected a positive token count, got %d", result.Tokens)
	}
	if result.Model.DisplayName != "GPT-4o" {
		t.Fatalf("unexpected model %q", result.Model.DisplayName)
	}
	if !strings.Contains(output, "<file path=\"a.txt\" size=\"2\" lines=\"1\">\nhi</file>") {
		t.Fatalf("text block missing:\n%s", output)
	}
	if !strings.Contains(output, "<file path=\"b.bin\" size=\"4\" lines=\"0\">\n<!-- This file is a binary file and not included -->\n</file>") {
		t.Fatalf("binary block missing:\n%s", output)
	}
}

func TestRunDefaultExcludes(t *testing.T) {
	rootDirectory := createRepository(t, map[string][]byte{
		".git/config": []byte("[core]\n"),
		".gitignore":  []byte("build/\n"),
		"LICENSE":     []byte("MIT\n"),
		"notes.txt":   []byte("notes\n"),
	})

	result, output := runToFile(t, bundle.Options{Root: rootDirectory, Excludes: patterns.NewRuleSet(nil, nil, nil)})

	if result.Files != 1 {
		t.Fatalf("expected only notes.txt, got %d files:\n%s", result.Files, output)
	}
	if !strings.Contains(output, `<file path="notes.txt"`) {
		t.Fatalf("notes.txt missing:\n%s", output)
	}
}

func TestRunLineNumbers(t *testing.T) {
	rootDirectory := createRepository(t, map[string][]byte{
		"x.txt": []byte("one\ntwo\nthree\nfour\nfive\nsix\nseven\neight\nnine\nten\neleven"),
	})

	_, output := runToFile(t, bundle.Options{Root: rootDirectory, LineNumbers: true})

	if !strings.Contains(output, "lines=\"11\">\n 1  one\n") || !strings.Contains(output, "\n11  eleven\n</file>") {
		t.Fatalf("line numbers missing:\n%s", output)
	}
}

func TestRunReplaceDisablesExtend(t *testing.T) {
	rootDirectory := createRepository(t, map[string][]byte{
		"secret.txt": []byte("hidden\n"),
		"README.md":  []byte("# readme\n"),
		"LICENSE":    []byte("MIT\n"),
	})

	ruleSet := patterns.NewRuleSet([]string{"secret"}, []string{"*.md"}, nil)
	_, output := runToFile(t, bundle.Options{Root: rootDirectory, Excludes: ruleSet})

	if strings.Contains(output, `path="secret.txt"`) {
		t.Fatalf("secret.txt should be excluded:\n%s", output)
	}
	if !strings.Contains(output, `<file path="README.md"`) {
		t.Fatalf("README.md should be included:\n%s", output)
	}
	if !strings.Contains(output, `<file path="LICENSE"`) {
		t.Fatalf("replace mode should disable default excludes:\n%s", output)
	}
}

func TestRunSinkFailure(t *testing.T) {
	rootDirectory := createRepository(t, map[string][]byte{"a.txt": []byte("hi")})
	outputPath := filepath.Join(t.TempDir(), "missing", "out.xml")

	_, err := bundle.Run(context.Background(), bundle.Options{
		Root:  rootDirectory,
		Model: embeddedModel,
		Sink:  sink.FileSink{Path: outputPath},
	})

	var sinkError *bundle.SinkError
	if !errors.As(err, &sinkError) {
		t.Fatalf("expected SinkError, got %v", err)
	}
	if sinkError.Sink != types.SinkKindFile {
		t.Fatalf("unexpected sink kind %s", sinkError.Sink)
	}
	if _, statError := os.Stat(outputPath); !errors.Is(statError, os.ErrNotExist) {
		t.Fatalf("expected no output file, got %v", statError)
	}
}

func TestRunStreamReportsZeroMetrics(t *testing.T) {
	rootDirectory := createRepository(t, map[string][]byte{"a.txt": []byte("hi")})
	var buffer bytes.Buffer

	result, err := bundle.Run(context.Background(), bundle.Options{
		Root:  rootDirectory,
		Model: embeddedModel,
		Sink:  sink.StreamSink{Writer: &buffer},
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if result.Files != 1 || result.SizeBytes != 0 || result.Tokens != 0 {
		t.Fatalf("unexpected stream result %+v", result)
	}
	if !strings.HasSuffix(buffer.String(), "</repository>\n") {
		t.Fatalf("incomplete streamed document:\n%s", buffer.String())
	}
	summary := result.Summary(sink.StreamSink{Writer: &buffer})
	if summary.Persisted() {
		t.Fatalf("stream summaries are not persisted")
	}
}

func TestRunClipboard(t *testing.T) {
	rootDirectory := createRepository(t, map[string][]byte{"a.txt": []byte("hi")})
	copier := &memoryCopier{}

	result, err := bundle.Run(context.Background(), bundle.Options{
		Root:  rootDirectory,
		Model: "embedded:gpt-3.5",
		Sink:  sink.ClipboardSink{Copier: copier},
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if result.SizeBytes != uint64(len(copier.text)) || result.Tokens <= 0 {
		t.Fatalf("unexpected clipboard result %+v", result)
	}
	if result.Model.DisplayName != "GPT-3.5" {
		t.Fatalf("unexpected model %q", result.Model.DisplayName)
	}
}

func TestRunRejectsUnsupportedModelBeforeWriting(t *testing.T) {
	rootDirectory := createRepository(t, map[string][]byte{"a.txt": []byte("hi")})
	var buffer bytes.Buffer

	_, err := bundle.Run(context.Background(), bundle.Options{
		Root:  rootDirectory,
		Model: "invalid",
		Sink:  sink.StreamSink{Writer: &buffer},
	})
	var unsupported *tokenizer.UnsupportedModelError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedModelError, got %v", err)
	}
	if buffer.Len() != 0 {
		t.Fatalf("expected no output, got %q", buffer.String())
	}
}

func TestRunParallelMatchesSequential(t *testing.T) {
	files := map[string][]byte{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		files["pkg/"+name+".go"] = []byte("package pkg\n\nconst " + name + " = 1\n")
	}
	rootDirectory := createRepository(t, files)

	sequentialResult, sequential := runToFile(t, bundle.Options{Root: rootDirectory})
	parallelResult, parallel := runToFile(t, bundle.Options{Root: rootDirectory, Workers: 4})

	if sequential != parallel {
		t.Fatalf("parallel output differs")
	}
	if sequentialResult != parallelResult {
		t.Fatalf("results differ: %+v vs %+v", sequentialResult, parallelResult)
	}
}

func TestRunMissingRoot(t *testing.T) {
	_, err := bundle.Run(context.Background(), bundle.Options{
		Root:  filepath.Join(t.TempDir(), "absent"),
		Model: embeddedModel,
		Sink:  sink.StreamSink{Writer: &bytes.Buffer{}},
	})
	if err == nil {
		t.Fatalf("expected an error for a missing root")
	}
}
