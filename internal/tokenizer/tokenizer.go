// Package tokenizer counts tokens in text for a selected model vocabulary.
package tokenizer

import (
	"fmt"
	"strings"
	"sync"
)

// Counter estimates token counts for text content.
type Counter interface {
	Name() string
	CountString(input string) (int, error)
}

// Backend identifies a tokenizer implementation family.
type Backend string

const (
	// BackendTiktoken loads vocabularies through tiktoken-go, which downloads and caches them.
	BackendTiktoken Backend = "tiktoken"
	// BackendEmbedded uses vocabularies compiled into the binary.
	BackendEmbedded Backend = "embedded"
)

const (
	// DefaultModel is used when the selector names no model.
	DefaultModel = "gpt4o"

	selectorBackendSeparator = ":"

	vocabularyO200k  = "o200k_base"
	vocabularyCl100k = "cl100k_base"
	vocabularyR50k   = "r50k_base"
)

// Model describes one selectable model and the vocabulary it counts with.
type Model struct {
	ID          string
	DisplayName string
	Vocabulary  string
}

var supportedModels = []Model{
	{ID: "gpt4o", DisplayName: "GPT-4o", Vocabulary: vocabularyO200k},
	{ID: "gpt4", DisplayName: "GPT-4", Vocabulary: vocabularyCl100k},
	{ID: "gpt3.5", DisplayName: "GPT-3.5", Vocabulary: vocabularyCl100k},
	{ID: "gpt3", DisplayName: "GPT-3", Vocabulary: vocabularyR50k},
	{ID: "gpt2", DisplayName: "GPT-2", Vocabulary: vocabularyR50k},
}

// Selection is a parsed tokenizer selector.
type Selection struct {
	Backend Backend
	Model   Model
}

// String renders the selection in selector syntax.
func (selection Selection) String() string {
	return string(selection.Backend) + selectorBackendSeparator + selection.Model.ID
}

// SupportedModelIDs lists the model identifiers accepted by ParseSelector.
func SupportedModelIDs() []string {
	identifiers := make([]string, 0, len(supportedModels))
	for _, model := range supportedModels {
		identifiers = append(identifiers, model.ID)
	}
	return identifiers
}

// ParseSelector resolves a selector of the form "[backend:]model". Matching is
// case-insensitive and dashes in the model part are ignored, so "GPT-4o" and
// "tiktoken:gpt4o" select the same model.
func ParseSelector(selector string) (Selection, error) {
	normalized := strings.ToLower(strings.TrimSpace(selector))
	backend := BackendTiktoken
	modelPart := normalized
	if backendPart, remainder, hasBackend := strings.Cut(normalized, selectorBackendSeparator); hasBackend {
		switch Backend(backendPart) {
		case BackendTiktoken, BackendEmbedded:
			backend = Backend(backendPart)
		default:
			return Selection{}, &UnsupportedModelError{Selector: selector}
		}
		modelPart = remainder
	}
	modelPart = strings.ReplaceAll(strings.TrimSpace(modelPart), "-", "")
	if modelPart == "" {
		modelPart = DefaultModel
	}
	for _, model := range supportedModels {
		if model.ID == modelPart {
			return Selection{Backend: backend, Model: model}, nil
		}
	}
	return Selection{}, &UnsupportedModelError{Selector: selector}
}

type counterCacheKey struct {
	backend    Backend
	vocabulary string
}

var (
	counterCacheMutex sync.Mutex
	counterCache      = map[counterCacheKey]Counter{}
)

// NewCounter returns a Counter for selection. Models sharing a vocabulary share
// one loaded Counter for the lifetime of the process.
func NewCounter(selection Selection) (Counter, error) {
	key := counterCacheKey{backend: selection.Backend, vocabulary: selection.Model.Vocabulary}

	counterCacheMutex.Lock()
	defer counterCacheMutex.Unlock()
	if cached, exists := counterCache[key]; exists {
		return cached, nil
	}

	var counter Counter
	var loadError error
	switch selection.Backend {
	case BackendTiktoken:
		counter, loadError = newTiktokenCounter(selection.Model.Vocabulary)
	case BackendEmbedded:
		counter, loadError = newEmbeddedCounter(selection.Model.Vocabulary)
	default:
		loadError = fmt.Errorf("unknown backend %q", selection.Backend)
	}
	if loadError != nil {
		return nil, &LoadError{Selector: selection.String(), Err: loadError}
	}
	counterCache[key] = counter
	return counter, nil
}

// CountTokens counts the tokens of text using counter, wrapping failures in EncodeError.
func CountTokens(counter Counter, text string) (int, error) {
	if counter == nil {
		return 0, &EncodeError{Counter: "", Err: fmt.Errorf("nil tokenizer counter")}
	}
	tokenCount, countError := counter.CountString(text)
	if countError != nil {
		return 0, &EncodeError{Counter: counter.Name(), Err: countError}
	}
	return tokenCount, nil
}
