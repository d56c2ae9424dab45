package tokenizer

import (
	"fmt"
	"strings"
)

// UnsupportedModelError reports a selector that names no known backend or model.
type UnsupportedModelError struct {
	Selector string
}

func (unsupported *UnsupportedModelError) Error() string {
	return fmt.Sprintf("unsupported model %q; supported models: %s", unsupported.Selector, strings.Join(SupportedModelIDs(), ", "))
}

// LoadError reports that a tokenizer vocabulary could not be loaded.
type LoadError struct {
	Selector string
	Err      error
}

func (loadError *LoadError) Error() string {
	return fmt.Sprintf("load tokenizer %s: %v", loadError.Selector, loadError.Err)
}

func (loadError *LoadError) Unwrap() error {
	return loadError.Err
}

// EncodeError reports that a loaded tokenizer failed to encode text.
type EncodeError struct {
	Counter string
	Err     error
}

func (encodeError *EncodeError) Error() string {
	return fmt.Sprintf("encode with tokenizer %s: %v", encodeError.Counter, encodeError.Err)
}

func (encodeError *EncodeError) Unwrap() error {
	return encodeError.Err
}
