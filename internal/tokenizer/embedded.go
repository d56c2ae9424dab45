package tokenizer

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

var embeddedEncodings = map[string]tokenizer.Encoding{
	vocabularyO200k:  tokenizer.O200kBase,
	vocabularyCl100k: tokenizer.Cl100kBase,
	vocabularyR50k:   tokenizer.R50kBase,
}

type embeddedCounter struct {
	codec tokenizer.Codec
	name  string
}

func newEmbeddedCounter(vocabulary string) (Counter, error) {
	encoding, known := embeddedEncodings[vocabulary]
	if !known {
		return nil, fmt.Errorf("no embedded vocabulary %s", vocabulary)
	}
	codec, err := tokenizer.Get(encoding)
	if err != nil {
		return nil, err
	}
	return embeddedCounter{codec: codec, name: string(BackendEmbedded) + "/" + vocabulary}, nil
}

func (counter embeddedCounter) Name() string {
	return counter.name
}

func (counter embeddedCounter) CountString(input string) (int, error) {
	tokenIDs, _, err := counter.codec.Encode(input)
	if err != nil {
		return 0, err
	}
	return len(tokenIDs), nil
}
