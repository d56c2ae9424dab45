package tokenizer

import (
	"errors"

	"github.com/pkoukk/tiktoken-go"
)

type tiktokenCounter struct {
	encoding *tiktoken.Tiktoken
	name     string
}

func newTiktokenCounter(vocabulary string) (Counter, error) {
	encoding, err := tiktoken.GetEncoding(vocabulary)
	if err != nil {
		return nil, err
	}
	return tiktokenCounter{encoding: encoding, name: string(BackendTiktoken) + "/" + vocabulary}, nil
}

func (counter tiktokenCounter) Name() string {
	return counter.name
}

// CountString treats special-token text as ordinary text.
func (counter tiktokenCounter) CountString(input string) (int, error) {
	if counter.encoding == nil {
		return 0, errors.New("nil tiktoken encoder")
	}
	tokenIDs := counter.encoding.Encode(input, nil, nil)
	return len(tokenIDs), nil
}
