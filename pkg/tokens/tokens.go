package tokens

import (
	"github.com/go-go-golems/gptsh/pkg/transcript"
	"github.com/pkg/errors"
)

const (
	// FramingTokens is the fixed cost of priming a reply, counted once per
	// request.
	FramingTokens = 3
	// TokensPerMessage is the fixed per-message overhead.
	TokensPerMessage = 3
)

// Tokenizer splits text into opaque sub-word units. Only the number of units
// is ever used. tokenizer.Codec from github.com/tiktoken-go/tokenizer
// satisfies it directly.
type Tokenizer interface {
	Encode(text string) ([]uint, []string, error)
}

type Accountant struct {
	tokenizer Tokenizer
}

func NewAccountant(tokenizer Tokenizer) *Accountant {
	return &Accountant{tokenizer: tokenizer}
}

// CountTokens returns FramingTokens followed by one count per message, so the
// result is always one entry longer than messages.
func (a *Accountant) CountTokens(messages []transcript.Message) ([]int, error) {
	ret := make([]int, 0, len(messages)+1)
	ret = append(ret, FramingTokens)

	for i, m := range messages {
		n, err := a.CountMessage(m)
		if err != nil {
			return nil, errors.Wrapf(err, "could not count tokens of message %d", i)
		}
		ret = append(ret, n)
	}

	return ret, nil
}

// CountMessage returns the cost of a single message without the framing
// constant.
func (a *Accountant) CountMessage(m transcript.Message) (int, error) {
	if a.tokenizer == nil {
		return 0, errors.New("no tokenizer configured")
	}
	ids, _, err := a.tokenizer.Encode(m.Content)
	if err != nil {
		return 0, err
	}
	return TokensPerMessage + len(ids), nil
}

// Total is sum(CountTokens(messages)).
func (a *Accountant) Total(messages []transcript.Message) (int, error) {
	counts, err := a.CountTokens(messages)
	if err != nil {
		return 0, err
	}
	return Sum(counts), nil
}

// PerMessage is CountTokens without the leading framing constant, aligned
// index for index with messages.
func (a *Accountant) PerMessage(messages []transcript.Message) ([]int, error) {
	counts, err := a.CountTokens(messages)
	if err != nil {
		return nil, err
	}
	return counts[1:], nil
}

func Sum(counts []int) int {
	ret := 0
	for _, c := range counts {
		ret += c
	}
	return ret
}
