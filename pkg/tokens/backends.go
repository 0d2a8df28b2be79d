package tokens

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/tiktoken-go/tokenizer"
	tiktoken "github.com/weaviate/tiktoken-go"
)

type Backend string

const (
	BackendTokenizer Backend = "tiktoken"
	BackendWeaviate  Backend = "weaviate"
)

// DefaultEncoding maps a model name to the BPE encoding it uses.
func DefaultEncoding(model string) string {
	if strings.HasPrefix(model, "gpt-4") || strings.HasPrefix(model, "gpt-3.5-turbo") || strings.HasPrefix(model, "text-embedding-ada-002") {
		return "cl100k_base"
	} else if strings.HasPrefix(model, "text-davinci-002") || strings.HasPrefix(model, "text-davinci-003") {
		return "p50k_base"
	}
	return "r50k_base"
}

// NewCodec returns a tiktoken-go/tokenizer codec for model, falling back to
// the encoding when the model is unknown to the library.
func NewCodec(model string, encoding string) (tokenizer.Codec, error) {
	if model != "" {
		c, err := tokenizer.ForModel(tokenizer.Model(model))
		if err == nil {
			return c, nil
		}
		log.Debug().Err(err).Str("model", model).Msg("no codec for model, falling back to encoding")
		if encoding == "" {
			encoding = DefaultEncoding(model)
		}
	}
	if encoding == "" {
		encoding = "cl100k_base"
	}
	c, err := tokenizer.Get(tokenizer.Encoding(encoding))
	if err != nil {
		return nil, errors.Wrapf(err, "error creating tokenizer for encoding %s", encoding)
	}
	return c, nil
}

// TiktokenTokenizer adapts github.com/weaviate/tiktoken-go to Tokenizer.
type TiktokenTokenizer struct {
	encoding *tiktoken.Tiktoken
}

func NewTiktokenTokenizer(encoding string) (*TiktokenTokenizer, error) {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, errors.Wrapf(err, "error initializing tiktoken encoding %s", encoding)
	}
	return &TiktokenTokenizer{encoding: enc}, nil
}

func (t *TiktokenTokenizer) Encode(text string) ([]uint, []string, error) {
	ids := t.encoding.Encode(text, nil, nil)
	ret := make([]uint, len(ids))
	for i, id := range ids {
		ret[i] = uint(id)
	}
	return ret, nil, nil
}

var _ Tokenizer = (*TiktokenTokenizer)(nil)

// NewTokenizer builds the tokenizer for backend. Unknown backends are an
// error, an empty backend selects BackendTokenizer.
func NewTokenizer(backend Backend, model string) (Tokenizer, error) {
	switch backend {
	case "", BackendTokenizer:
		return NewCodec(model, "")
	case BackendWeaviate:
		return NewTiktokenTokenizer(DefaultEncoding(model))
	default:
		return nil, errors.Errorf("unknown token backend: %s (should be one of %s, %s)", backend, BackendTokenizer, BackendWeaviate)
	}
}

// LazyTokenizer defers loading the BPE ranks until the first Encode call.
// Construction errors are memoized and returned on every call.
type LazyTokenizer struct {
	once    sync.Once
	factory func() (Tokenizer, error)
	t       Tokenizer
	err     error
}

func NewLazyTokenizer(factory func() (Tokenizer, error)) *LazyTokenizer {
	return &LazyTokenizer{factory: factory}
}

func (l *LazyTokenizer) Encode(text string) ([]uint, []string, error) {
	l.once.Do(func() {
		l.t, l.err = l.factory()
	})
	if l.err != nil {
		return nil, nil, l.err
	}
	return l.t.Encode(text)
}

var _ Tokenizer = (*LazyTokenizer)(nil)
