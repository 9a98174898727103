package paraformer

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Vocab maps model output ids to token strings, one token per line in the
// token list file shipped with the model.
type Vocab struct {
	tokens []string
}

// Special tokens never emitted into utterances.
var specialTokens = map[string]struct{}{
	"<blank>": {},
	"<s>":     {},
	"</s>":    {},
	"<unk>":   {},
}

func LoadVocab(path string) (*Vocab, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open token list: %w", err)
	}
	defer f.Close()

	var tokens []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		tokens = append(tokens, strings.TrimRight(sc.Text(), "\r\n"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read token list: %w", err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("token list %s is empty", path)
	}
	return &Vocab{tokens: tokens}, nil
}

func (v *Vocab) Size() int { return len(v.tokens) }

// Token resolves an id; out-of-range ids and special tokens yield "", which
// callers drop.
func (v *Vocab) Token(id int) string {
	if id < 0 || id >= len(v.tokens) {
		return ""
	}
	t := v.tokens[id]
	if _, special := specialTokens[t]; special {
		return ""
	}
	return t
}
