package render

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// CodeBlock is a fenced code block of a markdown document. Start and End are
// byte offsets of the whole block in the source, fences included.
type CodeBlock struct {
	Code     string
	Language string
	Start    int
	End      int
}

// ExtractCodeBlocks returns the non-empty fenced code blocks of markdownText
// in document order.
func ExtractCodeBlocks(markdownText string) ([]CodeBlock, error) {
	var results []CodeBlock
	source := []byte(markdownText)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		cb, ok := n.(*ast.FencedCodeBlock)
		if !ok || cb.Lines().Len() == 0 {
			return ast.WalkContinue, nil
		}
		start := cb.Lines().At(0).Start
		stop := cb.Lines().At(cb.Lines().Len() - 1).Stop
		results = append(results, CodeBlock{
			Code:     string(source[start:stop]),
			Language: strings.ToLower(string(cb.Language(source))),
			Start:    openingFenceStart(markdownText, start),
			End:      closingFenceEnd(markdownText, stop),
		})
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ExtractBlocksWithLanguage returns the code of the blocks tagged with one of
// languages.
func ExtractBlocksWithLanguage(markdownText string, languages ...string) ([]string, error) {
	blocks, err := ExtractCodeBlocks(markdownText)
	if err != nil {
		return nil, err
	}
	var ret []string
	for _, b := range blocks {
		for _, l := range languages {
			if b.Language == l {
				ret = append(ret, b.Code)
				break
			}
		}
	}
	return ret, nil
}

func openingFenceStart(src string, contentStart int) int {
	if contentStart == 0 {
		return 0
	}
	return strings.LastIndex(src[:contentStart-1], "\n") + 1
}

func closingFenceEnd(src string, contentStop int) int {
	rest := src[contentStop:]
	trimmed := strings.TrimLeft(rest, " ")
	if !strings.HasPrefix(trimmed, "```") && !strings.HasPrefix(trimmed, "~~~") {
		return contentStop
	}
	if nl := strings.Index(rest, "\n"); nl >= 0 {
		return contentStop + nl + 1
	}
	return len(src)
}
