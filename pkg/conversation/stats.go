package conversation

import (
	"fmt"
	"strings"
)

type Stats struct {
	Label     string
	Tokens    int
	TrimAfter int
	Messages  int
}

func (c *Conversation) Stats() Stats {
	return Stats{
		Label:     c.label,
		Tokens:    c.Tokens(),
		TrimAfter: c.maxTokens,
		Messages:  len(c.history),
	}
}

type statLine struct {
	glyph string
	key   string
	value string
	main  bool
}

func (s Stats) lines() []statLine {
	label := s.Label
	if label == "" {
		label = "None"
	}
	return []statLine{
		{"🤖", "Alias:", label, true},
		{"🪙", "Tokens:", fmt.Sprint(s.Tokens), false},
		{"🔪", "Trim After:", fmt.Sprintf("%d Tokens", s.TrimAfter), false},
		{"📨", "Messages:", fmt.Sprint(s.Messages), false},
	}
}

func (s Stats) String() string {
	var ret []string
	for _, l := range s.lines() {
		ret = append(ret, l.key+" "+l.value)
	}
	return strings.Join(ret, "\n")
}

// StatsString formats the stats one per line with a glyph, using the
// conversation's header styler for the keys when it has one.
func (c *Conversation) StatsString() string {
	var ret []string
	for _, l := range c.Stats().lines() {
		key := l.key
		if c.styler != nil {
			if l.main {
				key = c.styler.User(key)
			} else {
				key = c.styler.Assistant(key)
			}
		}
		ret = append(ret, fmt.Sprintf("%s %s %s", l.glyph, key, l.value))
	}
	return strings.Join(ret, "\n")
}
