package shell

import (
	"strings"

	"github.com/go-go-golems/gptsh/pkg/doc"
	"github.com/rs/zerolog/log"
)

// Tutorial is the usage text printed by help and chat-manager help, taken
// from the chat-manager help section. Markdown headings become bold
// underlined lines.
func (s *Session) Tutorial() string {
	if s.help == nil {
		return "no help available"
	}
	section, err := s.help.GetSectionWithSlug(doc.TutorialSlug)
	if err != nil {
		log.Warn().Err(err).Str("slug", doc.TutorialSlug).Msg("could not find help section")
		return "no help available"
	}

	var sb strings.Builder
	sb.WriteString("\n")
	s.writeHeading(&sb, section.Title)
	for _, line := range strings.Split(strings.TrimRight(section.Content, "\n"), "\n") {
		if strings.HasPrefix(line, "#") {
			s.writeHeading(&sb, strings.TrimSpace(strings.TrimLeft(line, "#")))
			continue
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (s *Session) writeHeading(sb *strings.Builder, heading string) {
	sb.WriteString(s.colors.Bold(heading))
	sb.WriteString("\n")
	sb.WriteString(s.colors.Bold(strings.Repeat("-", len(heading))))
	sb.WriteString("\n")
}
