// Package doc holds the help sections of gptsh, served by the glazed help
// system of the binary and by the help builtin of the shell.
package doc

import (
	"embed"

	"github.com/go-go-golems/glazed/pkg/help"
)

//go:embed topics/*
var docFS embed.FS

const (
	TutorialSlug      = "chat-manager-tutorial"
	ConfigurationSlug = "gptsh-configuration"
)

func AddDocToHelpSystem(helpSystem *help.HelpSystem) error {
	return helpSystem.LoadSectionsFromFS(docFS, ".")
}

// NewHelpSystem returns a help system loaded with the gptsh sections.
func NewHelpSystem() (*help.HelpSystem, error) {
	helpSystem := help.NewHelpSystem()
	if err := AddDocToHelpSystem(helpSystem); err != nil {
		return nil, err
	}
	return helpSystem, nil
}
