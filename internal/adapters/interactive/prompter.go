package interactive

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/sahilm/fuzzy"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/config"
	"github.com/urbandao/urbandao/internal/usecase"
)

// PrompterAdapter asks the operator on the terminal
type PrompterAdapter struct {
	config *config.RuntimeConfig
}

// NewPrompterAdapter creates a new prompter adapter
func NewPrompterAdapter(cfg *config.RuntimeConfig) *PrompterAdapter {
	return &PrompterAdapter{config: cfg}
}

// Confirm asks a yes/no question. Anything but yes is a no.
func (p *PrompterAdapter) Confirm(prompt string) (bool, error) {
	if p.config.NonInteractive {
		return false, fmt.Errorf("%w: confirmation not available in non-interactive mode", domain.ErrInvalidInput)
	}
	confirm := promptui.Prompt{
		Label:     prompt,
		IsConfirm: true,
	}
	if _, err := confirm.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return true, nil
}

// Select picks one of options, searching with fuzzy matching
func (p *PrompterAdapter) Select(prompt string, options []string) (int, error) {
	if p.config.NonInteractive {
		return -1, fmt.Errorf("%w: interactive selection not available in non-interactive mode", domain.ErrInvalidInput)
	}
	if len(options) == 0 {
		return -1, fmt.Errorf("%w: nothing to select", domain.ErrNotFound)
	}
	if len(options) == 1 {
		return 0, nil
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ . | cyan }}",
		Inactive: "  {{ . | faint }}",
		Selected: "✓ {{ . | green }}",
		Help:     color.New(color.FgYellow).Sprint("Use arrow keys to navigate, Enter to select"),
	}

	sel := promptui.Select{
		Label:     prompt,
		Items:     options,
		Templates: templates,
		Size:      10,
		Searcher:  fuzzySearcher(options),
	}
	index, _, err := sel.Run()
	if err != nil {
		return -1, fmt.Errorf("selection cancelled: %w", err)
	}
	return index, nil
}

// fuzzySearcher matches the search input against each option
func fuzzySearcher(options []string) func(input string, index int) bool {
	return func(input string, index int) bool {
		input = strings.TrimSpace(input)
		if input == "" {
			return true
		}
		return len(fuzzy.Find(input, []string{options[index]})) > 0
	}
}

// Ensure PrompterAdapter implements the prompt ports
var (
	_ usecase.Confirmer = (*PrompterAdapter)(nil)
	_ usecase.Selector  = (*PrompterAdapter)(nil)
)
