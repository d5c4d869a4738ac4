package poll

import (
	"fmt"
	"pulse-lab/errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var validate = validator.New()

type Kind string

const (
	KindMultipleChoice Kind = "multiple_choice"
	KindWordCloud      Kind = "word_cloud"
)

// Prompt is the interactive question broadcast for a slide.
// MultipleChoice and WordCloud are the only implementations.
type Prompt interface {
	Slide() SlideID
	Kind() Kind
	Text() string
	isPrompt()
}

type MultipleChoice struct {
	SlideID  SlideID  `validate:"required,max=64,excludes=:"`
	Question string   `validate:"required,max=280"`
	Options  []string `validate:"min=2,dive,required,max=120"`
}

func (m MultipleChoice) Slide() SlideID { return m.SlideID }
func (m MultipleChoice) Kind() Kind     { return KindMultipleChoice }
func (m MultipleChoice) Text() string   { return m.Question }
func (MultipleChoice) isPrompt()        {}

type WordCloud struct {
	SlideID  SlideID `validate:"required,max=64,excludes=:"`
	Question string  `validate:"required,max=280"`
}

func (w WordCloud) Slide() SlideID { return w.SlideID }
func (w WordCloud) Kind() Kind     { return KindWordCloud }
func (w WordCloud) Text() string   { return w.Question }
func (WordCloud) isPrompt()        {}

// WithDefaultLabels fills blank options with "Option N" the way the editor labels new options.
func (m MultipleChoice) WithDefaultLabels() MultipleChoice {
	m.Options = lo.Map(m.Options, func(option string, i int) string {
		if trimmed := strings.TrimSpace(option); trimmed != "" {
			return trimmed
		}
		return fmt.Sprintf("Option %d", i+1)
	})
	m.Question = strings.TrimSpace(m.Question)
	return m
}

// ValidatePrompt checks a prompt before it is published. maxOptions <= 0 disables the upper bound.
func ValidatePrompt(p Prompt, maxOptions int) error {
	switch v := p.(type) {
	case MultipleChoice:
		if err := validate.Struct(v); err != nil {
			return fmt.Errorf("%w: %s", errors.ErrInvalidPrompt, err.Error())
		}
		if maxOptions > 0 && len(v.Options) > maxOptions {
			return fmt.Errorf("%w: %d options, at most %d allowed", errors.ErrInvalidPrompt, len(v.Options), maxOptions)
		}
		return nil
	case WordCloud:
		if err := validate.Struct(v); err != nil {
			return fmt.Errorf("%w: %s", errors.ErrInvalidPrompt, err.Error())
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown prompt %T", errors.ErrInvalidPrompt, p)
	}
}

// ValidateIdentifier rejects ids that would break the storage key layout.
func ValidateIdentifier(id string) error {
	if err := validate.Var(id, "required,max=128,excludes=:"); err != nil {
		return fmt.Errorf("%w: %q", errors.ErrInvalidIdentifier, id)
	}
	return nil
}
