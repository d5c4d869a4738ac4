// Package codec converts poll values to and from protobuf well-known types.
// The same shapes are used on disk and on the wire.
package codec

import (
	"fmt"
	"pulse-lab/domain/poll"
	"pulse-lab/errors"
	"math"
	"strconv"

	"github.com/samber/lo"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	FieldSlideID  = "slideId"
	FieldKind     = "kind"
	FieldQuestion = "question"
	FieldOptions  = "options"
)

func PromptToStruct(p poll.Prompt) (*structpb.Struct, error) {
	fields := map[string]any{
		FieldSlideID:  string(p.Slide()),
		FieldKind:     string(p.Kind()),
		FieldQuestion: p.Text(),
	}
	if mc, ok := p.(poll.MultipleChoice); ok {
		fields[FieldOptions] = lo.Map(mc.Options, func(o string, _ int) any { return o })
	}
	return structpb.NewStruct(fields)
}

// PromptFromStruct rebuilds a prompt; the result is not validated.
func PromptFromStruct(s *structpb.Struct) (poll.Prompt, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: empty prompt", errors.ErrInvalidPrompt)
	}
	slide := poll.SlideID(s.GetFields()[FieldSlideID].GetStringValue())
	question := s.GetFields()[FieldQuestion].GetStringValue()

	switch poll.Kind(s.GetFields()[FieldKind].GetStringValue()) {
	case poll.KindMultipleChoice:
		values := s.GetFields()[FieldOptions].GetListValue().GetValues()
		options := lo.Map(values, func(v *structpb.Value, _ int) string { return v.GetStringValue() })
		return poll.MultipleChoice{SlideID: slide, Question: question, Options: options}, nil
	case poll.KindWordCloud:
		return poll.WordCloud{SlideID: slide, Question: question}, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", errors.ErrInvalidPrompt, s.GetFields()[FieldKind].GetStringValue())
	}
}

// MarshalPrompt is the stored form of a prompt, shared by every store.
func MarshalPrompt(p poll.Prompt) ([]byte, error) {
	s, err := PromptToStruct(p)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

// UnmarshalPrompt decodes and validates a stored prompt.
func UnmarshalPrompt(b []byte) (poll.Prompt, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("%w: %s", errors.ErrInvalidPrompt, err.Error())
	}
	prompt, err := PromptFromStruct(&s)
	if err != nil {
		return nil, err
	}
	if err := poll.ValidatePrompt(prompt, 0); err != nil {
		return nil, err
	}
	return prompt, nil
}

func TallyToStruct(t poll.Tally) *structpb.Struct {
	fields := make(map[string]*structpb.Value, len(t))
	for k, v := range t {
		fields[k] = structpb.NewNumberValue(float64(v))
	}
	return &structpb.Struct{Fields: fields}
}

func TallyFromStruct(s *structpb.Struct) poll.Tally {
	out := make(poll.Tally, len(s.GetFields()))
	for k, v := range s.GetFields() {
		if n := v.GetNumberValue(); n > 0 {
			out[k] = uint64(n)
		}
	}
	return out
}

func ResponseToStruct(r poll.Response) *structpb.Struct {
	switch v := r.(type) {
	case poll.OptionResponse:
		return &structpb.Struct{Fields: map[string]*structpb.Value{
			"option": structpb.NewNumberValue(float64(v.Index)),
		}}
	case poll.WordResponse:
		return &structpb.Struct{Fields: map[string]*structpb.Value{
			"word": structpb.NewStringValue(v.Word),
		}}
	default:
		return &structpb.Struct{}
	}
}

// ResponseFromStruct accepts {"option": n} or {"word": "..."}; numeric strings are
// accepted for option so query-style clients work too.
func ResponseFromStruct(s *structpb.Struct) (poll.Response, error) {
	if v, ok := s.GetFields()["option"]; ok {
		switch kind := v.GetKind().(type) {
		case *structpb.Value_NumberValue:
			n := kind.NumberValue
			if n != math.Trunc(n) || n < math.MinInt32 || n > math.MaxInt32 {
				return nil, fmt.Errorf("%w: option %v is not an index", errors.ErrInvalidResponse, n)
			}
			return poll.OptionResponse{Index: int(n)}, nil
		case *structpb.Value_StringValue:
			index, err := strconv.Atoi(kind.StringValue)
			if err != nil {
				return nil, fmt.Errorf("%w: option %q", errors.ErrInvalidResponse, kind.StringValue)
			}
			return poll.OptionResponse{Index: index}, nil
		}
	}
	if v, ok := s.GetFields()["word"]; ok {
		return poll.WordResponse{Word: v.GetStringValue()}, nil
	}
	return nil, fmt.Errorf("%w: expected option or word", errors.ErrInvalidResponse)
}
