package codec

import (
	"pulse-lab/domain/poll"
	"time"

	"github.com/samber/lo"
	"google.golang.org/protobuf/types/known/structpb"
)

// Request and reply fields of the gRPC service.
const (
	FieldSession     = "sessionId"
	FieldParticipant = "participantId"
	FieldOrigin      = "origin"
	FieldPrompt      = "prompt"
	FieldResponse    = "response"
	FieldTally       = "tally"
	FieldTotal       = "total"
	FieldSummary     = "summary"
	FieldResult      = "result"
	FieldKey         = "key"
	FieldPublished   = "published"
	FieldResponded   = "responded"
	FieldCreatedAt   = "createdAt"
	FieldJoinURL     = "joinUrl"
	FieldToken       = "presenterToken"
)

func String(s *structpb.Struct, field string) string {
	return s.GetFields()[field].GetStringValue()
}

func Bool(s *structpb.Struct, field string) bool {
	return s.GetFields()[field].GetBoolValue()
}

func Struct(s *structpb.Struct, field string) *structpb.Struct {
	return s.GetFields()[field].GetStructValue()
}

// NewMessage builds a struct from already converted values.
func NewMessage(fields map[string]*structpb.Value) *structpb.Struct {
	return &structpb.Struct{Fields: fields}
}

// PromptValue is null when no prompt is active.
func PromptValue(p poll.Prompt) (*structpb.Value, error) {
	if p == nil {
		return structpb.NewNullValue(), nil
	}
	s, err := PromptToStruct(p)
	if err != nil {
		return nil, err
	}
	return structpb.NewStructValue(s), nil
}

// PromptFromValue returns nil for a null or missing value.
func PromptFromValue(v *structpb.Value) (poll.Prompt, error) {
	s := v.GetStructValue()
	if s == nil {
		return nil, nil
	}
	return PromptFromStruct(s)
}

func SessionToStruct(session poll.Session, joinURL string) *structpb.Struct {
	return NewMessage(map[string]*structpb.Value{
		FieldSession:   structpb.NewStringValue(string(session.ID)),
		FieldCreatedAt: structpb.NewStringValue(session.CreatedAt.UTC().Format(time.RFC3339Nano)),
		FieldJoinURL:   structpb.NewStringValue(joinURL),
	})
}

func SessionFromStruct(s *structpb.Struct) poll.Session {
	createdAt, _ := time.Parse(time.RFC3339Nano, String(s, FieldCreatedAt))
	return poll.Session{ID: poll.SessionID(String(s, FieldSession)), CreatedAt: createdAt}
}

func SummaryToStruct(summary poll.Summary) *structpb.Struct {
	options := lo.Map(summary.Options, func(o poll.OptionResult, _ int) *structpb.Value {
		return structpb.NewStructValue(NewMessage(map[string]*structpb.Value{
			"index":   structpb.NewNumberValue(float64(o.Index)),
			"label":   structpb.NewStringValue(o.Label),
			"count":   structpb.NewNumberValue(float64(o.Count)),
			"percent": structpb.NewNumberValue(float64(o.Percent)),
		}))
	})
	words := lo.Map(summary.Words, func(w poll.WordResult, _ int) *structpb.Value {
		return structpb.NewStructValue(NewMessage(map[string]*structpb.Value{
			"word":     structpb.NewStringValue(w.Word),
			"count":    structpb.NewNumberValue(float64(w.Count)),
			"fontSize": structpb.NewNumberValue(float64(w.FontSize)),
		}))
	})
	return NewMessage(map[string]*structpb.Value{
		FieldKind:  structpb.NewStringValue(string(summary.Kind)),
		FieldTotal: structpb.NewNumberValue(float64(summary.Total)),
		"options":  structpb.NewListValue(&structpb.ListValue{Values: options}),
		"words":    structpb.NewListValue(&structpb.ListValue{Values: words}),
	})
}

func SummaryFromStruct(s *structpb.Struct) poll.Summary {
	number := func(v *structpb.Struct, field string) float64 { return v.GetFields()[field].GetNumberValue() }
	options := lo.Map(s.GetFields()["options"].GetListValue().GetValues(), func(v *structpb.Value, _ int) poll.OptionResult {
		o := v.GetStructValue()
		return poll.OptionResult{
			Index:   int(number(o, "index")),
			Label:   String(o, "label"),
			Count:   uint64(number(o, "count")),
			Percent: int(number(o, "percent")),
		}
	})
	words := lo.Map(s.GetFields()["words"].GetListValue().GetValues(), func(v *structpb.Value, _ int) poll.WordResult {
		w := v.GetStructValue()
		return poll.WordResult{
			Word:     String(w, "word"),
			Count:    uint64(number(w, "count")),
			FontSize: int(number(w, "fontSize")),
		}
	})
	return poll.Summary{
		Kind:    poll.Kind(String(s, FieldKind)),
		Total:   uint64(number(s, FieldTotal)),
		Options: options,
		Words:   words,
	}
}
