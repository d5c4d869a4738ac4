package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"pulse-lab/domain/poll"
	"pulse-lab/infrastructure/codec"

	goredis "github.com/redis/go-redis/v9"
)

// publishScript writes the active prompt and the slide's copy only while the
// session exists. The slide, kind and option count sit next to the record so the
// submit script can check a response without decoding it.
var publishScript = goredis.NewScript(`
if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 0 then
  return 0
end
redis.call('HSET', KEYS[2], 'slide', ARGV[2], 'kind', ARGV[3], 'options', ARGV[4], 'record', ARGV[5])
redis.call('SET', KEYS[3], ARGV[5])
return 1
`)

type PromptStore struct {
	client goredis.UniversalClient
	log    *slog.Logger
}

func NewPromptStore(client goredis.UniversalClient, log *slog.Logger) *PromptStore {
	return &PromptStore{client: client, log: log}
}

// Publish overwrites the active prompt. Tallies have their own keys and are never
// touched, so a republished slide keeps its responses.
func (s *PromptStore) Publish(ctx context.Context, sessionID poll.SessionID, prompt poll.Prompt) (bool, error) {
	record, err := codec.MarshalPrompt(prompt)
	if err != nil {
		return false, err
	}
	options := 0
	if mc, ok := prompt.(poll.MultipleChoice); ok {
		options = len(mc.Options)
	}
	keys := []string{sessionsKey, activeKey(sessionID), slideKey(sessionID, prompt.Slide())}
	published, err := publishScript.Run(ctx, s.client, keys,
		string(sessionID), string(prompt.Slide()), string(prompt.Kind()), options, record).Int()
	if err != nil {
		return false, fmt.Errorf("publish prompt on %s: %w", sessionID, err)
	}
	return published == 1, nil
}

func (s *PromptStore) Active(ctx context.Context, sessionID poll.SessionID) (poll.Prompt, error) {
	return s.read(ctx, sessionID, func(pipe goredis.Pipeliner) *goredis.StringCmd {
		return pipe.HGet(ctx, activeKey(sessionID), fieldRecord)
	})
}

func (s *PromptStore) ForSlide(ctx context.Context, sessionID poll.SessionID, slideID poll.SlideID) (poll.Prompt, error) {
	return s.read(ctx, sessionID, func(pipe goredis.Pipeliner) *goredis.StringCmd {
		return pipe.Get(ctx, slideKey(sessionID, slideID))
	})
}

// read fetches a prompt record together with the session entry in one MULTI, so an
// ended session never shows a leftover prompt.
func (s *PromptStore) read(ctx context.Context, sessionID poll.SessionID,
	get func(goredis.Pipeliner) *goredis.StringCmd) (poll.Prompt, error) {
	var (
		exists *goredis.BoolCmd
		record *goredis.StringCmd
	)
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		exists = pipe.HExists(ctx, sessionsKey, string(sessionID))
		record = get(pipe)
		return nil
	})
	if err != nil && !errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("read prompt on %s: %w", sessionID, err)
	}
	if !exists.Val() || errors.Is(record.Err(), goredis.Nil) {
		return nil, nil
	}
	prompt, err := codec.UnmarshalPrompt([]byte(record.Val()))
	if err != nil {
		s.log.Warn("Unreadable prompt record, treated as absent", "session", sessionID, "error", err)
		return nil, nil
	}
	return prompt, nil
}
