package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"pulse-lab/domain/poll"
	"strconv"

	goredis "github.com/redis/go-redis/v9"
)

// submitScript runs atomically on the server: session check, active slide and
// key check, HSETNX of the mark, HINCRBY of the counter. Returns 1 when counted.
var submitScript = goredis.NewScript(`
if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 0 then
  return 0
end
local active = redis.call('HMGET', KEYS[2], 'slide', 'kind', 'options')
if active[1] ~= ARGV[2] then
  return 0
end
if active[2] == 'multiple_choice' then
  local index = tonumber(ARGV[4])
  if not index or tostring(index) ~= ARGV[4] or index < 0 or index >= (tonumber(active[3]) or 0) then
    return 0
  end
elseif ARGV[4] == '' then
  return 0
end
if redis.call('HSETNX', KEYS[3], ARGV[3], ARGV[4]) == 0 then
  return 0
end
redis.call('HINCRBY', KEYS[4], ARGV[4], 1)
return 1
`)

type TallyStore struct {
	client goredis.UniversalClient
	log    *slog.Logger
}

func NewTallyStore(client goredis.UniversalClient, log *slog.Logger) *TallyStore {
	return &TallyStore{client: client, log: log}
}

// Submit claims the participant's mark and counts the key in one script, so the
// tally of a slide always equals its number of marks across instances.
func (s *TallyStore) Submit(ctx context.Context, sessionID poll.SessionID, slideID poll.SlideID,
	participantID poll.ParticipantID, key string) (poll.SubmitResult, error) {
	keys := []string{sessionsKey, activeKey(sessionID), marksKey(sessionID, slideID), tallyKey(sessionID, slideID)}
	counted, err := submitScript.Run(ctx, s.client, keys,
		string(sessionID), string(slideID), string(participantID), key).Int()
	if err != nil {
		s.log.Warn("Response not recorded", "session", sessionID, "slide", slideID,
			"participant", participantID, "error", err)
		return poll.Ignored, fmt.Errorf("submit on %s/%s: %w", sessionID, slideID, err)
	}
	if counted != 1 {
		return poll.Ignored, nil
	}
	return poll.Accepted, nil
}

func (s *TallyStore) Tally(ctx context.Context, sessionID poll.SessionID, slideID poll.SlideID) (poll.Tally, error) {
	var (
		exists   *goredis.BoolCmd
		counters *goredis.MapStringStringCmd
	)
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		exists = pipe.HExists(ctx, sessionsKey, string(sessionID))
		counters = pipe.HGetAll(ctx, tallyKey(sessionID, slideID))
		return nil
	})
	if err != nil {
		return poll.Tally{}, fmt.Errorf("read tally on %s/%s: %w", sessionID, slideID, err)
	}
	tally := poll.Tally{}
	if !exists.Val() {
		return tally, nil
	}
	for key, val := range counters.Val() {
		count, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			s.log.Warn("Unreadable counter, treated as absent", "session", sessionID, "slide", slideID, "key", key)
			continue
		}
		tally[key] = count
	}
	return tally, nil
}

func (s *TallyStore) Mark(ctx context.Context, sessionID poll.SessionID, slideID poll.SlideID,
	participantID poll.ParticipantID) (string, bool, error) {
	var (
		exists *goredis.BoolCmd
		mark   *goredis.StringCmd
	)
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		exists = pipe.HExists(ctx, sessionsKey, string(sessionID))
		mark = pipe.HGet(ctx, marksKey(sessionID, slideID), string(participantID))
		return nil
	})
	if err != nil && !errors.Is(err, goredis.Nil) {
		return "", false, fmt.Errorf("read mark on %s/%s: %w", sessionID, slideID, err)
	}
	if !exists.Val() || errors.Is(mark.Err(), goredis.Nil) {
		return "", false, nil
	}
	return mark.Val(), true, nil
}
