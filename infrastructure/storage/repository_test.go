package storage

import (
	"context"
	"fmt"
	"log/slog"
	"pulse-lab/domain/poll"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// SetupTestDB initializes an in-memory Badger instance for testing
func SetupTestDB(t *testing.T) (*badger.DB, func()) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)

	return db, func() {
		db.Close()
	}
}

type repos struct {
	sessions *SessionRepository
	prompts  *PromptRepository
	tallies  *TallyRepository
}

func newRepos(db *badger.DB) repos {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	return repos{
		sessions: NewSessionRepository(db, log),
		prompts:  NewPromptRepository(db, log),
		tallies:  NewTallyRepository(db, log, NewParticipantGuard(log), 100),
	}
}

var capital = poll.MultipleChoice{SlideID: "s1", Question: "Capital?", Options: []string{"Paris", "London"}}

func TestSessionRepository_CreateGetDelete(t *testing.T) {
	req := require.New(t)
	db, cleanup := SetupTestDB(t)
	defer cleanup()
	r := newRepos(db)
	ctx := context.Background()
	session := poll.Session{ID: "AB12X9", CreatedAt: time.Now().UTC().Truncate(time.Millisecond)}

	// Given a new session
	created, err := r.sessions.Create(ctx, session)
	req.NoError(err)
	req.True(created)

	// When the same code is created again
	created, err = r.sessions.Create(ctx, session)

	// Then the collision is reported without error
	req.NoError(err)
	req.False(created)

	got, err := r.sessions.Get(ctx, session.ID)
	req.NoError(err)
	req.NotNil(got)
	req.True(session.CreatedAt.Equal(got.CreatedAt))

	list, err := r.sessions.List(ctx)
	req.NoError(err)
	req.Len(list, 1)

	// When the session is deleted
	req.NoError(r.sessions.Delete(ctx, session.ID))

	// Then it is gone, and deleting again is harmless
	got, err = r.sessions.Get(ctx, session.ID)
	req.NoError(err)
	req.Nil(got)
	req.NoError(r.sessions.Delete(ctx, session.ID))
}

func TestPromptRepository_PublishWithoutSession(t *testing.T) {
	req := require.New(t)
	db, cleanup := SetupTestDB(t)
	defer cleanup()
	r := newRepos(db)
	ctx := context.Background()

	// When a prompt is published on a session that does not exist
	published, err := r.prompts.Publish(ctx, "NOPE42", capital)

	// Then nothing is published
	req.NoError(err)
	req.False(published)
	prompt, err := r.prompts.Active(ctx, "NOPE42")
	req.NoError(err)
	req.Nil(prompt)
}

func TestPromptRepository_PublishOverwrites(t *testing.T) {
	req := require.New(t)
	db, cleanup := SetupTestDB(t)
	defer cleanup()
	r := newRepos(db)
	ctx := context.Background()
	_, err := r.sessions.Create(ctx, poll.Session{ID: "AB12X9", CreatedAt: time.Now()})
	req.NoError(err)

	// Given a published multiple choice
	published, err := r.prompts.Publish(ctx, "AB12X9", capital)
	req.NoError(err)
	req.True(published)

	// When a word cloud is published on another slide
	cloud := poll.WordCloud{SlideID: "s2", Question: "Mood?"}
	_, err = r.prompts.Publish(ctx, "AB12X9", cloud)
	req.NoError(err)

	// Then only the last prompt is active
	prompt, err := r.prompts.Active(ctx, "AB12X9")
	req.NoError(err)
	req.Equal(cloud, prompt)

	// And each slide still knows its own prompt
	first, err := r.prompts.ForSlide(ctx, "AB12X9", "s1")
	req.NoError(err)
	req.Equal(capital, first)
	unknown, err := r.prompts.ForSlide(ctx, "AB12X9", "s9")
	req.NoError(err)
	req.Nil(unknown)
}

func TestPromptRepository_CorruptRecordIsAbsent(t *testing.T) {
	req := require.New(t)
	db, cleanup := SetupTestDB(t)
	defer cleanup()
	r := newRepos(db)
	ctx := context.Background()
	_, err := r.sessions.Create(ctx, poll.Session{ID: "AB12X9", CreatedAt: time.Now()})
	req.NoError(err)

	// Given garbage stored as the active prompt
	req.NoError(db.Update(func(txn *badger.Txn) error {
		return txn.Set(promptKey("AB12X9"), []byte{0xff, 0x01, 0x02})
	}))

	// Then the session reads as having no prompt
	prompt, err := r.prompts.Active(ctx, "AB12X9")
	req.NoError(err)
	req.Nil(prompt)
}

func TestTallyRepository_WorkedExample(t *testing.T) {
	req := require.New(t)
	db, cleanup := SetupTestDB(t)
	defer cleanup()
	r := newRepos(db)
	ctx := context.Background()
	_, err := r.sessions.Create(ctx, poll.Session{ID: "AB12X9", CreatedAt: time.Now()})
	req.NoError(err)
	_, err = r.prompts.Publish(ctx, "AB12X9", capital)
	req.NoError(err)

	// When P1 votes 0, P2 votes 1, P3 votes 0 twice
	steps := []struct {
		participant poll.ParticipantID
		key         string
		expected    poll.SubmitResult
	}{
		{"P1", "0", poll.Accepted},
		{"P2", "1", poll.Accepted},
		{"P3", "0", poll.Accepted},
		{"P3", "0", poll.Ignored},
	}
	for _, step := range steps {
		result, err := r.tallies.Submit(ctx, "AB12X9", "s1", step.participant, step.key)
		req.NoError(err)
		req.Equal(step.expected, result, "participant=%s", step.participant)
	}

	// Then the tally counts one response per participant
	tally, err := r.tallies.Tally(ctx, "AB12X9", "s1")
	req.NoError(err)
	req.Equal(poll.Tally{"0": 2, "1": 1}, tally)

	key, found, err := r.tallies.Mark(ctx, "AB12X9", "s1", "P3")
	req.NoError(err)
	req.True(found)
	req.Equal("0", key)

	_, found, err = r.tallies.Mark(ctx, "AB12X9", "s1", "P4")
	req.NoError(err)
	req.False(found)
}

func TestTallyRepository_SlidesAreIsolated(t *testing.T) {
	req := require.New(t)
	db, cleanup := SetupTestDB(t)
	defer cleanup()
	r := newRepos(db)
	ctx := context.Background()
	_, err := r.sessions.Create(ctx, poll.Session{ID: "AB12X9", CreatedAt: time.Now()})
	req.NoError(err)

	// Given responses on slide s1
	_, err = r.prompts.Publish(ctx, "AB12X9", capital)
	req.NoError(err)
	_, err = r.tallies.Submit(ctx, "AB12X9", "s1", "P1", "0")
	req.NoError(err)

	// When slide s2 is published and answered
	_, err = r.prompts.Publish(ctx, "AB12X9", poll.WordCloud{SlideID: "s2", Question: "Mood?"})
	req.NoError(err)
	result, err := r.tallies.Submit(ctx, "AB12X9", "s2", "P1", "happy")
	req.NoError(err)
	req.Equal(poll.Accepted, result)

	// Then a late response for s1 is ignored and s1 is unchanged
	result, err = r.tallies.Submit(ctx, "AB12X9", "s1", "P2", "1")
	req.NoError(err)
	req.Equal(poll.Ignored, result)
	tally, err := r.tallies.Tally(ctx, "AB12X9", "s1")
	req.NoError(err)
	req.Equal(poll.Tally{"0": 1}, tally)

	// When s1 is republished
	_, err = r.prompts.Publish(ctx, "AB12X9", capital)
	req.NoError(err)

	// Then its tally is preserved and P1 is still marked
	tally, err = r.tallies.Tally(ctx, "AB12X9", "s1")
	req.NoError(err)
	req.Equal(poll.Tally{"0": 1}, tally)
	result, err = r.tallies.Submit(ctx, "AB12X9", "s1", "P1", "1")
	req.NoError(err)
	req.Equal(poll.Ignored, result)
}

func TestTallyRepository_ConcurrentSubmissions(t *testing.T) {
	req := require.New(t)
	db, cleanup := SetupTestDB(t)
	defer cleanup()
	r := newRepos(db)
	ctx := context.Background()
	_, err := r.sessions.Create(ctx, poll.Session{ID: "AB12X9", CreatedAt: time.Now()})
	req.NoError(err)
	_, err = r.prompts.Publish(ctx, "AB12X9", capital)
	req.NoError(err)

	// When participants vote the same option at the same time
	const participants = 20
	var wg sync.WaitGroup
	errs := make(chan error, participants)
	for i := 0; i < participants; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := r.tallies.Submit(ctx, "AB12X9", "s1", poll.ParticipantID(fmt.Sprintf("P%d", i)), "0")
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		req.NoError(err)
	}

	// Then no increment is lost
	tally, err := r.tallies.Tally(ctx, "AB12X9", "s1")
	req.NoError(err)
	req.Equal(uint64(participants), tally["0"])
}

func TestTallyRepository_NoResidueAfterEndSession(t *testing.T) {
	req := require.New(t)
	db, cleanup := SetupTestDB(t)
	defer cleanup()
	r := newRepos(db)
	ctx := context.Background()

	// Given a session with a prompt and responses
	_, err := r.sessions.Create(ctx, poll.Session{ID: "AB12X9", CreatedAt: time.Now()})
	req.NoError(err)
	_, err = r.prompts.Publish(ctx, "AB12X9", capital)
	req.NoError(err)
	_, err = r.tallies.Submit(ctx, "AB12X9", "s1", "P1", "0")
	req.NoError(err)

	// When it ends and the same code is issued again
	req.NoError(r.sessions.Delete(ctx, "AB12X9"))
	result, err := r.tallies.Submit(ctx, "AB12X9", "s1", "P2", "0")
	req.NoError(err)
	req.Equal(poll.Ignored, result)
	_, err = r.sessions.Create(ctx, poll.Session{ID: "AB12X9", CreatedAt: time.Now()})
	req.NoError(err)

	// Then nothing of the previous session is visible
	prompt, err := r.prompts.Active(ctx, "AB12X9")
	req.NoError(err)
	req.Nil(prompt)
	tally, err := r.tallies.Tally(ctx, "AB12X9", "s1")
	req.NoError(err)
	req.Empty(tally)
	_, found, err := r.tallies.Mark(ctx, "AB12X9", "s1", "P1")
	req.NoError(err)
	req.False(found)
}

func TestDecodeCounter(t *testing.T) {
	req := require.New(t)
	v, ok := decodeCounter(encodeCounter(42))
	req.True(ok)
	req.Equal(uint64(42), v)

	_, ok = decodeCounter([]byte{1, 2})
	req.False(ok)
}

func TestTallyRepository_KeyCheckedAgainstStoredPrompt(t *testing.T) {
	req := require.New(t)
	db, cleanup := SetupTestDB(t)
	defer cleanup()
	r := newRepos(db)
	ctx := context.Background()
	_, err := r.sessions.Create(ctx, poll.Session{ID: "AB12X9", CreatedAt: time.Now()})
	req.NoError(err)

	// Given s1 validated with three options, then republished with two
	_, err = r.prompts.Publish(ctx, "AB12X9", poll.MultipleChoice{SlideID: "s1", Question: "Q", Options: []string{"a", "b", "c"}})
	req.NoError(err)
	_, err = r.prompts.Publish(ctx, "AB12X9", capital)
	req.NoError(err)

	// When a response validated against the older prompt arrives
	result, err := r.tallies.Submit(ctx, "AB12X9", "s1", "P1", "2")

	// Then it is ignored and leaves neither a counter nor a mark
	req.NoError(err)
	req.Equal(poll.Ignored, result)
	tally, err := r.tallies.Tally(ctx, "AB12X9", "s1")
	req.NoError(err)
	req.Empty(tally)
	_, found, err := r.tallies.Mark(ctx, "AB12X9", "s1", "P1")
	req.NoError(err)
	req.False(found)

	// And a word is never counted on a multiple choice
	result, err = r.tallies.Submit(ctx, "AB12X9", "s1", "P2", "happy")
	req.NoError(err)
	req.Equal(poll.Ignored, result)
}
