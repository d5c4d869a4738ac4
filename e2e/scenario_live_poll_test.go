package e2e

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"pulse-lab/domain/poll"
	"pulse-lab/infrastructure/grpc/client"

	"github.com/stretchr/testify/suite"
)

type testLivePollSuite struct {
	BaseGrpcSuite
}

func TestLivePollSuite(t *testing.T) {
	suite.Run(t, &testLivePollSuite{})
}

func (s *testLivePollSuite) TestAudienceVotesOnMultipleChoice() {
	var session poll.SessionID
	prompt := poll.MultipleChoice{SlideID: "intro", Question: "Tabs or spaces?", Options: []string{"Tabs", "Spaces", "Both"}}

	s.Run("Step 1: Presenter opens a session and publishes", func() {
		s.WithPoll("Create session and publish", func(ctx context.Context, c *client.PollClient) {
			created, joinURL, err := c.CreateSession(ctx)
			s.Require().NoError(err)
			s.Require().NotEmpty(created.ID)
			s.Require().Contains(joinURL, string(created.ID))
			session = created.ID
			s.KeepToken(c, session)

			stored, published, err := c.Publish(ctx, session, prompt, "presenter")
			s.Require().NoError(err)
			s.Require().True(published)
			s.Require().Equal(prompt.Question, stored.Text())
		})
	})

	participants := s.Config.Participants
	s.Run("Step 2: Participants vote while the presenter watches", func() {
		s.WithPoll("Watch tally and vote", func(ctx context.Context, presenter *client.PollClient) {
			watchCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			tallies, errs, err := presenter.WatchTally(watchCtx, session, prompt.SlideID, "presenter")
			s.Require().NoError(err)

			var wg sync.WaitGroup
			for i := 0; i < participants; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					c := s.Dial(s.T(), fmt.Sprintf("participant %d", i))
					defer c.Close()
					reply, err := c.Submit(ctx, session, prompt.SlideID, poll.ParticipantID(fmt.Sprintf("p-%d", i)),
						poll.OptionResponse{Index: i % len(prompt.Options)})
					s.NoError(err)
					s.Equal(poll.Accepted, reply.Result)
				}(i)
			}
			wg.Wait()

			deadline := time.After(10 * time.Second)
			for {
				select {
				case tally := <-tallies:
					if tally.Total() == uint64(participants) {
						return
					}
				case err := <-errs:
					s.FailNow("tally stream broke", err)
				case <-deadline:
					s.FailNow("tally never reached the number of participants")
				}
			}
		})
	})

	s.Run("Step 3: A second vote is ignored and republishing keeps the tally", func() {
		s.WithPoll("Vote twice and republish", func(ctx context.Context, c *client.PollClient) {
			reply, err := c.Submit(ctx, session, prompt.SlideID, "p-0", poll.OptionResponse{Index: 1})
			s.Require().NoError(err)
			s.Require().Equal(poll.Ignored, reply.Result)

			_, published, err := c.Publish(ctx, session, poll.WordCloud{SlideID: "words", Question: "One word?"}, "presenter")
			s.Require().NoError(err)
			s.Require().True(published)
			_, published, err = c.Publish(ctx, session, prompt, "presenter")
			s.Require().NoError(err)
			s.Require().True(published)

			reply2, err := c.Tally(ctx, session, prompt.SlideID)
			s.Require().NoError(err)
			s.Require().Equal(uint64(participants), reply2.Tally.Total())
			s.Require().NotNil(reply2.Summary)
			s.Require().Len(reply2.Summary.Options, len(prompt.Options))
		})
	})

	s.Run("Step 4: Ending the session clears it", func() {
		s.WithPoll("End session", func(ctx context.Context, c *client.PollClient) {
			s.Require().NoError(c.EndSession(ctx, session))

			active, err := c.ActivePrompt(ctx, session)
			s.Require().NoError(err)
			s.Require().Nil(active)

			reply, err := c.Submit(ctx, session, prompt.SlideID, "late", poll.OptionResponse{Index: 0})
			s.Require().NoError(err)
			s.Require().Equal(poll.Ignored, reply.Result)
		})
	})
}
