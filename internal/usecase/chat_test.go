package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banglahouse/resume-screener-backend/internal/domain"
)

// seedApplication creates one application through the service and returns
// its id alongside the owning candidate.
func seedApplication(t *testing.T, store *memStore) (string, domain.AuthUser) {
	t.Helper()
	appSvc := newAppService(store, &fakeAI{}, fixedAnalyzer{summary: makeSummary(60)})
	out, err := appSvc.CreateApplication(context.Background(), recruiter, validInput())
	require.NoError(t, err)
	owner, err := store.GetByExternalID(context.Background(), "candidate-a")
	require.NoError(t, err)
	return out.ApplicationID, domain.AuthUser{ID: owner.ID, ExternalID: owner.ExternalID, Role: domain.RoleCandidate}
}

func TestChatRejectsEmptyQuestionBeforeAnyProviderCall(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	appID, _ := seedApplication(t, store)
	ai := &fakeAI{answer: "hi"}
	svc := NewChatService(store, ai, "gpt-4o-mini")

	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := svc.Chat(context.Background(), recruiter, appID, q)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	}
	assert.Zero(t, ai.embedCalls)
	assert.Zero(t, ai.completeCalls)
	assert.Empty(t, store.chatTurns)
}

func TestChatAccessCheckedBeforeEmbedding(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	appID, _ := seedApplication(t, store)
	ai := &fakeAI{answer: "hi"}
	svc := NewChatService(store, ai, "gpt-4o-mini")

	stranger := domain.AuthUser{ID: "rec-9", Role: domain.RoleRecruiter}
	_, err := svc.Chat(context.Background(), stranger, appID, "how good is the match?")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Zero(t, ai.embedCalls)

	_, err = svc.Chat(context.Background(), recruiter, "missing", "how good is the match?")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, ai.embedCalls)
}

func TestChatGroundedAnswer(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	appID, owner := seedApplication(t, store)
	store.nearestJob = []domain.ScoredChunk{
		{ID: "jc-1", Content: "Requires Go and Postgres.", Distance: 0.10},
		{ID: "jc-2", Content: "Kubernetes is a plus.", Distance: 0.30},
	}
	store.nearestResume = []domain.ScoredChunk{
		{ID: "rc-1", Content: "Five years of Go.", Distance: 0.20},
		{ID: "rc-2", Content: strings.Repeat("Built Postgres pipelines. ", 20), Distance: 0.40},
	}
	ai := &fakeAI{answer: "The resume matches the Go requirement."}
	svc := NewChatService(store, ai, "gpt-4o-mini")

	out, err := svc.Chat(context.Background(), owner, appID, "does the candidate know Go?")
	require.NoError(t, err)
	assert.Equal(t, "The resume matches the Go requirement.", out.Answer)

	// One embedding call for the question, one completion.
	assert.Equal(t, 1, ai.embedCalls)
	assert.Equal(t, []string{"does the candidate know Go?"}, ai.embeddedTexts[0])
	assert.Equal(t, 1, ai.completeCalls)
	assert.InDelta(t, 0.7, ai.lastTemp, 1e-9)
	assert.Equal(t, 500, ai.lastMaxTokens)

	// System prompt carries labeled context in ascending distance order.
	system := ai.lastMsgs[0]
	assert.Equal(t, domain.ChatRoleSystem, system.Role)
	jd := strings.Index(system.Content, "[JD]: Requires Go and Postgres.")
	res := strings.Index(system.Content, "[RESUME]: Five years of Go.")
	assert.True(t, jd >= 0 && res > jd)

	// The question is the final message.
	last := ai.lastMsgs[len(ai.lastMsgs)-1]
	assert.Equal(t, domain.ChatRoleUser, last.Role)
	assert.Equal(t, "does the candidate know Go?", last.Content)

	// Exchange persisted: user turn then assistant turn.
	require.Len(t, store.chatTurns, 2)
	assert.Equal(t, domain.ChatRoleUser, store.chatTurns[0].Role)
	assert.Equal(t, domain.ChatRoleAssistant, store.chatTurns[1].Role)

	// Sources keep merge order and cap excerpts at 200 chars.
	require.Len(t, out.Sources, 4)
	assert.Equal(t, domain.CorpusJD, out.Sources[0].Type)
	assert.Equal(t, "jc-1", out.Sources[0].ChunkID)
	assert.Equal(t, domain.CorpusResume, out.Sources[1].Type)
	long := out.Sources[3]
	assert.Len(t, long.Excerpt, 203)
	assert.True(t, strings.HasSuffix(long.Excerpt, "..."))
}

func TestChatContextMergeCapsAtEight(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	appID, owner := seedApplication(t, store)
	for i := 0; i < 5; i++ {
		store.nearestJob = append(store.nearestJob, domain.ScoredChunk{
			ID: "jc", Content: "jd chunk", Distance: 0.1 * float64(i+1),
		})
		store.nearestResume = append(store.nearestResume, domain.ScoredChunk{
			ID: "rc", Content: "resume chunk", Distance: 0.1 * float64(i+1),
		})
	}
	ai := &fakeAI{answer: "ok"}
	svc := NewChatService(store, ai, "gpt-4o-mini")

	out, err := svc.Chat(context.Background(), owner, appID, "summarize the match")
	require.NoError(t, err)
	require.Len(t, out.Sources, 8)
	// Equal distances keep JD ahead of resume at each tier.
	assert.Equal(t, domain.CorpusJD, out.Sources[0].Type)
	assert.Equal(t, domain.CorpusResume, out.Sources[1].Type)
}

func TestChatHistoryKeepsLastEightTurnsChronological(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	appID, owner := seedApplication(t, store)
	for i := 0; i < 6; i++ {
		require.NoError(t, store.AppendExchange(context.Background(), appID, "q", "a"))
	}
	ai := &fakeAI{answer: "ok"}
	svc := NewChatService(store, ai, "gpt-4o-mini")

	_, err := svc.Chat(context.Background(), owner, appID, "new question")
	require.NoError(t, err)

	// system + 8 history turns + the new question.
	require.Len(t, ai.lastMsgs, 10)
	history := ai.lastMsgs[1 : len(ai.lastMsgs)-1]
	require.Len(t, history, 8)
	// Chronological ordering alternates user/assistant and ends with an
	// assistant turn right before the new question.
	assert.Equal(t, domain.ChatRoleUser, history[0].Role)
	assert.Equal(t, domain.ChatRoleAssistant, history[len(history)-1].Role)
}

func TestChatEmptyCompletionFallsBack(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	appID, owner := seedApplication(t, store)
	ai := &fakeAI{answer: "   "}
	svc := NewChatService(store, ai, "gpt-4o-mini")

	out, err := svc.Chat(context.Background(), owner, appID, "anything?")
	require.NoError(t, err)
	assert.Equal(t, fallbackAnswer, out.Answer)
	require.Len(t, store.chatTurns, 2)
	assert.Equal(t, fallbackAnswer, store.chatTurns[1].Content)
}

func TestChatProviderFailureLeavesNoTurns(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	appID, owner := seedApplication(t, store)
	ai := &fakeAI{completeErr: domain.ErrProviderUnavailable}
	svc := NewChatService(store, ai, "gpt-4o-mini")

	_, err := svc.Chat(context.Background(), owner, appID, "anything?")
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Empty(t, store.chatTurns)
}

func TestChatHistoryEndpoint(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	appID, owner := seedApplication(t, store)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.AppendExchange(context.Background(), appID, "q", "a"))
	}
	svc := NewChatService(store, &fakeAI{}, "gpt-4o-mini")

	turns, err := svc.History(context.Background(), owner, appID, 0, 0)
	require.NoError(t, err)
	require.Len(t, turns, 6)
	assert.Equal(t, domain.ChatRoleUser, turns[0].Role)
	for i := 1; i < len(turns); i++ {
		assert.True(t, !turns[i].CreatedAt.Before(turns[i-1].CreatedAt))
	}

	page, err := svc.History(context.Background(), owner, appID, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)

	stranger := domain.AuthUser{ID: "cand-9", Role: domain.RoleCandidate}
	_, err = svc.History(context.Background(), stranger, appID, 10, 0)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
