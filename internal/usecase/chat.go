package usecase

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"go.opentelemetry.io/otel"

	"github.com/banglahouse/resume-screener-backend/internal/adapter/observability"
	"github.com/banglahouse/resume-screener-backend/internal/domain"
)

const (
	chunksPerCorpus  = 5
	maxContextChunks = 8
	maxHistoryTurns  = 8
	historyFetch     = 10
	answerMaxTokens  = 500
	answerTemp       = 0.7
	excerptChars     = 200
)

const fallbackAnswer = "I apologize, but I cannot provide an answer at this time."

const chatSystemPromptHeader = `You are a resume screening assistant helping recruiters and candidates understand how well a resume matches a job description.

IMPORTANT INSTRUCTIONS:
1. Only use information from the provided context below
2. If you cannot answer based on the context, say "I don't have enough information in the provided context to answer that question"
3. Be specific and reference the context when possible
4. Focus on skills, experience, and job requirements matching

CONTEXT:
`

// ChatService answers questions about an application, grounded on the
// nearest JD and resume chunks.
type ChatService struct {
	Store domain.Store
	AI    domain.AIClient

	encoder *tiktoken.Tiktoken
}

// NewChatService constructs a ChatService. The token encoder falls back to
// cl100k_base when the model is unknown to the tokenizer tables.
func NewChatService(store domain.Store, ai domain.AIClient, chatModel string) *ChatService {
	enc, err := tiktoken.EncodingForModel(chatModel)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			enc = nil
		}
	}
	return &ChatService{Store: store, AI: ai, encoder: enc}
}

// ChatOutput is a grounded answer plus the chunks it was grounded on.
type ChatOutput struct {
	Answer  string
	Sources []domain.ChatSource
}

// labeledChunk pairs a retrieved chunk with its corpus label for merging.
type labeledChunk struct {
	domain.ScoredChunk
	Corpus domain.Corpus
}

// Chat validates the question, retrieves the nearest chunks from both
// corpora, assembles the grounded prompt with recent history, and persists
// the user/assistant exchange atomically.
func (s *ChatService) Chat(ctx domain.Context, caller domain.AuthUser, applicationID, question string) (ChatOutput, error) {
	tracer := otel.Tracer("usecase.chat")
	ctx, span := tracer.Start(ctx, "chat.Ask")
	defer span.End()

	question = strings.TrimSpace(question)
	if question == "" {
		return ChatOutput{}, fmt.Errorf("op=chat.ask: question cannot be empty: %w", domain.ErrInvalidArgument)
	}

	detail, err := s.Store.Applications().GetDetail(ctx, applicationID)
	if err != nil {
		return ChatOutput{}, err
	}
	if err := checkApplicationAccess(caller, detail); err != nil {
		return ChatOutput{}, err
	}

	vectors, err := s.AI.Embed(ctx, []string{question})
	if err != nil {
		return ChatOutput{}, err
	}
	queryVec := vectors[0]

	merged, err := s.retrieveContext(ctx, detail, queryVec)
	if err != nil {
		return ChatOutput{}, err
	}

	msgs, err := s.buildMessages(ctx, applicationID, merged, question)
	if err != nil {
		return ChatOutput{}, err
	}
	s.recordPromptTokens(applicationID, msgs)

	answer, err := s.AI.Complete(ctx, msgs, answerTemp, answerMaxTokens)
	if err != nil {
		return ChatOutput{}, err
	}
	if strings.TrimSpace(answer) == "" {
		answer = fallbackAnswer
	}

	err = s.Store.WithTx(ctx, func(tx domain.Store) error {
		return tx.Chat().AppendExchange(ctx, applicationID, question, answer)
	})
	if err != nil {
		return ChatOutput{}, err
	}

	sources := make([]domain.ChatSource, len(merged))
	for i, c := range merged {
		sources[i] = domain.ChatSource{Type: c.Corpus, ChunkID: c.ID, Excerpt: excerpt(c.Content)}
	}

	observability.ChatExchangesTotal.Inc()
	slog.Info("completed chat exchange",
		slog.String("application_id", applicationID),
		slog.String("user_id", caller.ID),
		slog.Int("sources", len(sources)))
	return ChatOutput{Answer: answer, Sources: sources}, nil
}

// retrieveContext pulls the nearest chunks from both corpora and merges them
// by ascending distance, capped at maxContextChunks. Sorting is stable so a
// distance tie keeps JD chunks ahead of resume chunks.
func (s *ChatService) retrieveContext(ctx domain.Context, detail domain.ApplicationDetail, query []float32) ([]labeledChunk, error) {
	jobChunks, err := s.Store.Chunks().NearestJobChunks(ctx, detail.Application.JobID, query, chunksPerCorpus)
	if err != nil {
		return nil, err
	}
	resumeChunks, err := s.Store.Chunks().NearestResumeChunks(ctx, detail.Application.ResumeID, query, chunksPerCorpus)
	if err != nil {
		return nil, err
	}

	merged := make([]labeledChunk, 0, len(jobChunks)+len(resumeChunks))
	for _, c := range jobChunks {
		merged = append(merged, labeledChunk{ScoredChunk: c, Corpus: domain.CorpusJD})
	}
	for _, c := range resumeChunks {
		merged = append(merged, labeledChunk{ScoredChunk: c, Corpus: domain.CorpusResume})
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Distance < merged[j].Distance })
	if len(merged) > maxContextChunks {
		merged = merged[:maxContextChunks]
	}
	return merged, nil
}

// buildMessages assembles system context, recent history in chronological
// order, and the current question.
func (s *ChatService) buildMessages(ctx domain.Context, applicationID string, merged []labeledChunk, question string) ([]domain.ChatMessage, error) {
	sections := make([]string, len(merged))
	for i, c := range merged {
		sections[i] = fmt.Sprintf("[%s]: %s", strings.ToUpper(string(c.Corpus)), c.Content)
	}

	msgs := []domain.ChatMessage{{
		Role:    domain.ChatRoleSystem,
		Content: chatSystemPromptHeader + strings.Join(sections, "\n\n"),
	}}

	recent, err := s.Store.Chat().RecentTurns(ctx, applicationID, historyFetch)
	if err != nil {
		return nil, err
	}
	// RecentTurns is newest first; reverse to chronological, keep the tail.
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	if len(recent) > maxHistoryTurns {
		recent = recent[len(recent)-maxHistoryTurns:]
	}
	for _, turn := range recent {
		msgs = append(msgs, domain.ChatMessage{Role: turn.Role, Content: turn.Content})
	}

	msgs = append(msgs, domain.ChatMessage{Role: domain.ChatRoleUser, Content: question})
	return msgs, nil
}

func (s *ChatService) recordPromptTokens(applicationID string, msgs []domain.ChatMessage) {
	if s.encoder == nil {
		return
	}
	tokens := 0
	for _, m := range msgs {
		tokens += len(s.encoder.Encode(m.Content, nil, nil))
	}
	observability.ChatPromptTokens.Observe(float64(tokens))
	slog.Debug("assembled chat prompt",
		slog.String("application_id", applicationID),
		slog.Int("messages", len(msgs)),
		slog.Int("prompt_tokens", tokens))
}

// History returns an application's conversation in chronological order.
// Limit defaults to 50 and offset to 0.
func (s *ChatService) History(ctx domain.Context, caller domain.AuthUser, applicationID string, limit, offset int) ([]domain.ChatTurn, error) {
	tracer := otel.Tracer("usecase.chat")
	ctx, span := tracer.Start(ctx, "chat.History")
	defer span.End()

	detail, err := s.Store.Applications().GetDetail(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := checkApplicationAccess(caller, detail); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.Store.Chat().History(ctx, applicationID, limit, offset)
}

func excerpt(content string) string {
	if len(content) > excerptChars {
		return content[:excerptChars] + "..."
	}
	return content
}
