package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"coursechat-backend/internal/models"
	"coursechat-backend/internal/prompt"
	"coursechat-backend/internal/providers"
	"coursechat-backend/internal/store"
	"coursechat-backend/internal/tokenizer"
)

// DefaultResponseTokenReserve is kept free in the context window for the answer.
const DefaultResponseTokenReserve = 1500

// ChatDependencies holds everything ChatService needs.
type ChatDependencies struct {
	Store    store.CourseStore // optional; request values are used when nil
	Registry *providers.Registry
	Resolver KeyResolver
	Counter  tokenizer.Counter
	Defaults models.ProviderConfigs // server-side fallback settings per provider
	// ResponseTokenReserve overrides DefaultResponseTokenReserve when positive.
	ResponseTokenReserve int
}

// ChatService routes one conversation turn to its provider.
type ChatService struct {
	store    store.CourseStore
	registry *providers.Registry
	settings providerSettings
	counter  tokenizer.Counter
	stuffer  *prompt.Stuffer
	reserve  int
}

// NewChatService creates a new ChatService.
func NewChatService(deps ChatDependencies) *ChatService {
	reserve := deps.ResponseTokenReserve
	if reserve <= 0 {
		reserve = DefaultResponseTokenReserve
	}
	return &ChatService{
		store:    deps.Store,
		registry: deps.Registry,
		settings: providerSettings{defaults: deps.Defaults, resolver: deps.Resolver},
		counter:  deps.Counter,
		stuffer:  prompt.NewStuffer(deps.Counter),
		reserve:  reserve,
	}
}

// Route validates the request, engineers the final turn when it carries
// contexts, normalizes the conversation and dispatches it. The caller's
// conversation is not modified.
func (s *ChatService) Route(ctx context.Context, req *models.ChatRequest) (*providers.Result, error) {
	conv := req.Conversation
	if len(conv.Messages) == 0 {
		return nil, prompt.ErrEmptyConversation
	}

	courseName := firstSet(req.CourseName, conv.ProjectName)
	course, err := loadCourse(ctx, s.store, courseName, req.CourseMetadata, req.ProviderConfigs)
	if err != nil {
		log.Printf("ERROR [ChatService] Failed to load settings for course %s: %v", courseName, err)
		return nil, err
	}

	kind, err := models.ParseProviderKind(string(conv.Model.Provider))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrConfiguration, err)
	}
	cfg, ok, err := s.settings.effective(kind, course)
	if err != nil {
		log.Printf("ERROR [ChatService] Provider %s for course %s: %v", kind, courseName, err)
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: provider %s is not enabled for this course", providers.ErrConfiguration, kind)
	}
	model, err := s.selectModel(kind, cfg, course.meta, conv.Model)
	if err != nil {
		return nil, err
	}

	// Every dispatched conversation carries exactly one system turn.
	if conv.Prompt == "" {
		conv.Prompt = firstSet(course.meta.SystemPrompt, prompt.DefaultSystemPrompt)
	}
	conv, err = s.engineerFinalTurn(conv, model)
	if err != nil {
		return nil, err
	}

	msgs, err := prompt.ToProviderMessages(&conv, prompt.Target{Provider: kind, Model: model})
	if err != nil {
		return nil, err
	}

	adapter, err := s.registry.Get(kind)
	if err != nil {
		return nil, err
	}
	log.Printf("[ChatService] Routing conversation %s (course %s) to %s/%s, stream=%t, messages=%d",
		conv.ID, courseName, kind, model.ID, req.Stream, len(msgs))

	res, err := adapter.Chat(ctx, providers.ChatParams{
		Model:       model,
		Temperature: conv.Temperature,
		Messages:    msgs,
		Stream:      req.Stream,
		Config:      cfg,
	})
	if err != nil {
		return nil, err
	}
	if res.Completion != nil && res.Completion.ID == "" {
		res.Completion.ID = "chatcmpl-" + uuid.NewString()
	}
	return res, nil
}

// selectModel resolves the requested model against the provider's listed
// models, then the static catalog. Self-hosted servers may run models the
// catalog does not know; those are accepted when the request carries a
// token limit.
func (s *ChatService) selectModel(kind models.ProviderKind, cfg models.ProviderConfig, meta *models.CourseMetadata, requested models.SelectedModel) (models.Model, error) {
	if requested.ID == "" {
		return models.Model{}, fmt.Errorf("%w: no model selected", providers.ErrConfiguration)
	}
	if meta.IsModelDisabled(requested.ID) {
		return models.Model{}, fmt.Errorf("%w: model %s is disabled for this course", providers.ErrConfiguration, requested.ID)
	}

	model, found := cfg.FindModel(requested.ID)
	if found && !model.Enabled {
		return models.Model{}, fmt.Errorf("%w: model %s is disabled for this course", providers.ErrConfiguration, requested.ID)
	}
	if !found {
		model, found = providers.LookupModel(kind, requested.ID)
	}
	if !found {
		if requested.TokenLimit <= 0 {
			return models.Model{}, fmt.Errorf("%w: unknown model %s for provider %s", providers.ErrConfiguration, requested.ID, kind)
		}
		model = models.Model{ID: requested.ID, Name: requested.Name, TokenLimit: requested.TokenLimit, Enabled: true}
	}
	if model.TokenLimit <= 0 {
		model.TokenLimit = requested.TokenLimit
	}
	return model, nil
}

// engineerFinalTurn stuffs the final user turn's contexts into its prompt
// unless the caller already did.
func (s *ChatService) engineerFinalTurn(conv models.Conversation, model models.Model) (models.Conversation, error) {
	idx, err := conv.FinalTurn()
	if err != nil {
		return conv, prompt.ErrEmptyConversation
	}
	last := conv.Messages[idx]
	if last.Role != models.RoleUser || len(last.Contexts) == 0 || last.FinalPromptEngineeredMessage != "" {
		return conv, nil
	}

	system := firstSet(last.LatestSystemMessage, conv.Prompt, prompt.DefaultSystemPrompt)
	out := s.stuffer.Build(prompt.BuildInput{
		Query:                last.Content.Text("\n"),
		Contexts:             last.Contexts,
		TokenBudget:          s.tokenBudget(conv, idx, system, model),
		SystemPromptTemplate: system,
	})
	log.Printf("[ChatService] Stuffed %d of %d contexts into %d tokens for model %s",
		len(out.Included), len(last.Contexts), out.TokensUsed, model.ID)

	return conv.WithFinalTurn(func(m models.Message) models.Message {
		m.FinalPromptEngineeredMessage = out.FinalMessage
		m.LatestSystemMessage = out.SystemPrompt
		return m
	})
}

// tokenBudget is what is left of the context window after the system
// prompt, the replayed history and the response reserve.
func (s *ChatService) tokenBudget(conv models.Conversation, final int, system string, model models.Model) int {
	used := s.counter.Count(system) + s.reserve
	for i, m := range conv.Messages {
		if i == final || m.Role == models.RoleSystem {
			continue
		}
		used += s.counter.Count(m.Content.Text("\n"))
	}
	budget := model.TokenLimit - used
	if budget < 0 {
		return 0
	}
	return budget
}
