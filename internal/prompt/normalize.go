package prompt

import (
	"errors"
	"strings"

	"coursechat-backend/internal/models"
)

var (
	ErrEmptyConversation    = errors.New("conversation has no messages")
	ErrMissingSystemMessage = errors.New("no system prompt could be resolved for this provider")
)

// CitationReminder is appended to the final user turn for models that tend
// to drop citations.
const CitationReminder = "\n\nIf you use the <Potentially Relevant Documents> in your response, please remember " +
	"to cite your sources using the required formatting, e.g. \"The grass is green. [29, page: 11]\""

// historySeparator joins the text parts of replayed history turns.
const historySeparator = "\n"

// ProviderMessage is the minimal message shape every adapter consumes.
type ProviderMessage struct {
	Role    models.Role           `json:"role"`
	Content models.MessageContent `json:"content"`
}

// Target describes where the normalized conversation is going.
type Target struct {
	Provider models.ProviderKind
	Model    models.Model
}

// requiresSystemPrompt lists the providers whose request is invalid without
// a system prompt.
var requiresSystemPrompt = map[models.ProviderKind]bool{
	models.ProviderAnthropic: true,
}

// supportsImages lists the providers that accept image_url parts on the
// final turn.
var supportsImages = map[models.ProviderKind]bool{
	models.ProviderOpenAI:     true,
	models.ProviderAzure:      true,
	models.ProviderAnthropic:  true,
	models.ProviderVLLM:       true,
	models.ProviderNCSAHosted: true,
}

// IsCitationSensitive reports whether the citation reminder is appended for
// m. The catalog flag wins; unknown models fall back to a Llama-family check.
func IsCitationSensitive(m models.Model) bool {
	if m.CitationSensitive {
		return true
	}
	return strings.Contains(strings.ToLower(m.ID), "llama")
}

// ToProviderMessages converts a conversation into the provider message list.
// Exactly one system message leads the output when a prompt is resolved;
// literal system turns in the history are skipped. Only the final turn
// carries the engineered prompt and, when supported, images.
func ToProviderMessages(conv *models.Conversation, target Target) ([]ProviderMessage, error) {
	if conv == nil || len(conv.Messages) == 0 {
		return nil, ErrEmptyConversation
	}

	out := make([]ProviderMessage, 0, len(conv.Messages)+1)

	system := ResolveSystemPrompt(conv)
	switch {
	case system != "":
		out = append(out, ProviderMessage{Role: models.RoleSystem, Content: models.PlainText(system)})
	case requiresSystemPrompt[target.Provider]:
		return nil, ErrMissingSystemMessage
	}

	for i, msg := range conv.Messages {
		if msg.Role == models.RoleSystem {
			continue
		}
		if !conv.IsFinalTurn(i) {
			out = append(out, ProviderMessage{
				Role:    msg.Role,
				Content: models.PlainText(msg.Content.Text(historySeparator)),
			})
			continue
		}
		out = append(out, finalTurn(msg, target))
	}

	return out, nil
}

// ResolveSystemPrompt returns the final turn's latestSystemMessage, falling
// back to the conversation's static prompt. Earlier turns are not consulted.
func ResolveSystemPrompt(conv *models.Conversation) string {
	if n := len(conv.Messages); n > 0 {
		if s := conv.Messages[n-1].LatestSystemMessage; s != "" {
			return s
		}
	}
	return conv.Prompt
}

func finalTurn(msg models.Message, target Target) ProviderMessage {
	if msg.Role != models.RoleUser {
		return ProviderMessage{Role: msg.Role, Content: models.PlainText(msg.Content.Text(historySeparator))}
	}

	text := msg.FinalPromptEngineeredMessage
	if text == "" {
		text = msg.Content.Text(historySeparator)
	}
	if IsCitationSensitive(target.Model) {
		text += CitationReminder
	}

	images := collectImages(msg.Content)
	if len(images) == 0 || !supportsImages[target.Provider] {
		return ProviderMessage{Role: models.RoleUser, Content: models.PlainText(text)}
	}

	parts := make([]models.ContentPart, 0, len(images)+1)
	parts = append(parts, models.TextPart(text))
	parts = append(parts, images...)
	return ProviderMessage{Role: models.RoleUser, Content: models.Parts(parts...)}
}

// collectImages returns the image parts of c with tool images collapsed to
// plain image_url parts.
func collectImages(c models.MessageContent) []models.ContentPart {
	var images []models.ContentPart
	for _, p := range c.Parts() {
		if !p.IsImage() {
			continue
		}
		images = append(images, models.ImagePart(p.ImageURL.URL))
	}
	return images
}
