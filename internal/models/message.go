package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Role is the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ContentType tags a single part of a multi-part message.
type ContentType string

const (
	ContentTypeText         ContentType = "text"
	ContentTypeImageURL     ContentType = "image_url"
	ContentTypeToolImageURL ContentType = "tool_image_url" // image produced by a tool call, never sent upstream as-is
)

// ImageURL is the payload of an image part.
type ImageURL struct {
	URL string `json:"url"`
}

// ContentPart is one element of a multi-part message body.
// Text is set for ContentTypeText, ImageURL for the two image types.
type ContentPart struct {
	Type     ContentType `json:"type"`
	Text     string      `json:"text,omitempty"`
	ImageURL *ImageURL   `json:"image_url,omitempty"`
}

// TextPart builds a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: ContentTypeText, Text: text}
}

// ImagePart builds a user-supplied image part.
func ImagePart(url string) ContentPart {
	return ContentPart{Type: ContentTypeImageURL, ImageURL: &ImageURL{URL: url}}
}

// ToolImagePart builds a tool-generated image part.
func ToolImagePart(url string) ContentPart {
	return ContentPart{Type: ContentTypeToolImageURL, ImageURL: &ImageURL{URL: url}}
}

// IsImage reports whether the part carries an image of either origin.
func (p ContentPart) IsImage() bool {
	return p.Type == ContentTypeImageURL || p.Type == ContentTypeToolImageURL
}

// MessageContent is either plain text or an ordered list of parts.
// On the wire it is a JSON string or a JSON array respectively.
type MessageContent struct {
	text  string
	parts []ContentPart
	multi bool
}

// PlainText wraps a string body.
func PlainText(text string) MessageContent {
	return MessageContent{text: text}
}

// Parts wraps a multi-part body.
func Parts(parts ...ContentPart) MessageContent {
	return MessageContent{parts: parts, multi: true}
}

// IsParts reports whether the content is the multi-part variant.
func (c MessageContent) IsParts() bool { return c.multi }

// Parts returns the parts of a multi-part body, nil for plain text.
func (c MessageContent) Parts() []ContentPart { return c.parts }

// Text returns the plain text body, or the text parts joined by sep.
func (c MessageContent) Text(sep string) string {
	if !c.multi {
		return c.text
	}
	texts := make([]string, 0, len(c.parts))
	for _, p := range c.parts {
		if p.Type == ContentTypeText {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, sep)
}

// IsEmpty reports whether there is no text and no parts.
func (c MessageContent) IsEmpty() bool {
	if c.multi {
		return len(c.parts) == 0
	}
	return c.text == ""
}

func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.multi {
		if c.parts == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(c.parts)
	}
	return json.Marshal(c.text)
}

func (c *MessageContent) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*c = MessageContent{}
		return nil
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*c = PlainText(s)
		return nil
	case trimmed[0] == '[':
		var parts []ContentPart
		if err := json.Unmarshal(trimmed, &parts); err != nil {
			return err
		}
		for i, p := range parts {
			if err := p.validate(); err != nil {
				return fmt.Errorf("content part %d: %w", i, err)
			}
		}
		*c = Parts(parts...)
		return nil
	default:
		return errors.New("message content must be a string or an array of parts")
	}
}

func (p ContentPart) validate() error {
	switch p.Type {
	case ContentTypeText:
		return nil
	case ContentTypeImageURL, ContentTypeToolImageURL:
		if p.ImageURL == nil || p.ImageURL.URL == "" {
			return fmt.Errorf("%s part without url", p.Type)
		}
		return nil
	default:
		return fmt.Errorf("unknown content type %q", p.Type)
	}
}

// ContextWithMetadata is a retrieved document snippet, immutable once retrieved.
type ContextWithMetadata struct {
	ID                    string `json:"id,omitempty"`
	Text                  string `json:"text"`
	ReadableFilename      string `json:"readable_filename"`
	CourseName            string `json:"course_name,omitempty"`
	PageNumberOrTimestamp string `json:"pagenumber,omitempty"`
	S3Path                string `json:"s3_path,omitempty"`
	URL                   string `json:"url,omitempty"`
	BaseURL               string `json:"base_url,omitempty"`
}

// ToolResult is the output of a function call attached to a turn.
type ToolResult struct {
	Name   string          `json:"name"`
	Output json.RawMessage `json:"output,omitempty"`
}

// Message is a single turn of a Conversation as the application stores it.
// Contexts, Tools, FinalPromptEngineeredMessage, LatestSystemMessage and
// Feedback are private to the application and never sent to a provider.
type Message struct {
	ID                           string                `json:"id,omitempty"`
	Role                         Role                  `json:"role"`
	Content                      MessageContent        `json:"content"`
	Contexts                     []ContextWithMetadata `json:"contexts,omitempty"`
	Tools                        []ToolResult          `json:"tools,omitempty"`
	FinalPromptEngineeredMessage string                `json:"finalPromtEngineeredMessage,omitempty"`
	LatestSystemMessage          string                `json:"latestSystemMessage,omitempty"`
	Feedback                     json.RawMessage       `json:"feedback,omitempty"`
	CreatedAt                    *time.Time            `json:"created_at,omitempty"`
	UpdatedAt                    *time.Time            `json:"updated_at,omitempty"`
}
