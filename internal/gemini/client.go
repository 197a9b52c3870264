package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"
	"sitevis/internal/history"
)

// DefaultModel is the image-capable model used when none is configured.
const DefaultModel = "gemini-2.5-flash-image-preview"

// ErrNoImage is returned when the model answers without an image part.
var ErrNoImage = errors.New("no image was generated in the response")

// Generator is the part of the genai client this package calls.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client sends edit requests to Gemini. It never retries.
type Client struct {
	gen     Generator
	model   string
	timeout time.Duration
}

// NewClient builds a Gemini API client for the given key.
func NewClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return New(gc.Models, model, timeout), nil
}

// New wraps an existing Generator. A zero timeout disables the deadline.
func New(gen Generator, model string, timeout time.Duration) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{gen: gen, model: model, timeout: timeout}
}

// Edit sends the source images, the optional reference image and the
// wrapped instruction as one user turn and returns the first image part of
// the answer.
func (c *Client) Edit(ctx context.Context, sources []history.ImageRef, instruction string, reference *history.ImageRef) (history.ImageRef, error) {
	if len(sources) == 0 {
		return history.ImageRef{}, errors.New("at least one source image is required")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	images := sources
	if reference != nil {
		images = append(append([]history.ImageRef(nil), sources...), *reference)
	}
	parts := make([]*genai.Part, 0, len(images)+1)
	for i, img := range images {
		raw, err := img.Bytes()
		if err != nil {
			return history.ImageRef{}, fmt.Errorf("failed to decode image %d: %w", i, err)
		}
		parts = append(parts, genai.NewPartFromBytes(raw, img.MediaType))
	}
	parts = append(parts, genai.NewPartFromText(wrapInstruction(instruction, reference != nil)))

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := c.gen.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityImage), string(genai.ModalityText)},
	})
	if err != nil {
		return history.ImageRef{}, fmt.Errorf("failed to generate content: %w", err)
	}
	return firstImage(resp)
}

func wrapInstruction(instruction string, withReference bool) string {
	if withReference {
		return fmt.Sprintf("Photorealistically edit the FIRST image based on the user's request: %q. "+
			"Use the SECOND image as a visual and stylistic reference for the changes. "+
			"If the request is empty, rely solely on the style of the reference image. "+
			"IMPORTANT: Respond ONLY with the edited image, no text. "+
			"Maintain original proportions and perspective where applicable.", instruction)
	}
	return fmt.Sprintf("Based on the user's request: %q, photorealistically edit the provided photo(s). "+
		"IMPORTANT: Respond ONLY with the edited image, no text. "+
		"Maintain original proportions and perspective where applicable.", instruction)
}

func firstImage(resp *genai.GenerateContentResponse) (history.ImageRef, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return history.ImageRef{}, ErrNoImage
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			mediaType := part.InlineData.MIMEType
			if mediaType == "" {
				mediaType = "image/png"
			}
			return history.NewImageRef(part.InlineData.Data, mediaType), nil
		}
	}
	return history.ImageRef{}, ErrNoImage
}
