// Package generator asks an OpenAI chat model to compose step patterns
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	openai "github.com/sashabaranov/go-openai"

	"github.com/livetechno/livetechno/pkg/converter"
	"github.com/livetechno/livetechno/pkg/converter/devices"
	"github.com/livetechno/livetechno/pkg/schema"
)

const (
	// DefaultModel matches the model the studio was tuned against
	DefaultModel = "gpt-4.1-mini"
	temperature  = 0.7
	maxTokens    = 1000
)

// Pattern lengths and resolutions the studio sequencer offers
var (
	SupportedLengths = []int{12, 16, 32, 48, 64, 68, 128, 256}
	SupportedPPQ     = []int{96, 192, 480}
)

// Generator composes patterns with a chat completion model
type Generator struct {
	client *openai.Client
	model  string
}

// New creates a Generator. An empty baseURL uses the public OpenAI API.
func New(apiKey, model, baseURL string) *Generator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Generator{client: openai.NewClientWithConfig(cfg), model: model}
}

// SystemPrompt describes the pattern format and the machines the model may target
func SystemPrompt() string {
	var b strings.Builder
	b.WriteString("You are the composer AI of LiveTechno-Web.\n")
	b.WriteString("Generate one pattern as JSON with this structure:\n")
	b.WriteString(`{
  "name": "pattern name",
  "targetMachine": "behringer.rd9" or "behringer.td3",
  "lengthSteps": 16,
  "resolutionPPQ": 96,
  "steps": [
    {"t": 0, "note": 36, "vel": 100, "duration": 0.25}
  ],
  "automation": [
    {"target": "cutoff", "at": 0, "val": 0.5}
  ]
}
`)
	b.WriteString("Rules:\n")
	b.WriteString("1. t is the step index, 0 <= t < lengthSteps\n")
	b.WriteString("2. note and vel are MIDI values 0-127\n")
	b.WriteString("3. duration is in beats (0.25 = one 16th note)\n")
	b.WriteString("4. automation values are normalized 0.0-1.0\n")
	fmt.Fprintf(&b, "5. supported lengths: %s steps\n", joinInts(SupportedLengths))
	fmt.Fprintf(&b, "6. supported resolutions: %s PPQ\n", joinInts(SupportedPPQ))
	b.WriteString("Machines:\n")
	for _, d := range devices.Catalog() {
		fmt.Fprintf(&b, "- %s (%s, %s, channel %d), parameters: %s\n",
			d.ID, d.Label, d.Category, d.DefaultChannel, strings.Join(d.Parameters, ", "))
		if len(d.Notes) > 0 {
			notes := make([]string, 0, len(d.Notes))
			for _, n := range d.Notes {
				notes = append(notes, fmt.Sprintf("%s=%d", n.Name, n.Note))
			}
			fmt.Fprintf(&b, "  notes: %s\n", strings.Join(notes, ", "))
		}
	}
	b.WriteString("Return ONLY the JSON, with no text before or after.")
	return b.String()
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}

func userPrompt(prompt string, project *converter.Project) string {
	if project == nil {
		return prompt
	}
	var b strings.Builder
	b.WriteString(prompt)
	fmt.Fprintf(&b, "\n\nProject: %.1f BPM, %d PPQ.", project.Meta.BPM, project.Meta.PPQ)
	if len(project.Machines) > 0 {
		b.WriteString(" Machines in use:")
		for _, m := range project.Machines {
			fmt.Fprintf(&b, " %s (instance %s, channel %d);", m.ID, m.InstanceID, m.MIDIChannel)
		}
	}
	return b.String()
}

// ExtractJSON strips markdown code fences around a model reply
func ExtractJSON(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// Generate asks the model for a pattern and validates the answer
func (g *Generator) Generate(ctx context.Context, prompt string, project *converter.Project) (*converter.Pattern, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fault.New("empty prompt",
			fmsg.WithDesc("empty prompt", "A prompt is required"),
			ftag.With(ftag.InvalidArgument))
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(prompt, project)},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("chat completion failed", "Pattern generation failed"),
			ftag.With(ftag.Internal))
	}
	if len(resp.Choices) == 0 {
		return nil, fault.New("model returned no choices",
			fmsg.WithDesc("empty completion", "Pattern generation failed"),
			ftag.With(ftag.Internal))
	}

	raw := ExtractJSON(resp.Choices[0].Message.Content)
	if !json.Valid([]byte(raw)) {
		return nil, fault.New("model reply is not JSON",
			fmsg.WithDesc("invalid completion", "The generated pattern was not valid JSON"),
			ftag.With(ftag.Internal))
	}

	pattern, err := schema.DecodePattern([]byte(raw))
	if err != nil {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("generated pattern rejected", "The generated pattern was not valid"),
			ftag.With(ftag.Internal))
	}
	return pattern, nil
}
