// Package extract turns free-form interview transcripts into structured
// hiring records by prompting an LLM and defensively parsing its reply.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/voxhire/voxhire/pkg/provider/llm"
)

// FAQItem is one question-answer pair summarising a claim the candidate made.
type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Record is the structured view of an interview. Every field is always
// populated; absent information is represented by the zero-ish defaults from
// [DefaultRecord], never by a missing key.
type Record struct {
	CandidateName   string    `json:"candidate_name"`
	Skills          []string  `json:"skills"`
	YearsExperience *float64  `json:"years_experience"`
	DesiredRole     string    `json:"desired_role"`
	FAQ             []FAQItem `json:"faq"`
}

// DefaultRecord returns the record used when extraction yields nothing
// usable. Unknown name and role, empty skill and FAQ lists, nil years.
func DefaultRecord() *Record {
	return &Record{
		CandidateName: "Unknown",
		Skills:        []string{},
		DesiredRole:   "Unknown",
		FAQ:           []FAQItem{},
	}
}

// Outcome reports how a Record was obtained.
type Outcome string

const (
	// OutcomeOK means the model reply parsed into a record.
	OutcomeOK Outcome = "ok"
	// OutcomeProviderError means the LLM call itself failed and defaults
	// were returned.
	OutcomeProviderError Outcome = "provider_error"
	// OutcomeUnparseable means the reply contained no recoverable JSON
	// object and defaults were returned.
	OutcomeUnparseable Outcome = "unparseable"
)

const systemPrompt = "You are an HR assistant analyzing an interview transcript for a hiring manager. " +
	"Your task is to extract key information and summarize the candidate's claims into a structured JSON format. " +
	"Respond ONLY with a valid JSON object containing the following keys:\n" +
	"- 'candidate_name': (string) The candidate's full name as stated.\n" +
	"- 'skills': (list of strings) A list of all specific skills, technologies, or tools the candidate mentioned.\n" +
	"- 'years_experience': (number) The total number of years of experience claimed by the candidate. If not mentioned, use null.\n" +
	"- 'desired_role': (string) The specific job title or role the candidate is seeking.\n" +
	"- 'faq': (list of objects) A summary of the candidate's key claims, formatted as 3-4 question-answer pairs for the hiring manager. " +
	"Each object must have 'question' and 'answer' keys.\n" +
	"  - The 'question' should be a factual query about a topic the candidate brought up (e.g., 'What is the candidate's experience with databases?', 'What are their core front-end skills?').\n" +
	"  - The 'answer' should be a concise summary of what the candidate said about that topic, based *only* on the provided transcript."

// Engine drives structured extraction against a completion provider.
type Engine struct {
	provider    llm.Provider
	temperature float64
	maxTokens   int
	log         *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTemperature sets the sampling temperature for extraction calls.
// Defaults to 0 for reproducible output.
func WithTemperature(t float64) Option {
	return func(e *Engine) {
		e.temperature = t
	}
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) Option {
	return func(e *Engine) {
		e.maxTokens = n
	}
}

// WithLogger sets the logger for extraction diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// NewEngine creates an extraction Engine over the given provider.
func NewEngine(provider llm.Provider, opts ...Option) *Engine {
	e := &Engine{
		provider:  provider,
		maxTokens: 1024,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs the transcript through the model and returns a structured
// record. It never returns an error: a failed call or a garbled reply yields
// [DefaultRecord] with the corresponding non-OK outcome, so downstream code
// can rely on every key being present.
func (e *Engine) Extract(ctx context.Context, transcript string) (*Record, Outcome) {
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: "Transcript to analyze:\n" + transcript},
		},
		Temperature: &e.temperature,
		MaxTokens:   e.maxTokens,
	})
	if err != nil {
		e.log.Warn("extraction completion failed, using defaults", "error", err)
		return DefaultRecord(), OutcomeProviderError
	}

	// A nil response without an error counts as an empty reply.
	var content string
	if resp != nil {
		content = resp.Content
	}
	rec, ok := parseRecord(content)
	if !ok {
		e.log.Warn("extraction reply unparseable, using defaults",
			"reply_len", len(content))
		return DefaultRecord(), OutcomeUnparseable
	}
	return rec, OutcomeOK
}

// AnswerQuestion answers a free-form question about the interview using only
// the transcript as evidence. Used for ad-hoc questions a hiring manager
// types in addition to the generated FAQ. Unlike Extract, a provider failure
// is returned to the caller: there is no safe default answer.
func (e *Engine) AnswerQuestion(ctx context.Context, transcript, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", errors.New("extract: empty question")
	}

	prompt := "You are an AI assistant. Based *only* on the provided transcript, answer the following question. " +
		"Keep the answer concise and factual.\n\n" +
		"Transcript: \"" + transcript + "\"\n\n" +
		"Question: \"" + question + "\"\n\n" +
		"Answer:"

	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Temperature: &e.temperature,
		MaxTokens:   e.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("extract: answer question: %w", err)
	}

	var answer string
	if resp != nil {
		answer = strings.TrimSpace(resp.Content)
	}
	if answer == "" {
		return "Could not generate an answer from the transcript.", nil
	}
	return answer, nil
}

// parseRecord attempts to decode a Record from raw model output. It first
// strips markdown fences, then falls back to scanning for the first balanced
// JSON object anywhere in the text (models sometimes wrap the object in
// prose). Missing keys are filled with defaults.
func parseRecord(raw string) (*Record, bool) {
	candidate := stripFences(raw)

	var loose map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &loose); err != nil {
		obj, found := firstJSONObject(candidate)
		if !found {
			return nil, false
		}
		if err := json.Unmarshal([]byte(obj), &loose); err != nil {
			return nil, false
		}
	}

	rec := DefaultRecord()
	if v, ok := loose["candidate_name"]; ok {
		var s string
		if json.Unmarshal(v, &s) == nil && s != "" {
			rec.CandidateName = s
		}
	}
	if v, ok := loose["skills"]; ok {
		var ss []string
		if json.Unmarshal(v, &ss) == nil && ss != nil {
			rec.Skills = ss
		}
	}
	if v, ok := loose["years_experience"]; ok {
		var y float64
		if json.Unmarshal(v, &y) == nil {
			rec.YearsExperience = &y
		}
	}
	if v, ok := loose["desired_role"]; ok {
		var s string
		if json.Unmarshal(v, &s) == nil && s != "" {
			rec.DesiredRole = s
		}
	}
	if v, ok := loose["faq"]; ok {
		var items []FAQItem
		if json.Unmarshal(v, &items) == nil && items != nil {
			rec.FAQ = items
		}
	}
	return rec, true
}

// stripFences removes a leading ```json (or bare ```) fence and a trailing
// ``` fence, if present, and trims surrounding whitespace.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
