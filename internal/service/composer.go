package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/medbot-ai/medbot/internal/domain"
	"github.com/medbot-ai/medbot/internal/port"
)

// systemInstruction establishes the assistant persona, safety behavior and
// citation rules for every generation call.
const systemInstruction = `You are MedBot AI, a knowledgeable medical assistant designed to help healthcare professionals and patients with medical information. Your responses should be:

GUIDELINES:
1. Accurate and evidence-based, drawing from provided medical documents
2. Clear and accessible to both medical professionals and patients
3. Always include appropriate disclaimers about seeking professional medical advice
4. Cite sources when available from the provided documents
5. If unsure, clearly state limitations and recommend professional consultation

SAFETY:
- Never provide emergency medical advice
- Always recommend consulting healthcare providers for diagnosis
- Be clear about what information comes from documents vs. general knowledge
- Emphasize that AI cannot replace professional medical judgment`

const noContextMarker = "No relevant medical documents were found for this query."

const noHistoryMarker = "No previous conversation."

const fallbackDisclaimer = `IMPORTANT MEDICAL DISCLAIMER:
This information is retrieved from uploaded medical documents and is for educational purposes only. It should not replace professional medical advice, diagnosis, or treatment. Always consult with qualified healthcare providers for medical decisions.`

const noDocumentsTemplate = `I understand you're asking about: %q

Currently, no medical documents are uploaded that directly address your question. To receive evidence-based information, please upload relevant medical documents such as treatment guidelines, research papers, clinical protocols, or drug information sheets.

For personalized medical advice, consult a healthcare professional. For immediate medical concerns, contact your healthcare provider or emergency services.`

// ComposerOptions tunes context assembly. Zero values fall back to the
// defaults of 800-char context excerpts, 200-char fallback snippets, a
// 3-exchange history window and a 60s generation timeout.
type ComposerOptions struct {
	ContextCharLimit int
	SnippetCharLimit int
	HistoryWindow    int
	Timeout          time.Duration
}

// Answer is the outcome of one composition: response text, the source
// filenames it drew on, and whether the deterministic fallback produced it.
type Answer struct {
	Text     string   `json:"response"`
	Sources  []string `json:"sources"`
	Fallback bool     `json:"fallback"`
}

// Composer assembles the system instruction, retrieved context and session
// history into one generation request. When the generation service is
// unconfigured or fails, it synthesizes a deterministic templated answer
// directly from the retrieved snippets, so a chat turn always yields text.
type Composer struct {
	ai   port.AIProvider // nil means generation is unavailable
	opts ComposerOptions
}

// NewComposer creates a composer over the given provider; a nil provider
// routes every turn through the fallback path.
func NewComposer(ai port.AIProvider, opts ComposerOptions) *Composer {
	if opts.ContextCharLimit <= 0 {
		opts.ContextCharLimit = 800
	}
	if opts.SnippetCharLimit <= 0 {
		opts.SnippetCharLimit = 200
	}
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = 3
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &Composer{ai: ai, opts: opts}
}

// Compose answers the query from retrieved chunks and recent history.
// It never returns an error and never returns empty text.
func (c *Composer) Compose(ctx context.Context, query string, retrieved []domain.ScoredChunk, history []domain.Exchange) Answer {
	sources := sourceFilenames(retrieved)

	if c.ai == nil {
		return Answer{Text: c.fallback(query, retrieved), Sources: sources, Fallback: true}
	}

	userPrompt := fmt.Sprintf("Previous conversation:\n%s\n\nCurrent question: %s",
		c.historyBlock(history), query)

	chatCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	text, err := c.ai.Chat(chatCtx, systemInstruction, userPrompt, c.contextBlock(retrieved))
	if err != nil || strings.TrimSpace(text) == "" {
		slog.Warn("generation degraded, using fallback", "error", err)
		return Answer{Text: c.fallback(query, retrieved), Sources: sources, Fallback: true}
	}

	return Answer{Text: text, Sources: sources}
}

// contextBlock renders each retrieved chunk as a labeled excerpt of at most
// ContextCharLimit characters.
func (c *Composer) contextBlock(retrieved []domain.ScoredChunk) []string {
	if len(retrieved) == 0 {
		return []string{noContextMarker}
	}

	parts := make([]string, len(retrieved))
	for i, chunk := range retrieved {
		parts[i] = fmt.Sprintf("Document %d: %s (Section %d of %d)\n%s",
			i+1, chunk.Metadata.Filename,
			chunk.Metadata.SequenceIndex+1, chunk.Metadata.TotalChunks,
			truncate(chunk.Content, c.opts.ContextCharLimit))
	}
	return parts
}

// historyBlock renders the most recent exchanges as alternating lines.
func (c *Composer) historyBlock(history []domain.Exchange) string {
	if len(history) == 0 {
		return noHistoryMarker
	}
	if n := len(history); n > c.opts.HistoryWindow {
		history = history[n-c.opts.HistoryWindow:]
	}

	var sb strings.Builder
	for _, ex := range history {
		fmt.Fprintf(&sb, "User: %s\nAssistant: %s\n", ex.User, ex.Assistant)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// fallback builds a deterministic answer without calling any external
// service: quoted snippets plus a disclaimer when chunks were retrieved, an
// upload prompt otherwise.
func (c *Composer) fallback(query string, retrieved []domain.ScoredChunk) string {
	if len(retrieved) == 0 {
		return fmt.Sprintf(noDocumentsTemplate, query)
	}

	var sb strings.Builder
	sb.WriteString("Based on the medical documents in our database, here is relevant information for your query:\n\n")
	for i, chunk := range retrieved {
		if i == 2 {
			break
		}
		fmt.Fprintf(&sb, "From %s: %s\n\n", chunk.Metadata.Filename, truncate(chunk.Content, c.opts.SnippetCharLimit))
	}
	fmt.Fprintf(&sb, "%s\n\nFor personalized medical advice regarding %q, please consult your healthcare provider.", fallbackDisclaimer, query)
	return sb.String()
}

// sourceFilenames returns the distinct filenames behind the retrieved
// chunks, preserving retrieval order.
func sourceFilenames(retrieved []domain.ScoredChunk) []string {
	seen := map[string]bool{}
	names := []string{}
	for _, chunk := range retrieved {
		if name := chunk.Metadata.Filename; name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// truncate shortens s to at most maxLen characters, marking the cut.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// urgentKeywords flag emergencies; moderateKeywords flag generic symptom
// language. Everything else is routine.
var (
	urgentKeywords = []string{
		"emergency", "urgent", "severe pain", "chest pain", "difficulty breathing",
		"unconscious", "bleeding", "stroke", "heart attack", "overdose", "poisoning",
	}
	moderateKeywords = []string{"pain", "symptoms", "side effects"}
)

// ClassifyUrgency assigns an informational urgency level to a message. It
// does not alter composition; callers may use it for routing or UX.
func ClassifyUrgency(message string) string {
	lower := strings.ToLower(message)
	for _, kw := range urgentKeywords {
		if strings.Contains(lower, kw) {
			return domain.UrgencyUrgent
		}
	}
	for _, kw := range moderateKeywords {
		if strings.Contains(lower, kw) {
			return domain.UrgencyModerate
		}
	}
	return domain.UrgencyRoutine
}
