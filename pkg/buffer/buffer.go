// Package buffer accumulates streamed transcript text until enough has
// arrived to process, then reconciles the processed portion back out of
// the buffer with fuzzy matching.
package buffer

import (
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/arborhq/arbor/pkg/fuzzy"
)

const (
	// DefaultFlushThreshold is the buffer length, in characters, at
	// which the accumulated text is ready for processing.
	DefaultFlushThreshold = 500

	// DefaultSimilarityThreshold is the minimum fuzzy score for
	// reconciling processed text against the buffer.
	DefaultSimilarityThreshold = 80.0

	// DefaultHistoryMultiplier bounds retained history to this many
	// flush thresholds worth of characters.
	DefaultHistoryMultiplier = 3

	previewLen = 80
)

// Config holds buffer tuning. Zero values fall back to the defaults.
type Config struct {
	FlushThreshold      int
	SimilarityThreshold float64
	HistoryMultiplier   int
}

func (c Config) withDefaults() Config {
	if c.FlushThreshold <= 0 {
		c.FlushThreshold = DefaultFlushThreshold
	}
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if c.HistoryMultiplier <= 0 {
		c.HistoryMultiplier = DefaultHistoryMultiplier
	}
	return c
}

// DesyncError reports that processed text could not be located in the
// buffer. It is fatal for the current stream; the buffer does not
// attempt recovery.
type DesyncError struct {
	BestScore        float64
	ProcessedPreview string
	BufferPreview    string
}

func (e *DesyncError) Error() string {
	return fmt.Sprintf(
		"buffer desync: best match score %.1f below threshold (processed: %q, buffer: %q)",
		e.BestScore, e.ProcessedPreview, e.BufferPreview,
	)
}

// Buffer is a streaming text accumulator. Incoming fragments append
// with word-spacing hygiene; processed text is removed by fuzzy
// alignment and recorded in a bounded history window.
type Buffer struct {
	mu      sync.Mutex
	cfg     Config
	matcher *fuzzy.Matcher
	logger  *zap.Logger

	buf        string
	history    string
	carry      string
	everQueued bool
}

func New(cfg Config, logger *zap.Logger) *Buffer {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Buffer{
		cfg:     cfg,
		matcher: fuzzy.NewMatcher(cfg.SimilarityThreshold),
		logger:  logger,
	}
}

// AddText appends a transcript fragment. Whitespace-only input is
// dropped. Any carry set by the previous processing cycle is
// re-prepended to the incoming fragment first.
func (b *Buffer) AddText(text string) {
	if strings.TrimSpace(text) == "" {
		b.logger.Debug("ignoring whitespace-only fragment")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.carry != "" {
		text = smartJoin(b.carry, text)
		b.carry = ""
	}
	b.buf = smartJoin(b.buf, text)
	b.everQueued = true

	b.logger.Debug("buffered fragment",
		zap.Int("fragment_len", len(text)),
		zap.Int("buffer_len", len(b.buf)),
	)
}

// TextReady returns the full buffer once it has reached the flush
// threshold. It never mutates the buffer.
func (b *Buffer) TextReady() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.buf) < b.cfg.FlushThreshold {
		return "", false
	}
	return b.buf, true
}

// Reconcile removes the processed text from the buffer and returns the
// remainder. The removed buffer text is appended to history. When no
// alignment reaches the similarity threshold a *DesyncError is
// returned and the buffer is left untouched.
func (b *Buffer) Reconcile(processed string) (string, error) {
	processed = strings.TrimSpace(processed)

	b.mu.Lock()
	defer b.mu.Unlock()

	if processed == "" {
		return b.buf, nil
	}

	match, ok := b.matcher.BestMatch(processed, b.buf)
	if !ok || match.Score < b.cfg.SimilarityThreshold {
		err := &DesyncError{
			BestScore:        match.Score,
			ProcessedPreview: preview(processed),
			BufferPreview:    preview(b.buf),
		}
		b.logger.Error("failed to reconcile processed text", zap.Error(err))
		return "", err
	}

	removed := b.buf[match.Start:match.End]
	before := strings.TrimRight(b.buf[:match.Start], " ")
	after := strings.TrimLeft(b.buf[match.End:], " ")

	var remainder string
	switch {
	case before == "":
		remainder = after
	case after == "":
		remainder = before
	default:
		remainder = before + " " + after
	}
	for strings.Contains(remainder, "  ") {
		remainder = strings.ReplaceAll(remainder, "  ", " ")
	}
	remainder = strings.TrimSpace(remainder)

	b.buf = remainder
	b.appendHistory(removed)

	b.logger.Debug("reconciled processed text",
		zap.Float64("score", match.Score),
		zap.Int("removed_len", len(removed)),
		zap.Int("remainder_len", len(remainder)),
	)
	return remainder, nil
}

// History returns the last n characters of successfully reconciled
// text, trimmed so it never starts mid-word. n <= 0 returns the full
// retained window.
func (b *Buffer) History(n int) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	maxLen := b.cfg.FlushThreshold * b.cfg.HistoryMultiplier
	if n <= 0 || n > maxLen {
		n = maxLen
	}
	return tailOnWordBoundary(b.history, n)
}

// SetCarry stashes an incomplete remainder to be re-prepended on the
// next AddText cycle.
func (b *Buffer) SetCarry(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.carry = strings.TrimSpace(s)
}

// Len reports the current buffer length in bytes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}

// Pending returns the accumulated text that has not been reconciled
// out yet. Used to persist a stream across sessions.
func (b *Buffer) Pending() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf
}

// Carry returns the stashed incomplete remainder, if any.
func (b *Buffer) Carry() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.carry
}

// Clear resets the buffer, history, carry and first-processing state.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = ""
	b.history = ""
	b.carry = ""
	b.everQueued = false
}

func (b *Buffer) appendHistory(text string) {
	b.history = smartJoin(b.history, text)
	maxLen := b.cfg.FlushThreshold * b.cfg.HistoryMultiplier
	if len(b.history) > maxLen {
		b.history = tailOnWordBoundary(b.history, maxLen)
	}
}

// smartJoin concatenates two fragments, inserting a single space when
// the seam would otherwise glue two words together.
func smartJoin(left, right string) string {
	if left == "" {
		return right
	}
	if right == "" {
		return left
	}
	l, _ := utf8.DecodeLastRuneInString(left)
	r, _ := utf8.DecodeRuneInString(right)
	if unicode.IsLetter(l) && unicode.IsLetter(r) {
		return left + " " + right
	}
	return left + right
}

// tailOnWordBoundary returns the last n bytes of s, advanced past any
// partial leading word.
func tailOnWordBoundary(s string, n int) string {
	if n >= len(s) {
		return s
	}
	if n <= 0 {
		return ""
	}
	cut := len(s) - n
	if s[cut-1] != ' ' {
		idx := strings.IndexByte(s[cut:], ' ')
		if idx < 0 {
			return ""
		}
		cut += idx + 1
	}
	return s[cut:]
}

func preview(s string) string {
	if len(s) <= previewLen {
		return s
	}
	return s[:previewLen] + "..."
}
