package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"linkgist/internal/domain"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultChunkSize      = 8000
	DefaultChunkOverlap   = 200
	DefaultCombineMaxSize = 12000
	DefaultMapParallelism = 4

	maxCollapseRounds = 3
)

// Completer sends a single prompt to a language model and returns its
// reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Config struct {
	// ChunkSize and CombineMaxSize are measured in runes.
	ChunkSize      int
	ChunkOverlap   int
	CombineMaxSize int
	MapParallelism int
}

// Summary is the outcome of a successful run.
type Summary struct {
	Text   string
	Chunks int
	Cached bool
}

// Engine runs map-reduce summarization: every chunk is summarized on its
// own, then the partial summaries are combined into one.
type Engine struct {
	splitter       splitter
	combineMaxSize int
	mapParallelism int
	cache          *Cache
	now            func() time.Time
	log            *slog.Logger
}

func NewEngine(cfg Config, cache *Cache, log *slog.Logger) *Engine {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.CombineMaxSize <= 0 {
		cfg.CombineMaxSize = DefaultCombineMaxSize
	}
	if cfg.MapParallelism <= 0 {
		cfg.MapParallelism = DefaultMapParallelism
	}

	return &Engine{
		splitter:       newSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		combineMaxSize: cfg.CombineMaxSize,
		mapParallelism: cfg.MapParallelism,
		cache:          cache,
		now:            time.Now,
		log:            log,
	}
}

// Summarize produces one English summary for docs. Every failure is
// reported as domain.ErrSummarization and no partial output is returned.
// Cached summaries are only shared between calls made with the same
// credential.
func (e *Engine) Summarize(
	ctx context.Context,
	model Completer,
	credential string,
	sourceURL string,
	docs []domain.Document,
) (Summary, error) {
	cacheKey := CacheKey(credential, sourceURL, docs)
	if summary, ok := e.cache.Get(cacheKey, e.now()); ok {
		e.log.InfoContext(ctx, "Summary is served from cache",
			"url", sourceURL)

		return Summary{Text: summary, Cached: true}, nil
	}

	var chunks []string
	for _, doc := range docs {
		chunks = append(chunks, e.splitter.Split(doc.Text)...)
	}

	if len(chunks) == 0 {
		return Summary{}, fmt.Errorf("%w: nothing to summarize", domain.ErrSummarization)
	}

	start := time.Now()

	partials, err := e.mapChunks(ctx, model, chunks)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %w", domain.ErrSummarization, err)
	}

	partials, err = e.collapse(ctx, model, partials)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %w", domain.ErrSummarization, err)
	}

	text, err := model.Complete(ctx, combinePrompt(partials))
	if err != nil {
		return Summary{}, fmt.Errorf("%w: combine summaries: %w", domain.ErrSummarization, err)
	}

	e.log.InfoContext(ctx, "Summary is generated",
		"url", sourceURL,
		"documents", len(docs),
		"chunks", len(chunks),
		"partials", len(partials),
		"duration", time.Since(start))

	e.cache.Set(cacheKey, text, e.now())

	return Summary{Text: text, Chunks: len(chunks)}, nil
}

func (e *Engine) mapChunks(ctx context.Context, model Completer, chunks []string) ([]string, error) {
	partials := make([]string, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.mapParallelism)

	for i, chunk := range chunks {
		g.Go(func() error {
			partial, err := model.Complete(gctx, mapPrompt(chunk))
			if err != nil {
				return fmt.Errorf("summarize chunk %d of %d: %w", i+1, len(chunks), err)
			}

			partials[i] = partial

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return partials, nil
}

// collapse combines groups of partials until all of them fit into a single
// combine prompt.
func (e *Engine) collapse(ctx context.Context, model Completer, partials []string) ([]string, error) {
	for round := 1; joinedLen(partials) > e.combineMaxSize; round++ {
		if round > maxCollapseRounds {
			e.log.WarnContext(ctx, "Partial summaries still exceed combine limit",
				"partials", len(partials),
				"runes", joinedLen(partials),
				"limit", e.combineMaxSize)

			break
		}

		groups := e.groupPartials(partials)
		collapsed := make([]string, 0, len(groups))

		for i, group := range groups {
			summary, err := model.Complete(ctx, combinePrompt(group))
			if err != nil {
				return nil, fmt.Errorf("collapse group %d of %d: %w", i+1, len(groups), err)
			}

			collapsed = append(collapsed, summary)
		}

		e.log.DebugContext(ctx, "Partial summaries are collapsed",
			"round", round,
			"before", len(partials),
			"after", len(collapsed))

		partials = collapsed
	}

	return partials, nil
}

func (e *Engine) groupPartials(partials []string) [][]string {
	var (
		groups  [][]string
		current []string
		size    int
	)

	sepLen := runeLen(partialSeparator)

	for _, partial := range partials {
		n := runeLen(partial)

		if len(current) > 0 && size+sepLen+n > e.combineMaxSize {
			groups = append(groups, current)
			current = nil
			size = 0
		}

		if len(current) > 0 {
			size += sepLen
		}
		current = append(current, partial)
		size += n
	}

	if len(current) > 0 {
		groups = append(groups, current)
	}

	return groups
}

func joinedLen(parts []string) int {
	n := 0
	for i, part := range parts {
		if i > 0 {
			n += runeLen(partialSeparator)
		}
		n += runeLen(part)
	}

	return n
}
