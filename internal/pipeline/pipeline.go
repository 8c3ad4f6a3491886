package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"linkgist/internal/domain"
	"linkgist/internal/loader"
	"linkgist/internal/source"
	"linkgist/internal/summarizer"
)

// ModelFactory builds the model client for a single request. The credential
// lives only as long as that client.
type ModelFactory func(credential string) summarizer.Completer

type Pipeline struct {
	video    loader.Loader
	web      loader.Loader
	engine   *summarizer.Engine
	newModel ModelFactory
	log      *slog.Logger
}

func New(
	video loader.Loader,
	web loader.Loader,
	engine *summarizer.Engine,
	newModel ModelFactory,
	log *slog.Logger,
) *Pipeline {
	return &Pipeline{
		video:    video,
		web:      web,
		engine:   engine,
		newModel: newModel,
		log:      log,
	}
}

// Run validates, classifies, loads and summarizes a single request. It stops
// at the first failing stage. On failure the returned Result still carries
// whatever was learned before the failure, such as the source kind.
func (p *Pipeline) Run(ctx context.Context, req domain.Request) (domain.Result, error) {
	req, err := source.ValidateInput(req)
	if err != nil {
		return domain.Result{}, err
	}

	result := domain.Result{Kind: source.Classify(req.URL)}

	log := p.log.With("url", req.URL, "kind", result.Kind.String())

	if result.Kind == domain.SourceYouTubeOther {
		log.InfoContext(ctx, "Unsupported YouTube URL")

		return result, fmt.Errorf("%w (URL = %s)", domain.ErrUnsupportedURL, req.URL)
	}

	start := time.Now()

	docs, err := p.load(ctx, result.Kind, req.URL)
	if err != nil {
		log.WarnContext(ctx, "Failed to load content",
			"error", err,
			"duration", time.Since(start))

		return result, err
	}

	result.Documents = len(docs)
	result.Language = dominantLanguage(docs)

	log.InfoContext(ctx, "Content is loaded",
		"documents", len(docs),
		"language", result.Language,
		"duration", time.Since(start))

	start = time.Now()

	summary, err := p.engine.Summarize(ctx, p.newModel(req.Credential), req.Credential, req.URL, docs)
	if err != nil {
		if !errors.Is(err, domain.ErrSummarization) {
			err = fmt.Errorf("%w: %w", domain.ErrSummarization, err)
		}

		log.WarnContext(ctx, "Failed to summarize content",
			"error", err,
			"duration", time.Since(start))

		return result, err
	}

	result.Summary = summary.Text
	result.Chunks = summary.Chunks
	result.Cached = summary.Cached

	log.InfoContext(ctx, "Content is summarized",
		"chunks", summary.Chunks,
		"cached", summary.Cached,
		"duration", time.Since(start))

	return result, nil
}

func (p *Pipeline) load(ctx context.Context, kind domain.SourceKind, rawURL string) ([]domain.Document, error) {
	l := p.web
	if kind == domain.SourceYouTubeVideo {
		l = p.video
	}

	docs, err := l.Load(ctx, rawURL)
	if err != nil {
		if errors.Is(err, domain.ErrNoTranscript) || errors.Is(err, domain.ErrLoad) {
			return nil, err
		}

		return nil, fmt.Errorf("%w: %w", domain.ErrLoad, err)
	}

	if len(docs) == 0 {
		if kind == domain.SourceYouTubeVideo {
			return nil, fmt.Errorf("%w (URL = %s)", domain.ErrNoTranscript, rawURL)
		}

		return nil, fmt.Errorf("%w: no documents (URL = %s)", domain.ErrLoad, rawURL)
	}

	return docs, nil
}

// dominantLanguage picks the language tagged on most documents.
func dominantLanguage(docs []domain.Document) string {
	counts := make(map[string]int, len(docs))
	best := ""

	for _, doc := range docs {
		if doc.Language == "" {
			continue
		}

		counts[doc.Language]++
		if counts[doc.Language] > counts[best] {
			best = doc.Language
		}
	}

	return best
}
