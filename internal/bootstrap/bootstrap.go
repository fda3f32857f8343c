package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/kirillkom/lost-time-companion/internal/config"
	"github.com/kirillkom/lost-time-companion/internal/core/domain"
	"github.com/kirillkom/lost-time-companion/internal/core/ports"
	"github.com/kirillkom/lost-time-companion/internal/core/usecase"
	"github.com/kirillkom/lost-time-companion/internal/infrastructure/embedcache"
	"github.com/kirillkom/lost-time-companion/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/lost-time-companion/internal/infrastructure/queue/nats"
	"github.com/kirillkom/lost-time-companion/internal/infrastructure/repository/memory"
	"github.com/kirillkom/lost-time-companion/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/lost-time-companion/internal/infrastructure/resilience"
	"github.com/kirillkom/lost-time-companion/internal/infrastructure/storage/localfs"
	memoryvector "github.com/kirillkom/lost-time-companion/internal/infrastructure/vector/memory"
	"github.com/kirillkom/lost-time-companion/internal/infrastructure/vector/qdrant"
	"github.com/kirillkom/lost-time-companion/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Corpus  *domain.Corpus
	Metrics *metrics.HTTPServerMetrics

	Retriever     *usecase.RetrieveUseCase
	Conversations *usecase.ConversationManager
	ChatUC        *usecase.PersonaChatUseCase

	closeFn func()
}

// New loads the corpus, indexes it and wires the conversation pipeline.
// Indexing failures abort startup.
func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*App, error) {
		closeAll()
		return nil, err
	}

	storage, err := localfs.New(cfg.CorpusDir)
	if err != nil {
		return nil, fmt.Errorf("init corpus storage: %w", err)
	}
	corpus, err := storage.LoadCorpus(ctx, cfg.CorpusFile)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	slog.Info("corpus_loaded", "file", cfg.CorpusFile, "passages", corpus.Len())

	serverMetrics := metrics.NewHTTPServerMetrics(service)
	executorFor := func(upstream resilience.Upstream) *resilience.Executor {
		policy := resilience.UpstreamConfig(upstream, cfg.UpstreamRetryMaxAttempts, cfg.UpstreamBreakerEnabled)
		return resilience.NewExecutor(policy).WithObserver(serverMetrics)
	}

	ollamaClient := ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, ollama.Options{
		ResilienceExecutor: executorFor(resilience.UpstreamOllama),
	})
	generator := ollama.NewGenerator(ollamaClient)
	embedder, err := embedcache.Wrap(ollama.NewEmbedder(ollamaClient), cfg.EmbedQueryCacheSize)
	if err != nil {
		return nil, fmt.Errorf("init embedding cache: %w", err)
	}

	index, err := newVectorIndex(cfg, executorFor(resilience.UpstreamQdrant))
	if err != nil {
		return nil, err
	}
	indexer := usecase.NewCorpusIndexer(embedder, index, cfg.EmbedBatchSize)
	if err := indexer.Build(ctx, corpus); err != nil {
		return nil, fmt.Errorf("index corpus: %w", err)
	}

	expander := usecase.NewKeywordExpander(generator, cfg.RAGKeywordLimit)
	ranker := usecase.NewSemanticRanker(embedder, index)
	retriever := usecase.NewRetrieveUseCase(corpus, expander, ranker, cfg.RAGTopK)

	store, db, err := newConversationStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if db != nil {
		closers = append(closers, func() { _ = db.Close() })
	}
	conversations := usecase.NewConversationManager(store)

	var publisher ports.TurnPublisher
	if cfg.NATSURL != "" {
		pub, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executorFor(resilience.UpstreamNATS),
		})
		if err != nil {
			return fail(fmt.Errorf("init turn publisher: %w", err))
		}
		closers = append(closers, pub.Close)
		publisher = pub
	}

	chatUC := usecase.NewPersonaChatUseCase(conversations, generator, retriever, publisher)

	return &App{
		Config:  cfg,
		Corpus:  corpus,
		Metrics: serverMetrics,

		Retriever:     retriever,
		Conversations: conversations,
		ChatUC:        chatUC,

		closeFn: closeAll,
	}, nil
}

func newVectorIndex(cfg config.Config, executor *resilience.Executor) (ports.PassageVectorIndex, error) {
	switch cfg.VectorBackend {
	case "", "memory":
		return memoryvector.NewIndex(), nil
	case "qdrant":
		return qdrant.NewWithExecutor(cfg.QdrantURL, cfg.QdrantCollection, executor), nil
	default:
		return nil, fmt.Errorf("unknown vector backend %q", cfg.VectorBackend)
	}
}

func newConversationStore(ctx context.Context, cfg config.Config) (ports.ConversationStore, *sql.DB, error) {
	switch cfg.HistoryBackend {
	case "", "memory":
		return memory.NewConversationStore(), nil, nil
	case "postgres":
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := postgres.NewConversationRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		return repo, db, nil
	default:
		return nil, nil, fmt.Errorf("unknown history backend %q", cfg.HistoryBackend)
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
