// Command recommendations 启动离线/在线融合推荐 HTTP 服务。
//
// 配置见 config.Service；环境变量前缀 RECS_，配置文件由 CONFIG_PATH 指定。
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rushteam/recblend/api"
	"github.com/rushteam/recblend/config"
	_ "github.com/rushteam/recblend/config/builders"
	"github.com/rushteam/recblend/core"
	"github.com/rushteam/recblend/event"
	"github.com/rushteam/recblend/feast"
	"github.com/rushteam/recblend/feature"
	"github.com/rushteam/recblend/feedback"
	"github.com/rushteam/recblend/logging"
	"github.com/rushteam/recblend/recall"
	"github.com/rushteam/recblend/store"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("recommendations service stopped")
		os.Exit(1)
	}
}

// statsReporter 是两种离线存储共有的计数输出
type statsReporter interface {
	core.OfflineStore
	Stats() store.RecsStats
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Caller: cfg.Log.Caller,
		Output: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var kv *store.RedisStore
	if cfg.Offline.Backend == "redis" || cfg.Events.Backend == "redis" {
		kv, err = store.NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer kv.Close()
	}

	offlineStore, err := newOfflineStore(ctx, cfg, kv)
	if err != nil {
		return err
	}
	defer offlineStore.Stats()

	events := newEventStore(cfg, kv)
	similarity, closeSimilarity, err := newSimilarityStore(cfg)
	if err != nil {
		return err
	}
	defer closeSimilarity()

	postNodes, err := config.LoadPostNodes(cfg.Pipeline.Path)
	if err != nil {
		return err
	}

	handler := api.NewHandler(
		&recall.Offline{Store: offlineStore},
		&recall.Online{Events: events, Similarity: similarity, EventsK: cfg.Events.K},
		postNodes,
		cfg.Server.RequestTimeout,
	)
	if cfg.Feedback.Enabled() {
		collector, err := feedback.NewKafkaCollector(feedback.KafkaConfig{
			Brokers: cfg.Feedback.Brokers,
			Topic:   cfg.Feedback.Topic,
		})
		if err != nil {
			return err
		}
		defer collector.Close()
		handler.Feedback = collector
	}

	srv := api.NewServer(cfg.Server.Addr, api.NewRouter(handler), cfg.Server.RequestTimeout)
	errCh := make(chan error, 1)
	go func() {
		logging.Info().
			Str("addr", cfg.Server.Addr).
			Str("events", cfg.Events.Backend).
			Str("similarity", cfg.Similarity.Backend).
			Str("offline", cfg.Offline.Backend).
			Int("post_nodes", len(postNodes)).
			Msg("recommendations service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type offlineSource struct {
	namespace string
	path      string
	columns   []string
}

// offlineSources 返回配置了路径的命名空间，personal 在前。
func offlineSources(cfg *config.Service) ([]offlineSource, error) {
	var out []offlineSource
	for _, src := range []struct{ namespace, path string }{
		{store.NamespacePersonal, cfg.Offline.PersonalPath},
		{store.NamespaceDefault, cfg.Offline.DefaultPath},
	} {
		if src.path == "" {
			continue
		}
		columns, err := store.RequiredColumns(src.namespace)
		if err != nil {
			return nil, err
		}
		out = append(out, offlineSource{namespace: src.namespace, path: src.path, columns: columns})
	}
	return out, nil
}

// newOfflineStore 构建离线推荐存储。
// redis 后端未配置 parquet 路径时，认为有序集合已由外部写入。
func newOfflineStore(ctx context.Context, cfg *config.Service, kv core.KeyValueStore) (statsReporter, error) {
	sources, err := offlineSources(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Offline.Backend == "redis" && len(sources) == 0 {
		return store.NewKVRecsStore(kv, cfg.Offline.KeyPrefix), nil
	}

	loader, err := store.NewParquetLoader()
	if err != nil {
		return nil, err
	}
	defer loader.Close()

	if cfg.Offline.Backend == "redis" {
		recs := store.NewKVRecsStore(kv, cfg.Offline.KeyPrefix)
		for _, src := range sources {
			if err := recs.Load(ctx, loader, src.namespace, src.path, src.columns); err != nil {
				return nil, err
			}
		}
		return recs, nil
	}

	recs := store.NewRecsStore(loader)
	for _, src := range sources {
		if err := recs.Load(ctx, src.namespace, src.path, src.columns); err != nil {
			return nil, err
		}
	}
	return recs, nil
}

func newEventStore(cfg *config.Service, kv core.KeyValueStore) core.EventStore {
	if cfg.Events.Backend == "redis" {
		return event.NewKVStore(kv, "")
	}
	return event.NewHTTPStore(cfg.Events.URL, cfg.Events.Timeout)
}

func newSimilarityStore(cfg *config.Service) (core.SimilarityStore, func(), error) {
	if cfg.Similarity.Backend != "feast" {
		return feature.NewHTTPSimilarityStore(cfg.Similarity.URL, cfg.Similarity.Timeout), func() {}, nil
	}

	var opts []feast.ClientOption
	if cfg.Similarity.Timeout > 0 {
		opts = append(opts, feast.WithTimeout(cfg.Similarity.Timeout))
	}
	if cfg.Similarity.FeastToken != "" {
		opts = append(opts, feast.WithAuth(&feast.AuthConfig{Type: "static", Token: cfg.Similarity.FeastToken}))
	}
	client, err := feast.NewClient(cfg.Similarity.FeastEndpoint, cfg.Similarity.FeastProject, opts...)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() { _ = client.Close() }
	return feature.NewFeastSimilarityStore(client, cfg.Similarity.FeastProject, cfg.Similarity.FeastView), closeFn, nil
}
