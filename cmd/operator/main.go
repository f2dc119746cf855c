package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-kit/log/level"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
	metricsclientset "k8s.io/metrics/pkg/client/clientset/versioned"

	"github.com/webrecorder/crawl-control-plane/internal/config"
	"github.com/webrecorder/crawl-control-plane/internal/logging"
	"github.com/webrecorder/crawl-control-plane/pkg/operator"
	"github.com/webrecorder/crawl-control-plane/pkg/redischannel"
	"github.com/webrecorder/crawl-control-plane/pkg/store"
)

func main() {
	var kubeconfig *string
	if home := homedir.HomeDir(); home != "" {
		kubeconfig = flag.String("kubeconfig", filepath.Join(home, ".kube", "config"), "(optional) absolute path to the kubeconfig file")
	} else {
		kubeconfig = flag.String("kubeconfig", "", "absolute path to the kubeconfig file")
	}
	var (
		apiserverURL = flag.String("apiserver", "", "URL to the Kubernetes API server.")
		logLevel     = flag.String("log-level", logging.LevelInfo, "Log level to use.")
		syncAddr     = flag.String("sync-addr", operator.DefaultSyncAddr, "Address to serve the meta-controller sync webhook on.")
		metricsAddr  = flag.String("metrics-addr", ":9090", "Address to emit metrics on.")
	)
	flag.Parse()

	logger, err := logging.New(os.Stderr, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating logger failed: %s\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		level.Error(logger).Log("msg", "loading configuration failed", "err", err)
		os.Exit(1)
	}

	connectCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	mongoClient, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoHost))
	cancel()
	if err != nil {
		level.Error(logger).Log("msg", "connecting to mongo failed", "err", err)
		os.Exit(1)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		level.Error(logger).Log("msg", "parsing redis url failed", "err", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)

	restConfig, err := clientcmd.BuildConfigFromFlags(*apiserverURL, *kubeconfig)
	if err != nil {
		level.Error(logger).Log("msg", "building kubeconfig failed", "err", err)
		os.Exit(1)
	}
	metricsClientset, err := metricsclientset.NewForConfig(restConfig)
	if err != nil {
		level.Error(logger).Log("msg", "building metrics client failed", "err", err)
		os.Exit(1)
	}

	progressStore := store.New(mongoClient, cfg.MongoDB)
	redisChannel := redischannel.New(redisClient)

	crawl := operator.NewCrawlJobReconciler(operator.NewProgressStore(progressStore), redisChannel, cfg.Env)
	crawl.Metrics = operator.NewMetricsClient(metricsClientset)
	profile := operator.NewProfileJobReconciler(redisChannel, cfg.Env)
	collIndex := operator.NewCollIndexReconciler(operator.NewProgressStore(progressStore))
	cronJob := operator.NewCronJobReconciler(operator.NewProgressStore(progressStore), cfg.Env)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	op, err := operator.New(logger, crawl, profile, collIndex, cronJob, registry, operator.Options{SyncAddr: *syncAddr})
	if err != nil {
		level.Error(logger).Log("msg", "instantiating operator failed", "err", err)
		os.Exit(1)
	}

	var g run.Group
	// Termination handler.
	{
		term := make(chan os.Signal, 1)
		cancel := make(chan struct{})
		signal.Notify(term, os.Interrupt, syscall.SIGTERM)

		g.Add(func() error {
			select {
			case <-term:
				level.Info(logger).Log("msg", "received SIGTERM, exiting gracefully...")
			case <-cancel:
			}
			return nil
		}, func(err error) {
			close(cancel)
		})
	}
	// Metrics server.
	{
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
		server := &http.Server{Addr: *metricsAddr, Handler: mux}
		g.Add(func() error {
			return server.ListenAndServe()
		}, func(err error) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			server.Shutdown(ctx)
		})
	}
	// Sync webhook server.
	{
		ctx, cancel := context.WithCancel(context.Background())
		g.Add(func() error {
			return op.Run(ctx)
		}, func(err error) {
			cancel()
		})
	}
	if err := g.Run(); err != nil {
		level.Error(logger).Log("msg", "exit with error", "err", err)
		os.Exit(1)
	}
}
