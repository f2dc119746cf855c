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
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/webrecorder/crawl-control-plane/internal/config"
	"github.com/webrecorder/crawl-control-plane/internal/logging"
	crawlingv1alpha1 "github.com/webrecorder/crawl-control-plane/pkg/apis/crawling/v1alpha1"
	"github.com/webrecorder/crawl-control-plane/pkg/scheduler"
	"github.com/webrecorder/crawl-control-plane/pkg/storage"
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
		metricsAddr  = flag.String("metrics-addr", ":9091", "Address to emit metrics on.")
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

	restConfig, err := clientcmd.BuildConfigFromFlags(*apiserverURL, *kubeconfig)
	if err != nil {
		level.Error(logger).Log("msg", "building kubeconfig failed", "err", err)
		os.Exit(1)
	}

	scheme := runtime.NewScheme()
	if err := crawlingv1alpha1.AddToScheme(scheme); err != nil {
		level.Error(logger).Log("msg", "add crawling scheme", "err", err)
		os.Exit(1)
	}
	k8sClient, err := client.New(restConfig, client.Options{Scheme: scheme})
	if err != nil {
		level.Error(logger).Log("msg", "building kubernetes client failed", "err", err)
		os.Exit(1)
	}

	connectCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	mongoClient, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoHost))
	cancel()
	if err != nil {
		level.Error(logger).Log("msg", "connecting to mongo failed", "err", err)
		os.Exit(1)
	}

	progressStore := store.New(mongoClient, cfg.MongoDB)
	creator := scheduler.ClientCrawlJobCreator{Client: k8sClient, Namespace: cfg.CrawlerNamespace}

	sched := scheduler.New(logger, scheduler.NewStore(progressStore), creator, storage.NoopFacet{}, scheduler.Options{
		Concurrency:              cfg.JobConcurrency,
		ReplicaDeletionDelayDays: cfg.ReplicaDeletionDelayDays,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	var g run.Group
	{
		term := make(chan os.Signal, 1)
		stop := make(chan struct{})
		signal.Notify(term, os.Interrupt, syscall.SIGTERM)

		g.Add(func() error {
			select {
			case <-term:
				level.Info(logger).Log("msg", "received SIGTERM, exiting gracefully...")
			case <-stop:
			}
			return nil
		}, func(err error) {
			close(stop)
		})
	}
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
	{
		ctx, cancel := context.WithCancel(context.Background())
		g.Add(func() error {
			return sched.Run(ctx)
		}, func(err error) {
			cancel()
		})
	}
	if err := g.Run(); err != nil {
		level.Error(logger).Log("msg", "exit with error", "err", err)
		os.Exit(1)
	}
}
