// Package config loads the process-wide settings enumerated in the
// environment configuration from plain environment variables, the way the
// browsertrix-cloud backend this system is modeled on is actually deployed
// (every operator/backend/scheduler process, one env var per setting, no
// flags). This package reads os.LookupEnv directly rather than reaching
// for an env-parsing library.
package config

import (
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/webrecorder/crawl-control-plane/pkg/render"
)

// Config is the fully parsed, typed view of the process environment shared
// by the operator and scheduler binaries.
type Config struct {
	CrawlerNamespace string
	DefaultNamespace string

	MongoHost string
	MongoDB   string
	RedisURL  string

	AppOrigin string

	ReplicaDeletionDelayDays int
	JobConcurrency           int

	Env render.Environment
}

// Load reads Config from the process environment, applying the defaults §6
// names for any variable left unset. MONGO_HOST, REDIS_URL and
// CRAWLER_IMAGE have no sensible default and are required.
func Load() (Config, error) {
	cfg := Config{
		CrawlerNamespace: getEnv("CRAWLER_NAMESPACE", "crawlers"),
		DefaultNamespace: getEnv("DEFAULT_NAMESPACE", "default"),
		MongoDB:          getEnv("MONGO_DB", "crawl-control-plane"),
		AppOrigin:        getEnv("APP_ORIGIN", ""),
	}

	var err error
	if cfg.MongoHost, err = requireEnv("MONGO_HOST"); err != nil {
		return Config{}, err
	}
	if cfg.RedisURL, err = requireEnv("REDIS_URL"); err != nil {
		return Config{}, err
	}

	if cfg.ReplicaDeletionDelayDays, err = getEnvInt("REPLICA_DELETION_DELAY_DAYS", 7); err != nil {
		return Config{}, err
	}
	if cfg.JobConcurrency, err = getEnvInt("JOB_CONCURRENCY", 8); err != nil {
		return Config{}, err
	}

	numBrowsers, err := getEnvInt("NUM_BROWSERS", 1)
	if err != nil {
		return Config{}, err
	}
	maxCrawlScale, err := getEnvInt("MAX_CRAWL_SCALE", 0)
	if err != nil {
		return Config{}, err
	}

	crawlerImage, err := requireEnv("CRAWLER_IMAGE")
	if err != nil {
		return Config{}, err
	}

	cfg.Env = render.Environment{
		CrawlerNamespace: cfg.CrawlerNamespace,
		CrawlerImage:     crawlerImage,
		PullPolicy:       getEnv("CRAWLER_IMAGE_PULL_POLICY", "IfNotPresent"),
		BrowsersPerPod:   numBrowsers,
		MaxCrawlScale:    maxCrawlScale,
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func requireEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", errors.Errorf("required environment variable %s is not set", key)
	}
	return v, nil
}

func getEnvInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s as int", key)
	}
	return n, nil
}
