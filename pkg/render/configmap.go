package render

import (
	"fmt"

	"gopkg.in/yaml.v3"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// configMapName is deterministic from the crawl id so repeated renders of the
// same CrawlSpec produce the same object identity.
func configMapName(crawlID string) string {
	return fmt.Sprintf("crawl-config-%s", crawlID)
}

// crawlerConfig is the YAML document mounted into every worker pod,
// mirroring browsertrix-cloud's own crawler config file shape.
type crawlerConfig struct {
	Seeds           []string `yaml:"seeds,omitempty"`
	SeedFileID      string   `yaml:"seedFileId,omitempty"`
	ScopeType       string   `yaml:"scopeType,omitempty"`
	Exclude         []string `yaml:"exclude,omitempty"`
	LinkSelectors   []string `yaml:"selectLinks,omitempty"`
	Lang            string   `yaml:"lang,omitempty"`
	Behaviors       []string `yaml:"behaviors,omitempty"`
	CombineWARC     bool     `yaml:"combineWARC"`
	GenerateWACZ    bool     `yaml:"generateWACZ"`
}

// MakeConfigMap renders the single ConfigMap shared by all of a crawl's pods:
// crawler CLI arguments serialized as a mounted YAML file plus environment
// variables for the values the crawler reads directly from its environment
// (§4.1).
func MakeConfigMap(spec CrawlSpec, env Environment) (*corev1.ConfigMap, error) {
	cfg := crawlerConfig{
		Seeds:         spec.Seeds,
		SeedFileID:    spec.SeedFileID,
		ScopeType:     spec.ScopeType,
		Exclude:       spec.Exclusions,
		LinkSelectors: spec.LinkSelectors,
		Lang:          spec.Language,
		Behaviors:     spec.CustomBehaviors,
		CombineWARC:   true,
		GenerateWACZ:  true,
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal crawler config: %w", err)
	}

	cmData := map[string]string{
		"crawl-config.yaml": string(data),
	}
	for _, v := range configMapEnvVars(spec) {
		cmData[v.Name] = v.Value
	}

	return &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      configMapName(spec.ID),
			Namespace: env.CrawlerNamespace,
			Labels:    CommonLabels(spec.ID, spec.OrgID, spec.ConfigID, TypeCrawl),
		},
		Data: cmData,
	}, nil
}

// configMapEnvVars lists the environment variables MakeConfigMap writes into
// the ConfigMap. pod.go sets the same list directly as the crawler
// container's Env (not through envFrom).
func configMapEnvVars(spec CrawlSpec) []corev1.EnvVar {
	vars := []corev1.EnvVar{
		{Name: "CRAWL_ID", Value: spec.ID},
		{Name: "REDIS_URL", Value: spec.RedisURL},
		{Name: "STORE_URL", Value: spec.StoreURL},
		{Name: "PROXY_ID", Value: spec.ProxyID},
		{Name: "CRAWL_TIMEOUT", Value: fmt.Sprintf("%d", spec.Timeout)},
		{Name: "MAX_PAGE_LIMIT", Value: fmt.Sprintf("%d", spec.MaxPagesPerCrawl)},
	}
	if spec.MaxCrawlSize > 0 {
		vars = append(vars, corev1.EnvVar{Name: "CRAWL_SIZE_LIMIT_BYTES", Value: fmt.Sprintf("%d", spec.MaxCrawlSize)})
	}
	if spec.ProfileFilename != "" {
		vars = append(vars, corev1.EnvVar{Name: "PROFILE_FILENAME", Value: spec.ProfileFilename})
	}
	return vars
}
