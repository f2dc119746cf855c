// Package render implements the resource renderer (C1): a pure mapping from
// a CrawlSpec and an Environment to the list of Kubernetes objects a crawl
// needs, following a makeDaemonSet/makeConfig-style object-building shape.
package render

import (
	"fmt"

	"sigs.k8s.io/controller-runtime/pkg/client"
)

// Render returns the desired children for a running crawl: one ConfigMap, N
// Pods, N PVCs, and a singleton Redis pod + service. With terminal=true it
// returns no objects at all.
// It never mutates external state and never returns different results for
// the same (spec, env, terminal) triple.
func Render(spec CrawlSpec, env Environment, terminal bool) ([]client.Object, error) {
	if spec.ID == "" {
		return nil, fmt.Errorf("render: crawl spec missing id")
	}
	if len(spec.Seeds) == 0 && spec.SeedFileID == "" {
		return nil, fmt.Errorf("render: crawl %s has neither seeds nor a seed file", spec.ID)
	}
	if len(spec.Seeds) > 0 && spec.SeedFileID != "" {
		return nil, fmt.Errorf("render: crawl %s has both seeds and a seed file", spec.ID)
	}

	if terminal {
		return nil, nil
	}

	n := PodsForWindows(spec.BrowserWindows, env.BrowsersPerPod)
	if env.MaxCrawlScale > 0 && n > env.MaxCrawlScale {
		n = env.MaxCrawlScale
	}

	objs := make([]client.Object, 0, n*2+3)

	cm, err := MakeConfigMap(spec, env)
	if err != nil {
		return nil, fmt.Errorf("render crawl %s: %w", spec.ID, err)
	}
	objs = append(objs, cm)

	for i := 0; i < n; i++ {
		objs = append(objs, MakePVC(spec, env, i))
		objs = append(objs, MakePod(spec, env, i))
	}

	objs = append(objs, MakeRedisPod(spec, env), MakeRedisService(spec, env))

	return objs, nil
}
