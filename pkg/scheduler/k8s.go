package scheduler

import (
	"context"

	"github.com/pkg/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	crawlingv1alpha1 "github.com/webrecorder/crawl-control-plane/pkg/apis/crawling/v1alpha1"
)

// ClientCrawlJobCreator creates CrawlJob custom resources through a live
// Kubernetes API server, the production implementation of CrawlJobCreator.
// It is the only place in this package that touches client.Client directly,
// mirroring how pkg/operator keeps its own Kubernetes reads (PodMetricsReader)
// behind a narrow interface rather than threading a client through every
// function that might eventually need one.
type ClientCrawlJobCreator struct {
	Client    client.Client
	Namespace string
}

// CreateCrawlJob creates a CrawlJob named after spec.ID in Namespace. A
// conflict (the id already exists) is reported as an error rather than
// silently ignored — materialized ids are freshly minted per firing, so a
// collision means something upstream reused an id and deserves attention
// rather than a swallowed no-op.
func (c ClientCrawlJobCreator) CreateCrawlJob(ctx context.Context, spec crawlingv1alpha1.CrawlJobSpec) error {
	job := &crawlingv1alpha1.CrawlJob{
		ObjectMeta: metav1.ObjectMeta{
			Name:      spec.ID,
			Namespace: c.Namespace,
		},
		Spec: spec,
	}
	if err := c.Client.Create(ctx, job); err != nil {
		return errors.Wrapf(err, "create crawljob %s", spec.ID)
	}
	return nil
}
