package operator

import "context"

// PodMetricsReader is the operator's view of the Kubernetes metrics API: the
// one live read the sync webhook's request body cannot supply, since
// metacontroller only forwards observed children's spec/status, not the
// metrics-server snapshot transition 8 needs. Implemented by
// metricsClient (metricsclient.go) in production; the reconciler tests use
// NoopMetricsReader.
type PodMetricsReader interface {
	// Read returns current usage for the named pods in namespace. A pod with
	// no metrics yet (freshly scheduled) is simply absent from the result,
	// not an error.
	Read(ctx context.Context, namespace string, podNames []string) (map[string]ResourceUsage, error)
}

// NoopMetricsReader always reports no usage for any pod, letting the
// reconciler run (with transition 8 permanently a no-op) when no
// metrics-server is wired — for example local development.
type NoopMetricsReader struct{}

func (NoopMetricsReader) Read(ctx context.Context, namespace string, podNames []string) (map[string]ResourceUsage, error) {
	return map[string]ResourceUsage{}, nil
}
