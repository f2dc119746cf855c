package operator

import (
	"context"

	"github.com/pkg/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	metricsclientset "k8s.io/metrics/pkg/client/clientset/versioned"
)

// metricsClient reads live PodMetrics from the metrics-server API,
// implementing PodMetricsReader for production use.
type metricsClient struct {
	clientset metricsclientset.Interface
}

// NewMetricsClient wraps an existing metrics-server clientset; the caller
// builds it from a rest.Config (cmd/operator does so from its
// --kubeconfig/--apiserver flags).
func NewMetricsClient(clientset metricsclientset.Interface) PodMetricsReader {
	return &metricsClient{clientset: clientset}
}

func (c *metricsClient) Read(ctx context.Context, namespace string, podNames []string) (map[string]ResourceUsage, error) {
	usage := make(map[string]ResourceUsage, len(podNames))
	if len(podNames) == 0 {
		return usage, nil
	}

	wanted := make(map[string]struct{}, len(podNames))
	for _, name := range podNames {
		wanted[name] = struct{}{}
	}

	list, err := c.clientset.MetricsV1beta1().PodMetricses(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "list pod metrics in %s", namespace)
	}

	for _, pm := range list.Items {
		if _, ok := wanted[pm.Name]; !ok {
			continue
		}
		var total ResourceUsage
		for _, c := range pm.Containers {
			if mem, ok := c.Usage["memory"]; ok {
				total.Memory += mem.Value()
			}
			if cpu, ok := c.Usage["cpu"]; ok {
				total.CPU += cpu.MilliValue()
			}
		}
		usage[pm.Name] = total
	}
	return usage, nil
}
