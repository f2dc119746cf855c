package render

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
)

func redisName(crawlID string) string {
	return fmt.Sprintf("redis-%s", crawlID)
}

// MakeRedisPod renders the singleton Redis pod backing a crawl's control
// channel (§4.1, §4.3). Only rendered while the crawl's state is non-terminal.
func MakeRedisPod(spec CrawlSpec, env Environment) *corev1.Pod {
	labels := CommonLabels(spec.ID, spec.OrgID, spec.ConfigID, TypeCrawl)
	labels["btrix.role"] = "redis"

	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      redisName(spec.ID),
			Namespace: env.CrawlerNamespace,
			Labels:    labels,
		},
		Spec: corev1.PodSpec{
			RestartPolicy: corev1.RestartPolicyAlways,
			Containers: []corev1.Container{
				{
					Name:  redisContainer,
					Image: env.RedisImage,
					Ports: []corev1.ContainerPort{{Name: "redis", ContainerPort: 6379}},
					Resources: corev1.ResourceRequirements{
						Requests: corev1.ResourceList{
							corev1.ResourceMemory: *resource.NewQuantity(env.RedisRequestsMemory, resource.BinarySI),
						},
					},
				},
			},
		},
	}
}

// MakeRedisService renders the ClusterIP service fronting the crawl's Redis
// pod, addressed by the redis URL written into the ConfigMap.
func MakeRedisService(spec CrawlSpec, env Environment) *corev1.Service {
	labels := CommonLabels(spec.ID, spec.OrgID, spec.ConfigID, TypeCrawl)
	selector := map[string]string{LabelCrawl: spec.ID, "btrix.role": "redis"}

	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      redisName(spec.ID),
			Namespace: env.CrawlerNamespace,
			Labels:    labels,
		},
		Spec: corev1.ServiceSpec{
			Selector: selector,
			Ports: []corev1.ServicePort{
				{Name: "redis", Port: 6379, TargetPort: intstr.FromInt(6379)},
			},
		},
	}
}
