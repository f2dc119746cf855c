package render

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func pvcName(crawlID string, index int) string {
	return fmt.Sprintf("crawl-%s-%d", crawlID, index)
}

// MakePVC renders the per-pod PersistentVolumeClaim a worker pod mounts its
// working directory from (§4.1).
func MakePVC(spec CrawlSpec, env Environment, index int) *corev1.PersistentVolumeClaim {
	return &corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{
			Name:      pvcName(spec.ID, index),
			Namespace: env.CrawlerNamespace,
			Labels:    CommonLabels(spec.ID, spec.OrgID, spec.ConfigID, TypeCrawl),
		},
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{
					corev1.ResourceStorage: *resource.NewQuantity(env.CrawlerStoragePerPod, resource.BinarySI),
				},
			},
		},
	}
}
