package render

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	crawlerWorkDir     = "/crawls"
	crawlerConfigDir   = "/config"
	crawlerContainer   = "crawler"
	redisContainer     = "redis"
	configVolumeName   = "crawl-config"
	storageVolumeName  = "crawl-data"
)

func podName(crawlID string, index int) string {
	return fmt.Sprintf("crawl-%s-%d", crawlID, index)
}

// MakePod renders one worker pod. N pods are created for N = PodsForWindows;
// each pod's ordinal index identifies which PVC it mounts (§4.1). Resource
// requests are the environment's base template; limits are requests scaled
// by LimitsMultiplierPct (1.2x per the renderer contract).
func MakePod(spec CrawlSpec, env Environment, index int) *corev1.Pod {
	labels := CommonLabels(spec.ID, spec.OrgID, spec.ConfigID, TypeCrawl)

	requests := corev1.ResourceList{
		corev1.ResourceMemory: *resource.NewQuantity(env.CrawlerRequestsMemory, resource.BinarySI),
		corev1.ResourceCPU:    *resource.NewScaledQuantity(env.CrawlerRequestsCPU, resource.Milli),
	}
	limits := scaleResourceList(requests, env.LimitsMultiplierPct)

	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      podName(spec.ID, index),
			Namespace: env.CrawlerNamespace,
			Labels:    labels,
		},
		Spec: corev1.PodSpec{
			RestartPolicy: corev1.RestartPolicyNever,
			Containers: []corev1.Container{
				{
					Name:            crawlerContainer,
					Image:           env.CrawlerImage,
					ImagePullPolicy: corev1.PullPolicy(env.PullPolicy),
					Args:            []string{"crawl", "--config", crawlerConfigDir + "/crawl-config.yaml"},
					Env:             append(configMapEnvVars(spec), corev1.EnvVar{Name: "CRAWL_POD_INDEX", Value: fmt.Sprintf("%d", index)}),
					VolumeMounts: []corev1.VolumeMount{
						{Name: storageVolumeName, MountPath: crawlerWorkDir},
						{Name: configVolumeName, MountPath: crawlerConfigDir, ReadOnly: true},
					},
					Resources: corev1.ResourceRequirements{
						Requests: requests,
						Limits:   limits,
					},
				},
			},
			Volumes: []corev1.Volume{
				{
					Name: storageVolumeName,
					VolumeSource: corev1.VolumeSource{
						PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{
							ClaimName: pvcName(spec.ID, index),
						},
					},
				},
				{
					Name: configVolumeName,
					VolumeSource: corev1.VolumeSource{
						ConfigMap: &corev1.ConfigMapVolumeSource{
							LocalObjectReference: corev1.LocalObjectReference{Name: configMapName(spec.ID)},
						},
					},
				},
			},
		},
	}
}

// scaleResourceList returns a copy of rl with every quantity scaled by
// pct/100, used to derive limits from requests (default 1.2x).
func scaleResourceList(rl corev1.ResourceList, pct int64) corev1.ResourceList {
	if pct <= 0 {
		pct = 120
	}
	out := make(corev1.ResourceList, len(rl))
	for name, qty := range rl {
		if name == corev1.ResourceCPU {
			out[name] = *resource.NewMilliQuantity(qty.MilliValue()*pct/100, qty.Format)
			continue
		}
		v := qty.Value() * pct / 100
		out[name] = *resource.NewQuantity(v, qty.Format)
	}
	return out
}
