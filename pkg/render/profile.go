package render

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// RenderProfile returns the children of a ProfileJob: one PVC and one Pod
// with a single browser container (§4.1 "ProfileJob rendering"); no VNC
// sidecar container is rendered. Unlike a crawl,
// there is no ConfigMap and no Redis pod since a profile browser has no
// crawl queue.
func RenderProfile(spec ProfileSpec, env Environment) ([]client.Object, error) {
	if spec.ID == "" {
		return nil, fmt.Errorf("render profile: missing id")
	}

	labels := map[string]string{
		LabelProfile: spec.ID,
		LabelOrg:     spec.OrgID,
		LabelType:    string(TypeProfile),
	}

	pvc := &corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "profile-" + spec.ID,
			Namespace: env.CrawlerNamespace,
			Labels:    labels,
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

	env_ := []corev1.EnvVar{
		{Name: "PROFILE_ID", Value: spec.ID},
		{Name: "START_URL", Value: spec.StartURL},
	}
	if spec.BaseProfileFilename != "" {
		env_ = append(env_, corev1.EnvVar{Name: "BASE_PROFILE_FILENAME", Value: spec.BaseProfileFilename})
	}

	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "profile-" + spec.ID,
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
					Args:            []string{"create-login-profile"},
					Env:             env_,
					VolumeMounts: []corev1.VolumeMount{
						{Name: storageVolumeName, MountPath: crawlerWorkDir},
					},
				},
			},
			Volumes: []corev1.Volume{
				{
					Name: storageVolumeName,
					VolumeSource: corev1.VolumeSource{
						PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{ClaimName: "profile-" + spec.ID},
					},
				},
			},
		},
	}

	return []client.Object{pvc, pod}, nil
}
