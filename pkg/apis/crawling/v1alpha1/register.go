// Package v1alpha1 contains the custom resource definitions reconciled by the
// crawl control plane: CrawlJob, ProfileJob, CollIndex and CronJob.
package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// GroupName is the API group under which all crawl control plane CRDs live.
const GroupName = "btrix.cloud"

// Version is the only served version of the crawling API group.
const Version = "v1alpha1"

var (
	// SchemeBuilder collects the AddToScheme funcs for this API group.
	SchemeBuilder = runtime.NewSchemeBuilder(addKnownTypes)
	// AddToScheme registers this API group & version to a scheme.
	AddToScheme = SchemeBuilder.AddToScheme
	// SchemeGroupVersion is the group version used to register these objects.
	SchemeGroupVersion = schema.GroupVersion{Group: GroupName, Version: Version}
)

// Kind returns a group-qualified GroupKind for an unqualified kind name.
func Kind(kind string) schema.GroupKind {
	return SchemeGroupVersion.WithKind(kind).GroupKind()
}

// Resource returns a group-qualified GroupResource for an unqualified resource name.
func Resource(resource string) schema.GroupResource {
	return SchemeGroupVersion.WithResource(resource).GroupResource()
}

func addKnownTypes(scheme *runtime.Scheme) error {
	scheme.AddKnownTypes(SchemeGroupVersion,
		&CrawlJob{},
		&CrawlJobList{},
		&ProfileJob{},
		&ProfileJobList{},
		&CollIndex{},
		&CollIndexList{},
		&CronJob{},
		&CronJobList{},
	)
	metav1.AddToGroupVersion(scheme, SchemeGroupVersion)
	return nil
}
