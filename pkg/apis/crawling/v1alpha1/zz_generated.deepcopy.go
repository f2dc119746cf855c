// Code generated by hand to match the conventions of
// k8s.io/code-generator's deepcopy-gen; keep in sync with types.go.

package v1alpha1

import (
	runtime "k8s.io/apimachinery/pkg/runtime"
)

// DeepCopyInto copies all properties of this object into another object of
// the same type that is provided as a pointer.
func (in *CrawlJob) DeepCopyInto(out *CrawlJob) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	in.Spec.DeepCopyInto(&out.Spec)
	in.Status.DeepCopyInto(&out.Status)
}

// DeepCopy creates a new CrawlJob by deep-copying the receiver.
func (in *CrawlJob) DeepCopy() *CrawlJob {
	if in == nil {
		return nil
	}
	out := new(CrawlJob)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject returns a generically typed copy of the object.
func (in *CrawlJob) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

func (in *CrawlJobList) DeepCopyInto(out *CrawlJobList) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ListMeta.DeepCopyInto(&out.ListMeta)
	if in.Items != nil {
		l := make([]CrawlJob, len(in.Items))
		for i := range in.Items {
			in.Items[i].DeepCopyInto(&l[i])
		}
		out.Items = l
	}
}

func (in *CrawlJobList) DeepCopy() *CrawlJobList {
	if in == nil {
		return nil
	}
	out := new(CrawlJobList)
	in.DeepCopyInto(out)
	return out
}

func (in *CrawlJobList) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

func (in *CrawlJobSpec) DeepCopyInto(out *CrawlJobSpec) {
	*out = *in
	if in.ProfileFilename != nil {
		v := *in.ProfileFilename
		out.ProfileFilename = &v
	}
}

func (in *CrawlJobSpec) DeepCopy() *CrawlJobSpec {
	if in == nil {
		return nil
	}
	out := new(CrawlJobSpec)
	in.DeepCopyInto(out)
	return out
}

func (in *CrawlStatus) DeepCopyInto(out *CrawlStatus) {
	*out = *in
	if in.PodStatus != nil {
		m := make(map[string]PodInfo, len(in.PodStatus))
		for k, v := range in.PodStatus {
			m[k] = *v.DeepCopy()
		}
		out.PodStatus = m
	}
	in.LastUpdatedTime.DeepCopyInto(&out.LastUpdatedTime)
	if in.Finished != nil {
		t := in.Finished.DeepCopy()
		out.Finished = &t
	}
	if in.StopReason != nil {
		s := *in.StopReason
		out.StopReason = &s
	}
}

func (in *CrawlStatus) DeepCopy() *CrawlStatus {
	if in == nil {
		return nil
	}
	out := new(CrawlStatus)
	in.DeepCopyInto(out)
	return out
}

func (in *PodInfo) DeepCopyInto(out *PodInfo) {
	*out = *in
	out.Used = in.Used
	out.Allocated = in.Allocated
	if in.NewMemory != nil {
		v := *in.NewMemory
		out.NewMemory = &v
	}
	if in.ExitCode != nil {
		v := *in.ExitCode
		out.ExitCode = &v
	}
	if in.SignalTime != nil {
		t := in.SignalTime.DeepCopy()
		out.SignalTime = &t
	}
}

func (in *PodInfo) DeepCopy() *PodInfo {
	if in == nil {
		return nil
	}
	out := new(PodInfo)
	in.DeepCopyInto(out)
	return out
}

func (in *ProfileJob) DeepCopyInto(out *ProfileJob) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	in.Spec.DeepCopyInto(&out.Spec)
	out.Status = in.Status
}

func (in *ProfileJob) DeepCopy() *ProfileJob {
	if in == nil {
		return nil
	}
	out := new(ProfileJob)
	in.DeepCopyInto(out)
	return out
}

func (in *ProfileJob) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

func (in *ProfileJobList) DeepCopyInto(out *ProfileJobList) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ListMeta.DeepCopyInto(&out.ListMeta)
	if in.Items != nil {
		l := make([]ProfileJob, len(in.Items))
		for i := range in.Items {
			in.Items[i].DeepCopyInto(&l[i])
		}
		out.Items = l
	}
}

func (in *ProfileJobList) DeepCopy() *ProfileJobList {
	if in == nil {
		return nil
	}
	out := new(ProfileJobList)
	in.DeepCopyInto(out)
	return out
}

func (in *ProfileJobList) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

func (in *ProfileJobSpec) DeepCopyInto(out *ProfileJobSpec) {
	*out = *in
	in.ExpiryTime.DeepCopyInto(&out.ExpiryTime)
	if in.ProfileFilename != nil {
		v := *in.ProfileFilename
		out.ProfileFilename = &v
	}
	if in.BaseProfileFilename != nil {
		v := *in.BaseProfileFilename
		out.BaseProfileFilename = &v
	}
}

func (in *ProfileJobSpec) DeepCopy() *ProfileJobSpec {
	if in == nil {
		return nil
	}
	out := new(ProfileJobSpec)
	in.DeepCopyInto(out)
	return out
}

func (in *CollIndex) DeepCopyInto(out *CollIndex) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	out.Spec = in.Spec
	in.Status.DeepCopyInto(&out.Status)
}

func (in *CollIndex) DeepCopy() *CollIndex {
	if in == nil {
		return nil
	}
	out := new(CollIndex)
	in.DeepCopyInto(out)
	return out
}

func (in *CollIndex) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

func (in *CollIndexList) DeepCopyInto(out *CollIndexList) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ListMeta.DeepCopyInto(&out.ListMeta)
	if in.Items != nil {
		l := make([]CollIndex, len(in.Items))
		for i := range in.Items {
			in.Items[i].DeepCopyInto(&l[i])
		}
		out.Items = l
	}
}

func (in *CollIndexList) DeepCopy() *CollIndexList {
	if in == nil {
		return nil
	}
	out := new(CollIndexList)
	in.DeepCopyInto(out)
	return out
}

func (in *CollIndexList) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

func (in *CollIndexStatus) DeepCopyInto(out *CollIndexStatus) {
	*out = *in
	in.LastUpdatedTime.DeepCopyInto(&out.LastUpdatedTime)
}

func (in *CollIndexStatus) DeepCopy() *CollIndexStatus {
	if in == nil {
		return nil
	}
	out := new(CollIndexStatus)
	in.DeepCopyInto(out)
	return out
}

func (in *CronJob) DeepCopyInto(out *CronJob) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	out.Spec = in.Spec
	in.Status.DeepCopyInto(&out.Status)
}

func (in *CronJob) DeepCopy() *CronJob {
	if in == nil {
		return nil
	}
	out := new(CronJob)
	in.DeepCopyInto(out)
	return out
}

func (in *CronJob) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

func (in *CronJobList) DeepCopyInto(out *CronJobList) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ListMeta.DeepCopyInto(&out.ListMeta)
	if in.Items != nil {
		l := make([]CronJob, len(in.Items))
		for i := range in.Items {
			in.Items[i].DeepCopyInto(&l[i])
		}
		out.Items = l
	}
}

func (in *CronJobList) DeepCopy() *CronJobList {
	if in == nil {
		return nil
	}
	out := new(CronJobList)
	in.DeepCopyInto(out)
	return out
}

func (in *CronJobList) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

func (in *CronJobStatus) DeepCopyInto(out *CronJobStatus) {
	*out = *in
	if in.LastObserved != nil {
		t := in.LastObserved.DeepCopy()
		out.LastObserved = &t
	}
	in.LastUpdatedTime.DeepCopyInto(&out.LastUpdatedTime)
}

func (in *CronJobStatus) DeepCopy() *CronJobStatus {
	if in == nil {
		return nil
	}
	out := new(CronJobStatus)
	in.DeepCopyInto(out)
	return out
}
