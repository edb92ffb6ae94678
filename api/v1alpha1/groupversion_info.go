// Package v1alpha1 contains API Schema definitions for the clawsec.io
// v1alpha1 API group: a ClawsecPolicy CRD carrying the same rules/approval/llm
// configuration §6.2 describes, so a cluster operator can manage the
// running engine's policy declaratively instead of editing a file on disk.
// +kubebuilder:object:generate=true
// +groupName=clawsec.io
package v1alpha1

import (
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/scheme"
)

var (
	// GroupVersion is group version used to register these objects.
	GroupVersion = schema.GroupVersion{Group: "clawsec.io", Version: "v1alpha1"}

	// SchemeBuilder is used to add go types to the GroupVersionKind scheme.
	SchemeBuilder = &scheme.Builder{GroupVersion: GroupVersion}

	// AddToScheme adds the types in this group-version to the given scheme.
	AddToScheme = SchemeBuilder.AddToScheme
)
