// Package validation checks a configuration document against
// resource-type-specific constraints. Issues are advisory: they are
// surfaced to the user but never block editing, and rules accumulate
// rather than short-circuit.
package validation

import (
	"fmt"
	"sort"

	"github.com/kubedeck/kubedeck-backend/internal/document"
)

// Issue is a single constraint violation.
type Issue struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Field == "" {
		return i.Message
	}
	return i.Field + ": " + i.Message
}

// Validate runs the rule set for the resource type over the document.
// An empty result means the document is valid. The function is pure:
// it never mutates doc and repeated calls with equal inputs return
// equal results, so it is safe to invoke on every edit.
func Validate(resourceType string, doc document.Document) []Issue {
	spec, ok := mapAt(doc, "spec")
	if !ok {
		// Nothing type-specific to check without a spec subtree.
		return nil
	}

	issues := []Issue{}
	switch resourceType {
	case "deployment":
		issues = append(issues, checkReplicas(spec)...)
		issues = append(issues, checkSelector(spec, "Deployment")...)
		issues = append(issues, checkPodTemplate(spec, "Deployment")...)
		issues = append(issues, checkSelectorMatchesTemplate(spec)...)
	case "daemonset":
		issues = append(issues, checkSelector(spec, "DaemonSet")...)
		issues = append(issues, checkPodTemplate(spec, "DaemonSet")...)
		issues = append(issues, checkSelectorMatchesTemplate(spec)...)
	case "statefulset":
		issues = append(issues, checkReplicas(spec)...)
		issues = append(issues, checkSelector(spec, "StatefulSet")...)
		issues = append(issues, checkPodTemplate(spec, "StatefulSet")...)
		issues = append(issues, checkSelectorMatchesTemplate(spec)...)
		if _, ok := spec["serviceName"].(string); !ok {
			issues = append(issues, Issue{Field: "spec.serviceName", Message: "StatefulSet must have a serviceName"})
		}
	case "service":
		issues = append(issues, checkServicePorts(spec)...)
	}
	return issues
}

func checkReplicas(spec map[string]any) []Issue {
	v, ok := spec["replicas"]
	if !ok {
		return nil
	}
	n, isInt := v.(int64)
	if !isInt || n < 0 {
		return []Issue{{Field: "spec.replicas", Message: "replicas must be a non-negative integer"}}
	}
	return nil
}

func checkSelector(spec map[string]any, kind string) []Issue {
	sel, ok := spec["selector"].(map[string]any)
	if !ok {
		return []Issue{{Field: "spec.selector", Message: kind + " must have a selector"}}
	}
	if _, ok := sel["matchLabels"].(map[string]any); !ok {
		return []Issue{{Field: "spec.selector.matchLabels", Message: kind + " selector must have matchLabels"}}
	}
	return nil
}

func checkPodTemplate(spec map[string]any, kind string) []Issue {
	tpl, ok := spec["template"].(map[string]any)
	if !ok {
		return []Issue{{Field: "spec.template", Message: kind + " must have a pod template"}}
	}
	podSpec, ok := tpl["spec"].(map[string]any)
	if !ok {
		return []Issue{{Field: "spec.template.spec", Message: "pod template must have a spec"}}
	}
	containers, ok := podSpec["containers"].([]any)
	if !ok || len(containers) == 0 {
		return []Issue{{Field: "spec.template.spec.containers", Message: "pod spec must have containers"}}
	}
	var issues []Issue
	for i, c := range containers {
		cm, ok := c.(map[string]any)
		if !ok {
			issues = append(issues, Issue{
				Field:   fmt.Sprintf("spec.template.spec.containers[%d]", i),
				Message: "container must be a mapping",
			})
			continue
		}
		if s, _ := cm["name"].(string); s == "" {
			issues = append(issues, Issue{
				Field:   fmt.Sprintf("spec.template.spec.containers[%d].name", i),
				Message: "container must have a name",
			})
		}
		if s, _ := cm["image"].(string); s == "" {
			issues = append(issues, Issue{
				Field:   fmt.Sprintf("spec.template.spec.containers[%d].image", i),
				Message: "container must have an image",
			})
		}
	}
	return issues
}

// checkSelectorMatchesTemplate verifies every matchLabels entry is
// present with the same value in the pod template labels. Workloads
// with a selector that does not select their own template never become
// ready, so this is the highest-signal rule in the set.
func checkSelectorMatchesTemplate(spec map[string]any) []Issue {
	sel, ok := mapAt(spec, "selector")
	if !ok {
		return nil
	}
	match, ok := mapAt(sel, "matchLabels")
	if !ok {
		return nil
	}
	tpl, ok := mapAt(spec, "template")
	if !ok {
		return nil
	}
	meta, _ := mapAt(tpl, "metadata")
	labels, _ := mapAt(meta, "labels")

	keys := make([]string, 0, len(match))
	for k := range match {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var issues []Issue
	for _, k := range keys {
		if lv, ok := labels[k]; !ok || lv != match[k] {
			issues = append(issues, Issue{
				Field:   "spec.selector.matchLabels." + k,
				Message: fmt.Sprintf("selector label %q does not match the pod template labels", k),
			})
		}
	}
	return issues
}

func checkServicePorts(spec map[string]any) []Issue {
	ports, ok := spec["ports"].([]any)
	if !ok {
		return nil
	}
	var issues []Issue
	for i, p := range ports {
		pm, ok := p.(map[string]any)
		if !ok {
			continue
		}
		if _, ok := pm["port"]; !ok {
			issues = append(issues, Issue{
				Field:   fmt.Sprintf("spec.ports[%d].port", i),
				Message: "service port must have a port number",
			})
		}
	}
	return issues
}

func mapAt(m map[string]any, key string) (map[string]any, bool) {
	if m == nil {
		return nil, false
	}
	child, ok := m[key].(map[string]any)
	return child, ok
}
