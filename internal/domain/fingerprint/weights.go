package fingerprint

// legacyPageSignatureKey is the combined weight key the original
// tool's probe-point table carried before the scorer split it into
// separate title and body weights. A fingerprint file produced by an
// older run may still use it.
const legacyPageSignatureKey = "page_signature"

// MigrateLegacyWeights splits a legacy `page_signature` weight entry
// into `title`/`body` entries, each getting half the legacy value
// (rounded down), unless title/body entries are already present — in
// which case the legacy entry is simply dropped. This is applied by
// Load so that an old fingerprint file's weights line up with the
// current scorer (spec.md §9 Open Question 2 / REDESIGN FLAG).
func MigrateLegacyWeights(weights map[string]int) map[string]int {
	if weights == nil {
		return nil
	}
	legacy, ok := weights[legacyPageSignatureKey]
	if !ok {
		return weights
	}

	migrated := make(map[string]int, len(weights))
	for k, v := range weights {
		if k == legacyPageSignatureKey {
			continue
		}
		migrated[k] = v
	}

	if _, hasTitle := migrated["title"]; !hasTitle {
		migrated["title"] = legacy / 2
	}
	if _, hasBody := migrated["body"]; !hasBody {
		migrated["body"] = legacy / 2
	}
	return migrated
}

// ApplyWeights overrides ProbeStep.Weight for steps whose CheckType
// matches an override key given in "favicon"/"image"/"title"/"body"
// check-type shorthand ("title" and "body" both select page_signature
// steps). Numeric order keys are not matched here; ApplyWeightByOrder
// handles overrides by 1-based order.
func ApplyWeights(plan *ProbePlan, overrides map[string]int) {
	typeShorthand := map[string]CheckType{
		"favicon": CheckFaviconHash,
		"image":   CheckImageHash,
		"title":   CheckPageSignature,
		"body":    CheckPageSignature,
	}

	for i := range plan.ProbeSteps {
		step := &plan.ProbeSteps[i]
		for key, points := range overrides {
			if ct, ok := typeShorthand[key]; ok && step.CheckType == ct {
				step.Weight = points
				continue
			}
		}
	}
}

// ApplyWeightByOrder overrides the weight of the step with the given
// 1-based order, returning false if no such step exists.
func ApplyWeightByOrder(plan *ProbePlan, order, points int) bool {
	for i := range plan.ProbeSteps {
		if plan.ProbeSteps[i].Order == order {
			plan.ProbeSteps[i].Weight = points
			return true
		}
	}
	return false
}

// WeightsSummary returns a check-type → total-weight map, summing the
// weight of every step of that check type — used to print a summary
// before a verification run, mirroring `get_weights_summary` /
// `print_probe_weights` in the original tool.
func WeightsSummary(plan ProbePlan) map[CheckType]int {
	summary := make(map[CheckType]int)
	for _, step := range plan.ProbeSteps {
		summary[step.CheckType] += step.Weight
	}
	return summary
}
