package analysis

// identifyAffectedComponents derives the impacted component set from the
// error source and the dependencies blamed by root causes. Order-preserving
// union: the source comes first, then blamed dependencies in cause order,
// with no name repeated.
func identifyAffectedComponents(actx *AnalysisContext, rootCauses []RootCause) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}

	if actx != nil {
		add(actx.Source)
	}
	for _, rc := range rootCauses {
		for _, name := range failedDependencyNames(rc.Details) {
			add(name)
		}
	}
	return out
}

// failedDependencyNames extracts dependency names from a root cause's
// failedDependencies detail, tolerating both the native shapes strategies
// produce and the generic shapes that survive a JSON round trip.
func failedDependencyNames(details map[string]interface{}) []string {
	raw, ok := details[DetailFailedDependencies]
	if !ok {
		return nil
	}

	var names []string
	appendItem := func(item interface{}) {
		switch it := item.(type) {
		case DependencyHealth:
			names = append(names, it.Name)
		case map[string]interface{}:
			if name, ok := it["name"].(string); ok {
				names = append(names, name)
			}
		case string:
			names = append(names, it)
		}
	}

	switch v := raw.(type) {
	case []DependencyHealth:
		for _, d := range v {
			names = append(names, d.Name)
		}
	case []map[string]interface{}:
		for _, m := range v {
			appendItem(m)
		}
	case []interface{}:
		for _, item := range v {
			appendItem(item)
		}
	}
	return names
}
