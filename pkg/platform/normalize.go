package platform

// The record API returns reference lists in two encodings depending on
// whether the backing field was populated: bare id strings, or objects
// carrying an "_id" field. Group-permission settings additionally arrive as
// either a single rule object or a list of them. Everything downstream of
// this file only ever sees the flat forms.

// NormalizeID extracts an id from a bare string or an object with an "_id"
// (or "id") key. Anything else yields the empty string.
func NormalizeID(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if id, ok := t["_id"].(string); ok {
			return id
		}
		if id, ok := t["id"].(string); ok {
			return id
		}
	}
	return ""
}

// NormalizeIDSet flattens a value that may be a single id, a single object,
// or a list of either into a set of id strings. Unrecognized entries are
// dropped rather than reported; malformed share/membership data must read as
// "no match", never as an error.
func NormalizeIDSet(v any) map[string]struct{} {
	set := map[string]struct{}{}
	switch t := v.(type) {
	case nil:
		return set
	case []any:
		for _, item := range t {
			if id := NormalizeID(item); id != "" {
				set[id] = struct{}{}
			}
		}
	case []string:
		for _, id := range t {
			if id != "" {
				set[id] = struct{}{}
			}
		}
	default:
		if id := NormalizeID(v); id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

// SetsOverlap reports whether two id sets share at least one element.
func SetsOverlap(a, b map[string]struct{}) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	for id := range small {
		if _, ok := large[id]; ok {
			return true
		}
	}
	return false
}

// NormalizeGroupPermissions flattens the raw settings.groupPermissions value
// (one rule object, a list of rule objects, or nil) into a rule list.
// Rules without a resource id are dropped.
func NormalizeGroupPermissions(raw any) []GroupPermissionRule {
	var items []any
	switch t := raw.(type) {
	case nil:
		return nil
	case []any:
		items = t
	case map[string]any:
		items = []any{t}
	default:
		return nil
	}

	var rules []GroupPermissionRule
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		rule := GroupPermissionRule{ResourceID: NormalizeID(m["resource"])}
		if rule.ResourceID == "" {
			continue
		}
		if name, ok := m["fieldName"].(string); ok && name != "" {
			rule.FieldNames = append(rule.FieldNames, name)
		}
		if names, ok := m["fieldNames"].([]any); ok {
			for _, n := range names {
				if s, ok := n.(string); ok && s != "" {
					rule.FieldNames = append(rule.FieldNames, s)
				}
			}
		}
		switch acc := m["access"].(type) {
		case []any:
			for _, a := range acc {
				if s, ok := a.(string); ok && s != "" {
					rule.Access = append(rule.Access, s)
				}
			}
		case string:
			if acc != "" {
				rule.Access = append(rule.Access, acc)
			}
		}
		rules = append(rules, rule)
	}
	return rules
}

// DecodeForm applies the boundary normalizations a freshly unmarshalled
// definition needs: the variant group-permission shape under settings is
// flattened onto the typed field.
func DecodeForm(form *FormDefinition) *FormDefinition {
	if form == nil {
		return nil
	}
	if form.Settings.GroupPermissions != nil && len(form.GroupPermissions) == 0 {
		form.GroupPermissions = NormalizeGroupPermissions(form.Settings.GroupPermissions)
	}
	return form
}
