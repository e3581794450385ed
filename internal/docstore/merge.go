package docstore

// mergeDocs merges src into a copy of dst. Nested maps merge recursively;
// everything else is replaced. This mirrors a merge-set in document
// databases: setting {"uidRecipientAuthorizations": {"1": addr}} with merge
// preserves sibling map entries.
func mergeDocs(dst, src Document) Document {
	out := make(Document, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		newMap, newOK := v.(map[string]any)
		oldMap, oldOK := out[k].(map[string]any)
		if newOK && oldOK {
			out[k] = mergeDocs(oldMap, newMap)
			continue
		}
		out[k] = deepCopyValue(v)
	}
	return out
}

// deepCopy clones a document so callers can never mutate stored state
// through a returned reference.
func deepCopy(doc Document) Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopy(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		return v
	}
}
