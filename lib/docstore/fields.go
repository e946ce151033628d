package docstore

// typed accessors over the float64/any soup JSON decoding leaves behind

func Float(doc Document, key string) float64 {
	switch v := doc[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

func Int(doc Document, key string) int64 {
	return int64(Float(doc, key))
}

func String(doc Document, key string) string {
	s, _ := doc[key].(string)
	return s
}

func Bool(doc Document, key string) bool {
	b, _ := doc[key].(bool)
	return b
}

func Strings(doc Document, key string) []string {
	arr, ok := doc[key].([]any)
	if !ok {
		// values written in-process may still be typed
		if typed, ok := doc[key].([]string); ok {
			out := make([]string, len(typed))
			copy(out, typed)
			return out
		}
		return nil
	}
	var out []string
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
