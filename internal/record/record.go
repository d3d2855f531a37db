package record

// Record is one raw item as returned by a table scan.
type Record map[string]Value

// Lookup walks path through nested maps. Any missing key yields false; it is
// never an error.
func (r Record) Lookup(path ...string) (Value, bool) {
	if len(path) == 0 || r == nil {
		return Value{}, false
	}
	current, ok := r[path[0]]
	if !ok || current.IsAbsent() {
		return Value{}, false
	}
	for _, key := range path[1:] {
		current, ok = current.Field(key)
		if !ok {
			return Value{}, false
		}
	}
	return current, true
}

// Text resolves path to the raw text of a string or number attribute.
func (r Record) Text(path ...string) (string, bool) {
	v, ok := r.Lookup(path...)
	if !ok {
		return "", false
	}
	return v.Text()
}

// Float resolves path to a float.
func (r Record) Float(path ...string) (float64, bool) {
	v, ok := r.Lookup(path...)
	if !ok {
		return 0, false
	}
	return v.Float()
}

// Int resolves path to an integer.
func (r Record) Int(path ...string) (int64, bool) {
	v, ok := r.Lookup(path...)
	if !ok {
		return 0, false
	}
	return v.Int()
}

// Strings resolves path to a list and keeps the string members in order.
func (r Record) Strings(path ...string) ([]string, bool) {
	v, ok := r.Lookup(path...)
	if !ok || v.Kind() != KindList {
		return nil, false
	}
	out := make([]string, 0, len(v.Items()))
	for _, item := range v.Items() {
		if item.Kind() != KindString {
			continue
		}
		out = append(out, item.text)
	}
	return out, true
}
