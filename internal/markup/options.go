package markup

import "strings"

// ParseOptions parses the comma-separated key=value pairs of an optional
// argument, e.g. "width=50%, scale=1.2". Entries without an equals sign and
// entries with an empty key are dropped; later duplicates win. A nil map is
// returned when nothing parses.
func ParseOptions(raw string) map[string]string {
	var opts map[string]string
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, value, found := strings.Cut(entry, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			continue
		}
		if opts == nil {
			opts = make(map[string]string, 2)
		}
		opts[key] = value
	}
	return opts
}
