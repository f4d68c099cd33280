package api

import (
	"fmt"
	"strconv"
)

// Record is one raw object returned by the API (a collection, document,
// user, or group). Records are cached verbatim on disk, so the dynamic
// response shape is preserved as a map and typed access goes through the
// accessors below. A missing or non-string field reads as "".
type Record map[string]any

// ID returns the record's stable identifier.
func (r Record) ID() string {
	return r.str("id")
}

// Title returns a document's title.
func (r Record) Title() string {
	return r.str("title")
}

// Name returns a collection's (or user's, or group's) name.
func (r Record) Name() string {
	return r.str("name")
}

// ParentDocumentID returns the parent document id, or "" for a root
// document. The parent may reference an id that is not present in the
// currently cached set; that is a partial subtree, not an error.
func (r Record) ParentDocumentID() string {
	return r.str("parentDocumentId")
}

// CollectionID returns the owning collection's id.
func (r Record) CollectionID() string {
	return r.str("collectionId")
}

// Field stringifies an arbitrary field for table output. Numbers are
// rendered without a trailing ".0" when integral, booleans as true/false,
// and null/absent fields as "".
func (r Record) Field(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func (r Record) str(key string) string {
	if s, ok := r[key].(string); ok {
		return s
	}
	return ""
}

// toRecords converts a decoded JSON array into records, skipping entries
// that are not objects.
func toRecords(list []any) []Record {
	records := make([]Record, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			records = append(records, Record(obj))
		}
	}
	return records
}
