/*
Package reconcile assembles canonical records from raw upstream fragments.

PURPOSE:
  One logical entity (a person, a pay run, a benefit deduction) may arrive as
  several fragments in several shapes. The reconciler unwraps the response
  envelopes, applies the field normalizers, and produces exactly one
  canonical record per entity.

FAILURE SEMANTICS:
  Batch functions return (records, dropped). A malformed fragment is dropped
  and described in dropped; it never fails the batch. The caller decides
  whether to log the dropped errors.

SHAPES (envelope.go):
  [ {...}, {...} ]                                   flat array
  {"responses": [{"individual_id", "code", "body"}]} batch envelope
  [ {"individual_id", "code", "body"} ]              bare envelope list
  {"individuals" | "employees" | "data" | "results": [...]}
  { ... }                                            single object
*/
package reconcile

import (
	"fmt"
	"net/http"

	"github.com/warp/workforce-engine/canonical"
	"github.com/warp/workforce-engine/normalize"
)

var defaultListKeys = []string{"individuals", "employees", "data", "results"}

// Fragment is one unwrapped upstream record body. IndividualID falls back to
// the record's own id; Owner is set only from an explicit individual_id.
type Fragment struct {
	IndividualID string
	Owner        string
	Code         int
	Body         map[string]any
}

// Fragments unwraps raw into record bodies. listKeys extends the wrapper
// field names a collection may be nested under.
func Fragments(kind string, raw any, listKeys ...string) ([]Fragment, []error) {
	u := unwrapper{kind: kind, listKeys: append(append([]string{}, listKeys...), defaultListKeys...)}
	u.walk(raw, -1)
	return u.frags, u.dropped
}

type unwrapper struct {
	kind     string
	listKeys []string
	frags    []Fragment
	dropped  []error
	index    int
}

func (u *unwrapper) drop(index int, format string, args ...any) {
	u.dropped = append(u.dropped, shapeError(u.kind, index, format, args...))
}

func shapeError(kind string, index int, format string, args ...any) error {
	return &canonical.ShapeError{Kind: kind, Index: index, Reason: fmt.Sprintf(format, args...)}
}

func (u *unwrapper) walk(v any, index int) {
	switch normalize.KindOf(v) {
	case normalize.KindArray:
		for _, item := range v.([]any) {
			u.walk(item, u.next())
		}
	case normalize.KindObject:
		obj := v.(map[string]any)
		if list, ok := normalize.Array(obj["responses"]); ok {
			for _, item := range list {
				u.walk(item, u.next())
			}
			return
		}
		for _, k := range u.listKeys {
			if list, ok := normalize.Array(obj[k]); ok {
				for _, item := range list {
					u.walk(item, u.next())
				}
				return
			}
		}
		if index < 0 {
			index = u.next()
		}
		u.envelope(obj, index)
	default:
		if index < 0 {
			index = u.next()
		}
		u.drop(index, "expected object or array, got %s", normalize.KindOf(v))
	}
}

func (u *unwrapper) next() int {
	i := u.index
	u.index++
	return i
}

// envelope accepts {individual_id, code, body} wrappers and plain records.
func (u *unwrapper) envelope(obj map[string]any, index int) {
	code, hasCode := normalize.Int(obj["code"])
	if hasCode && code != http.StatusOK {
		u.drop(index, "upstream status %d", code)
		return
	}
	if _, isWrapper := obj["body"]; isWrapper {
		body, ok := normalize.Object(obj["body"])
		if !ok {
			u.drop(index, "envelope without body")
			return
		}
		owner := normalize.LookupString(obj, "individual_id")
		if owner == "" {
			owner = normalize.LookupString(body, "individual_id")
		}
		u.frags = append(u.frags, Fragment{IndividualID: orID(owner, body), Owner: owner, Code: int(code), Body: body})
		return
	}
	owner := normalize.LookupString(obj, "individual_id")
	u.frags = append(u.frags, Fragment{IndividualID: orID(owner, obj), Owner: owner, Code: int(code), Body: obj})
}

func orID(owner string, body map[string]any) string {
	if owner != "" {
		return owner
	}
	return normalize.LookupString(body, "id")
}
