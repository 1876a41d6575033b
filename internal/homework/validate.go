package homework

import (
	"sort"

	"github.com/tidwall/gjson"
)

const (
	FieldHomeworks = "homeworks"
	FieldName      = "homework_name"
	FieldStatus    = "status"
)

// Records extracts the homeworks array from a decoded response.
//
// Individual records are returned unchanged; checking their contents is the
// differ's job.
func Records(payload gjson.Result) ([]gjson.Result, error) {
	hw := payload.Get(FieldHomeworks)
	if !payload.IsObject() || !hw.Exists() {
		return nil, &MissingFieldError{Field: FieldHomeworks, Keys: objectKeys(payload)}
	}
	if !hw.IsArray() {
		return nil, &ShapeMismatchError{Field: FieldHomeworks, Want: "array", Got: TypeName(hw)}
	}
	return hw.Array(), nil
}

// TypeName names the JSON type of r.
func TypeName(r gjson.Result) string {
	switch {
	case !r.Exists():
		return "missing"
	case r.IsArray():
		return "array"
	case r.IsObject():
		return "object"
	case r.IsBool():
		return "bool"
	}
	switch r.Type {
	case gjson.Null:
		return "null"
	case gjson.Number:
		return "number"
	case gjson.String:
		return "string"
	default:
		return r.Type.String()
	}
}

func objectKeys(r gjson.Result) []string {
	if !r.IsObject() {
		return nil
	}
	var keys []string
	r.ForEach(func(k, _ gjson.Result) bool {
		keys = append(keys, k.String())
		return true
	})
	sort.Strings(keys)
	return keys
}
