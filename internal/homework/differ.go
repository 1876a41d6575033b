package homework

import (
	"github.com/tidwall/gjson"
)

// Change is a detected status change that should be announced.
type Change struct {
	Item    WorkItem
	Message string
}

// Skip describes a record that could not be processed.
type Skip struct {
	Index int
	Err   error
}

// Unchanged describes a record whose verdict matches history.
type Unchanged struct {
	Item WorkItem
}

// Diff is the outcome of comparing one batch against history.
type Diff struct {
	Changes   []Change
	Unchanged []Unchanged
	Skipped   []Skip
}

// Parse turns a raw record into a WorkItem.
func Parse(rec gjson.Result) (WorkItem, error) {
	name := rec.Get(FieldName)
	if !rec.IsObject() || !name.Exists() || name.String() == "" {
		return WorkItem{}, &MissingFieldError{Field: FieldName, Keys: objectKeys(rec)}
	}
	id := name.String()

	st := rec.Get(FieldStatus)
	code := Status(st.String())
	if !st.Exists() || st.Type != gjson.String {
		return WorkItem{}, &UnknownStatusError{Name: id, Code: st.Raw}
	}
	verdict, ok := Verdict(code)
	if !ok {
		return WorkItem{}, &UnknownStatusError{Name: id, Code: string(code)}
	}
	return WorkItem{ID: id, Status: code, Verdict: verdict}, nil
}

// Compare walks records in order and reports changes relative to h.
//
// History is not modified: callers record a verdict once its message has been
// delivered. Repeated ids inside one batch are compared against the verdict
// already queued for that id, so a batch never announces the same change twice.
func Compare(records []gjson.Result, h *History) Diff {
	var d Diff
	pending := map[string]string{}
	for i, rec := range records {
		item, err := Parse(rec)
		if err != nil {
			d.Skipped = append(d.Skipped, Skip{Index: i, Err: err})
			continue
		}

		last, ok := pending[item.ID]
		if !ok && h != nil {
			last, ok = h.Last(item.ID)
		}
		if ok && last == item.Verdict {
			d.Unchanged = append(d.Unchanged, Unchanged{Item: item})
			continue
		}
		pending[item.ID] = item.Verdict
		d.Changes = append(d.Changes, Change{Item: item, Message: StatusChangedMessage(item.ID, item.Verdict)})
	}
	return d
}
