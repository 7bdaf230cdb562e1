package batch

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// decodeCUE evaluates a CUE batch. The file may use any CUE feature
// (definitions, defaults, comprehensions) as long as "events" evaluates to
// a concrete list.
func decodeCUE(data []byte) ([]Record, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename("batch.cue"))
	if err := v.Err(); err != nil {
		return nil, &LoadError{Index: -1, Message: fmt.Sprintf("compile cue: %v", err)}
	}

	eventsVal := v.LookupPath(cue.ParsePath("events"))
	if !eventsVal.Exists() {
		return nil, nil
	}
	iter, err := eventsVal.List()
	if err != nil {
		return nil, &LoadError{Index: -1, Field: "events", Message: err.Error()}
	}

	var records []Record
	for i := 0; iter.Next(); i++ {
		r, err := parseCUERecord(iter.Value())
		if err != nil {
			err.Index = i
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

func parseCUERecord(v cue.Value) (Record, *LoadError) {
	var (
		r   Record
		err *LoadError
	)
	text := []struct {
		field string
		dst   *string
	}{
		{"title", &r.Title},
		{"description", &r.Description},
		{"start_time", &r.Start},
		{"end_time", &r.End},
		{"duration", &r.Duration},
	}
	for _, s := range text {
		if *s.dst, err = cueString(v, s.field); err != nil {
			return Record{}, err
		}
	}

	if r.Location, err = cueOptionalString(v, "location"); err != nil {
		return Record{}, err
	}
	if r.RecurrencePattern, err = cueOptionalString(v, "recurrence_pattern"); err != nil {
		return Record{}, err
	}

	if b := v.LookupPath(cue.ParsePath("is_recurring")); b.Exists() {
		b, _ = b.Default()
		val, cerr := b.Bool()
		if cerr != nil {
			return Record{}, &LoadError{Field: "is_recurring", Message: cerr.Error()}
		}
		r.IsRecurring = val
	}
	return r, nil
}

func cueString(v cue.Value, field string) (string, *LoadError) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	fv, _ = fv.Default()
	s, err := fv.String()
	if err != nil {
		return "", &LoadError{Field: field, Message: err.Error()}
	}
	return s, nil
}

func cueOptionalString(v cue.Value, field string) (*string, *LoadError) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	s, err := cueString(v, field)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
