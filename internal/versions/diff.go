package versions

import (
	"github.com/roach88/collabevents/internal/domain"
)

// Diff compares two versions field by field. The result maps each changed
// versioned field to {from: a, to: b}; unchanged fields are omitted.
// Swapping the arguments swaps from and to.
func Diff(a, b domain.EventVersion) domain.FieldDiff {
	if a.ContentHash != "" && a.ContentHash == b.ContentHash {
		return domain.FieldDiff{}
	}
	return DiffSnapshots(a.Snapshot, b.Snapshot)
}

// DiffSnapshots compares two snapshots field by field.
func DiffSnapshots(a, b domain.Snapshot) domain.FieldDiff {
	d := domain.FieldDiff{}
	if a.Title != b.Title {
		d[domain.FieldTitle] = domain.FieldChange{From: a.Title, To: b.Title}
	}
	if a.Description != b.Description {
		d[domain.FieldDescription] = domain.FieldChange{From: a.Description, To: b.Description}
	}
	if !a.Start.Equal(b.Start) {
		d[domain.FieldStartTime] = domain.FieldChange{From: a.Start.UTC(), To: b.Start.UTC()}
	}
	if !a.End.Equal(b.End) {
		d[domain.FieldEndTime] = domain.FieldChange{From: a.End.UTC(), To: b.End.UTC()}
	}
	if !equalStringPtr(a.Location, b.Location) {
		d[domain.FieldLocation] = domain.FieldChange{From: derefOrNil(a.Location), To: derefOrNil(b.Location)}
	}
	return d
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func derefOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
