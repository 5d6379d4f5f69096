package domain

import "time"

// Kind partitions the archive URL namespace and the existence cache. One
// archive may publish several kinds of data under the same base URL.
type Kind string

// KindSnapshots is the kind every Bolidozor station publishes.
const KindSnapshots Kind = "snapshots"

// Snapshot is one timestamped file published by the archive. It is a plain
// value: the file itself is re-fetchable through URL by any collaborator.
type Snapshot struct {
	FileName string
	URL      string
	Time     time.Time
}

// TimeRange is a half-open interval [From, To).
type TimeRange struct {
	From time.Time
	To   time.Time
}

func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && t.Before(r.To)
}

func (r TimeRange) IsEmpty() bool {
	return !r.From.Before(r.To)
}

// Union returns the bounding range of r and o. Noter que pour deux intervalles
// disjoints le résultat couvre aussi le trou entre les deux.
func (r TimeRange) Union(o TimeRange) TimeRange {
	u := r
	if o.From.Before(u.From) {
		u.From = o.From
	}
	if o.To.After(u.To) {
		u.To = o.To
	}
	return u
}
