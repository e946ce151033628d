package courses

import (
	"time"

	"courseatlas-backend/lib/timezone"
)

// ReconcileOptions tune the freshness policy. The 2x staleness factor
// on group overwrites mirrors longstanding production behavior; it is a
// policy knob, not a correctness constraint.
type ReconcileOptions struct {
	// CacheRate is the window within which a stored record that
	// learned nothing new is considered fresh enough to skip
	// persisting.
	CacheRate time.Duration
	// StaleFactor multiplies CacheRate to decide when stored groups
	// are old enough to be replaced by any incoming groups.
	StaleFactor int
	Now         func() time.Time
}

func DefaultReconcileOptions() ReconcileOptions {
	return ReconcileOptions{
		CacheRate:   time.Minute * 15,
		StaleFactor: 2,
		Now:         timezone.Now,
	}
}

type ReconcileResult struct {
	ShouldPersist bool
	Merged        Course
}

// Reconcile decides whether an incoming course is worth persisting over
// what is stored, and computes the merged record when it is. Set fields
// only ever grow; group details are only replaced when the incoming
// scrape is fresh, the stored one is stale, or there is nothing stored
// to protect.
func Reconcile(incoming Course, stored *Course, opts ReconcileOptions) ReconcileResult {
	defaults := DefaultReconcileOptions()
	if opts.CacheRate == 0 {
		opts.CacheRate = defaults.CacheRate
	}
	if opts.StaleFactor == 0 {
		opts.StaleFactor = defaults.StaleFactor
	}
	if opts.Now == nil {
		opts.Now = defaults.Now
	}
	now := opts.Now()

	if stored == nil {
		merged := incoming
		merged.Groups = mergeGroups(merged.Groups)
		merged.refreshAggregates()
		merged.UpdatedAt = now
		return ReconcileResult{ShouldPersist: true, Merged: merged}
	}

	// nothing new within the cache window: skip the write entirely,
	// this is the cost-control path that shields the upstream
	nothingNew := isSubset(incoming.Programs, stored.Programs) &&
		isSubset(incoming.Typologies, stored.Typologies) &&
		isSubset(incoming.AlternativeNames, stored.AlternativeNames)
	if nothingNew && now.Sub(stored.UpdatedAt) <= opts.CacheRate {
		return ReconcileResult{ShouldPersist: false, Merged: *stored}
	}

	merged := *stored
	merged.Faculties = addToSet(merged.Faculties, incoming.Faculties...)
	merged.Programs = addToSet(merged.Programs, incoming.Programs...)
	merged.Typologies = addToSet(merged.Typologies, incoming.Typologies...)
	merged.AlternativeNames = addToSet(merged.AlternativeNames, incoming.AlternativeNames...)
	if incoming.Name != "" {
		merged.Name = incoming.Name
	}
	if incoming.Credits != 0 {
		merged.Credits = incoming.Credits
	}
	if incoming.Level != "" {
		merged.Level = incoming.Level
	}
	if incoming.Place != "" {
		merged.Place = incoming.Place
	}
	if incoming.ScrapedWith != nil {
		merged.ScrapedWith = incoming.ScrapedWith
	}

	if len(incoming.Groups) > 0 && shouldReplaceGroups(incoming, stored, now, opts) {
		merged.Groups = mergeGroups(incoming.Groups)
		merged.ScrapedAt = incoming.ScrapedAt
		merged.refreshAggregates()
	}

	merged.UpdatedAt = now
	return ReconcileResult{ShouldPersist: true, Merged: merged}
}

// shouldReplaceGroups protects detailed, expensive group scrapes from
// being clobbered by a cheap metadata-only fetch.
func shouldReplaceGroups(incoming Course, stored *Course, now time.Time, opts ReconcileOptions) bool {
	if len(stored.Groups) == 0 {
		return true
	}
	if !incoming.ScrapedAt.IsZero() && now.Sub(incoming.ScrapedAt) <= opts.CacheRate {
		return true
	}
	staleCutoff := opts.CacheRate * time.Duration(opts.StaleFactor)
	return stored.ScrapedAt.IsZero() || now.Sub(stored.ScrapedAt) > staleCutoff
}
