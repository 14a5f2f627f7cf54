// Package resolve turns an item's normalized dates and bounds into the
// segments drawn on the timeline: a main range plus optional uncertainty
// connectors and an inferred tail.
package resolve

import (
	"time"

	"go.uber.org/zap"

	"github.com/teranos/chronicle/errors"
	"github.com/teranos/chronicle/internal/util"
	"github.com/teranos/chronicle/logger"
	"github.com/teranos/chronicle/temporal"
	"github.com/teranos/chronicle/timeline"
)

// Config wires a Resolver
type Config struct {
	Expectations timeline.Expectations
	// IDs reserves the ids of synthesized segments; nil derives them without checks
	IDs *timeline.IDs
	// Now is the clock for open-ended items; defaults to time.Now
	Now    func() time.Time
	Logger *zap.SugaredLogger
}

// Resolver shapes items into segments
type Resolver struct {
	expectations timeline.Expectations
	ids          *timeline.IDs
	now          func() time.Time
	logger       *zap.SugaredLogger
}

// Result is the outcome of resolving a set of items
type Result struct {
	Segments []timeline.Segment
	// Dropped lists the names of items left out for lack of usable dates
	Dropped []string
	// ByClass counts emitted segments per synthesized class; "main" counts main segments
	ByClass map[string]int
}

// ClassMain is the ByClass key for main segments
const ClassMain = "main"

// New creates a Resolver
func New(cfg Config) *Resolver {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Resolver{
		expectations: cfg.Expectations,
		ids:          cfg.IDs,
		now:          now,
		logger:       logger.AddAtSymbol(log),
	}
}

// Resolve shapes every item. Items without dates are dropped with a warning.
// A date that does not normalize or a broken expectation table is an error.
func (r *Resolver) Resolve(items []*timeline.Item) (Result, error) {
	res := Result{ByClass: make(map[string]int)}
	now := r.now().UTC()

	for _, it := range items {
		segs, err := r.Item(it, now)
		if errors.Is(err, errors.ErrDataGap) {
			res.Dropped = append(res.Dropped, it.Name())
			r.logger.Warnw("Dropping item", logger.FieldItemID, it.Name(), logger.FieldError, err)
			continue
		}
		if err != nil {
			return res, err
		}
		for i, s := range segs {
			if i == 0 {
				res.ByClass[ClassMain]++
				continue
			}
			for _, c := range []string{timeline.ClassUncertain, timeline.ClassUncertainStart, timeline.ClassUncertainEnd, timeline.ClassTail} {
				if s.HasClass(c) {
					res.ByClass[c]++
				}
			}
		}
		r.logger.Debugw("Item resolved", logger.FieldItemID, it.Name(), logger.FieldSegments, len(segs))
		res.Segments = append(res.Segments, segs...)
	}
	return res, nil
}

// bounds are an item's normalized instants; nil is absent
type bounds struct {
	start, end, startMin, startMax, endMin, endMax *time.Time
}

func normalize(it *timeline.Item) (bounds, error) {
	var b bounds
	fields := []struct {
		name string
		in   *temporal.Value
		out  **time.Time
	}{
		{"start", it.Start, &b.start},
		{"end", it.End, &b.end},
		{"startMin", it.StartMin, &b.startMin},
		{"startMax", it.StartMax, &b.startMax},
		{"endMin", it.EndMin, &b.endMin},
		{"endMax", it.EndMax, &b.endMax},
	}
	for _, f := range fields {
		if f.in == nil {
			continue
		}
		t, ok, err := temporal.Normalize(*f.in)
		if err != nil {
			return bounds{}, errors.Wrapf(err, "%s of item %s", f.name, it.Name())
		}
		if ok {
			*f.out = &t
		}
	}
	return b, nil
}

// Item resolves one item. The first segment is the main one. An item with no
// date at all returns an error marked errors.ErrDataGap; a date that does not
// normalize is returned unmarked.
func (r *Resolver) Item(it *timeline.Item, now time.Time) ([]timeline.Segment, error) {
	b, err := normalize(it)
	if err != nil {
		return nil, err
	}

	// Bounds default to the point value
	sMin := util.First(b.startMin, b.start)
	sMax := util.First(b.startMax, b.start)
	eMin := util.First(b.endMin, b.end)
	eMax := util.First(b.endMax, b.end)

	if sMin == nil && sMax == nil && eMin == nil && eMax == nil {
		return nil, errors.NewDataGap(it.Name())
	}

	if sMax != nil && eMin != nil && !sMax.Before(*eMin) {
		lo, hi := *util.First(sMin, sMax), *util.First(eMax, eMin)
		main := r.segment(it, temporal.Earlier(lo, hi), util.Ptr(temporal.Later(lo, hi)))
		main.AddClass(timeline.ClassUncertain)
		return []timeline.Segment{main}, nil
	}

	if !it.Type.IsRange() {
		return r.nonRange(it, b, sMin, sMax, eMin, eMax), nil
	}

	d, err := r.expectations.For(it)
	if err != nil {
		return nil, err
	}
	avg := d.Avg

	var extra []timeline.Segment
	var tags []string

	// End side
	var end time.Time
	switch {
	case eMax != nil && (eMin == nil || eMin.Before(*eMax)):
		var lower time.Time
		if l := util.First(eMin, sMax, sMin); l != nil {
			lower = *l
		} else {
			lower = temporal.Add(*eMax, -avg)
		}
		if sMax != nil {
			lower = temporal.Later(lower, *sMax)
		}
		lower = temporal.Earlier(lower, *eMax)
		extra = append(extra, r.sub(it, "uncertain-end", lower, *eMax, timeline.ClassUncertainEnd))
		end = lower
		tags = append(tags, timeline.TagConnectsRight)

	case eMin == nil && eMax == nil:
		base := *util.First(b.start, sMax, sMin)
		useMax := avg.Scale(2)
		if d.Max != nil {
			useMax = *d.Max
		}
		if temporal.Add(base, useMax).Before(now) {
			end = temporal.Add(base, avg)
		} else {
			end = temporal.Later(now, base)
		}
		excess := max(avg-temporal.Between(base, end), avg.Scale(0.25))
		r.logger.Debugw("Inferred end", logger.FieldItemID, it.Name(), logger.FieldAvgYears, avg.Years())
		extra = append(extra, r.sub(it, "tail", end, temporal.Add(end, excess), timeline.ClassTail))
		tags = append(tags, timeline.TagConnectsRight, timeline.TagHasTail)

	default:
		end = *eMin
	}

	// Start side
	var start time.Time
	switch {
	case sMin != nil && (sMax == nil || sMin.Before(*sMax)):
		upper := end
		if u := util.First(sMax, eMin); u != nil {
			upper = temporal.Earlier(*u, end)
		}
		upper = temporal.Later(upper, *sMin)
		extra = append(extra, r.sub(it, "uncertain-start", *sMin, upper, timeline.ClassUncertainStart))
		start = upper
		tags = append(tags, timeline.TagConnectsLeft)

	case sMin == nil && sMax == nil:
		start = temporal.Add(end, -avg)
		tags = append(tags, timeline.TagOpenLeft)

	default:
		start = *sMax
	}

	end = temporal.Later(start, end)
	main := r.segment(it, start, &end)
	main.AddClass(tags...)
	return append([]timeline.Segment{main}, extra...), nil
}

// nonRange places point, box and background items without inference
func (r *Resolver) nonRange(it *timeline.Item, b bounds, sMin, sMax, eMin, eMax *time.Time) []timeline.Segment {
	start := *util.First(b.start, sMin, sMax, b.end, eMin, eMax)
	if it.Type != timeline.TypeBackground {
		return []timeline.Segment{r.segment(it, start, nil)}
	}
	var end *time.Time
	if e := util.First(b.end, eMax, eMin); e != nil {
		end = util.Ptr(temporal.Later(start, *e))
	}
	return []timeline.Segment{r.segment(it, start, end)}
}

// segment builds the main segment with the item's display fields
func (r *Resolver) segment(it *timeline.Item, start time.Time, end *time.Time) timeline.Segment {
	s := timeline.Segment{
		ID:        it.ID,
		Content:   it.Label,
		Start:     start,
		End:       end,
		Group:     it.Group,
		Subgroup:  it.Subgroup,
		ClassName: it.ClassName,
		Type:      it.Type,
		Title:     it.Title,
		Comment:   it.Comment,
	}
	if len(s.Group) > 0 && len(s.Subgroup) == 0 {
		s.Subgroup = timeline.NewGroupID(it.Entity)
	}
	return s
}

// sub builds a synthesized neighbour of the main segment
func (r *Resolver) sub(it *timeline.Item, suffix string, start, end time.Time, class string) timeline.Segment {
	s := r.segment(it, start, util.Ptr(end))
	s.ID = it.ID + "-" + suffix
	if r.ids != nil {
		s.ID = r.ids.Claim(s.ID)
	}
	s.Content = ""
	s.Type = timeline.TypeRange
	s.Comment = ""
	s.AddClass(class)
	return s
}
