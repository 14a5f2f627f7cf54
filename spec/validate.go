package spec

import (
	"github.com/teranos/chronicle/bundle"
	"github.com/teranos/chronicle/errors"
	"github.com/teranos/chronicle/expand"
	"github.com/teranos/chronicle/temporal"
	"github.com/teranos/chronicle/timeline"
)

// Validate reports every configuration error detectable without a network
// call: duplicate ids, unknown templates, unbindable placeholders, literal
// dates that do not normalize and an expectation table without a universal
// entry. All problems are joined into one error.
func (d *Document) Validate() error {
	var errs []error

	if _, err := timeline.NewIDs(d.Items); err != nil {
		errs = append(errs, err)
	}
	if err := d.Expectations().Validate(); err != nil {
		errs = append(errs, err)
	}

	registry := d.Registry()
	bundler := bundle.NewBundler(registry, nil)
	expander := expand.New(expand.Config{Registry: registry})
	for _, it := range d.Items {
		errs = append(errs, literals(it)...)
		if it.Finished {
			continue
		}
		if it.ItemQuery != "" {
			if _, err := expander.Query(it); err != nil {
				errs = append(errs, err)
			}
		}
		for _, k := range bundle.Kinds {
			if _, err := bundler.Bind(it, k); err != nil {
				errs = append(errs, err)
			}
		}
		if it.ExpectedDuration != nil {
			if err := it.ExpectedDuration.Validate(); err != nil {
				errs = append(errs, errors.Wrapf(err, "item %s", it.Name()))
			}
		}
	}

	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return errors.Mark(errors.Join(errs...), errors.ErrConfiguration)
	}
}

// literals checks the dates written into the item itself. Finished items are
// drawn from these alone, so they are checked too.
func literals(it *timeline.Item) []error {
	var errs []error
	for _, f := range []struct {
		name string
		v    *temporal.Value
	}{
		{"start", it.Start},
		{"end", it.End},
		{"startMin", it.StartMin},
		{"startMax", it.StartMax},
		{"endMin", it.EndMin},
		{"endMax", it.EndMax},
	} {
		if f.v == nil {
			continue
		}
		if _, _, err := temporal.Normalize(*f.v); err != nil {
			errs = append(errs, errors.WrapConfiguration(err, f.name+" of item "+it.Name()))
		}
	}
	return errs
}
