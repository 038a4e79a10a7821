package events

import (
	"context"

	"weekcal/internal/model"
)

// Static is a Loader returning a fixed dataset.
type Static model.Dataset

// Load returns the dataset itself.
func (s Static) Load(context.Context, Window) model.Dataset {
	if s == nil {
		return model.Dataset{}
	}
	return model.Dataset(s)
}

// Multi merges the datasets of several loaders, in order. Loaders run one
// after another.
type Multi []Loader

// Load implements Loader.
func (m Multi) Load(ctx context.Context, w Window) model.Dataset {
	out := model.Dataset{}
	for _, l := range m {
		if l == nil {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		out = out.Merge(l.Load(ctx, w))
	}
	return out
}
