package usecase

import (
	"context"
	"fmt"
	"time"

	crerr "github.com/cockroachdb/errors"
)

// RefreshFlags tell consumers which derived views went stale.
type RefreshFlags struct {
	Matches     bool `json:"matches"`
	Predictions bool `json:"predictions"`
	Rankings    bool `json:"rankings"`
	Trophies    bool `json:"trophies"`
	AdminLists  bool `json:"admin_lists"`
}

func (f RefreshFlags) Any() bool {
	return f.Matches || f.Predictions || f.Rankings || f.Trophies || f.AdminLists
}

const RefreshEventType = "refresh"

// RefreshEvent is the wire form of a refresh signal sent to websocket clients
// and the message bus.
type RefreshEvent struct {
	Type  string       `json:"type"`
	Flags RefreshFlags `json:"flags"`
	At    time.Time    `json:"at"`
}

func NewRefreshEvent(flags RefreshFlags, at time.Time) RefreshEvent {
	return RefreshEvent{Type: RefreshEventType, Flags: flags, At: at.UTC()}
}

type RefreshPublisher interface {
	PublishRefresh(ctx context.Context, flags RefreshFlags) error
}

// RefreshFanout delivers flags to every publisher and joins their errors.
type RefreshFanout struct {
	publishers []RefreshPublisher
}

func NewRefreshFanout(publishers ...RefreshPublisher) *RefreshFanout {
	out := &RefreshFanout{}
	for _, publisher := range publishers {
		if publisher != nil {
			out.publishers = append(out.publishers, publisher)
		}
	}
	return out
}

func (f *RefreshFanout) Add(publisher RefreshPublisher) {
	if publisher != nil {
		f.publishers = append(f.publishers, publisher)
	}
}

func (f *RefreshFanout) PublishRefresh(ctx context.Context, flags RefreshFlags) error {
	var errs error
	for i, publisher := range f.publishers {
		if err := publisher.PublishRefresh(ctx, flags); err != nil {
			errs = crerr.CombineErrors(errs, fmt.Errorf("refresh publisher %d: %w", i, err))
		}
	}
	return errs
}

type noopRefreshPublisher struct{}

func (noopRefreshPublisher) PublishRefresh(context.Context, RefreshFlags) error {
	return nil
}
