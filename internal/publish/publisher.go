package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ZebulonRouseFrantzich/setupship/internal/artifact"
)

// PushError records a failed variant push.
type PushError struct {
	Target  string
	Variant string
	Remote  string
	Err     error
}

func (e *PushError) Error() string {
	if e.Variant == "" {
		return fmt.Sprintf("%s: %v", e.Target, e.Err)
	}
	return fmt.Sprintf("push %s/%s to %s: %v", e.Target, e.Variant, e.Remote, e.Err)
}

func (e *PushError) Unwrap() error {
	return e.Err
}

// Result lists what a publish run did.
type Result struct {
	Pushed []Push `yaml:"pushed"`
	Failed []Push `yaml:"failed,omitempty"`
}

// Publisher pushes every variant of each target.
type Publisher struct {
	layout artifact.Layout
	org    string
	pusher Pusher
	dryRun bool
	logger *slog.Logger
}

// NewPublisher creates a Publisher. In dry-run mode pushes are logged and
// reported as pushed without calling pusher.
func NewPublisher(layout artifact.Layout, org string, pusher Pusher, dryRun bool, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Publisher{layout: layout, org: org, pusher: pusher, dryRun: dryRun, logger: logger}
}

// Plan lists the pushes for targets under decision without running them.
// Targets without artifacts produce a *PushError each.
func (p *Publisher) Plan(targets []string, decision Decision) ([]Push, error) {
	var pushes []Push
	var errs []error

	for _, target := range targets {
		variants, err := p.layout.Variants(target)
		if err != nil {
			errs = append(errs, &PushError{Target: target, Err: err})
			continue
		}
		for _, variant := range variants {
			pushes = append(pushes, Push{
				Target:      target,
				Variant:     variant,
				Dir:         p.layout.VariantDir(target, variant),
				Remote:      RemoteTarget(p.org, target, ChannelName(variant, decision.Suffix)),
				UserVersion: decision.UserVersion,
			})
		}
	}

	return pushes, errors.Join(errs...)
}

// Publish pushes every variant of targets. A failed push does not stop the
// remaining ones; all failures are returned joined.
func (p *Publisher) Publish(ctx context.Context, targets []string, decision Decision) (*Result, error) {
	result := &Result{}
	if !decision.Publish {
		p.logger.Info("skipping publish", "reason", decision.Reason)
		return result, nil
	}

	pushes, planErr := p.Plan(targets, decision)
	errs := []error{planErr}

	for _, push := range pushes {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		log := p.logger.With("dir", push.Dir, "remote", push.Remote, "userversion", push.UserVersion)
		if p.dryRun {
			log.Info("would push variant")
			result.Pushed = append(result.Pushed, push)
			continue
		}

		log.Info("pushing variant")
		if err := p.pusher.Push(ctx, push); err != nil {
			log.Error("push failed", "error", err)
			result.Failed = append(result.Failed, push)
			errs = append(errs, &PushError{
				Target:  push.Target,
				Variant: push.Variant,
				Remote:  push.Remote,
				Err:     err,
			})
			continue
		}
		result.Pushed = append(result.Pushed, push)
	}

	return result, errors.Join(errs...)
}
