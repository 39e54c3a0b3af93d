package enforce

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/genv-io/genv/pkg/snapshot"
	"github.com/sirupsen/logrus"
)

// Rule inspects a survey and schedules terminations/detachments into it.
// NonEnvProcesses, EnvDevices, EnvMemory and a bound MaxDevicesPerUser all
// satisfy this shape.
type Rule func(surveys ...*Survey)

// Run takes one fresh snapshot, builds a survey over it, runs every rule,
// and applies the resulting report (spec §4.G, a single enforcement pass).
func Run(ctx context.Context, rules ...Rule) error {
	snap, err := snapshot.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("enforce: taking snapshot: %w", err)
	}

	hostname, _ := os.Hostname()
	survey := NewSurvey(snap, hostname)

	for _, rule := range rules {
		rule(survey)
	}

	report := survey.Report()
	if report.Empty() {
		return nil
	}

	logrus.WithField("terminate", len(report.Terminate)).
		WithField("detach", len(report.Detach)).
		Info("applying enforcement report")

	return Apply(report)
}

// Loop runs Run every interval until ctx is canceled. An interval of 0 runs
// a single pass and returns, matching the "interval-second loop (0 =
// one-shot)" contract (spec §4.G "Loop").
func Loop(ctx context.Context, interval time.Duration, rules ...Rule) error {
	if err := Run(ctx, rules...); err != nil {
		return err
	}
	if interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := Run(ctx, rules...); err != nil {
				logrus.WithError(err).Error("enforcement pass failed")
			}
		}
	}
}
