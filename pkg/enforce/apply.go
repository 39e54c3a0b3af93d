package enforce

import (
	"fmt"
	"syscall"

	"github.com/genv-io/genv/internal/statefile"
	"github.com/genv-io/genv/pkg/devices"
	"github.com/genv-io/genv/pkg/entities"
	"github.com/sirupsen/logrus"
)

// Apply carries out a report's decisions: it detaches the scheduled
// (index, eid) pairs from the device registry under the global lock, then
// sends SIGTERM to every scheduled pid (spec §4.G "apply"). A pid that is
// already gone is not an error; a permission failure is logged and
// otherwise ignored, matching the tolerant posture of the enforcement loop.
func Apply(report *entities.Report) error {
	if len(report.Detach) > 0 {
		err := statefile.WithGlobalLock(func() error {
			return devices.With(true, false, func(d *entities.Devices) error {
				for index, eids := range report.Detach {
					for _, eid := range eids {
						idx := index
						d.Detach(eid, &idx)
					}
				}
				return nil
			})
		})
		if err != nil {
			return fmt.Errorf("enforce: applying detachments: %w", err)
		}
	}

	for pid := range report.Terminate {
		if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
			if err == syscall.ESRCH {
				continue
			}
			if err == syscall.EPERM {
				logrus.WithField("pid", pid).Warn("not permitted to terminate process")
				continue
			}
			logrus.WithField("pid", pid).WithError(err).Warn("failed to terminate process")
		}
	}

	return nil
}
