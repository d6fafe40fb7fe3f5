package disk

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/disk"
	"go.uber.org/zap"
)

// SystemProbe reads mounted partitions through gopsutil.
type SystemProbe struct {
	log *zap.Logger
	// All includes pseudo and virtual filesystems.
	All bool
}

// NewSystemProbe creates a probe for the local host.
func NewSystemProbe(log *zap.Logger) *SystemProbe {
	return &SystemProbe{log: log}
}

// ListVolumes returns every mounted partition with its capacity figures.
// Partitions whose usage cannot be read are logged and skipped; only a
// failure to enumerate partitions is returned as an error.
func (p *SystemProbe) ListVolumes(ctx context.Context) ([]VolumeSnapshot, error) {
	partitions, err := disk.PartitionsWithContext(ctx, p.All)
	if err != nil {
		return nil, fmt.Errorf("failed to list partitions: %w", err)
	}

	volumes := make([]VolumeSnapshot, 0, len(partitions))
	for _, partition := range partitions {
		usage, err := disk.UsageWithContext(ctx, partition.Mountpoint)
		if err != nil {
			p.log.Warn("could not read partition usage",
				zap.String("mount_point", partition.Mountpoint),
				zap.Error(err))
			continue
		}
		volumes = append(volumes, VolumeSnapshot{
			DisplayName:    partition.Device,
			MountPoint:     partition.Mountpoint,
			TotalBytes:     usage.Total,
			AvailableBytes: usage.Free,
		})
	}

	p.log.Debug("listed volumes", zap.Int("count", len(volumes)))
	return volumes, nil
}

// StaticProbe returns a fixed list of volumes.
type StaticProbe []VolumeSnapshot

// ListVolumes returns the static volume list.
func (s StaticProbe) ListVolumes(context.Context) ([]VolumeSnapshot, error) {
	return s, nil
}
