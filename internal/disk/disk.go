// Package disk evaluates monitored mount points against the volumes
// currently mounted on the host.
package disk

import "context"

// BytesPerMB is the decimal megabyte used for free-space limits.
const BytesPerMB = 1_000_000

// VolumeSnapshot is one mounted volume as reported by a Probe.
type VolumeSnapshot struct {
	DisplayName    string
	MountPoint     string
	TotalBytes     uint64
	AvailableBytes uint64
}

// AvailableMB returns the available space in decimal megabytes, rounded down.
func (v VolumeSnapshot) AvailableMB() uint64 {
	return v.AvailableBytes / BytesPerMB
}

// Probe lists the volumes currently mounted on the host.
type Probe interface {
	ListVolumes(ctx context.Context) ([]VolumeSnapshot, error)
}

// Monitored is a mount point the report is responsible for.
type Monitored struct {
	MountPoint       string `yaml:"mount_point"`
	FreeSpaceLimitMB uint64 `yaml:"free_space_limit_mb"`
}

// State classifies a monitored disk.
type State int

const (
	StateHealthy State = iota
	StateBelowThreshold
	StateNotFound
)

func (s State) String() string {
	switch s {
	case StateHealthy:
		return "healthy"
	case StateBelowThreshold:
		return "below_threshold"
	case StateNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Status is the evaluation result for one monitored disk. Volume is the
// zero value when State is StateNotFound.
type Status struct {
	State  State
	Volume VolumeSnapshot
}

// Entry pairs a status with the mount point it was configured under.
type Entry struct {
	Label  string
	Status Status
}

// Evaluate returns one entry per monitored disk, in configuration order.
// Mount points are compared verbatim.
func Evaluate(volumes []VolumeSnapshot, monitored []Monitored) []Entry {
	entries := make([]Entry, 0, len(monitored))
	for _, m := range monitored {
		entries = append(entries, Entry{
			Label:  m.MountPoint,
			Status: evaluateOne(volumes, m),
		})
	}
	return entries
}

func evaluateOne(volumes []VolumeSnapshot, m Monitored) Status {
	for _, v := range volumes {
		if v.MountPoint != m.MountPoint {
			continue
		}
		if v.AvailableMB() > m.FreeSpaceLimitMB {
			return Status{State: StateHealthy, Volume: v}
		}
		return Status{State: StateBelowThreshold, Volume: v}
	}
	return Status{State: StateNotFound}
}
