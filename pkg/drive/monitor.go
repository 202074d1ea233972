// Package drive detects removable drives being attached, detached, mounted
// and unmounted by polling lsblk.
package drive

import (
	"context"
	"encoding/json"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	goSync "sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/sidkik/casync-sync/pkg/errors"
)

// lsblkArgs request a flat JSON listing of the block devices, with sizes in
// bytes.
var lsblkArgs = []string{"-l", "-J", "-b", "-o",
	"NAME,PKNAME,TYPE,FSTYPE,MOUNTPOINT,FSSIZE,FSUSED,FSAVAIL,FSUSE%"}

// Mocked out for unit testing.
var listBlockDevices = func(ctx context.Context) ([]byte, error) {
	return exec.CommandContext(ctx, "lsblk", lsblkArgs...).Output()
}

// EventType is the kind of change that happened to a drive.
type EventType string

const (
	// Attach is sent when a partition appears.
	Attach EventType = "attach"
	// Detach is sent when a partition disappears.
	Detach EventType = "detach"
	// Mount is sent when a partition is mounted, or its mountpoint changes.
	Mount EventType = "mount"
	// Unmount is sent when a partition is unmounted.
	Unmount EventType = "unmount"
	// Update is sent when the usage of a partition's filesystem changes.
	Update EventType = "update"
)

// Drive is a partition on a removable disk.
type Drive struct {
	Filesystem string
	Disk       string
	Mountpoint string
	Type       string
	Size       int64
	Used       int64
	Available  int64
	UsePercent string
}

// Mounted returns whether the drive is mounted.
func (d Drive) Mounted() bool {
	return d.Mountpoint != ""
}

// Event describes a change to a drive. Drive is the state of the drive after
// the change, except for Detach events, which carry the last known state.
type Event struct {
	Type  EventType
	Drive Drive
}

// Monitor polls the block devices on the machine and reports changes to
// removable drives.
type Monitor struct {
	interval time.Duration
	clock    clockwork.Clock
	log      logrus.FieldLogger
	events   chan Event

	drives map[string]Drive
	lock   goSync.Mutex
}

// NewMonitor creates a Monitor that scans every `interval`.
func NewMonitor(log logrus.FieldLogger, clock clockwork.Clock, interval time.Duration) *Monitor {
	return &Monitor{
		interval: interval,
		clock:    clock,
		log:      log,
		events:   make(chan Event),
		drives:   map[string]Drive{},
	}
}

// Events returns the channel that events are sent on. It's closed when Run
// returns.
func (m *Monitor) Events() <-chan Event {
	return m.events
}

// Drives returns the drives that were found by the latest scan.
func (m *Monitor) Drives() []Drive {
	m.lock.Lock()
	defer m.lock.Unlock()

	var drives []Drive
	for _, drive := range m.drives {
		drives = append(drives, drive)
	}
	sort.Slice(drives, func(i, j int) bool {
		return drives[i].Filesystem < drives[j].Filesystem
	})
	return drives
}

// Run scans for drives until `ctx` is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	defer close(m.events)

	for {
		for _, event := range m.scan(ctx) {
			select {
			case m.events <- event:
			case <-ctx.Done():
				return
			}
		}

		select {
		case <-m.clock.After(m.interval):
		case <-ctx.Done():
			return
		}
	}
}

// scan updates the known drives, and returns the resulting events. The
// events are only returned once all drives have been updated, so that
// Drives is consistent with the events.
func (m *Monitor) scan(ctx context.Context) []Event {
	output, err := listBlockDevices(ctx)
	if err != nil {
		m.log.WithError(err).Warn("Failed to list block devices")
		return nil
	}

	current, err := parseDrives(output)
	if err != nil {
		m.log.WithError(err).Warn("Failed to scan drives")
		current = map[string]Drive{}
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	var events []Event
	for _, name := range sortedNames(m.drives) {
		drive := m.drives[name]
		update, ok := current[name]
		if !ok {
			if drive.Mounted() {
				events = append(events, Event{Unmount, drive})
			}
			events = append(events, Event{Detach, drive})
			delete(m.drives, name)
			continue
		}

		switch {
		case !drive.Mounted() && update.Mounted():
			drive.Mountpoint = update.Mountpoint
			drive.Type = update.Type
			drive.Size = update.Size
			events = append(events, Event{Mount, drive})
		case drive.Mounted() && !update.Mounted():
			drive.Mountpoint = ""
			events = append(events, Event{Unmount, drive})
		case drive.Mountpoint != update.Mountpoint:
			drive.Mountpoint = update.Mountpoint
			events = append(events, Event{Mount, drive})
		}

		if drive.Used != update.Used || drive.Available != update.Available ||
			drive.UsePercent != update.UsePercent {
			drive.Used = update.Used
			drive.Available = update.Available
			drive.UsePercent = update.UsePercent
			events = append(events, Event{Update, drive})
		}
		m.drives[name] = drive
	}

	for _, name := range sortedNames(current) {
		if _, ok := m.drives[name]; ok {
			continue
		}

		drive := current[name]
		events = append(events, Event{Attach, drive})
		if drive.Mounted() {
			events = append(events, Event{Mount, drive})
		}
		m.drives[name] = drive
	}
	return events
}

func sortedNames(drives map[string]Drive) []string {
	var names []string
	for name := range drives {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type lsblkOutput struct {
	BlockDevices []blockDevice `json:"blockdevices"`
}

type blockDevice struct {
	Name       string    `json:"name"`
	PKName     *string   `json:"pkname"`
	Type       string    `json:"type"`
	FSType     *string   `json:"fstype"`
	Mountpoint *string   `json:"mountpoint"`
	FSSize     byteCount `json:"fssize"`
	FSUsed     byteCount `json:"fsused"`
	FSAvail    byteCount `json:"fsavail"`
	FSUse      *string   `json:"fsuse%"`
}

// parseDrives returns the partitions of sd* disks in the output of lsblk.
func parseDrives(output []byte) (map[string]Drive, error) {
	var parsed lsblkOutput
	if err := json.Unmarshal(output, &parsed); err != nil {
		return nil, errors.WithContext(err, "parse lsblk output")
	}

	drives := map[string]Drive{}
	for _, device := range parsed.BlockDevices {
		if device.Type != "part" || device.PKName == nil || !strings.HasPrefix(*device.PKName, "sd") {
			continue
		}

		drives[device.Name] = Drive{
			Filesystem: device.Name,
			Disk:       *device.PKName,
			Mountpoint: deref(device.Mountpoint),
			Type:       deref(device.FSType),
			Size:       int64(device.FSSize),
			Used:       int64(device.FSUsed),
			Available:  int64(device.FSAvail),
			UsePercent: deref(device.FSUse),
		}
	}
	return drives, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// byteCount is a size reported by lsblk. Depending on the version of lsblk,
// sizes are either numbers or strings.
type byteCount int64

func (c *byteCount) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch value := raw.(type) {
	case nil:
		*c = 0
	case float64:
		*c = byteCount(value)
	case string:
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return errors.WithContext(err, "parse size")
		}
		*c = byteCount(parsed)
	default:
		return errors.New("unexpected size %v", raw)
	}
	return nil
}
