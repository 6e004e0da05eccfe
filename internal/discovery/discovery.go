// Package discovery locates the kernel hidraw node corresponding to an
// Intel Precise Touch & Stylus controller, so the daemon can be pointed at
// a live device without the operator having to know which /dev/hidrawN it
// landed on this boot.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jochenvg/go-udev"

	"github.com/iptsd/iptsd/internal/logging"
)

// ErrNoDevice is returned when no hidraw node matching a known IPTS
// vendor/product pair is present.
var ErrNoDevice = errors.New("discovery: no IPTS touch controller found")

// knownControllers is a small table of HID vendor/product ID pairs known
// to be IPTS touch controllers. Values are lower-case hex, matching the
// sysattr strings udev itself reports.
var knownControllers = []struct {
	vendor, product string
}{
	{"045e", "0c3e"}, // Microsoft Surface generation
	{"045e", "0c1e"},
	{"8087", "0a5c"}, // Intel reference controllers
	{"8087", "0a5d"},
}

// FindHeatmapDevice enumerates hidraw devices via udev, looking for one
// whose nearest USB ancestor reports a known IPTS vendor/product pair, and
// returns its /dev/hidrawN device node. Only the first match is returned;
// a system is not expected to expose more than one IPTS controller. log may
// be nil, in which case discovery proceeds silently.
func FindHeatmapDevice(ctx context.Context, log *logging.Logger) (string, error) {
	if log != nil {
		log = log.With("discovery")
	}

	var u udev.Udev

	var e = u.NewEnumerate()
	if err := e.AddMatchSubsystem("hidraw"); err != nil {
		return "", fmt.Errorf("discovery: enumerate hidraw: %w", err)
	}

	var devices, err = e.Devices()
	if err != nil {
		return "", fmt.Errorf("discovery: enumerate hidraw: %w", err)
	}

	for _, d := range devices {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		var node = d.Devnode()
		if node == "" {
			continue
		}

		var parent = d.ParentWithSubsystemDevtype("usb", "usb_device")
		if parent == nil {
			continue
		}

		var vendor = parent.SysattrValue("idVendor")
		var product = parent.SysattrValue("idProduct")

		if isKnownController(vendor, product) {
			if log != nil {
				log.Infof("selected %s (hidraw%d, vendor=%s product=%s)", node, hidrawIndex(node), vendor, product)
			}
			return node, nil
		}
	}

	return "", ErrNoDevice
}

func isKnownController(vendor, product string) bool {
	for _, c := range knownControllers {
		if c.vendor == vendor && c.product == product {
			return true
		}
	}
	return false
}

// hidrawIndex extracts the trailing integer from a hidraw device node path
// such as "/dev/hidraw3", for logging purposes. Returns -1 if node does
// not end in digits.
func hidrawIndex(node string) int {
	var i = len(node)
	for i > 0 && node[i-1] >= '0' && node[i-1] <= '9' {
		i--
	}

	if i == len(node) {
		return -1
	}

	var n, err = strconv.Atoi(node[i:])
	if err != nil {
		return -1
	}

	return n
}
