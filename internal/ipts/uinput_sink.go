//go:build linux

package ipts

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// The uinput ioctl numbers and struct layouts below are not exposed by
// golang.org/x/sys/unix (unlike the TIOCM* constants ptt.go ioctls
// against); they are Linux's stable /dev/uinput ABI from
// linux/uinput.h, reproduced here so UinputSink needs nothing beyond
// the x/sys/unix syscall wrappers already in this module's dependency
// set.
const (
	uiSetEvBit   = 0x40045564
	uiSetKeyBit  = 0x40045565
	uiSetAbsBit  = 0x40045567
	uiDevCreate  = 0x5501
	uiDevDestroy = 0x5502

	evSyn = 0x00
	evKey = 0x01
	evAbs = 0x03

	synReport = 0

	btnTouch        = 0x14a
	absMtSlot       = 0x2f
	absMtPositionX  = 0x35
	absMtPositionY  = 0x36
	absMtTouchMajor = 0x30
	absMtTrackingID = 0x39
	absX            = 0x00
	absY            = 0x01
)

// uinputAbsSetup mirrors struct uinput_abs_setup from linux/uinput.h: a u16
// code, 2 bytes padding, then the 6-int32 struct input_absinfo (value,
// minimum, maximum, fuzz, flat, resolution) - 28 bytes total, matching
// uiAbsSetupIoctl's encoded size (0x1c = 28).
type uinputAbsSetup struct {
	Code  uint16
	_     [2]byte
	Value int32
	Min   int32
	Max   int32
	Fuzz  int32
	Flat  int32
	Res   int32
}

// uinputSetup mirrors struct uinput_setup.
type uinputSetup struct {
	ID           inputID
	Name         [80]byte
	FFEffectsMax uint32
}

type inputID struct {
	BusType uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

// inputEvent mirrors struct input_event with a 64-bit timeval, matching
// the kernel's in-tree layout on every architecture this module targets.
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

const uiDevSetupIoctl = 0x405c5503
const uiAbsSetupIoctl = 0x401c5504

// UinputSink drives a virtual multi-touch device through the kernel
// uinput subsystem, the Linux-native equivalent of the touch device a
// real IPTS-capable laptop's firmware already exposes: once created, X11,
// Wayland compositors and libinput all see it as an ordinary touchscreen,
// with no IPTS-specific client code anywhere downstream.
type UinputSink struct {
	f *os.File
}

// OpenUinputSink creates and configures a virtual multi-touch device
// named "iptsd virtual touchscreen". It requires write access to
// /dev/uinput, which on most distributions means either running as root
// or being a member of the "input" group.
func OpenUinputSink() (*UinputSink, error) {
	var f, err = os.OpenFile("/dev/uinput", os.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open /dev/uinput: %w", ErrSinkSetup, err)
	}

	var s = &UinputSink{f: f}
	if err := s.configure(); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %w", ErrSinkSetup, err)
	}

	return s, nil
}

func (s *UinputSink) configure() error {
	var fd = s.f.Fd()

	if err := ioctlInt(fd, uiSetEvBit, evKey); err != nil {
		return err
	}
	if err := ioctlInt(fd, uiSetKeyBit, btnTouch); err != nil {
		return err
	}
	if err := ioctlInt(fd, uiSetEvBit, evAbs); err != nil {
		return err
	}

	for _, code := range []int{absMtSlot, absMtPositionX, absMtPositionY, absMtTouchMajor, absMtTrackingID, absX, absY} {
		if err := ioctlInt(fd, uiSetAbsBit, code); err != nil {
			return err
		}
	}

	var setup uinputSetup
	setup.ID = inputID{BusType: 0x03, Vendor: 0x0451, Product: 0x1234, Version: 1}
	copy(setup.Name[:], "iptsd virtual touchscreen")

	if err := ioctlPtr(fd, uiDevSetupIoctl, unsafe.Pointer(&setup)); err != nil {
		return err
	}

	var maxX, maxY = float64(W) * Scale, float64(H) * Scale
	for _, abs := range []struct {
		code     uint16
		min, max int32
	}{
		{absMtSlot, 0, MatchSlots - 1},
		{absMtPositionX, 0, int32(maxX)},
		{absMtPositionY, 0, int32(maxY)},
		{absMtTouchMajor, 0, int32(maxX)},
		{absMtTrackingID, -1, 65535},
		{absX, 0, int32(maxX)},
		{absY, 0, int32(maxY)},
	} {
		var a = uinputAbsSetup{Code: abs.code, Min: abs.min, Max: abs.max}
		if err := ioctlPtr(fd, uiAbsSetupIoctl, unsafe.Pointer(&a)); err != nil {
			return err
		}
	}

	return ioctlInt(fd, uiDevCreate, 0)
}

func (s *UinputSink) write(typ, code uint16, value int32) error {
	var ev = inputEvent{Type: typ, Code: code, Value: value}
	var buf = (*[unsafe.Sizeof(ev)]byte)(unsafe.Pointer(&ev))[:]
	var _, err = s.f.Write(buf)
	return err
}

func (s *UinputSink) SlotPosition(slot int, x, y, touchMajor float64) error {
	if err := s.write(evAbs, absMtSlot, int32(slot)); err != nil {
		return err
	}
	if err := s.write(evAbs, absMtPositionX, int32(x)); err != nil {
		return err
	}
	if err := s.write(evAbs, absMtPositionY, int32(y)); err != nil {
		return err
	}
	return s.write(evAbs, absMtTouchMajor, int32(touchMajor))
}

func (s *UinputSink) SlotTrackingID(slot int, trackingID int) error {
	if err := s.write(evAbs, absMtSlot, int32(slot)); err != nil {
		return err
	}
	return s.write(evAbs, absMtTrackingID, int32(trackingID))
}

func (s *UinputSink) SingleTouch(x, y float64, down bool) error {
	var v int32
	if down {
		v = 1
	}
	if err := s.write(evKey, btnTouch, v); err != nil {
		return err
	}
	if err := s.write(evAbs, absX, int32(x)); err != nil {
		return err
	}
	return s.write(evAbs, absY, int32(y))
}

func (s *UinputSink) TouchUp() error {
	return s.write(evKey, btnTouch, 0)
}

func (s *UinputSink) SyncFrame() error {
	return s.write(evSyn, synReport, 0)
}

// Close destroys the virtual device and releases the uinput file
// descriptor.
func (s *UinputSink) Close() error {
	ioctlInt(s.f.Fd(), uiDevDestroy, 0)
	return s.f.Close()
}

func ioctlInt(fd uintptr, req uintptr, arg int) error {
	var _, _, errno = unix.Syscall(unix.SYS_IOCTL, fd, req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func ioctlPtr(fd uintptr, req uintptr, arg unsafe.Pointer) error {
	var _, _, errno = unix.Syscall(unix.SYS_IOCTL, fd, req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}
