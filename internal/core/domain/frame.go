package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Field bus geometry. Fourteen devices, nine lamp positions each,
// addressed by a flat lamp id.
const (
	FirstDevice    byte = 'A'
	LastDevice     byte = 'N'
	DeviceCount         = 14
	LampsPerDevice      = 9
	MinLampID           = 1
	MaxLampID           = DeviceCount * LampsPerDevice // 126
	MaxRoute            = 9
	MaxMask             = 0x1FF
)

// Lamp control characters, indexed by position-1. 'b' switches
// position 1 on, 'a' switches it off, and so on for the odd/even pairs.
const (
	onChars  = "bdfhjlnpr"
	offChars = "acegikmoq"
)

// Domain Errors
var (
	ErrInvalidDevice = errors.New("device must be a letter between A and N")
	ErrInvalidLamp   = errors.New("lamp id must be between 1 and 126")
	ErrInvalidState  = errors.New("state must be \"on\" or \"off\"")
	ErrInvalidRoute  = errors.New("route must be between 0 and 9")
	ErrInvalidMask   = errors.New("mask must be three hex digits between 000 and 1FF")
	ErrInvalidFrame  = errors.New("frame does not match the bridge grammar")
)

// Frame is one validated command unit for the edge bridge, 2 to 5
// ASCII bytes. The bridge answers every well-formed frame with a
// single 'K' acknowledgement byte.
type Frame string

// AckByte is the single-byte acknowledgement emitted by the bridge.
const AckByte byte = 'K'

func (f Frame) Bytes() []byte { return []byte(f) }

// Device returns the target device letter of the frame.
func (f Frame) Device() byte {
	if len(f) == 0 {
		return 0
	}
	return f[0]
}

// ValidDevice reports whether d is an addressable device letter.
func ValidDevice(d byte) bool {
	return d >= FirstDevice && d <= LastDevice
}

// Devices returns the device letters in bus order, A through N.
func Devices() []byte {
	out := make([]byte, 0, DeviceCount)
	for d := FirstDevice; d <= LastDevice; d++ {
		out = append(out, d)
	}
	return out
}

// SplitLampID maps a flat lamp id onto its device letter and lamp
// position. Ids run row-major: 1-9 on device A, 10-18 on B, and so on
// up to 126 on N.
func SplitLampID(id int) (device byte, position int, err error) {
	if id < MinLampID || id > MaxLampID {
		return 0, 0, fmt.Errorf("%w: got %d", ErrInvalidLamp, id)
	}
	return FirstDevice + byte((id-1)/LampsPerDevice), (id-1)%LampsPerDevice + 1, nil
}

// DeviceForLamp returns the device letter owning the given lamp id.
func DeviceForLamp(id int) (byte, error) {
	d, _, err := SplitLampID(id)
	return d, err
}

// ParseState converts the wire representation of a lamp state.
func ParseState(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("%w: got %q", ErrInvalidState, s)
	}
}

// LampFrame builds the single-lamp command for the given flat lamp id.
// When flash is set on an ON command the frame carries the '#' suffix,
// which makes the device blink that lamp instead of holding it steady.
func LampFrame(id int, on, flash bool) (Frame, error) {
	device, position, err := SplitLampID(id)
	if err != nil {
		return "", err
	}
	var c byte
	if on {
		c = onChars[position-1]
	} else {
		c = offChars[position-1]
	}
	if flash && on {
		return Frame([]byte{device, c, '#'}), nil
	}
	return Frame([]byte{device, c}), nil
}

// AllFrame builds the whole-device command: '*' switches all nine
// lamps on, '!' switches them all off.
func AllFrame(device byte, on bool) (Frame, error) {
	if !ValidDevice(device) {
		return "", fmt.Errorf("%w: got %q", ErrInvalidDevice, string(device))
	}
	if on {
		return Frame([]byte{device, '*'}), nil
	}
	return Frame([]byte{device, '!'}), nil
}

// RouteFrame builds the stored-route recall command for a device.
func RouteFrame(device byte, route int) (Frame, error) {
	if !ValidDevice(device) {
		return "", fmt.Errorf("%w: got %q", ErrInvalidDevice, string(device))
	}
	if route < 0 || route > MaxRoute {
		return "", fmt.Errorf("%w: got %d", ErrInvalidRoute, route)
	}
	return Frame([]byte{device, 'R', byte('0' + route)}), nil
}

// MaskFrame builds the nine-bit bitmap command. The mask is three hex
// digits, bit 0 driving position 1, and is normalized to upper case.
func MaskFrame(device byte, mask string) (Frame, error) {
	if !ValidDevice(device) {
		return "", fmt.Errorf("%w: got %q", ErrInvalidDevice, string(device))
	}
	mask = strings.ToUpper(strings.TrimSpace(mask))
	if len(mask) != 3 {
		return "", fmt.Errorf("%w: got %q", ErrInvalidMask, mask)
	}
	v := 0
	for i := 0; i < 3; i++ {
		d := hexVal(mask[i])
		if d < 0 {
			return "", fmt.Errorf("%w: got %q", ErrInvalidMask, mask)
		}
		v = v<<4 | d
	}
	if v > MaxMask {
		return "", fmt.Errorf("%w: got %q", ErrInvalidMask, mask)
	}
	return Frame(string(device) + "M" + mask), nil
}

func hexVal(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10
	}
	return -1
}

// ValidFrame checks an arbitrary byte string against the full bridge
// grammar. The send path refuses anything that fails here, so a
// malformed request can never reach the wire.
func ValidFrame(f Frame) bool {
	if len(f) < 2 || !ValidDevice(f[0]) {
		return false
	}
	switch len(f) {
	case 2:
		return isLampChar(f[1]) || f[1] == '*' || f[1] == '!'
	case 3:
		if f[1] == 'R' {
			return f[2] >= '0' && f[2] <= '9'
		}
		return isLampChar(f[1]) && f[2] == '#'
	case 5:
		if f[1] != 'M' {
			return false
		}
		v := 0
		for i := 2; i < 5; i++ {
			d := hexVal(f[i])
			if d < 0 {
				return false
			}
			v = v<<4 | d
		}
		return v <= MaxMask
	}
	return false
}

func isLampChar(b byte) bool {
	return strings.IndexByte(onChars, b) >= 0 || strings.IndexByte(offChars, b) >= 0
}
