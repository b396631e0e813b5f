package inotify

import (
	"fmt"
	"strings"
)

// Event and watch flags. Values are the kernel ABI from <sys/inotify.h>.
const (
	Access       uint32 = 0x00000001
	Modify       uint32 = 0x00000002
	Attrib       uint32 = 0x00000004
	CloseWrite   uint32 = 0x00000008
	CloseNoWrite uint32 = 0x00000010
	Open         uint32 = 0x00000020
	MovedFrom    uint32 = 0x00000040
	MovedTo      uint32 = 0x00000080
	Create       uint32 = 0x00000100
	Delete       uint32 = 0x00000200
	DeleteSelf   uint32 = 0x00000400
	MoveSelf     uint32 = 0x00000800

	Close     = CloseWrite | CloseNoWrite
	Move      = MovedFrom | MovedTo
	AllEvents = Access | Modify | Attrib | CloseWrite | CloseNoWrite | Open |
		MovedFrom | MovedTo | Create | Delete | DeleteSelf | MoveSelf

	// Only ever set by the kernel on delivered events.
	Unmount   uint32 = 0x00002000
	QOverflow uint32 = 0x00004000
	Ignored   uint32 = 0x00008000
	IsDir     uint32 = 0x40000000

	// Only meaningful when adding a watch.
	OnlyDir    uint32 = 0x01000000
	DontFollow uint32 = 0x02000000
	ExclUnlink uint32 = 0x04000000
	MaskAdd    uint32 = 0x20000000
	OneShot    uint32 = 0x80000000
)

var flagNames = map[uint32]string{
	Access:       "ACCESS",
	Modify:       "MODIFY",
	Attrib:       "ATTRIB",
	CloseWrite:   "CLOSE_WRITE",
	CloseNoWrite: "CLOSE_NOWRITE",
	Open:         "OPEN",
	MovedFrom:    "MOVED_FROM",
	MovedTo:      "MOVED_TO",
	Create:       "CREATE",
	Delete:       "DELETE",
	DeleteSelf:   "DELETE_SELF",
	MoveSelf:     "MOVE_SELF",
	Unmount:      "UNMOUNT",
	QOverflow:    "Q_OVERFLOW",
	Ignored:      "IGNORED",
	IsDir:        "ISDIR",
	OnlyDir:      "ONLYDIR",
	DontFollow:   "DONT_FOLLOW",
	ExclUnlink:   "EXCL_UNLINK",
	MaskAdd:      "MASK_ADD",
	OneShot:      "ONESHOT",
}

var flagsByName = map[string]uint32{
	"CLOSE": Close,
	"MOVE":  Move,
	"ALL":   AllEvents,
}

func init() {
	for flag, name := range flagNames {
		flagsByName[name] = flag
	}
}

// FlagString renders a mask as flag names joined by "|", lowest bit first.
// Bits without a name are rendered in hex.
func FlagString(mask uint32) string {
	if mask == 0 {
		return "0"
	}
	bits := make([]uint32, 0, 4)
	for bit := uint32(1); bit != 0; bit <<= 1 {
		if mask&bit != 0 {
			bits = append(bits, bit)
		}
	}
	names := make([]string, 0, len(bits))
	for _, bit := range bits {
		if name, ok := flagNames[bit]; ok {
			names = append(names, name)
		} else {
			names = append(names, fmt.Sprintf("%#x", bit))
		}
	}
	return strings.Join(names, "|")
}

// ParseFlags turns flag names such as "create" or "CLOSE_WRITE" into a mask.
// The groups "close", "move" and "all" are accepted too.
func ParseFlags(names []string) (uint32, error) {
	var mask uint32
	for _, name := range names {
		key := strings.ToUpper(strings.TrimSpace(name))
		key = strings.TrimPrefix(key, "IN_")
		flag, ok := flagsByName[key]
		if !ok {
			return 0, fmt.Errorf("unknown inotify flag %q", name)
		}
		mask |= flag
	}
	return mask, nil
}

// Event is one change reported for a watched alias.
type Event struct {
	Flags  uint32
	Cookie uint32 // correlates MovedFrom/MovedTo pairs
	Name   string // entry name inside a watched directory, empty for the path itself
	Alias  string
}

func (e Event) HasFlag(f uint32) bool {
	return e.Flags&f == f
}

func (e Event) String() string {
	name := e.Alias
	if e.Name != "" {
		name = e.Alias + "/" + e.Name
	}
	if e.Cookie != 0 {
		return fmt.Sprintf("%20s | %s (cookie %d)", FlagString(e.Flags), name, e.Cookie)
	}
	return fmt.Sprintf("%20s | %s", FlagString(e.Flags), name)
}
