// Package notice is the catalog of user-facing conditions and the service
// that logs them and forwards them to listeners.
package notice

import "fmt"

// Level is the severity a notice is logged and displayed at.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Kind names a known condition.
type Kind string

const (
	MapInit          Kind = "MAP_INIT_ERROR"
	Geolocation      Kind = "GEOLOCATION_ERROR"
	FilterFailed     Kind = "FILTER_ERROR"
	Network          Kind = "NETWORK_ERROR"
	ImageLoad        Kind = "IMAGE_LOAD_ERROR"
	LocationRequired Kind = "LOCATION_REQUIRED"
)

// UnknownCode is used for conditions outside the catalog.
const UnknownCode = "UNK_001"

// Notice is a condition as reported to the visitor.
type Notice struct {
	Kind        Kind   `json:"kind,omitempty"`
	Code        string `json:"code"`
	Message     string `json:"message"`
	Level       Level  `json:"level"`
	ShowToUser  bool   `json:"-"`
	Recoverable bool   `json:"recoverable"`
}

// Error lets a Notice travel as an error value.
func (n Notice) Error() string {
	return fmt.Sprintf("[%s] %s", n.Code, n.Message)
}

var catalog = map[Kind]Notice{
	MapInit: {
		Code:        "MAP_001",
		Message:     "Failed to initialize map. Please refresh the page.",
		Level:       LevelError,
		ShowToUser:  true,
		Recoverable: false,
	},
	Geolocation: {
		Code:        "GEO_001",
		Message:     "Could not get your location. Distance-based features may be limited.",
		Level:       LevelWarning,
		ShowToUser:  true,
		Recoverable: true,
	},
	FilterFailed: {
		Code:        "FIL_001",
		Message:     "Error applying filters. Please try again.",
		Level:       LevelError,
		ShowToUser:  true,
		Recoverable: true,
	},
	Network: {
		Code:        "NET_001",
		Message:     "Network connection issue. Please check your connection.",
		Level:       LevelError,
		ShowToUser:  true,
		Recoverable: true,
	},
	ImageLoad: {
		Code:        "IMG_001",
		Message:     "Failed to load some images. Using fallback images.",
		Level:       LevelWarning,
		ShowToUser:  false,
		Recoverable: true,
	},
	LocationRequired: {
		Code:        "SORT_001",
		Message:     "Please enable location services to sort by distance",
		Level:       LevelInfo,
		ShowToUser:  true,
		Recoverable: true,
	},
}

// Lookup returns the catalog entry for kind.
func Lookup(kind Kind) (Notice, bool) {
	n, ok := catalog[kind]
	if !ok {
		return Notice{}, false
	}
	n.Kind = kind
	return n, true
}

// Must is Lookup for kinds known to be in the catalog.
func Must(kind Kind) Notice {
	n, ok := Lookup(kind)
	if !ok {
		panic(fmt.Sprintf("notice: unknown kind %q", kind))
	}
	return n
}

// Unknown builds a notice for an uncatalogued error.
func Unknown(err error) Notice {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Notice{
		Code:        UnknownCode,
		Message:     msg,
		Level:       LevelError,
		ShowToUser:  true,
		Recoverable: true,
	}
}

// Option overrides part of a catalog entry.
type Option func(*Notice)

func WithMessage(msg string) Option { return func(n *Notice) { n.Message = msg } }

func WithLevel(l Level) Option { return func(n *Notice) { n.Level = l } }

func Hidden() Option { return func(n *Notice) { n.ShowToUser = false } }

func Unrecoverable() Option { return func(n *Notice) { n.Recoverable = false } }
