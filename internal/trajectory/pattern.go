// Package trajectory produces the setpoint the ball is asked to follow.
//
// All setpoints are in centered, y-up rectified pixels. The generator is a
// pure function of elapsed time and the current parameters; switching
// pattern takes effect on the next tick without blending.
package trajectory

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Pattern selects how the setpoint moves.
type Pattern int

const (
	PatternCenter Pattern = iota
	PatternMouse
	PatternJoystick
	PatternSquare
	PatternCircle
	PatternLissajous
)

// Patterns lists every pattern in selector order.
var Patterns = []Pattern{
	PatternCenter,
	PatternMouse,
	PatternJoystick,
	PatternSquare,
	PatternCircle,
	PatternLissajous,
}

func (p Pattern) String() string {
	switch p {
	case PatternCenter:
		return "center"
	case PatternMouse:
		return "mouse"
	case PatternJoystick:
		return "joystick"
	case PatternSquare:
		return "square"
	case PatternCircle:
		return "circle"
	case PatternLissajous:
		return "lissajous"
	default:
		return fmt.Sprintf("Pattern(%d)", int(p))
	}
}

// ParsePattern converts a pattern name into a Pattern.
func ParsePattern(value string) (Pattern, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "center":
		return PatternCenter, nil
	case "mouse":
		return PatternMouse, nil
	case "joystick":
		return PatternJoystick, nil
	case "square":
		return PatternSquare, nil
	case "circle":
		return PatternCircle, nil
	case "lissajous":
		return PatternLissajous, nil
	default:
		return PatternCenter, fmt.Errorf("unknown pattern %q", value)
	}
}

// MarshalJSON writes the pattern by name.
func (p Pattern) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts a pattern name.
func (p *Pattern) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("pattern must be a string: %w", err)
	}
	parsed, err := ParsePattern(raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
