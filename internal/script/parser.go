package script

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/simonsays/internal/locations"
	"github.com/verte-zerg/simonsays/internal/model"
)

// Fence delimiters accepted around a code block.
const (
	FenceDots      = "..."
	FenceBackticks = "```"
)

const defaultHold = time.Second

// maxSeconds keeps durations inside time.Duration.
const maxSeconds = float64(math.MaxInt64) / float64(time.Second)

// pointPattern matches "x, y" with both parentheses or neither.
var pointPattern = regexp.MustCompile(`^(?:\(\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)\s*\)|(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?))$`)

// ParseError reports malformed script input at a 1-based raw line number.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Parse turns script text into a Script. It either returns every action or an error.
func Parse(text string) (Script, error) {
	p := parser{lines: splitLines(text)}
	actions, err := p.parse()
	if err != nil {
		return Script{}, err
	}
	return Script{Actions: actions}, nil
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

type parser struct {
	lines []string
}

func (p *parser) parse() ([]Action, error) {
	var actions []Action
	for i := 0; i < len(p.lines); i++ {
		lineNo := i + 1
		trimmed := strings.TrimSpace(p.lines[i])
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		fields := strings.Fields(trimmed)
		keyword := strings.ToLower(fields[0])

		var (
			action Action
			err    error
		)
		switch keyword {
		case "left", "right", "middle":
			action, err = parseClick(lineNo, fields)
		case "move":
			action, err = parseMove(lineNo, fields)
		case "drag":
			action, err = parseDrag(lineNo, fields)
		case "type":
			if isCodeBlockHeader(fields) {
				var next int
				action, next, err = p.parseCodeBlock(i, fields)
				if err == nil {
					i = next
				}
			} else {
				action, err = parseType(lineNo, trimmed)
			}
		case "press":
			action, err = parsePress(lineNo, fields)
		case "wait", "sleep":
			action, err = parseWait(lineNo, fields)
		default:
			err = fmt.Errorf("unknown command %q", fields[0])
		}
		if err != nil {
			return nil, asParseError(lineNo, err)
		}
		actions = append(actions, action)
	}
	return actions, nil
}

func asParseError(line int, err error) error {
	if pe, ok := err.(*ParseError); ok {
		return pe
	}
	return &ParseError{Line: line, Reason: err.Error()}
}

func parseButton(word string) (model.Button, error) {
	switch strings.ToLower(word) {
	case "left":
		return model.ButtonLeft, nil
	case "right":
		return model.ButtonRight, nil
	case "middle":
		return model.ButtonMiddle, nil
	default:
		return 0, fmt.Errorf("unknown mouse button %q", word)
	}
}

// parseClick handles "<button> click [at <name>]" and
// "<button> click and hold [at <name>] [for <seconds>]".
func parseClick(line int, fields []string) (Action, error) {
	button, err := parseButton(fields[0])
	if err != nil {
		return nil, err
	}
	if len(fields) < 2 || !strings.EqualFold(fields[1], "click") {
		return nil, fmt.Errorf("expected %q after %q", "click", fields[0])
	}
	rest := fields[2:]
	if len(rest) == 0 {
		return Click{pos: pos{line}, Button: button, Target: Current()}, nil
	}
	if len(rest) >= 2 && strings.EqualFold(rest[0], "and") && strings.EqualFold(rest[1], "hold") {
		return parseHold(line, button, rest[2:])
	}
	if !strings.EqualFold(rest[0], "at") {
		return nil, fmt.Errorf("unexpected %q after click", rest[0])
	}
	target, err := parseTarget(rest[1:])
	if err != nil {
		return nil, err
	}
	return Click{pos: pos{line}, Button: button, Target: target}, nil
}

// parseHold reads an optional trailing "for <seconds>" pair first, so a location
// may itself be called "for".
func parseHold(line int, button model.Button, rest []string) (Action, error) {
	hold := Hold{pos: pos{line}, Button: button, Target: Current(), Duration: defaultHold}
	targetTokens := rest
	if n := len(rest); n >= 2 && strings.EqualFold(rest[n-2], "for") {
		d, err := parseSeconds(rest[n-1])
		if err != nil {
			return nil, err
		}
		hold.Duration = d
		targetTokens = rest[:n-2]
	} else if n >= 1 && strings.EqualFold(rest[n-1], "for") && (n == 1 || !strings.EqualFold(rest[n-2], "at")) {
		return nil, fmt.Errorf("expected a duration after %q", "for")
	}
	if len(targetTokens) > 0 {
		if !strings.EqualFold(targetTokens[0], "at") {
			return nil, fmt.Errorf("unexpected %q after click and hold", targetTokens[0])
		}
		target, err := parseTarget(targetTokens[1:])
		if err != nil {
			return nil, err
		}
		hold.Target = target
	}
	return hold, nil
}

// parseMove handles "move mouse to <name>" and "move mouse to (x, y)".
func parseMove(line int, fields []string) (Action, error) {
	if len(fields) < 3 || !strings.EqualFold(fields[1], "mouse") || !strings.EqualFold(fields[2], "to") {
		return nil, fmt.Errorf("expected %q", "move mouse to <name>")
	}
	target, err := parseTarget(fields[3:])
	if err != nil {
		return nil, err
	}
	return Move{pos: pos{line}, Target: target}, nil
}

// parseDrag handles "drag <button> from <a> to <b>".
func parseDrag(line int, fields []string) (Action, error) {
	if len(fields) < 3 {
		return nil, fmt.Errorf("expected %q", "drag <button> from <name> to <name>")
	}
	button, err := parseButton(fields[1])
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(fields[2], "from") {
		return nil, fmt.Errorf("expected %q after drag %s", "from", fields[1])
	}
	rest := fields[3:]
	// Either side may be a location called "to"; take the first split where both parse.
	var firstErr error
	for i := 1; i < len(rest); i++ {
		if !strings.EqualFold(rest[i], "to") {
			continue
		}
		from, err := parseTarget(rest[:i])
		if err == nil {
			var to Ref
			to, err = parseTarget(rest[i+1:])
			if err == nil {
				return Drag{pos: pos{line}, Button: button, From: from, To: to}, nil
			}
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return nil, fmt.Errorf("drag is missing %q", "to")
}

func parseTarget(tokens []string) (Ref, error) {
	if len(tokens) == 0 {
		return Ref{}, fmt.Errorf("missing location name")
	}
	joined := strings.Join(tokens, " ")
	if first := joined[0]; first == '(' || first == '-' || (first >= '0' && first <= '9') {
		m := pointPattern.FindStringSubmatch(joined)
		if m == nil {
			return Ref{}, fmt.Errorf("invalid coordinate %q", joined)
		}
		xs, ys := m[1], m[2]
		if xs == "" {
			xs, ys = m[3], m[4]
		}
		x, err := strconv.ParseFloat(xs, 64)
		if err != nil {
			return Ref{}, fmt.Errorf("invalid coordinate %q", joined)
		}
		y, err := strconv.ParseFloat(ys, 64)
		if err != nil {
			return Ref{}, fmt.Errorf("invalid coordinate %q", joined)
		}
		return At(model.Point{X: x, Y: y}), nil
	}
	if len(tokens) > 1 {
		return Ref{}, fmt.Errorf("unexpected %q after location %q", tokens[1], tokens[0])
	}
	if err := locations.ValidateName(tokens[0]); err != nil {
		return Ref{}, err
	}
	return Named(tokens[0]), nil
}

func isCodeBlockHeader(fields []string) bool {
	return len(fields) >= 3 &&
		strings.EqualFold(fields[1], "code") &&
		strings.EqualFold(fields[2], "block")
}

func (p *parser) parseCodeBlock(start int, fields []string) (Action, int, error) {
	line := start + 1
	if len(fields) > 3 {
		return nil, 0, &ParseError{Line: line, Reason: fmt.Sprintf("unexpected %q after type code block", fields[3])}
	}
	i := start + 1
	for i < len(p.lines) && strings.TrimSpace(p.lines[i]) == "" {
		i++
	}
	if i >= len(p.lines) {
		return nil, 0, &ParseError{Line: line, Reason: "type code block is missing its opening fence"}
	}
	fence := strings.TrimSpace(p.lines[i])
	if fence != FenceDots && fence != FenceBackticks {
		return nil, 0, &ParseError{Line: i + 1, Reason: fmt.Sprintf("expected %q or %q to open the code block", FenceDots, FenceBackticks)}
	}
	var body []string
	for i++; i < len(p.lines); i++ {
		if strings.TrimSpace(p.lines[i]) == fence {
			if len(body) == 0 {
				return nil, 0, &ParseError{Line: line, Reason: "code block is empty"}
			}
			return CodeBlock{pos: pos{line}, Lines: body}, i, nil
		}
		body = append(body, strings.TrimRight(p.lines[i], " \t"))
	}
	return nil, 0, &ParseError{Line: line, Reason: "code block is not closed"}
}

// parseType handles `type "<text>"` and `type line "<text>"`.
func parseType(line int, trimmed string) (Action, error) {
	_, rest := cutWord(trimmed)
	appendReturn := false
	if word, after := cutWord(rest); strings.EqualFold(word, "line") {
		appendReturn = true
		rest = after
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return nil, fmt.Errorf("type is missing its text")
	}
	text, err := unquote(rest)
	if err != nil {
		return nil, err
	}
	return Type{pos: pos{line}, Text: text, AppendReturn: appendReturn}, nil
}

// parsePress handles "press <key>" and "press <mod>+<mod>+<key>".
func parsePress(line int, fields []string) (Action, error) {
	if len(fields) < 2 {
		return nil, fmt.Errorf("press is missing a key")
	}
	if len(fields) > 2 {
		return nil, fmt.Errorf("unexpected %q after press %s", fields[2], fields[1])
	}
	parts := strings.Split(fields[1], "+")
	key, ok := CanonicalKey(parts[len(parts)-1])
	if !ok {
		return nil, fmt.Errorf("unknown key %q", parts[len(parts)-1])
	}
	var mods []string
	for _, part := range parts[:len(parts)-1] {
		mod, ok := CanonicalModifier(part)
		if !ok {
			return nil, fmt.Errorf("unknown modifier %q", part)
		}
		mods = append(mods, mod)
	}
	return KeyPress{pos: pos{line}, Key: key, Modifiers: mods}, nil
}

// parseWait handles "wait <seconds>" and the "sleep" alias.
func parseWait(line int, fields []string) (Action, error) {
	if len(fields) < 2 {
		return nil, fmt.Errorf("%s is missing a duration", strings.ToLower(fields[0]))
	}
	if len(fields) > 2 {
		return nil, fmt.Errorf("unexpected %q after %s %s", fields[2], strings.ToLower(fields[0]), fields[1])
	}
	d, err := parseSeconds(fields[1])
	if err != nil {
		return nil, err
	}
	return Wait{pos: pos{line}, Duration: d}, nil
}

func parseSeconds(s string) (time.Duration, error) {
	raw := strings.TrimSuffix(strings.ToLower(s), "s")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("duration %q must not be negative", s)
	}
	if v > maxSeconds {
		return 0, fmt.Errorf("duration %q is too large", s)
	}
	return time.Duration(math.Round(v * float64(time.Second))), nil
}

func cutWord(s string) (string, string) {
	s = strings.TrimLeft(s, " \t")
	idx := strings.IndexAny(s, " \t")
	if idx < 0 {
		return s, ""
	}
	return s[:idx], s[idx:]
}

func unquote(s string) (string, error) {
	quote := s[0]
	if quote != '"' && quote != '\'' {
		return "", fmt.Errorf("text must be quoted")
	}
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			if i+1 >= len(s) {
				return "", fmt.Errorf("unterminated text")
			}
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\', '"', '\'':
				b.WriteByte(s[i])
			default:
				return "", fmt.Errorf("unknown escape \\%c", s[i])
			}
		case quote:
			if i != len(s)-1 {
				return "", fmt.Errorf("unexpected text after closing quote: %q", s[i+1:])
			}
			return b.String(), nil
		default:
			b.WriteByte(c)
		}
	}
	return "", fmt.Errorf("unterminated text")
}
