package script

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/simonsays/internal/locations"
	"github.com/verte-zerg/simonsays/internal/model"
)

func mustParse(t *testing.T, text string) Script {
	t.Helper()
	s, err := Parse(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return s
}

func expectParseError(t *testing.T, text string, line int) *ParseError {
	t.Helper()
	_, err := Parse(text)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError for %q, got %v", text, err)
	}
	if pe.Line != line {
		t.Fatalf("expected error on line %d, got %d (%s)", line, pe.Line, pe.Reason)
	}
	return pe
}

func TestParseBasicScript(t *testing.T) {
	s := mustParse(t, "move mouse to button1\nleft click\ntype \"Hello World\"\npress return")
	if s.Len() != 4 {
		t.Fatalf("expected 4 actions, got %d", s.Len())
	}
	move, ok := s.Actions[0].(Move)
	if !ok || move.Target != Named("button1") {
		t.Fatalf("unexpected first action %#v", s.Actions[0])
	}
	click, ok := s.Actions[1].(Click)
	if !ok || click.Button != model.ButtonLeft || click.Target.Kind != RefCurrent {
		t.Fatalf("unexpected second action %#v", s.Actions[1])
	}
	typ, ok := s.Actions[2].(Type)
	if !ok || typ.Text != "Hello World" || typ.AppendReturn {
		t.Fatalf("unexpected third action %#v", s.Actions[2])
	}
	press, ok := s.Actions[3].(KeyPress)
	if !ok || press.Key != KeyReturn || len(press.Modifiers) != 0 {
		t.Fatalf("unexpected fourth action %#v", s.Actions[3])
	}
	if press.Line() != 4 {
		t.Fatalf("expected line 4, got %d", press.Line())
	}
}

func TestParseKeywordsCaseInsensitive(t *testing.T) {
	s := mustParse(t, "RIGHT Click AT Menu\nMove Mouse To Menu\nTYPE LINE \"x\"\nPress ESC\nWAIT 2")
	click := s.Actions[0].(Click)
	if click.Button != model.ButtonRight || click.Target.Name != "Menu" {
		t.Fatalf("unexpected click %#v", click)
	}
	if !s.Actions[2].(Type).AppendReturn {
		t.Fatalf("expected type line to append return")
	}
	if s.Actions[3].(KeyPress).Key != KeyEscape {
		t.Fatalf("expected esc alias to canonicalize to escape")
	}
	if s.Actions[4].(Wait).Duration != 2*time.Second {
		t.Fatalf("unexpected wait %v", s.Actions[4])
	}
}

func TestParseClickVariants(t *testing.T) {
	s := mustParse(t, "middle click at tab_3\nleft click at (10, 20)\nright click and hold at a for 2.5s\nleft click and hold\ndrag left from a to b")
	if c := s.Actions[0].(Click); c.Button != model.ButtonMiddle || c.Target != Named("tab_3") {
		t.Fatalf("unexpected middle click %#v", c)
	}
	if c := s.Actions[1].(Click); c.Target != At(model.Point{X: 10, Y: 20}) {
		t.Fatalf("unexpected literal click %#v", c)
	}
	hold := s.Actions[2].(Hold)
	if hold.Button != model.ButtonRight || hold.Target != Named("a") || hold.Duration != 2500*time.Millisecond {
		t.Fatalf("unexpected hold %#v", hold)
	}
	if h := s.Actions[3].(Hold); h.Duration != time.Second || h.Target.Kind != RefCurrent {
		t.Fatalf("unexpected default hold %#v", h)
	}
	drag := s.Actions[4].(Drag)
	if drag.From != Named("a") || drag.To != Named("b") {
		t.Fatalf("unexpected drag %#v", drag)
	}
}

func TestParseTypeEscapes(t *testing.T) {
	s := mustParse(t, `type "say \"hi\"\tnow\\"`+"\n"+`type 'it\'s'`)
	if got := s.Actions[0].(Type).Text; got != "say \"hi\"\tnow\\" {
		t.Fatalf("unexpected text %q", got)
	}
	if got := s.Actions[1].(Type).Text; got != "it's" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestParsePressCombos(t *testing.T) {
	s := mustParse(t, "press cmd+shift+s\npress Control+Alt+f4")
	p := s.Actions[0].(KeyPress)
	if p.Key != "s" || !reflect.DeepEqual(p.Modifiers, []string{ModCmd, ModShift}) {
		t.Fatalf("unexpected combo %#v", p)
	}
	p = s.Actions[1].(KeyPress)
	if p.Key != "f4" || !reflect.DeepEqual(p.Modifiers, []string{ModCtrl, ModOption}) {
		t.Fatalf("unexpected combo %#v", p)
	}
}

func TestParseCodeBlockTrimsTrailingWhitespace(t *testing.T) {
	text := "type code block\n...\n    if x:   \t\n        return y\n...\npress return"
	s := mustParse(t, text)
	if s.Len() != 2 {
		t.Fatalf("expected 2 actions, got %d", s.Len())
	}
	block := s.Actions[0].(CodeBlock)
	expected := []string{"    if x:", "        return y"}
	if !reflect.DeepEqual(block.Lines, expected) {
		t.Fatalf("expected %q, got %q", expected, block.Lines)
	}
	if s.Actions[1].Line() != 6 {
		t.Fatalf("expected press on line 6, got %d", s.Actions[1].Line())
	}
}

func TestParseCodeBlockBackticksAndBlankLines(t *testing.T) {
	text := "type code block\n\n```\nfoo()\n\nbar()\n```"
	block := mustParse(t, text).Actions[0].(CodeBlock)
	expected := []string{"foo()", "", "bar()"}
	if !reflect.DeepEqual(block.Lines, expected) {
		t.Fatalf("expected %q, got %q", expected, block.Lines)
	}
}

func TestParseCRLF(t *testing.T) {
	block := mustParse(t, "type code block\r\n...\r\nx = 1  \r\n...\r\n").Actions[0].(CodeBlock)
	if !reflect.DeepEqual(block.Lines, []string{"x = 1"}) {
		t.Fatalf("unexpected lines %q", block.Lines)
	}
}

func TestParseSkipsBlankAndCommentLines(t *testing.T) {
	s := mustParse(t, "# Recording ID: rec1\n\n   \nwait 0\n")
	if s.Len() != 1 {
		t.Fatalf("expected 1 action, got %d", s.Len())
	}
	if s.Actions[0].Line() != 4 {
		t.Fatalf("expected line 4, got %d", s.Actions[0].Line())
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		text string
		line int
	}{
		{"\n\njump around", 3},
		{"press return\npress hyper", 2},
		{"press cmd+nope", 1},
		{"press return now", 1},
		{"wait -1", 1},
		{"wait soon", 1},
		{"wait 1 2", 1},
		{"wait NaN", 1},
		{"left click button1", 1},
		{"left click at", 1},
		{"left click at a b", 1},
		{"move mouse button1", 1},
		{"move mouse to", 1},
		{"type hello", 1},
		{`type "unterminated`, 1},
		{`type "a" extra`, 1},
		{`type "bad \q escape"`, 1},
		{"\ntype code block\nfoo\n...", 3},
		{"\ntype code block\n...\nfoo", 2},
		{"type code block", 1},
		{"type code block\n...\n...", 1},
		{"type code block now", 1},
		{"left click and hold at a for", 1},
		{"drag left from a", 1},
		{"drag sideways from a to b", 1},
		{"move mouse to (1, 2", 1},
		{"move mouse to 1, 2)", 1},
		{"left click and hold for", 1},
		{"middle", 1},
	}
	for _, tc := range cases {
		expectParseError(t, tc.text, tc.line)
	}
}

func TestParseNeverReturnsPartialScript(t *testing.T) {
	s, err := Parse("left click\nbogus")
	if err == nil {
		t.Fatalf("expected error")
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty script on error, got %d actions", s.Len())
	}
}

func TestParseDeterministic(t *testing.T) {
	text := "move mouse to a\nleft click at b\ntype line \"x\"\ntype code block\n...\n  y  \n...\nwait 0.25\npress tab"
	first := mustParse(t, text)
	second := mustParse(t, text)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical parses")
	}
}

func TestFormatRoundTrip(t *testing.T) {
	text := strings.Join([]string{
		"# header",
		"move mouse to a",
		"move mouse to (1.5, -2)",
		"left click",
		"right click at b",
		`type "quote \" and \\ slash"`,
		`type line "tab\there"`,
		"press cmd+v",
		"sleep 0.1",
		"middle click and hold at a for 0.5s",
		"drag right from a to (3, 4)",
		"left click and hold at for for 1s",
		"right click and hold at for",
		"drag left from to to b",
		"drag left from a to to",
		"drag middle from to to to",
		"left click at at",
		"type code block",
		"...",
		"```",
		"  indented",
		"...",
	}, "\n")
	first := mustParse(t, text)
	second := mustParse(t, Format(first))
	if len(first.Actions) != len(second.Actions) {
		t.Fatalf("expected %d actions, got %d", len(first.Actions), len(second.Actions))
	}
	for i := range first.Actions {
		if FormatAction(first.Actions[i]) != FormatAction(second.Actions[i]) {
			t.Fatalf("action %d differs: %q vs %q", i, FormatAction(first.Actions[i]), FormatAction(second.Actions[i]))
		}
	}
}

func TestParsePointWithOrWithoutParens(t *testing.T) {
	s := mustParse(t, "move mouse to 3, 4\nmove mouse to (3,4)")
	for i, action := range s.Actions {
		if got := action.(Move).Target; got != At(model.Point{X: 3, Y: 4}) {
			t.Fatalf("action %d: expected (3, 4), got %v", i, got)
		}
	}
}

func TestFormatRoundTripKeywordNames(t *testing.T) {
	actions := []Action{
		Hold{Button: model.ButtonLeft, Target: Named("for"), Duration: time.Second},
		Drag{Button: model.ButtonLeft, From: Named("to"), To: Named("b")},
		Drag{Button: model.ButtonRight, From: Named("a"), To: Named("to")},
	}
	for _, action := range actions {
		text := FormatAction(action)
		s, err := Parse(text)
		if err != nil {
			t.Fatalf("parse %q: %v", text, err)
		}
		if len(s.Actions) != 1 || FormatAction(s.Actions[0]) != text {
			t.Fatalf("expected %q to round trip, got %v", text, s.Actions)
		}
	}
	hold := mustParse(t, "left click and hold at for").Actions[0].(Hold)
	if hold.Target != Named("for") || hold.Duration != time.Second {
		t.Fatalf("unexpected hold %#v", hold)
	}
}

func TestValidateReferences(t *testing.T) {
	s := mustParse(t, "move mouse to a\nleft click at (1, 1)\ndrag left from a to b")
	store, err := locations.New(locations.Location{Name: "a"})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	err = Validate(s, store)
	var refErr *ReferenceError
	if !errors.As(err, &refErr) {
		t.Fatalf("expected ReferenceError, got %v", err)
	}
	if refErr.Index != 2 || refErr.Line != 3 {
		t.Fatalf("unexpected position %+v", refErr)
	}
	if name, ok := IsUnknownLocation(err); !ok || name != "b" {
		t.Fatalf("expected unknown location b, got %q", name)
	}
	if got := strings.Join(s.References(), ","); got != "a,b" {
		t.Fatalf("expected references a,b, got %s", got)
	}
}
