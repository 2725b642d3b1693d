package otp

import "unicode/utf8"

// Length is the number of cells in a confirmation code.
const Length = 8

// Event reports the outcome of one reducer operation.
//
// Accepted is false when the operation was rejected and the buffer did not
// change. Submit is true exactly when the operation completed the code and
// auto-submission must fire with Code.
type Event struct {
	Accepted bool
	Focus    int
	Submit   bool
	Code     string
}

// Buffer is the fixed set of single-digit cells behind a code entry form.
// Every cell holds "" or one ASCII digit.
//
// Buffer is not safe for concurrent use; callers serialize access.
type Buffer struct {
	cells [Length]string
	focus int
}

// New returns an empty buffer focused on the first cell.
func New() *Buffer {
	return &Buffer{}
}

// Input writes raw into the cell at index. Only the first character of raw
// is kept. A non-digit leaves the buffer unchanged; an empty raw value clears
// the cell. Writing a digit moves focus to the next cell, and writing the
// last cell submits when every cell is filled.
func (b *Buffer) Input(index int, raw string) Event {
	if index < 0 || index >= Length {
		return b.rejected()
	}

	value := firstChar(raw)
	if value != "" && !isDigit(value) {
		return b.rejected()
	}

	b.cells[index] = value
	if value == "" {
		return Event{Accepted: true, Focus: b.focus}
	}

	if index < Length-1 {
		b.focus = index + 1
		return Event{Accepted: true, Focus: b.focus}
	}

	b.focus = index
	ev := Event{Accepted: true, Focus: b.focus}
	if b.Complete() {
		ev.Submit = true
		ev.Code = b.Code()
	}
	return ev
}

// Backspace moves focus to the previous cell when the cell at index is
// already empty. It never clears a different cell.
func (b *Buffer) Backspace(index int) Event {
	if index < 0 || index >= Length {
		return b.rejected()
	}
	if b.cells[index] == "" && index > 0 {
		b.focus = index - 1
		return Event{Accepted: true, Focus: b.focus}
	}
	return Event{Accepted: false, Focus: b.focus}
}

// Paste fills the leading cells from raw. At most Length characters are
// considered; any non-digit among them rejects the whole paste. Cells past
// the pasted run keep their content. A full-length paste submits the pasted
// string.
func (b *Buffer) Paste(raw string) Event {
	clipped := make([]string, 0, Length)
	for _, r := range raw {
		if len(clipped) == Length {
			break
		}
		clipped = append(clipped, string(r))
	}
	if len(clipped) == 0 {
		return b.rejected()
	}
	for _, c := range clipped {
		if !isDigit(c) {
			return b.rejected()
		}
	}

	copy(b.cells[:], clipped)
	b.focus = min(len(clipped), Length-1)

	ev := Event{Accepted: true, Focus: b.focus}
	if len(clipped) == Length {
		ev.Submit = true
		ev.Code = joinCells(clipped)
	}
	return ev
}

// Code concatenates the cells. It is shorter than Length while incomplete.
func (b *Buffer) Code() string {
	return joinCells(b.cells[:])
}

// Complete reports whether every cell holds a digit.
func (b *Buffer) Complete() bool {
	for _, c := range b.cells {
		if c == "" {
			return false
		}
	}
	return true
}

// Focus returns the index of the cell that should hold the cursor.
func (b *Buffer) Focus() int {
	return b.focus
}

// Cells returns a copy of the cell contents.
func (b *Buffer) Cells() []string {
	out := make([]string, Length)
	copy(out, b.cells[:])
	return out
}

// Reset empties every cell and focuses the first one.
func (b *Buffer) Reset() {
	b.cells = [Length]string{}
	b.focus = 0
}

func (b *Buffer) rejected() Event {
	return Event{Accepted: false, Focus: b.focus}
}

func firstChar(raw string) string {
	if raw == "" {
		return ""
	}
	_, size := utf8.DecodeRuneInString(raw)
	return raw[:size]
}

func isDigit(s string) bool {
	return len(s) == 1 && s[0] >= '0' && s[0] <= '9'
}

func joinCells(cells []string) string {
	var out []byte
	for _, c := range cells {
		out = append(out, c...)
	}
	return string(out)
}

// IsCode reports whether s is exactly Length ASCII digits.
func IsCode(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
