// Package tabs implements the five tab models. Tabs are plain state
// holders switched on explicitly by the app; they never issue gateway
// calls themselves.
package tabs

// ListState tracks cursor and scroll position over a list of n items.
// The cursor is either a valid index or -1 ("none"). Navigation clamps
// at list boundaries and never allocates.
type ListState struct {
	Cursor int
	Offset int
	height int
	count  int
}

// NewListState returns an empty list with no selection.
func NewListState() ListState {
	return ListState{Cursor: -1}
}

// SetHeight sets the visible window height.
func (s *ListState) SetHeight(h int) {
	if h < 1 {
		h = 1
	}
	s.height = h
	s.ensureVisible()
}

// SetCount updates the item count, clamping cursor and offset. A cursor
// that was "none" stays none unless the caller selects explicitly.
func (s *ListState) SetCount(n int) {
	s.count = n
	if n == 0 {
		s.Cursor = -1
		s.Offset = 0
		return
	}
	if s.Cursor >= n {
		s.Cursor = n - 1
	}
	s.ensureVisible()
}

// Select moves the cursor to index i, clamped into [0,n) or -1 when the
// list is empty.
func (s *ListState) Select(i int) {
	if s.count == 0 {
		s.Cursor = -1
		return
	}
	if i < 0 {
		i = 0
	}
	if i >= s.count {
		i = s.count - 1
	}
	s.Cursor = i
	s.ensureVisible()
}

func (s *ListState) Up()       { s.move(-1) }
func (s *ListState) Down()     { s.move(1) }
func (s *ListState) HalfUp()   { s.move(-s.half()) }
func (s *ListState) HalfDown() { s.move(s.half()) }

func (s *ListState) Top() {
	if s.count > 0 {
		s.Select(0)
	}
}

func (s *ListState) Bottom() {
	if s.count > 0 {
		s.Select(s.count - 1)
	}
}

func (s *ListState) half() int {
	h := s.height / 2
	if h < 1 {
		h = 1
	}
	return h
}

func (s *ListState) move(delta int) {
	if s.count == 0 {
		return
	}
	if s.Cursor < 0 {
		s.Select(0)
		return
	}
	s.Select(s.Cursor + delta)
}

func (s *ListState) ensureVisible() {
	if s.height <= 0 || s.Cursor < 0 {
		return
	}
	if s.Cursor < s.Offset {
		s.Offset = s.Cursor
	}
	if s.Cursor >= s.Offset+s.height {
		s.Offset = s.Cursor - s.height + 1
	}
	if s.Offset < 0 {
		s.Offset = 0
	}
}

// Window returns the half-open visible index range.
func (s *ListState) Window() (start, end int) {
	start = s.Offset
	end = s.Offset + s.height
	if end > s.count {
		end = s.count
	}
	if start > end {
		start = end
	}
	return start, end
}
