package progress

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const renderInterval = 100 * time.Millisecond

// Bar draws a single-line progress bar for payload hashing. It is safe for
// concurrent use. A nil writer disables all output.
type Bar struct {
	mu         sync.Mutex
	total      int64
	current    int64
	width      int
	writer     io.Writer
	dirs       map[string]struct{}
	lastUpdate time.Time
}

func New(total int64, w io.Writer) *Bar {
	return &Bar{
		total:      total,
		width:      40,
		writer:     w,
		dirs:       make(map[string]struct{}),
		lastUpdate: time.Now(),
	}
}

// SetDirectory notes a directory currently being processed.
func (b *Bar) SetDirectory(dir string) {
	if b.writer == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.dirs[filepath.Base(dir)] = struct{}{}
}

func (b *Bar) Increment() {
	if b.writer == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.current++

	now := time.Now()
	if now.Sub(b.lastUpdate) > renderInterval || b.current == b.total {
		b.lastUpdate = now
		b.render()
	}
}

// render must be called with mu held
func (b *Bar) render() {
	if b.total == 0 {
		return
	}

	filled := int(float64(b.width) * float64(b.current) / float64(b.total))
	if filled > b.width {
		filled = b.width
	}
	bar := strings.Repeat("#", filled) + strings.Repeat(".", b.width-filled)

	dirs := make([]string, 0, len(b.dirs))
	for d := range b.dirs {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)

	var dirDisplay string
	switch {
	case len(dirs) > 3:
		dirDisplay = fmt.Sprintf(" | %s +%d more", strings.Join(dirs[:3], ", "), len(dirs)-3)
	case len(dirs) > 0:
		dirDisplay = " | " + strings.Join(dirs, ", ")
	}

	percent := b.current * 100 / b.total
	fmt.Fprintf(b.writer, "\r\033[K[%s] %3d%% (%d/%d)%s", bar, percent, b.current, b.total, dirDisplay)
}

func (b *Bar) Finish() {
	if b.writer == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = b.total
	b.render()
	fmt.Fprintln(b.writer)
}
