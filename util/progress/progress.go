// Package progress draws a one-line transfer status on a terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

type Reporter struct {
	Out      io.Writer
	Total    int64
	Interval time.Duration

	done    atomic.Int64
	started time.Time
	stop    chan struct{}
	wg      sync.WaitGroup
}

func New(out io.Writer, total int64) *Reporter {
	return &Reporter{
		Out:      out,
		Total:    total,
		Interval: time.Second,
	}
}

// Set records the number of bytes done so far. It has the shape of the
// mirror engine's progress callback.
func (r *Reporter) Set(n int64) {
	r.done.Store(n)
}

func (r *Reporter) Start() {
	r.started = time.Now()
	r.stop = make(chan struct{})
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.stop:
				return
			case now := <-ticker.C:
				r.draw(r.Line(now), false)
			}
		}
	}()
}

// Stop draws the final state and ends the line.
func (r *Reporter) Stop() {
	if r.stop == nil {
		return
	}
	close(r.stop)
	r.wg.Wait()
	r.draw(r.Line(time.Now()), true)
	r.stop = nil
}

// Line renders the status as of now, e.g.
// "12 MB / 50 MB (24%) 3.2 MB/s ETA 12s".
func (r *Reporter) Line(now time.Time) string {
	done := r.done.Load()
	sb := strings.Builder{}
	sb.WriteString(humanize.Bytes(uint64(done)))
	if r.Total > 0 {
		sb.WriteString(" / " + humanize.Bytes(uint64(r.Total)))
		sb.WriteString(fmt.Sprintf(" (%d%%)", done*100/r.Total))
	}

	elapsed := now.Sub(r.started)
	if elapsed <= 0 || done <= 0 {
		return sb.String()
	}
	rate := float64(done) / elapsed.Seconds()
	sb.WriteString(" " + humanize.Bytes(uint64(rate)) + "/s")
	if r.Total > done {
		eta := time.Duration(float64(r.Total-done) / rate * float64(time.Second))
		sb.WriteString(" ETA " + eta.Round(time.Second).String())
	}
	return sb.String()
}

func (r *Reporter) draw(line string, last bool) {
	f, ok := r.Out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		if last {
			_, _ = fmt.Fprintln(r.Out, line)
		}
		return
	}

	if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
		if len(line) >= width {
			line = line[:width-1]
		} else {
			line += strings.Repeat(" ", width-1-len(line))
		}
	}
	_, _ = fmt.Fprint(r.Out, "\r"+line)
	if last {
		_, _ = fmt.Fprintln(r.Out)
	}
}
