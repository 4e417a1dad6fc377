package observ

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTimerAccumulates(t *testing.T) {
	tm := NewTimer()
	tm.Add("parse", 2*time.Millisecond)
	tm.Add("respace", time.Millisecond)
	tm.Add("parse", 3*time.Millisecond)

	r := tm.Report()
	if len(r.Phases) != 2 || r.Phases[0].Name != "parse" || r.Phases[1].Name != "respace" {
		t.Fatalf("unexpected phases %+v", r.Phases)
	}
	if r.Phases[0].Count != 2 || r.Phases[0].DurationMS != 5 {
		t.Fatalf("parse = %+v", r.Phases[0])
	}
	if r.TotalMS != 6 {
		t.Fatalf("total = %v", r.TotalMS)
	}
	if s := tm.Summary(); !strings.Contains(s, "parse") || !strings.Contains(s, "x2") {
		t.Fatalf("summary:\n%s", s)
	}
}

func TestTimerConcurrent(t *testing.T) {
	tm := NewTimer()
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.Track("lint")()
		}()
	}
	wg.Wait()
	if got := tm.Report().Phases[0].Count; got != 16 {
		t.Fatalf("count = %d", got)
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	tm.Track("x")()
	tm.Add("y", time.Second)
	if r := tm.Report(); len(r.Phases) != 0 {
		t.Fatalf("nil timer recorded %+v", r)
	}
}
