package runner

import (
	"testing"
	"time"
)

func TestBackoff_DoublesUntilCap(t *testing.T) {
	base := time.Second
	max := 10 * time.Second

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 10 * time.Second}, // capped
		{10, 10 * time.Second},
	}
	for _, c := range cases {
		if got := backoff(base, max, c.attempt); got != c.want {
			t.Errorf("backoff(attempt=%d): want %v, got %v", c.attempt, c.want, got)
		}
	}
}

func TestPauseController_RequestThenResume(t *testing.T) {
	clock := newFakeClock(time.Unix(0, 0))
	pc := newPauseController(time.Second, 10*time.Second, clock)

	reason, delay := pc.requestPause("handler asked to pause", nil)
	if reason != "handler asked to pause" || delay != time.Second {
		t.Fatalf("want (reason, 1s), got (%q, %v)", reason, delay)
	}
	if pc.pausedHistoryCount() != 1 {
		t.Fatalf("want pausedHistory 1, got %d", pc.pausedHistoryCount())
	}

	snap := pc.snapshot()
	if !snap.Paused || snap.Attempt != 1 {
		t.Fatalf("want paused state with attempt 1, got %+v", snap)
	}

	if pc.tryResume(clock.Now()) {
		t.Fatalf("resume should not be ready immediately")
	}

	clock.Advance(time.Second)
	if !pc.tryResume(clock.Now()) {
		t.Fatalf("resume should be ready once the delay elapses")
	}
	if pc.unpausedHistoryCount() != 1 {
		t.Fatalf("want unpausedHistory 1, got %d", pc.unpausedHistoryCount())
	}
	if pc.snapshot().Paused {
		t.Fatalf("want Paused=false after resume")
	}
}

func TestPauseController_ExplicitDurationOverridesBackoff(t *testing.T) {
	clock := newFakeClock(time.Unix(0, 0))
	pc := newPauseController(time.Second, time.Minute, clock)

	want := 5 * time.Second
	_, delay := pc.requestPause("explicit", &want)
	if delay != want {
		t.Fatalf("want explicit duration %v, got %v", want, delay)
	}
}

func TestPauseController_ResumeResetsAttempt(t *testing.T) {
	clock := newFakeClock(time.Unix(0, 0))
	pc := newPauseController(time.Second, time.Minute, clock)

	_, d1 := pc.requestPause("r", nil)
	clock.Advance(d1)
	pc.tryResume(clock.Now())

	_, d2 := pc.requestPause("r", nil)
	if d2 != d1 {
		t.Fatalf("want the same first-attempt backoff after a resume reset attempt to 0, got d1=%v d2=%v", d1, d2)
	}
}
