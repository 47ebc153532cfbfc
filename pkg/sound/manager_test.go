package sound

import (
	"errors"
	"testing"
	"time"

	"soundpool/internal/registry"
)

// testClip builds a silent clip of the given number of PCM frames.
func testClip(t *testing.T, name string, frames int) *Clip {
	t.Helper()
	format := DefaultFormat()
	clip, err := NewClip(name, make([]byte, frames*format.BytesPerFrame()), format)
	if err != nil {
		t.Fatalf("building test clip: %v", err)
	}
	return clip
}

// newTestManager wires a manager to a mock output with a fast watcher.
func newTestManager(t *testing.T, batchSize int) (*Manager, *MockOutput) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.BatchSize = batchSize
	cfg.WatchInterval = 2 * time.Millisecond

	output := NewMockOutput(cfg.Format)
	m, err := NewManagerWithOutput(cfg, output)
	if err != nil {
		t.Fatalf("creating test manager: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m, output
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func TestManager_PlaySound(t *testing.T) {
	m, _ := newTestManager(t, 2)
	clip := testClip(t, "blip", 441)

	s, err := m.PlaySound(Request{Clips: []*Clip{clip}, Volume: 0.5}, Position{})
	if err != nil {
		t.Fatalf("PlaySound failed: %v", err)
	}
	if s.State() != SourceActive {
		t.Errorf("Expected active source, got %s", s.State())
	}
	if s.Clip() != clip {
		t.Errorf("Expected configured clip %q, got %q", clip.Name, s.Clip().Name)
	}

	stats, _ := m.Stats()
	if stats.ActiveCount != 1 {
		t.Errorf("Expected 1 active source, got %d", stats.ActiveCount)
	}
}

func TestManager_EmptyClipListRejectedWithoutMutation(t *testing.T) {
	m, output := newTestManager(t, 2)

	before, _ := m.Stats()

	_, err := m.PlaySound(Request{}, Position{})
	if !errors.Is(err, ErrNoClips) {
		t.Errorf("Expected ErrNoClips, got %v", err)
	}
	if err := m.PlayMusic(Request{}); !errors.Is(err, ErrNoClips) {
		t.Errorf("Expected ErrNoClips from PlayMusic, got %v", err)
	}

	after, _ := m.Stats()
	if after != before {
		t.Errorf("Pool mutated by rejected request: %+v -> %+v", before, after)
	}
	if output.PlayersCreated != 0 {
		t.Errorf("Expected no backend players, got %d", output.PlayersCreated)
	}
}

func TestManager_InvalidRequestRejected(t *testing.T) {
	m, _ := newTestManager(t, 2)
	clip := testClip(t, "blip", 441)

	cases := []struct {
		name string
		req  Request
		want error
	}{
		{"volume too high", Request{Clips: []*Clip{clip}, Volume: 1.5}, ErrInvalidVolume},
		{"negative volume", Request{Clips: []*Clip{clip}, Volume: -0.1}, ErrInvalidVolume},
		{"pitch too low", Request{Clips: []*Clip{clip}, Volume: 1, Pitch: 0.1}, ErrInvalidPitch},
		{"pitch too high", Request{Clips: []*Clip{clip}, Volume: 1, Pitch: 3}, ErrInvalidPitch},
		{"bad blend", Request{Clips: []*Clip{clip}, Volume: 1, SpatialBlend: 2}, ErrInvalidRequest},
		{"nil clip", Request{Clips: []*Clip{nil}, Volume: 1}, ErrEmptyClip},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := m.PlaySound(tc.req, Position{}); !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestManager_CompletionRecyclesSource(t *testing.T) {
	m, output := newTestManager(t, 2)
	clip := testClip(t, "blip", 441)

	s, err := m.PlaySound(Request{Clips: []*Clip{clip}, Volume: 1}, Position{})
	if err != nil {
		t.Fatalf("PlaySound failed: %v", err)
	}

	output.FinishAll()

	waitFor(t, "source recycle", func() bool {
		return s.State() == SourceIdle
	})

	stats, metrics := m.Stats()
	if stats.ActiveCount != 0 || stats.IdleCount != 2 {
		t.Errorf("Expected 0 active / 2 idle, got %d / %d", stats.ActiveCount, stats.IdleCount)
	}
	if metrics.Completions != 1 {
		t.Errorf("Expected exactly 1 completion, got %d", metrics.Completions)
	}
	if stats.TotalReleased != 1 {
		t.Errorf("Expected exactly 1 release, got %d", stats.TotalReleased)
	}
}

func TestManager_BatchGrowthScenario(t *testing.T) {
	// Pool of 2, three back-to-back sounds: the third must trigger one
	// growth batch, and all three must come home once their clips end.
	m, output := newTestManager(t, 2)

	clips := []*Clip{
		testClip(t, "one", 441),
		testClip(t, "two", 441),
		testClip(t, "three", 441),
	}

	var sources []*Source
	for _, c := range clips {
		s, err := m.PlaySound(Request{Clips: []*Clip{c}, Volume: 1}, Position{})
		if err != nil {
			t.Fatalf("PlaySound(%s) failed: %v", c.Name, err)
		}
		sources = append(sources, s)
	}

	if sources[0].ID() == sources[1].ID() || sources[0].ID() == sources[2].ID() || sources[1].ID() == sources[2].ID() {
		t.Error("Concurrent sounds shared a source")
	}

	stats, _ := m.Stats()
	if stats.Growths != 2 {
		t.Errorf("Expected initial batch plus one growth, got %d growths", stats.Growths)
	}
	if got := stats.IdleCount + stats.ActiveCount; got != 4 {
		t.Errorf("Expected pool size 4, got %d", got)
	}

	output.FinishAll()

	waitFor(t, "all sources recycled", func() bool {
		s, _ := m.Stats()
		return s.ActiveCount == 0
	})

	stats, _ = m.Stats()
	if stats.IdleCount != 4 {
		t.Errorf("Expected 4 idle sources at rest, got %d", stats.IdleCount)
	}
}

func TestManager_LoopingSourceNeverAutoReturns(t *testing.T) {
	m, output := newTestManager(t, 2)
	clip := testClip(t, "drone", 441)

	s, err := m.PlaySound(Request{Clips: []*Clip{clip}, Volume: 1, Loop: true}, Position{})
	if err != nil {
		t.Fatalf("PlaySound failed: %v", err)
	}

	output.FinishAll()

	// Give any (wrongly scheduled) watcher plenty of ticks to fire.
	time.Sleep(50 * time.Millisecond)

	if s.State() != SourceActive {
		t.Fatalf("Looping source auto-returned to idle")
	}

	if err := m.Stop(s); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if s.State() != SourceIdle {
		t.Errorf("Expected idle after explicit stop, got %s", s.State())
	}
}

func TestManager_LoopingPlayReturnsPromptly(t *testing.T) {
	m, _ := newTestManager(t, 2)
	clip := testClip(t, "drone", 441)

	// A looping request carries an endless reader; starting it must not
	// block on the backend consuming that reader.
	done := make(chan error, 1)
	go func() {
		s, err := m.PlaySound(Request{Clips: []*Clip{clip}, Volume: 1, Loop: true}, Position{})
		if err == nil {
			err = m.Stop(s)
		}
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Looping PlaySound failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Looping PlaySound did not return")
	}

	go func() {
		done <- m.PlayMusic(Request{Clips: []*Clip{clip}, Volume: 1, Loop: true})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Looping PlayMusic failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Looping PlayMusic did not return")
	}
}

func TestManager_StopTwiceIsNoOp(t *testing.T) {
	m, _ := newTestManager(t, 2)
	clip := testClip(t, "blip", 441)

	s, _ := m.PlaySound(Request{Clips: []*Clip{clip}, Volume: 1, Loop: true}, Position{})
	if err := m.Stop(s); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := m.Stop(s); !errors.Is(err, ErrNotActive) {
		t.Errorf("Expected ErrNotActive on second stop, got %v", err)
	}

	stats, _ := m.Stats()
	if stats.IdleCount != 2 {
		t.Errorf("Double stop duplicated a source: %d idle", stats.IdleCount)
	}
}

func TestManager_ExplicitStopCancelsWatcher(t *testing.T) {
	m, output := newTestManager(t, 2)
	clip := testClip(t, "blip", 441)

	s, _ := m.PlaySound(Request{Clips: []*Clip{clip}, Volume: 1}, Position{})
	if err := m.Stop(s); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	// Finishing afterwards must not trigger a second release.
	output.FinishAll()
	time.Sleep(20 * time.Millisecond)

	stats, metrics := m.Stats()
	if stats.TotalReleased != 1 {
		t.Errorf("Expected exactly 1 release, got %d", stats.TotalReleased)
	}
	if metrics.Completions != 0 {
		t.Errorf("Expected no watcher completion after explicit stop, got %d", metrics.Completions)
	}
}

func TestManager_Music(t *testing.T) {
	m, output := newTestManager(t, 2)
	trackA := testClip(t, "theme-a", 4410)
	trackB := testClip(t, "theme-b", 4410)

	if err := m.PlayMusic(Request{Clips: []*Clip{trackA}, Volume: 1}); err != nil {
		t.Fatalf("PlayMusic failed: %v", err)
	}
	if !m.MusicPlaying() {
		t.Error("Expected music to be playing")
	}

	// Music must not touch the pool.
	stats, _ := m.Stats()
	if stats.ActiveCount != 0 || stats.IdleCount != 2 {
		t.Errorf("Music used the pool: %d active / %d idle", stats.ActiveCount, stats.IdleCount)
	}

	// Starting new music replaces the old immediately on the same source.
	if err := m.PlayMusic(Request{Clips: []*Clip{trackB}, Volume: 1}); err != nil {
		t.Fatalf("Second PlayMusic failed: %v", err)
	}
	if got := output.LivePlayers(); got != 1 {
		t.Errorf("Expected old music player to be replaced, %d live players", got)
	}

	if err := m.StopMusic(); err != nil {
		t.Fatalf("StopMusic failed: %v", err)
	}
	if m.MusicPlaying() {
		t.Error("Expected music stopped")
	}
	if err := m.StopMusic(); !errors.Is(err, ErrNoMusic) {
		t.Errorf("Expected ErrNoMusic on double stop, got %v", err)
	}
}

func TestManager_ButtonClick(t *testing.T) {
	m, _ := newTestManager(t, 2)

	if err := m.PlayButtonClick(); !errors.Is(err, ErrNoClickClip) {
		t.Errorf("Expected ErrNoClickClip before configuration, got %v", err)
	}

	click := testClip(t, "click", 128)
	if err := m.SetButtonClick(Request{Clips: []*Clip{click}, Volume: 1}); err != nil {
		t.Fatalf("SetButtonClick failed: %v", err)
	}
	if err := m.PlayButtonClick(); err != nil {
		t.Fatalf("PlayButtonClick failed: %v", err)
	}

	stats, metrics := m.Stats()
	if stats.ActiveCount != 1 {
		t.Errorf("Expected click to play through the pool, %d active", stats.ActiveCount)
	}
	if metrics.ButtonClicks != 1 {
		t.Errorf("Expected 1 click recorded, got %d", metrics.ButtonClicks)
	}
}

func TestManager_RandomClipSelection(t *testing.T) {
	m, output := newTestManager(t, 4)

	candidates := []*Clip{
		testClip(t, "a", 441),
		testClip(t, "b", 441),
		testClip(t, "c", 441),
	}

	seen := make(map[string]bool)
	for i := 0; i < 60; i++ {
		s, err := m.PlaySound(Request{Clips: candidates, Volume: 1}, Position{})
		if err != nil {
			t.Fatalf("PlaySound failed: %v", err)
		}
		seen[s.Clip().Name] = true
		output.FinishAll()
		waitFor(t, "recycle", func() bool { return s.State() == SourceIdle })
	}

	// 60 uniform draws over 3 candidates make missing one astronomically
	// unlikely.
	if len(seen) != 3 {
		t.Errorf("Expected all candidates to be picked eventually, saw %v", seen)
	}
}

func TestManager_StopAll(t *testing.T) {
	m, _ := newTestManager(t, 2)
	clip := testClip(t, "blip", 441)

	_, _ = m.PlaySound(Request{Clips: []*Clip{clip}, Volume: 1, Loop: true}, Position{})
	_, _ = m.PlaySound(Request{Clips: []*Clip{clip}, Volume: 1, Loop: true}, Position{})
	_ = m.PlayMusic(Request{Clips: []*Clip{clip}, Volume: 1})

	m.StopAll()

	stats, _ := m.Stats()
	if stats.ActiveCount != 0 {
		t.Errorf("Expected no active sources after StopAll, got %d", stats.ActiveCount)
	}
	if m.MusicPlaying() {
		t.Error("Expected music stopped after StopAll")
	}
}

func TestManager_ClosedRejectsPlay(t *testing.T) {
	m, _ := newTestManager(t, 2)
	clip := testClip(t, "blip", 441)

	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// Close is idempotent.
	if err := m.Close(); err != nil {
		t.Fatalf("Second close failed: %v", err)
	}

	if _, err := m.PlaySound(Request{Clips: []*Clip{clip}, Volume: 1}, Position{}); !errors.Is(err, ErrManagerClosed) {
		t.Errorf("Expected ErrManagerClosed, got %v", err)
	}
	if err := m.PlayMusic(Request{Clips: []*Clip{clip}, Volume: 1}); !errors.Is(err, ErrManagerClosed) {
		t.Errorf("Expected ErrManagerClosed from PlayMusic, got %v", err)
	}
}

func TestManager_MuteAndVolumes(t *testing.T) {
	m, output := newTestManager(t, 2)
	clip := testClip(t, "blip", 441)

	_, err := m.PlaySound(Request{Clips: []*Clip{clip}, Volume: 1, Loop: true}, Position{})
	if err != nil {
		t.Fatalf("PlaySound failed: %v", err)
	}

	players := make([]*MockPlayer, 0)
	output.mu.Lock()
	players = append(players, output.players...)
	output.mu.Unlock()
	if len(players) != 1 {
		t.Fatalf("Expected 1 live player, got %d", len(players))
	}

	m.Mute()
	if v := players[0].Volume(); v != 0 {
		t.Errorf("Expected volume 0 while muted, got %f", v)
	}

	m.Unmute()
	if v := players[0].Volume(); v != 1 {
		t.Errorf("Expected volume restored to 1, got %f", v)
	}

	m.SetMasterVolume(0.5)
	if v := players[0].Volume(); v != 0.5 {
		t.Errorf("Expected volume 0.5 after master change, got %f", v)
	}
}

func TestGet_ReturnsSameInstance(t *testing.T) {
	t.Setenv("SOUNDPOOL_MOCK_AUDIO", "true")
	registry.ResetGlobal()
	t.Cleanup(registry.ResetGlobal)

	first, err := Get()
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	second, err := Get()
	if err != nil {
		t.Fatalf("Second Get failed: %v", err)
	}
	if first != second {
		t.Error("Get returned different manager instances")
	}
}
