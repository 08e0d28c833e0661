package adventure

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"storyquest/internal/domain/story"
	"storyquest/internal/story/remote"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	mu       sync.Mutex
	requests []remote.TurnRequest

	tell    func(ctx context.Context, req remote.TurnRequest) (*story.State, error)
	image   func(ctx context.Context, prompt string) []byte
	narrate func(ctx context.Context, n story.Narration) string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		image:   func(context.Context, string) []byte { return []byte{0xff, 0xd8} },
		narrate: func(context.Context, story.Narration) string { return "AAAA" },
	}
}

func (f *fakeRemote) RequestNarrativeTurn(ctx context.Context, req remote.TurnRequest) (*story.State, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	n := len(f.requests)
	tell := f.tell
	f.mu.Unlock()

	if tell != nil {
		return tell(ctx, req)
	}
	return &story.State{
		Narrative:   fmt.Sprintf("We are on page %d", n),
		ImagePrompt: "a page",
		Choices:     []string{"Left", "Right", "Up"},
	}, nil
}

func (f *fakeRemote) RequestSceneImage(ctx context.Context, prompt string) []byte {
	return f.image(ctx, prompt)
}

func (f *fakeRemote) RequestNarration(ctx context.Context, n story.Narration) string {
	return f.narrate(ctx, n)
}

func (f *fakeRemote) lastRequest() remote.TurnRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

type fakePlayer struct {
	mu       sync.Mutex
	duration time.Duration
	playing  bool
	plays    int
	stops    int
	overlaps int
}

func (p *fakePlayer) Play(string) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		p.overlaps++
	}
	p.plays++
	p.playing = p.duration > 0
	return p.duration
}

func (p *fakePlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	p.stops++
}

func (p *fakePlayer) counts() (plays, overlaps int, playing bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.plays, p.overlaps, p.playing
}

type fakeHighlighter struct {
	mu     sync.Mutex
	starts []string
	active bool
}

func (h *fakeHighlighter) Start(text string, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.starts = append(h.starts, text)
	h.active = true
}

func (h *fakeHighlighter) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active = false
}

func (h *fakeHighlighter) isActive() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

func testSession() *story.Session {
	return &story.Session{
		Character: &story.Character{ID: "dragon", Name: "Friendly Dragon", Voice: "Puck"},
		Setting:   &story.Setting{ID: "castle", Name: "Royal Castle"},
		Language:  "Spanish",
		ChildName: "Mia",
	}
}

func newTestOrchestrator(t *testing.T, r Remote, p Player, opts Options) *Orchestrator {
	t.Helper()
	o, err := New(testSession(), r, p, opts)
	require.NoError(t, err)
	t.Cleanup(o.Close)
	return o
}

func waitForMedia(t *testing.T, o *Orchestrator) Snapshot {
	t.Helper()
	require.Eventually(t, func() bool {
		s := o.Snapshot()
		return !s.ImageLoading && !s.AudioLoading
	}, 2*time.Second, 5*time.Millisecond)
	return o.Snapshot()
}

func TestNewRequiresSelections(t *testing.T) {
	_, err := New(&story.Session{}, newFakeRemote(), &fakePlayer{}, Options{})
	assert.True(t, errors.Is(err, story.ErrMissingSelection))
}

func TestHistoryGrowsTwoEntriesPerTurn(t *testing.T) {
	r := newFakeRemote()
	o := newTestOrchestrator(t, r, &fakePlayer{}, Options{})
	ctx := context.Background()

	require.NoError(t, o.Start(ctx))
	assert.Empty(t, r.lastRequest().History)
	assert.Len(t, o.Snapshot().History, 1)

	for n := 1; n <= 4; n++ {
		require.NoError(t, o.SubmitChoice(ctx, "Left"))

		sent := r.lastRequest().History
		assert.Len(t, sent, 2*n)
		assert.Equal(t, story.HistoryItem{Role: story.RoleUser, Text: "Left"}, sent[len(sent)-1])

		snap := o.Snapshot()
		assert.Len(t, snap.History, 2*n+1)
		assert.Equal(t, story.RoleModel, snap.History[len(snap.History)-1].Role)
		assert.Equal(t, PhaseTextReady, snap.Phase)
	}

	req := r.lastRequest()
	assert.Equal(t, "Friendly Dragon", req.CharacterName)
	assert.Equal(t, "Spanish", req.Language)
	assert.Equal(t, "Mia", req.ChildName)
}

func TestNoOverlappingPlayback(t *testing.T) {
	p := &fakePlayer{duration: time.Hour}
	h := &fakeHighlighter{}
	o := newTestOrchestrator(t, newFakeRemote(), p, Options{AudioEnabled: true, Highlighter: h})
	ctx := context.Background()

	require.NoError(t, o.Start(ctx))
	snap := waitForMedia(t, o)
	assert.True(t, snap.Playing)
	assert.Equal(t, time.Hour, snap.AudioDuration)
	assert.True(t, h.isActive())

	for i := 0; i < 3; i++ {
		require.NoError(t, o.SubmitChoice(ctx, "Up"))
		waitForMedia(t, o)
		o.ToggleAudio()
		o.ToggleAudio()
	}

	plays, overlaps, playing := p.counts()
	assert.Zero(t, overlaps)
	assert.Equal(t, 7, plays)
	assert.True(t, playing)
}

func TestStartingTurnStopsPlayback(t *testing.T) {
	p := &fakePlayer{duration: time.Hour}
	h := &fakeHighlighter{}
	gate := make(chan struct{})
	r := newFakeRemote()
	o := newTestOrchestrator(t, r, p, Options{AudioEnabled: true, Highlighter: h})

	require.NoError(t, o.Start(context.Background()))
	waitForMedia(t, o)

	r.tell = func(ctx context.Context, _ remote.TurnRequest) (*story.State, error) {
		<-gate
		return &story.State{Narrative: "Next", Choices: []string{"a", "b", "c"}}, nil
	}
	done := make(chan error, 1)
	go func() { done <- o.SubmitChoice(context.Background(), "Right") }()

	require.Eventually(t, func() bool { return o.Snapshot().TextLoading() }, time.Second, time.Millisecond)
	snap := o.Snapshot()
	assert.False(t, snap.Playing)
	assert.Empty(t, snap.Audio)
	assert.Nil(t, snap.Image)
	assert.Zero(t, snap.AudioDuration)
	assert.False(t, h.isActive())
	_, _, playing := p.counts()
	assert.False(t, playing)

	close(gate)
	require.NoError(t, <-done)
}

func TestMediaFailureDoesNotBlockChoices(t *testing.T) {
	r := newFakeRemote()
	r.image = func(context.Context, string) []byte { return nil }
	r.narrate = func(context.Context, story.Narration) string { return "" }
	p := &fakePlayer{duration: time.Second}
	o := newTestOrchestrator(t, r, p, Options{AudioEnabled: true})
	ctx := context.Background()

	require.NoError(t, o.Start(ctx))
	snap := waitForMedia(t, o)
	assert.Equal(t, PhaseTextReady, snap.Phase)
	assert.Nil(t, snap.Image)
	assert.Empty(t, snap.Audio)
	assert.False(t, snap.Playing)
	assert.Len(t, snap.Choices(), 3)

	o.ToggleAudio()
	plays, _, _ := p.counts()
	assert.Zero(t, plays)

	require.NoError(t, o.SubmitChoice(ctx, snap.Choices()[0]))
	assert.Len(t, o.Snapshot().History, 3)
}

func TestMediaStillLoadingDoesNotBlockChoices(t *testing.T) {
	r := newFakeRemote()
	release := make(chan struct{})
	r.image = func(ctx context.Context, _ string) []byte {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}
	o := newTestOrchestrator(t, r, &fakePlayer{}, Options{})

	require.NoError(t, o.Start(context.Background()))
	assert.True(t, o.Snapshot().ImageLoading)
	require.NoError(t, o.SubmitChoice(context.Background(), "Left"))
	close(release)
}

func TestFallbackOffersRetryAndRestarts(t *testing.T) {
	r := newFakeRemote()
	o := newTestOrchestrator(t, r, &fakePlayer{}, Options{})
	ctx := context.Background()

	require.NoError(t, o.Start(ctx))
	require.NoError(t, o.SubmitChoice(ctx, "Left"))
	require.Len(t, o.Snapshot().History, 3)

	r.tell = func(context.Context, remote.TurnRequest) (*story.State, error) {
		return nil, fmt.Errorf("%w: boom", story.ErrGenerationFailed)
	}
	require.NoError(t, o.SubmitChoice(ctx, "Right"))

	snap := o.Snapshot()
	assert.Equal(t, PhaseFallback, snap.Phase)
	assert.Equal(t, []string{story.RetryChoice}, snap.Choices())
	assert.Equal(t, story.FallbackNarrative, snap.Scene.Narrative)
	assert.True(t, errors.Is(snap.Err, story.ErrGenerationFailed))
	assert.False(t, snap.ImageLoading)
	assert.False(t, snap.AudioLoading)

	r.tell = nil
	require.NoError(t, o.SubmitChoice(ctx, story.RetryChoice))
	assert.Empty(t, r.lastRequest().History)

	snap = o.Snapshot()
	assert.Equal(t, PhaseTextReady, snap.Phase)
	assert.Len(t, snap.History, 1)
	assert.Nil(t, snap.Err)
}

func TestChoiceWhileLoadingIsIgnored(t *testing.T) {
	r := newFakeRemote()
	o := newTestOrchestrator(t, r, &fakePlayer{}, Options{})
	require.NoError(t, o.Start(context.Background()))

	gate := make(chan struct{})
	r.tell = func(context.Context, remote.TurnRequest) (*story.State, error) {
		<-gate
		return &story.State{Narrative: "Next", Choices: []string{"a", "b", "c"}}, nil
	}

	done := make(chan error, 1)
	go func() { done <- o.SubmitChoice(context.Background(), "Left") }()
	require.Eventually(t, func() bool { return o.Snapshot().TextLoading() }, time.Second, time.Millisecond)

	before := o.Snapshot()
	err := o.SubmitChoice(context.Background(), "Right")
	assert.ErrorIs(t, err, ErrTurnInProgress)
	assert.ErrorIs(t, o.StartTurn(context.Background(), nil), ErrTurnInProgress)
	assert.Equal(t, before.History, o.Snapshot().History)
	assert.Equal(t, before.TurnID, o.Snapshot().TurnID)

	close(gate)
	require.NoError(t, <-done)

	r.mu.Lock()
	assert.Len(t, r.requests, 2)
	r.mu.Unlock()
	hist := o.Snapshot().History
	assert.Equal(t, "Left", hist[1].Text)
}

func TestStaleMediaIsDiscarded(t *testing.T) {
	r := newFakeRemote()
	imageStarted := make(chan struct{}, 4)
	releaseImage := make(chan struct{})
	r.image = func(ctx context.Context, prompt string) []byte {
		imageStarted <- struct{}{}
		<-releaseImage
		return []byte(prompt)
	}
	narrationStarted := make(chan context.Context, 4)
	r.narrate = func(ctx context.Context, _ story.Narration) string {
		narrationStarted <- ctx
		<-ctx.Done()
		return "late"
	}

	p := &fakePlayer{duration: time.Hour}
	o := newTestOrchestrator(t, r, p, Options{AudioEnabled: true})
	ctx := context.Background()

	require.NoError(t, o.Start(ctx))
	<-imageStarted
	firstNarration := <-narrationStarted
	firstTurn := o.Snapshot().TurnID

	r.image = func(context.Context, string) []byte { return []byte("fresh") }
	r.narrate = func(context.Context, story.Narration) string { return "" }
	require.NoError(t, o.SubmitChoice(ctx, "Left"))

	assert.ErrorIs(t, firstNarration.Err(), context.Canceled)
	close(releaseImage)

	snap := waitForMedia(t, o)
	assert.NotEqual(t, firstTurn, snap.TurnID)
	assert.Equal(t, []byte("fresh"), snap.Image)

	time.Sleep(20 * time.Millisecond)
	snap = o.Snapshot()
	assert.Equal(t, []byte("fresh"), snap.Image)
	assert.Empty(t, snap.Audio)
	plays, _, _ := p.counts()
	assert.Zero(t, plays)
}

func TestToggleAudio(t *testing.T) {
	p := &fakePlayer{duration: time.Hour}
	o := newTestOrchestrator(t, newFakeRemote(), p, Options{AudioEnabled: false})

	o.ToggleAudio()
	plays, _, _ := p.counts()
	assert.Zero(t, plays, "nothing to play before a turn")

	require.NoError(t, o.Start(context.Background()))
	snap := waitForMedia(t, o)
	assert.Equal(t, "AAAA", snap.Audio)
	assert.False(t, snap.Playing, "audio disabled means no auto play")

	o.ToggleAudio()
	assert.True(t, o.Snapshot().Playing)

	o.ToggleAudio()
	assert.False(t, o.Snapshot().Playing)

	o.SetAudioEnabled(true)
	o.ToggleAudio()
	assert.True(t, o.Snapshot().Playing)
	o.SetAudioEnabled(false)
	assert.False(t, o.Snapshot().Playing)
}

func TestPlaybackEndsAfterDuration(t *testing.T) {
	p := &fakePlayer{duration: 100 * time.Millisecond}
	h := &fakeHighlighter{}
	o := newTestOrchestrator(t, newFakeRemote(), p, Options{AudioEnabled: true, Highlighter: h})

	require.NoError(t, o.Start(context.Background()))
	require.Eventually(t, func() bool { return o.Snapshot().Playing }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return !o.Snapshot().Playing }, time.Second, time.Millisecond)
	assert.False(t, h.isActive())
	assert.Equal(t, "AAAA", o.Snapshot().Audio, "payload stays for replay")
}

func TestUndecodableNarrationDoesNotPlay(t *testing.T) {
	p := &fakePlayer{duration: 0}
	o := newTestOrchestrator(t, newFakeRemote(), p, Options{AudioEnabled: true})

	require.NoError(t, o.Start(context.Background()))
	snap := waitForMedia(t, o)
	assert.False(t, snap.Playing)
	assert.Equal(t, PhaseTextReady, snap.Phase)
}

func TestSubscribeAndClose(t *testing.T) {
	o, err := New(testSession(), newFakeRemote(), &fakePlayer{}, Options{})
	require.NoError(t, err)

	var mu sync.Mutex
	var phases []Phase
	unsubscribe := o.Subscribe(func(s Snapshot) {
		mu.Lock()
		phases = append(phases, s.Phase)
		mu.Unlock()
	})

	require.NoError(t, o.Start(context.Background()))
	waitForMedia(t, o)
	unsubscribe()

	mu.Lock()
	assert.Equal(t, PhaseTextLoading, phases[0])
	assert.Contains(t, phases, PhaseTextReady)
	mu.Unlock()

	assert.ErrorIs(t, o.SubmitChoice(context.Background(), " "), story.ErrInputRejected)

	o.Close()
	assert.ErrorIs(t, o.SubmitChoice(context.Background(), "Left"), ErrClosed)
	o.Close()
}

func TestChoiceBeforeStart(t *testing.T) {
	o := newTestOrchestrator(t, newFakeRemote(), &fakePlayer{}, Options{})
	assert.ErrorIs(t, o.SubmitChoice(context.Background(), "Left"), ErrNotStarted)
}

func TestStoryTimeout(t *testing.T) {
	r := newFakeRemote()
	r.tell = func(ctx context.Context, _ remote.TurnRequest) (*story.State, error) {
		<-ctx.Done()
		return nil, fmt.Errorf("%w: %v", story.ErrGenerationFailed, ctx.Err())
	}
	o := newTestOrchestrator(t, r, &fakePlayer{}, Options{StoryTimeout: 20 * time.Millisecond})

	require.NoError(t, o.Start(context.Background()))
	assert.Equal(t, PhaseFallback, o.Snapshot().Phase)
}
