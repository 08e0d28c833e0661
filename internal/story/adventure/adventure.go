// Package adventure runs a story session turn by turn. The narrative of a turn is
// awaited; its image and narration load in the background and may arrive in
// any order, or never.
package adventure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"storyquest/internal/domain/story"
	"storyquest/internal/story/remote"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrTurnInProgress is returned for choices made while the next turn is loading
	ErrTurnInProgress = errors.New("a turn is already loading")
	ErrClosed         = errors.New("adventure closed")
	ErrNotStarted     = errors.New("adventure not started")
)

const (
	DefaultStoryTimeout = 60 * time.Second
	DefaultMediaTimeout = 90 * time.Second
)

// Remote is the subset of remote.Client a session needs
type Remote interface {
	RequestNarrativeTurn(ctx context.Context, req remote.TurnRequest) (*story.State, error)
	RequestSceneImage(ctx context.Context, prompt string) []byte
	RequestNarration(ctx context.Context, n story.Narration) string
}

// Player plays one narration at a time
type Player interface {
	Play(payload string) time.Duration
	Stop()
}

// Highlighter follows the narration word by word while it plays
type Highlighter interface {
	Start(text string, duration time.Duration)
	Stop()
}

type Options struct {
	StoryTimeout time.Duration
	MediaTimeout time.Duration
	AudioEnabled bool
	Highlighter  Highlighter
}

// Orchestrator owns all state of one story session
type Orchestrator struct {
	session     *story.Session
	remote      Remote
	player      Player
	highlighter Highlighter

	storyTimeout time.Duration
	mediaTimeout time.Duration

	base       context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup

	mu           sync.Mutex
	closed       bool
	version      uint64
	phase        Phase
	turn         int
	turnID       string
	turnCancel   context.CancelFunc
	history      []story.HistoryItem
	scene        *story.State
	lastErr      error
	image        []byte
	imageLoading bool
	audio        string
	audioLoading bool
	duration     time.Duration
	playing      bool
	audioEnabled bool
	playGen      uint64
	playTimer    *time.Timer
	observers    map[int]func(Snapshot)
	nextObserver int
}

// New validates the session and returns an idle orchestrator
func New(session *story.Session, r Remote, p Player, opts Options) (*Orchestrator, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	if r == nil || p == nil {
		return nil, errors.New("remote and player are required")
	}

	if opts.StoryTimeout <= 0 {
		opts.StoryTimeout = DefaultStoryTimeout
	}
	if opts.MediaTimeout <= 0 {
		opts.MediaTimeout = DefaultMediaTimeout
	}

	base, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		session:      session,
		remote:       r,
		player:       p,
		highlighter:  opts.Highlighter,
		storyTimeout: opts.StoryTimeout,
		mediaTimeout: opts.MediaTimeout,
		base:         base,
		baseCancel:   cancel,
		audioEnabled: opts.AudioEnabled,
		observers:    make(map[int]func(Snapshot)),
	}, nil
}

// Start begins the story from scratch with an empty history
func (o *Orchestrator) Start(ctx context.Context) error {
	return o.StartTurn(ctx, nil)
}

// StartTurn requests the turn that follows history and blocks until its
// narrative is ready or has failed. Image and narration keep loading after it returns.
func (o *Orchestrator) StartTurn(ctx context.Context, history []story.HistoryItem) error {
	o.mu.Lock()
	if err := o.checkLocked(false); err != nil {
		o.mu.Unlock()
		return err
	}
	t := o.beginTurnLocked(history)
	snap, obs := o.changedLocked()
	o.mu.Unlock()

	deliver(obs, snap)
	return o.runTurn(ctx, t)
}

// SubmitChoice continues the story with the child's choice. The retry choice
// restarts the session. Choices made while a turn loads are ignored.
func (o *Orchestrator) SubmitChoice(ctx context.Context, choice string) error {
	choice = strings.TrimSpace(choice)
	if choice == "" {
		return fmt.Errorf("%w: empty choice", story.ErrInputRejected)
	}

	o.mu.Lock()
	if err := o.checkLocked(true); err != nil {
		o.mu.Unlock()
		if errors.Is(err, ErrTurnInProgress) {
			logrus.WithField("choice", choice).Debug("Ignoring choice while turn is loading")
		}
		return err
	}

	var history []story.HistoryItem
	if !story.IsRetry(choice) {
		history = append(history, o.history...)
		history = append(history, story.HistoryItem{Role: story.RoleUser, Text: choice})
	}
	t := o.beginTurnLocked(history)
	snap, obs := o.changedLocked()
	o.mu.Unlock()

	deliver(obs, snap)
	return o.runTurn(ctx, t)
}

func (o *Orchestrator) checkLocked(needScene bool) error {
	switch {
	case o.closed:
		return ErrClosed
	case o.phase == PhaseTextLoading:
		return ErrTurnInProgress
	case needScene && o.scene == nil:
		return ErrNotStarted
	}
	return nil
}

type pendingTurn struct {
	id      string
	ctx     context.Context
	request remote.TurnRequest
}

func (o *Orchestrator) beginTurnLocked(history []story.HistoryItem) pendingTurn {
	o.cancelTurnLocked()
	o.stopPlaybackLocked()

	turnCtx, cancel := context.WithCancel(o.base)
	o.turn++
	o.turnID = uuid.NewString()
	o.turnCancel = cancel

	o.history = append([]story.HistoryItem(nil), history...)
	o.phase = PhaseTextLoading
	o.scene = nil
	o.lastErr = nil
	o.image = nil
	o.imageLoading = false
	o.audio = ""
	o.audioLoading = false
	o.duration = 0

	logrus.WithFields(logrus.Fields{
		"turn":    o.turn,
		"turn_id": o.turnID,
		"history": len(o.history),
	}).Info("Starting turn")

	return pendingTurn{
		id:      o.turnID,
		ctx:     turnCtx,
		request: remote.NewTurnRequest(o.session, append([]story.HistoryItem(nil), o.history...)),
	}
}

func (o *Orchestrator) runTurn(ctx context.Context, t pendingTurn) error {
	textCtx, cancel := context.WithTimeout(ctx, o.storyTimeout)
	stop := context.AfterFunc(t.ctx, cancel)
	state, err := o.remote.RequestNarrativeTurn(textCtx, t.request)
	stop()
	cancel()

	o.mu.Lock()
	if o.turnID != t.id {
		o.mu.Unlock()
		return ErrClosed
	}

	if err != nil {
		logrus.WithError(err).WithField("turn_id", t.id).Error("Story generation failed")
		o.phase = PhaseFallback
		o.scene = story.Fallback()
		o.lastErr = err
		snap, obs := o.changedLocked()
		o.mu.Unlock()
		deliver(obs, snap)
		return nil
	}

	o.history = append(o.history, story.HistoryItem{Role: story.RoleModel, Text: state.Narrative})
	o.scene = state
	o.phase = PhaseTextReady
	o.imageLoading = true
	o.audioLoading = true

	narration := story.Narration{
		Text:     state.Narrative,
		Voice:    o.session.Character.Voice,
		Language: o.session.LanguageOrDefault(),
	}
	o.wg.Add(2)
	go o.loadImage(t, state.ImagePrompt)
	go o.loadNarration(t, narration)

	snap, obs := o.changedLocked()
	o.mu.Unlock()
	deliver(obs, snap)
	return nil
}

func (o *Orchestrator) loadImage(t pendingTurn, prompt string) {
	defer o.wg.Done()

	ctx, cancel := context.WithTimeout(t.ctx, o.mediaTimeout)
	img := o.remote.RequestSceneImage(ctx, prompt)
	cancel()

	o.mu.Lock()
	if o.turnID != t.id {
		o.mu.Unlock()
		logrus.WithField("turn_id", t.id).Debug("Discarding stale image")
		return
	}
	o.image = img
	o.imageLoading = false
	snap, obs := o.changedLocked()
	o.mu.Unlock()

	deliver(obs, snap)
}

func (o *Orchestrator) loadNarration(t pendingTurn, n story.Narration) {
	defer o.wg.Done()

	ctx, cancel := context.WithTimeout(t.ctx, o.mediaTimeout)
	payload := o.remote.RequestNarration(ctx, n)
	cancel()

	o.mu.Lock()
	if o.turnID != t.id {
		o.mu.Unlock()
		logrus.WithField("turn_id", t.id).Debug("Discarding stale narration")
		return
	}
	o.audioLoading = false
	if payload != "" {
		o.audio = payload
		if o.audioEnabled {
			o.playLocked()
		}
	}
	snap, obs := o.changedLocked()
	o.mu.Unlock()

	deliver(obs, snap)
}

// ToggleAudio stops the narration if it is playing, otherwise replays it
// from the start. Without a narration it does nothing.
func (o *Orchestrator) ToggleAudio() {
	o.mu.Lock()
	switch {
	case o.closed:
		o.mu.Unlock()
		return
	case o.playing:
		o.stopPlaybackLocked()
	case o.audio != "":
		o.playLocked()
	default:
		o.mu.Unlock()
		return
	}
	snap, obs := o.changedLocked()
	o.mu.Unlock()

	deliver(obs, snap)
}

// SetAudioEnabled decides whether narration plays as soon as it arrives.
// Disabling it stops the current playback.
func (o *Orchestrator) SetAudioEnabled(enabled bool) {
	o.mu.Lock()
	o.audioEnabled = enabled
	if !enabled && o.playing {
		o.stopPlaybackLocked()
	}
	snap, obs := o.changedLocked()
	o.mu.Unlock()

	deliver(obs, snap)
}

func (o *Orchestrator) playLocked() {
	o.stopPlaybackLocked()

	d := o.player.Play(o.audio)
	if d <= 0 {
		logrus.WithField("turn_id", o.turnID).Warn("Narration could not be played")
		return
	}

	o.duration = d
	o.playing = true
	gen := o.playGen
	if o.highlighter != nil && o.scene != nil {
		o.highlighter.Start(o.scene.Narrative, d)
	}
	o.playTimer = time.AfterFunc(d, func() { o.playbackEnded(gen) })
}

func (o *Orchestrator) playbackEnded(gen uint64) {
	o.mu.Lock()
	if gen != o.playGen || !o.playing {
		o.mu.Unlock()
		return
	}
	o.playing = false
	o.playTimer = nil
	if o.highlighter != nil {
		o.highlighter.Stop()
	}
	snap, obs := o.changedLocked()
	o.mu.Unlock()

	deliver(obs, snap)
}

// stopPlaybackLocked also invalidates any pending end-of-playback timer
func (o *Orchestrator) stopPlaybackLocked() {
	o.playGen++
	if o.playTimer != nil {
		o.playTimer.Stop()
		o.playTimer = nil
	}
	o.player.Stop()
	if o.highlighter != nil {
		o.highlighter.Stop()
	}
	o.playing = false
}

func (o *Orchestrator) cancelTurnLocked() {
	if o.turnCancel != nil {
		o.turnCancel()
		o.turnCancel = nil
	}
}

// Close cancels everything in flight and waits for background work to finish
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.turnID = ""
	o.cancelTurnLocked()
	o.stopPlaybackLocked()
	o.baseCancel()
	o.mu.Unlock()

	o.wg.Wait()
}
