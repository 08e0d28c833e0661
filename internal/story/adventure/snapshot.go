package adventure

import (
	"time"

	"storyquest/internal/domain/story"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseTextLoading
	PhaseTextReady
	PhaseFallback
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseTextLoading:
		return "text-loading"
	case PhaseTextReady:
		return "text-ready"
	case PhaseFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of the session state at one point in time. Version grows
// with every change so observers can drop snapshots that arrive late.
type Snapshot struct {
	Version       uint64
	Phase         Phase
	Turn          int
	TurnID        string
	History       []story.HistoryItem
	Scene         *story.State
	Err           error
	Image         []byte
	ImageLoading  bool
	Audio         string
	AudioLoading  bool
	AudioDuration time.Duration
	Playing       bool
	AudioEnabled  bool
}

// TextLoading reports whether the narrative of the current turn is pending
func (s Snapshot) TextLoading() bool {
	return s.Phase == PhaseTextLoading
}

// Choices are the options the child can pick from right now
func (s Snapshot) Choices() []string {
	if s.Scene == nil || s.TextLoading() {
		return nil
	}
	return s.Scene.Choices
}

// Snapshot returns the current state
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	var scene *story.State
	if o.scene != nil {
		sc := *o.scene
		sc.Choices = append([]string(nil), o.scene.Choices...)
		scene = &sc
	}

	return Snapshot{
		Version:       o.version,
		Phase:         o.phase,
		Turn:          o.turn,
		TurnID:        o.turnID,
		History:       append([]story.HistoryItem(nil), o.history...),
		Scene:         scene,
		Err:           o.lastErr,
		Image:         o.image,
		ImageLoading:  o.imageLoading,
		Audio:         o.audio,
		AudioLoading:  o.audioLoading,
		AudioDuration: o.duration,
		Playing:       o.playing,
		AudioEnabled:  o.audioEnabled,
	}
}

// Subscribe registers fn for every state change and returns a function that
// removes it. fn is called without the orchestrator lock held, possibly from
// several goroutines.
func (o *Orchestrator) Subscribe(fn func(Snapshot)) func() {
	o.mu.Lock()
	id := o.nextObserver
	o.nextObserver++
	o.observers[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.observers, id)
		o.mu.Unlock()
	}
}

func (o *Orchestrator) changedLocked() (Snapshot, []func(Snapshot)) {
	o.version++
	obs := make([]func(Snapshot), 0, len(o.observers))
	for _, fn := range o.observers {
		obs = append(obs, fn)
	}
	return o.snapshotLocked(), obs
}

func deliver(obs []func(Snapshot), snap Snapshot) {
	for _, fn := range obs {
		fn(snap)
	}
}
