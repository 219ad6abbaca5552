package services

import (
	"context"
	"log"
	"sync"
	"time"
)

type Phase int

const (
	PhaseInitializing Phase = iota
	PhaseLobby
	PhaseCountdown
	PhaseIntro
	PhaseStart
	PhaseEnd
	PhaseReveal
	PhaseOutro
	PhaseStats
)

var phaseNames = [...]string{
	PhaseInitializing: "initializing",
	PhaseLobby:        "lobby",
	PhaseCountdown:    "countdown",
	PhaseIntro:        "intro",
	PhaseStart:        "start",
	PhaseEnd:          "end",
	PhaseReveal:       "reveal",
	PhaseOutro:        "outro",
	PhaseStats:        "stats",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Timer names. Scheduling under a pending name replaces that timer.
const (
	timerCountdown = "countdown"
	timerIntro     = "intro"
	timerRound     = "round"
	timerEnd       = "end"
	timerReveal    = "reveal"
	timerOutro     = "outro"
	timerRemaining = "remaining"
)

// ScoreBoard is the roster side of scoring, implemented by Room.
type ScoreBoard interface {
	ApplyRoundScores(results []ScoreResult)
	Standings() []Standing
}

// SchedulerState is a read-only view of the scheduler.
type SchedulerState struct {
	Phase       Phase
	Round       int
	EndsAt      time.Time
	AnswerCount int
}

type phaseTimer struct {
	name  string
	timer Timer
}

// Scheduler runs the phase state machine of one room. All state changes,
// including timer callbacks, happen under mu.
type Scheduler struct {
	config   RoomConfig
	board    ScoreBoard
	content  ContentSupplier
	observer Observer
	clock    Clock

	mu          sync.Mutex
	phase       Phase
	roundNumber int
	round       *Round
	phaseEndsAt time.Time
	timers      map[string]*phaseTimer
	last        TransitionPayload
	stopped     bool
}

func NewScheduler(config RoomConfig, board ScoreBoard, content ContentSupplier, observer Observer, clock Clock) *Scheduler {
	if clock == nil {
		clock = SystemClock()
	}
	if observer == nil {
		observer = Observers{}
	}
	return &Scheduler{
		config:   config,
		board:    board,
		content:  content,
		observer: observer,
		clock:    clock,
		phase:    PhaseInitializing,
		timers:   make(map[string]*phaseTimer),
		last:     TransitionPayload{Phase: PhaseInitializing, PhaseName: PhaseInitializing.String()},
	}
}

// Start moves a fresh scheduler into the lobby.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.phase != PhaseInitializing {
		return
	}
	s.transition(PhaseLobby, time.Time{})
}

// StartGame resets the round counter and begins the countdown. It is only
// accepted from the lobby or after a finished game.
func (s *Scheduler) StartGame() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrRoomClosed
	}
	if s.phase != PhaseLobby && s.phase != PhaseStats {
		return ErrGameInProgress
	}
	s.startGame()
	return nil
}

// SetRoundDuration changes the answer window for rounds created afterwards.
func (s *Scheduler) SetRoundDuration(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	s.config.RoundDuration = d
	s.mu.Unlock()
}

func (s *Scheduler) startGame() {
	s.roundNumber = 0
	s.round = nil
	s.transition(PhaseCountdown, s.clock.Now().Add(s.config.CountdownDuration))
	s.schedule(timerCountdown, s.config.CountdownDuration, s.startNextRound)
}

func (s *Scheduler) startNextRound() {
	s.roundNumber++
	round := NewRound(s.config.RoundDuration, s.clock)

	content, err := s.fetchContent()
	if err != nil {
		log.Printf("Failed to load content for round %d: %v", s.roundNumber, err)
		s.round = nil
		s.observer.Notify(ClientCancel, CancelPayload{Reason: CancelReasonContentUnavailable})
		s.transition(PhaseLobby, time.Time{})
		return
	}
	round.Content = *content
	s.round = round

	s.transition(PhaseIntro, s.clock.Now().Add(s.config.IntroDuration))
	s.schedule(timerIntro, s.config.IntroDuration, s.openRound)
}

// fetchContent is the only call that may block the room on I/O, bounded by
// ContentTimeout.
func (s *Scheduler) fetchContent() (*RoundContent, error) {
	if s.content == nil {
		return &RoundContent{}, nil
	}
	ctx := context.Background()
	if s.config.ContentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ContentTimeout)
		defer cancel()
	}
	return s.content.NextContent(ctx)
}

func (s *Scheduler) openRound() {
	s.round.Open()
	s.transition(PhaseStart, s.round.Deadline)
	s.observer.Notify(ClientRoundStart, RoundStartPayload{
		RoundID:  s.round.ID,
		Round:    s.roundNumber,
		Duration: s.round.Duration().Milliseconds(),
		EndsAt:   unixMillis(s.round.Deadline),
		Data:     s.round.Content,
	})
	s.schedule(timerRound, s.round.Duration(), s.endCurrentRound)
}

func (s *Scheduler) endCurrentRound() {
	if s.round == nil || s.round.Closed() {
		return
	}
	s.cancel(timerRound)
	s.round.End()

	s.transition(PhaseEnd, s.clock.Now().Add(s.config.IntroDuration))
	s.observer.Notify(ClientRoundEnd, RoundEndPayload{RoundID: s.round.ID, Round: s.roundNumber})
	s.schedule(timerEnd, s.config.IntroDuration, s.revealRoundStats)
}

func (s *Scheduler) revealRoundStats() {
	results := s.round.CalculateScores()
	if s.board != nil {
		s.board.ApplyRoundScores(results)
	}

	s.transition(PhaseReveal, s.clock.Now().Add(s.config.RevealDuration))
	s.observer.Notify(ClientRoundStats, RoundStatsPayload{
		RoundID: s.round.ID,
		Round:   s.roundNumber,
		Results: results,
	})
	s.schedule(timerReveal, s.config.RevealDuration, s.enterOutro)
}

func (s *Scheduler) enterOutro() {
	s.round = nil
	s.transition(PhaseOutro, s.clock.Now().Add(s.config.OutroDuration))
	s.schedule(timerOutro, s.config.OutroDuration, s.finishRound)
}

func (s *Scheduler) finishRound() {
	if s.roundNumber < s.config.MaxRounds {
		s.startNextRound()
		return
	}

	s.transition(PhaseStats, time.Time{})
	var standings []Standing
	if s.board != nil {
		standings = s.board.Standings()
	}
	if standings == nil {
		standings = []Standing{}
	}
	s.observer.Notify(ClientGameOver, GameOverPayload{Scores: standings})
}

// OnPlayerJoined auto-starts a waiting lobby once enough players are present.
func (s *Scheduler) OnPlayerJoined(playerCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if s.phase == PhaseLobby && s.config.AutoStart && playerCount >= s.config.MinPlayers {
		s.startGame()
	}
}

// OnPlayerLeft cancels a countdown that no longer has enough players. During
// an open round the smaller roster may complete the round early.
func (s *Scheduler) OnPlayerLeft(playerCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	switch s.phase {
	case PhaseCountdown:
		if playerCount < s.config.MinPlayers {
			s.cancel(timerCountdown)
			s.transition(PhaseLobby, time.Time{})
			s.observer.Notify(ClientCancel, CancelPayload{Reason: CancelReasonNotEnoughPlayers})
		}
	case PhaseStart:
		s.checkEarlyEnd(playerCount)
	}
}

// SubmitAnswer records a pick while the answer window is open, reports the
// new answer count and ends the round once everyone has answered.
func (s *Scheduler) SubmitAnswer(playerID string, pick bool, totalPlayers int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.phase != PhaseStart || s.round == nil {
		return false
	}
	if !s.round.SubmitAnswer(playerID, pick) {
		return false
	}

	s.observer.Notify(ClientSubmitState, SubmitStatePayload{
		PlayerID:     playerID,
		Round:        s.roundNumber,
		AnswerCount:  s.round.AnswerCount(),
		TotalPlayers: totalPlayers,
	})
	s.checkEarlyEnd(totalPlayers)
	return true
}

// CheckEarlyEnd ends the open round immediately when the answer count has
// reached totalPlayers. It reports whether the round was ended.
func (s *Scheduler) CheckEarlyEnd(totalPlayers int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	return s.checkEarlyEnd(totalPlayers)
}

func (s *Scheduler) checkEarlyEnd(totalPlayers int) bool {
	if s.phase != PhaseStart || s.round == nil || s.round.Closed() {
		return false
	}
	if totalPlayers <= 0 || s.round.AnswerCount() < totalPlayers {
		return false
	}
	s.endCurrentRound()
	return true
}

// Stop cancels every pending timer. Callbacks already queued become no-ops.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for name := range s.timers {
		s.cancel(name)
	}
}

func (s *Scheduler) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Scheduler) RoundNumber() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roundNumber
}

func (s *Scheduler) State() SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := SchedulerState{
		Phase:  s.phase,
		Round:  s.roundNumber,
		EndsAt: s.phaseEndsAt,
	}
	if s.round != nil {
		state.AnswerCount = s.round.AnswerCount()
	}
	return state
}

// LastTransition returns the most recent transition with a refreshed
// time-left value, so a reconnecting client can resynchronize from it alone.
func (s *Scheduler) LastTransition() TransitionPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	last := s.last
	if !s.phaseEndsAt.IsZero() {
		last.TimeLeft = secondsLeft(s.phaseEndsAt.Sub(s.clock.Now()))
	}
	return last
}

func (s *Scheduler) transition(phase Phase, endsAt time.Time) {
	s.phase = phase
	s.phaseEndsAt = endsAt

	payload := TransitionPayload{
		Phase:     phase,
		PhaseName: phase.String(),
		Round:     s.roundNumber,
		EndsAt:    unixMillis(endsAt),
	}
	if !endsAt.IsZero() {
		payload.TimeLeft = secondsLeft(endsAt.Sub(s.clock.Now()))
	}
	s.last = payload
	s.observer.Notify(ClientTransition, payload)

	if endsAt.IsZero() || s.config.RemainingTimeInterval <= 0 {
		s.cancel(timerRemaining)
		return
	}
	s.schedule(timerRemaining, s.config.RemainingTimeInterval, s.tickRemaining)
}

func (s *Scheduler) tickRemaining() {
	remaining := s.phaseEndsAt.Sub(s.clock.Now())
	if s.phaseEndsAt.IsZero() || remaining <= 0 {
		return
	}
	s.observer.Notify(ClientRemainingTime, RemainingTimePayload{
		TimeLeft: secondsLeft(remaining),
		Phase:    s.phase,
		Round:    s.roundNumber,
	})
	s.schedule(timerRemaining, s.config.RemainingTimeInterval, s.tickRemaining)
}

func (s *Scheduler) schedule(name string, delay time.Duration, callback func()) {
	s.cancel(name)
	t := &phaseTimer{name: name}
	t.timer = s.clock.AfterFunc(delay, func() { s.fire(t, callback) })
	s.timers[name] = t
}

// fire runs a timer callback unless the timer was cancelled or replaced after
// it started firing.
func (s *Scheduler) fire(t *phaseTimer, callback func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.timers[t.name] != t {
		return
	}
	delete(s.timers, t.name)
	callback()
}

func (s *Scheduler) cancel(name string) {
	if t, ok := s.timers[name]; ok {
		t.timer.Stop()
		delete(s.timers, name)
	}
}
