package service

import (
	"sync/atomic"
	"time"
)

// State — процессные флаги для дашборда: готовность движка, связь с брокером
// и момент последней закрытой свечи. Пишет раннер, читает http-хендлер,
// всё атомарное — блокировок на пути чтения нет.
type State struct {
	startedAt time.Time

	ready          atomic.Bool
	wsConnected    atomic.Bool
	lastCandleUnix atomic.Int64 // unix-секунды закрытия последней свечи
}

func NewState() *State {
	return &State{startedAt: time.Now()}
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) SetWSConnected(v bool) { s.wsConnected.Store(v) }
func (s *State) WSConnected() bool     { return s.wsConnected.Load() }

// MarkCandle фиксирует закрытие очередной свечи; по этой отметке дашборд
// видит, что поток жив.
func (s *State) MarkCandle(closedAt time.Time) { s.lastCandleUnix.Store(closedAt.Unix()) }

// LastCandle — время закрытия последней свечи; нулевое время, если свечей
// ещё не было.
func (s *State) LastCandle() time.Time {
	u := s.lastCandleUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
