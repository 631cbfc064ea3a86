package models

// EngineStatus — снимок состояния движка для дашборда. Только чтение,
// дашборд поллит, движок ничего не пушит.
type EngineStatus struct {
	WindowActive    bool           `json:"window_active"`
	WindowRemaining int            `json:"window_remaining"`
	BreakLevel      float64        `json:"break_level"`
	BreakDirection  string         `json:"break_direction"`
	BufferedBars    map[string]int `json:"buffered_bars"`
	LastSignalKind  string         `json:"last_signal_kind"`
}
