package models

import "time"

// SignalKind — итог одного цикла оценки.
type SignalKind string

const (
	SignalNone  SignalKind = "NO_SIGNAL"
	SignalLong  SignalKind = "LONG"
	SignalShort SignalKind = "SHORT"
	SignalExit  SignalKind = "EXIT"
)

// Direction — сторона пробоя уровня. Осмысленна только пока окно взведено.
type Direction int

const (
	DirNone Direction = iota
	DirLong
	DirShort
)

func (d Direction) String() string {
	switch d {
	case DirLong:
		return "LONG"
	case DirShort:
		return "SHORT"
	default:
		return "NONE"
	}
}

// Kind переводит направление пробоя в вид сигнала.
func (d Direction) Kind() SignalKind {
	switch d {
	case DirLong:
		return SignalLong
	case DirShort:
		return SignalShort
	default:
		return SignalNone
	}
}

// Signal — неизменяемый результат цикла. NO_SIGNAL тоже отдаётся наружу,
// фильтрация — забота потребителя.
type Signal struct {
	Symbol    string
	TF        string
	Kind      SignalKind
	Strength  float64 // 0.0 .. 1.0
	Price     float64
	Reasons   []string
	CreatedAt time.Time
}
