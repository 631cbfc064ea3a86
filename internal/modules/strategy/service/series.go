package service

// Series — параллельные буферы high/low/close/volume одного таймфрейма.
// Инвариант: все четыре среза всегда одной длины, добавление и вытеснение
// атомарны по всем четырём. Валидации на горячем пути нет намеренно —
// мусор отсекается на границе брокера.
type Series struct {
	maxBars int

	highs   []float64
	lows    []float64
	closes  []float64
	volumes []int64
}

func NewSeries(maxBars int) *Series {
	if maxBars <= 0 {
		maxBars = 200
	}
	return &Series{
		maxBars: maxBars,
		highs:   make([]float64, 0, maxBars),
		lows:    make([]float64, 0, maxBars),
		closes:  make([]float64, 0, maxBars),
		volumes: make([]int64, 0, maxBars),
	}
}

// Append добавляет свечу; при переполнении самый старый элемент
// вытесняется из всех срезов одновременно.
func (s *Series) Append(high, low, closep float64, volume int64) {
	s.highs = append(s.highs, high)
	s.lows = append(s.lows, low)
	s.closes = append(s.closes, closep)
	s.volumes = append(s.volumes, volume)

	if len(s.closes) > s.maxBars {
		s.highs = s.highs[1:]
		s.lows = s.lows[1:]
		s.closes = s.closes[1:]
		s.volumes = s.volumes[1:]
	}
}

func (s *Series) Len() int { return len(s.closes) }

// Highs и остальные геттеры отдают внутренний срез как read-only view,
// последний элемент — самая свежая свеча. Не модифицировать.
func (s *Series) Highs() []float64 { return s.highs }
func (s *Series) Lows() []float64 { return s.lows }
func (s *Series) Closes() []float64 { return s.closes }
func (s *Series) Volumes() []int64 { return s.volumes }

func (s *Series) LastClose() float64 {
	if len(s.closes) == 0 {
		return 0
	}
	return s.closes[len(s.closes)-1]
}
