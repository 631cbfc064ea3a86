package service

import (
	"context"
	"log"
	"math"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"

	"momentum_bot/internal/models"
)

// candleFrame — кадр шлюза: строки [ts, o, h, l, c, vol, confirm].
type candleFrame struct {
	Arg struct {
		Channel string `json:"channel"`
		Symbol  string `json:"symbol"`
	} `json:"arg"`
	Data [][]string `json:"data"`
}

// StreamCandles — поток закрытых свечей одного таймфрейма. Переподключение
// с экспоненциальным бэкоффом, keepalive ping каждые 20s. Мусорные свечи
// (неположительные или нечисловые цены, отрицательный объём) отбрасываются
// здесь — до ядра они не доходят.
func (c *Client) StreamCandles(ctx context.Context, timeframe string) <-chan models.CandleTick {
	ch := make(chan models.CandleTick)

	go func() {
		defer close(ch)

		symbol := c.cfg.Strategy.Symbol
		channel := "candle" + timeframe
		tfDur := timeframeToDuration(timeframe)

		bo := backoff.NewExponentialBackOff()
		bo.MaxInterval = 30 * time.Second
		bo.MaxElapsedTime = 0 // переподключаемся пока жив ctx

		for {
			if ctx.Err() != nil {
				return
			}

			log.Printf("[WS] connect %s %s", channel, symbol)
			conn, _, err := c.wsDialer.DialContext(ctx, c.cfg.Broker.WSURL, nil)
			if err != nil {
				log.Printf("[WS] dial error %s: %v", channel, err)
				select {
				case <-ctx.Done():
					return
				case <-time.After(bo.NextBackOff()):
				}
				continue
			}
			bo.Reset()

			sub := map[string]any{
				"op": "subscribe",
				"args": []map[string]string{
					{"channel": channel, "symbol": symbol},
				},
			}
			if err := conn.WriteJSON(sub); err != nil {
				log.Printf("[WS] subscribe error %s: %v", channel, err)
				_ = conn.Close()
				continue
			}

			stopPing := make(chan struct{})
			go func() {
				t := time.NewTicker(20 * time.Second)
				defer t.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-stopPing:
						return
					case <-t.C:
						_ = conn.WriteJSON(map[string]string{"op": "ping"})
					}
				}
			}()

			for {
				_, msg, err := conn.ReadMessage()
				if err != nil {
					log.Printf("[WS] read error %s: %v", channel, err)
					_ = conn.Close()
					close(stopPing)
					break
				}

				var frame candleFrame
				if err := sonic.Unmarshal(msg, &frame); err != nil {
					continue
				}
				if frame.Arg.Channel != channel || len(frame.Data) == 0 {
					continue
				}

				for _, row := range frame.Data {
					tick, ok := parseCandleRow(row, frame.Arg.Symbol, timeframe, tfDur)
					if !ok {
						continue
					}
					tick.Seq = c.nextSeq()

					select {
					case ch <- tick:
					case <-ctx.Done():
						_ = conn.Close()
						return
					}
				}
			}
		}
	}()

	return ch
}

// parseCandleRow разбирает одну строку кадра и валидирует её — это граница,
// за которой ядро считает вход чистым.
func parseCandleRow(row []string, symbol, timeframe string, tfDur time.Duration) (models.CandleTick, bool) {
	if len(row) < 6 {
		return models.CandleTick{}, false
	}

	// закрытая ли свеча — флаг confirm в последнем элементе
	if row[len(row)-1] != "1" {
		return models.CandleTick{}, false
	}

	tsMs, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return models.CandleTick{}, false
	}
	start := time.UnixMilli(tsMs)
	end := start
	if tfDur > 0 {
		end = start.Add(tfDur)
	}

	open, err1 := strconv.ParseFloat(row[1], 64)
	high, err2 := strconv.ParseFloat(row[2], 64)
	low, err3 := strconv.ParseFloat(row[3], 64)
	closep, err4 := strconv.ParseFloat(row[4], 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return models.CandleTick{}, false
	}
	if !finite(open) || !finite(high) || !finite(low) || !finite(closep) {
		return models.CandleTick{}, false
	}
	if closep <= 0 || high <= 0 || low <= 0 {
		return models.CandleTick{}, false
	}

	var vol int64
	if len(row) >= 7 {
		vol, _ = strconv.ParseInt(row[5], 10, 64)
	}
	if vol < 0 {
		return models.CandleTick{}, false
	}

	return models.CandleTick{
		Symbol:       symbol,
		Open:         open,
		High:         high,
		Low:          low,
		Close:        closep,
		Volume:       vol,
		Start:        start,
		End:          end,
		TimeframeRaw: timeframe,
	}, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func timeframeToDuration(tf string) time.Duration {
	switch tf {
	case "1m":
		return time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "1h", "60m":
		return time.Hour
	default:
		return 0
	}
}
