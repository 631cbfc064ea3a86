package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"momentum_bot/internal/models"
)

// GetCandles — REST-история закрытых свечей, используется для прогрева
// буферов до включения WebSocket-потока. Ответ в том же строковом формате,
// что и кадры стрима.
func (c *Client) GetCandles(ctx context.Context, timeframe string, limit int) ([]models.CandleTick, error) {
	var resp struct {
		Data [][]string `json:"data"`
	}

	url := fmt.Sprintf("%s/v1/candles?symbol=%s&tf=%s&limit=%d",
		c.cfg.Broker.RESTURL, c.cfg.Strategy.Symbol, timeframe, limit)
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, errors.Wrapf(err, "get candles %s", timeframe)
	}

	tfDur := timeframeToDuration(timeframe)
	out := make([]models.CandleTick, 0, len(resp.Data))
	for _, row := range resp.Data {
		tick, ok := parseCandleRow(row, c.cfg.Strategy.Symbol, timeframe, tfDur)
		if !ok {
			continue
		}
		tick.Seq = c.nextSeq()
		out = append(out, tick)
	}
	return out, nil
}

// CurrentPosition — подписанная позиция в контрактах: >0 лонг, <0 шорт.
func (c *Client) CurrentPosition(ctx context.Context) (int, error) {
	var resp struct {
		Position string `json:"position"`
	}

	url := fmt.Sprintf("%s/v1/position?symbol=%s", c.cfg.Broker.RESTURL, c.cfg.Strategy.Symbol)
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return 0, errors.Wrap(err, "get position")
	}

	pos, err := strconv.Atoi(resp.Position)
	if err != nil {
		return 0, errors.Wrap(err, "parse position")
	}
	return pos, nil
}

// CurrentPrice — последняя цена инструмента.
func (c *Client) CurrentPrice(ctx context.Context) (float64, error) {
	var resp struct {
		Last string `json:"last"`
	}

	url := fmt.Sprintf("%s/v1/ticker?symbol=%s", c.cfg.Broker.RESTURL, c.cfg.Strategy.Symbol)
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return 0, errors.Wrap(err, "get ticker")
	}

	px, err := strconv.ParseFloat(resp.Last, 64)
	if err != nil {
		return 0, errors.Wrap(err, "parse last price")
	}
	return px, nil
}

// PlaceMarketOrder — рыночный ордер. side: "BUY" / "SELL".
func (c *Client) PlaceMarketOrder(ctx context.Context, side string, size int) error {
	body := map[string]any{
		"symbol":  c.cfg.Strategy.Symbol,
		"side":    side,
		"type":    "market",
		"size":    size,
		"clOrdId": fmt.Sprintf("mb-%d", time.Now().UnixNano()),
	}
	return c.postJSON(ctx, c.cfg.Broker.RESTURL+"/v1/order", body)
}

// ClosePosition — закрыть текущую позицию целиком (EXIT-сигнал).
func (c *Client) ClosePosition(ctx context.Context) error {
	body := map[string]any{
		"symbol": c.cfg.Strategy.Symbol,
	}
	return c.postJSON(ctx, c.cfg.Broker.RESTURL+"/v1/position/close", body)
}

func (c *Client) getJSON(ctx context.Context, url string, dst any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	c.sign(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	bs, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("broker http %d: %s", resp.StatusCode, string(bs))
	}
	return sonic.Unmarshal(bs, dst)
}

func (c *Client) postJSON(ctx context.Context, url string, body any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	payload, err := sonic.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "marshal body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.sign(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		bs, _ := io.ReadAll(resp.Body)
		return errors.Errorf("broker http %d: %s", resp.StatusCode, string(bs))
	}
	return nil
}

func (c *Client) sign(req *http.Request) {
	if c.apiKey == "" {
		return
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("X-API-SECRET", c.apiSecret)
}
