package service

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"momentum_bot/internal/modules/config"
)

// Client — шлюз к брокеру: WebSocket-поток закрытых свечей плюс REST для
// истории, позиции и ордеров. Ядро стратегии с ним не разговаривает —
// всё, что оттуда приходит, раннер передаёт уже разрешёнными значениями.
type Client struct {
	cfg *config.Config

	http     *http.Client
	wsDialer *websocket.Dialer
	limiter  *rate.Limiter

	apiKey    string
	apiSecret string

	// монотонные номера свечей по потокам
	seq atomic.Int64
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg:       cfg,
		http:      &http.Client{Timeout: 10 * time.Second},
		wsDialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		limiter:   rate.NewLimiter(rate.Limit(cfg.Broker.RateLimit), cfg.Broker.Burst),
		apiKey:    cfg.Broker.APIKey,
		apiSecret: cfg.Broker.APISecret,
	}
}

func (c *Client) nextSeq() int64 { return c.seq.Add(1) }
