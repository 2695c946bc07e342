package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/sirupsen/logrus"
)

// EventStream consumes reply events the chat platform pushes over the bot
// websocket gateway. It reconnects with a fixed delay until stopped.
type EventStream struct {
	eventsURL      string
	botToken       string
	handler        ReplyHandler
	reconnectDelay time.Duration
	logger         *logrus.Logger
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	running        bool
	mu             sync.Mutex
}

func NewEventStream(eventsURL, botToken string, handler ReplyHandler, reconnectDelay time.Duration, logger *logrus.Logger) *EventStream {
	if reconnectDelay <= 0 {
		reconnectDelay = 5 * time.Second
	}
	return &EventStream{
		eventsURL:      eventsURL,
		botToken:       botToken,
		handler:        handler,
		reconnectDelay: reconnectDelay,
		logger:         logger,
	}
}

// Start begins consuming events in the background
func (es *EventStream) Start(ctx context.Context) error {
	es.mu.Lock()
	defer es.mu.Unlock()

	if es.running {
		return fmt.Errorf("event stream is already running")
	}

	es.ctx, es.cancel = context.WithCancel(ctx)
	es.running = true

	es.wg.Add(1)
	go es.readLoop()

	es.logger.WithField("url", es.eventsURL).Info("Chat event stream started")
	return nil
}

// Stop gracefully stops the stream
func (es *EventStream) Stop() {
	es.mu.Lock()
	defer es.mu.Unlock()

	if !es.running {
		return
	}

	es.cancel()
	es.wg.Wait()
	es.running = false
	es.logger.Info("Chat event stream stopped")
}

func (es *EventStream) readLoop() {
	defer es.wg.Done()

	for {
		if es.ctx.Err() != nil {
			return
		}

		if err := es.consumeConnection(); err != nil && !errors.Is(err, context.Canceled) {
			es.logger.WithError(err).Warn("Chat event stream disconnected, reconnecting")
		}

		select {
		case <-es.ctx.Done():
			return
		case <-time.After(es.reconnectDelay):
		}
	}
}

// consumeConnection dials the gateway and reads events until the connection
// drops or the stream is stopped.
func (es *EventStream) consumeConnection() error {
	dialCtx, cancel := context.WithTimeout(es.ctx, 30*time.Second)
	conn, _, err := websocket.Dial(dialCtx, es.eventsURL+"?token="+es.botToken, nil)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to dial event gateway: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "shutting down")

	es.logger.Debug("Connected to chat event gateway")

	for {
		var event ReplyEvent
		if err := wsjson.Read(es.ctx, conn, &event); err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		// Only messages answering a previously forwarded message are relayed
		if event.ReplyToMessageID == 0 {
			continue
		}

		if err := es.handler(es.ctx, event); err != nil {
			es.logger.WithError(err).WithFields(logrus.Fields{
				"messageId":        event.MessageID,
				"replyToMessageId": event.ReplyToMessageID,
			}).Warn("Reply handler failed")
		}
	}
}
