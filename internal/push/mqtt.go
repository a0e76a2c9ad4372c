package push

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/Tom21-xd/Uceva-sub002/internal/config"
)

// MQTTSource push ingress: subscribes to a broker topic and dispatches every
// payload.
type MQTTSource struct {
	client     mqtt.Client
	topic      string
	qos        byte
	dispatcher *Dispatcher
	logger     *zap.Logger
	ctx        context.Context
}

// NewMQTTSource builds the paho client; Start connects it.
func NewMQTTSource(cfg *config.MQTTConfig, dispatcher *Dispatcher, logger *zap.Logger) *MQTTSource {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(10 * time.Second)

	s := &MQTTSource{
		topic:      cfg.Topic,
		qos:        cfg.QoS,
		dispatcher: dispatcher,
		logger:     logger,
		ctx:        context.Background(),
	}
	// resubscribe after every (re)connect since the session is clean
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		if err := s.subscribe(c); err != nil {
			s.logger.Error("MQTT subscribe failed", zap.String("topic", s.topic), zap.Error(err))
		}
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.logger.Warn("MQTT connection lost", zap.Error(err))
	})
	s.client = mqtt.NewClient(opts)
	return s
}

// Start connects; the subscription is renewed on every reconnect until Stop.
// ctx is handed to the handlers.
func (s *MQTTSource) Start(ctx context.Context) error {
	s.ctx = ctx
	if token := s.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	s.logger.Info("Listening for push messages", zap.String("topic", s.topic))
	return nil
}

// Stop disconnects from the broker.
func (s *MQTTSource) Stop() {
	if s.client.IsConnected() {
		s.client.Disconnect(250)
	}
}

func (s *MQTTSource) subscribe(c mqtt.Client) error {
	token := c.Subscribe(s.topic, s.qos, func(_ mqtt.Client, msg mqtt.Message) {
		s.handle(msg.Topic(), msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", s.topic, token.Error())
	}
	return nil
}

// handle errors are logged, never returned to the broker client.
func (s *MQTTSource) handle(topic string, payload []byte) {
	msg, err := ParseMessage(payload)
	if err != nil {
		s.logger.Warn("Discarding push payload", zap.String("topic", topic), zap.Error(err))
		return
	}
	if err := s.dispatcher.Dispatch(s.ctx, msg); err != nil {
		s.logger.Error("Error handling push message", zap.String("topic", topic), zap.Error(err))
	}
}
