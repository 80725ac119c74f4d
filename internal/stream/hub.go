package stream

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"backend-pettopia/internal/logging"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const channelPrefix = "stream:"

// WalkTopic is the topic carrying live location events of one walk.
func WalkTopic(walkID string) string {
	return "walks:" + walkID
}

// Hub fans topic messages out to local subscribers and, when Redis is
// configured, to the hubs of other instances.
type Hub struct {
	redis   *redis.Client
	pubsub  *redis.PubSub
	origin  string
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
	log     *logrus.Entry
	done    chan struct{}
}

type Client struct {
	Topic string
	Send  chan []byte
}

// envelope tags relayed messages with the publishing hub so it can skip its
// own echo.
type envelope struct {
	Origin  string `json:"origin"`
	Payload []byte `json:"payload"`
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		origin:  uuid.NewString(),
		clients: map[string]map[*Client]struct{}{},
		log:     logging.NewDefault("stream"),
		done:    make(chan struct{}),
	}

	if redisClient == nil {
		close(h.done)
		return h
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pubsub := redisClient.PSubscribe(ctx, channelPrefix+"*")
	if _, err := pubsub.Receive(ctx); err != nil {
		h.log.WithError(err).Warn("redis subscribe failed, delivering locally only")
		_ = pubsub.Close()
		close(h.done)
		return h
	}
	h.pubsub = pubsub
	go h.subscribeRedis()
	return h
}

func (h *Hub) Register(topic string) *Client {
	client := &Client{
		Topic: topic,
		Send:  make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[topic] == nil {
		h.clients[topic] = map[*Client]struct{}{}
	}
	h.clients[topic][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	topicClients, ok := h.clients[client.Topic]
	if !ok {
		return
	}
	if _, ok := topicClients[client]; !ok {
		return
	}
	delete(topicClients, client)
	if len(topicClients) == 0 {
		delete(h.clients, client.Topic)
	}
	close(client.Send)
}

// Subscribers reports how many local clients listen on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

// Broadcast delivers payload to local subscribers and relays it through
// Redis. Slow subscribers drop messages.
func (h *Hub) Broadcast(topic string, payload []byte) {
	h.deliver(topic, payload)

	if h.pubsub == nil {
		return
	}
	msg, err := json.Marshal(envelope{Origin: h.origin, Payload: payload})
	if err != nil {
		h.log.WithError(err).Warn("encode stream envelope")
		return
	}
	if err := h.redis.Publish(context.Background(), channelPrefix+topic, msg).Err(); err != nil {
		h.log.WithError(err).WithField("topic", topic).Warn("redis publish error")
	}
}

func (h *Hub) deliver(topic string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[topic] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis() {
	defer close(h.done)
	for msg := range h.pubsub.Channel() {
		topic, ok := topicFromChannel(msg.Channel)
		if !ok {
			continue
		}
		var env envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			h.log.WithError(err).WithField("channel", msg.Channel).Warn("drop malformed stream message")
			continue
		}
		if env.Origin == h.origin {
			continue
		}
		h.deliver(topic, env.Payload)
	}
}

// Close stops the Redis relay.
func (h *Hub) Close() error {
	if h.pubsub == nil {
		return nil
	}
	err := h.pubsub.Close()
	<-h.done
	return err
}

func topicFromChannel(ch string) (string, bool) {
	topic := strings.TrimPrefix(ch, channelPrefix)
	if topic == ch || topic == "" {
		return "", false
	}
	return topic, true
}
