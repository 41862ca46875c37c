package kafka

import (
	"time"

	"github.com/IBM/sarama"
)

type Config struct {
	Addrs []string `envconfig:"KAFKA_ADDRS"`
	Topic string   `envconfig:"KAFKA_TOPIC" default:"lending-events"`
}

// Enabled reports whether a broker is configured at all. The coordinator
// runs fine without one; events are simply not published.
func (c Config) Enabled() bool {
	return len(c.Addrs) > 0
}

const (
	ActionRequestCreated  = "request_created"
	ActionRequestApproved = "request_approved"
	ActionBookIssued      = "book_issued"
	ActionBookReturned    = "book_returned"
)

// EventLending is the payload published for every lending-ledger mutation.
type EventLending struct {
	Action     string    `json:"action"`
	RequestUid string    `json:"requestUid,omitempty"`
	IssueUid   string    `json:"issueUid,omitempty"`
	BookUid    string    `json:"bookUid,omitempty"`
	StudentIDs []int     `json:"studentIds,omitempty"`
	Fine       int       `json:"fine,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewAsyncProducer(cfg Config) (sarama.AsyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForLocal
	defaultCfg.Producer.Return.Successes = false

	return sarama.NewAsyncProducer(cfg.Addrs, defaultCfg)
}
