package nats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectWithoutURLIsDisabled(t *testing.T) {
	p := Connect("")
	assert.False(t, p.Enabled())

	assert.NotPanics(t, func() {
		p.Publish(SubjectJoined, []byte("x"))
		p.PublishEvent(SubjectLeft, SessionEvent{ClientID: "c", SessionID: 7})
		p.Close()
	})
}

func TestConnectToMissingServerIsDisabled(t *testing.T) {
	p := Connect("nats://127.0.0.1:1")
	assert.False(t, p.Enabled())
}

func TestNilPublisherIsSafe(t *testing.T) {
	var p *Publisher
	assert.False(t, p.Enabled())
	assert.NotPanics(t, func() { p.Publish(SubjectJoined, nil) })
}
