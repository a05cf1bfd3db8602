package nats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/capitalize-ai/order-capture/internal/model"
	"github.com/capitalize-ai/order-capture/pkg/logger"
)

func TestEventSubjectMatchesSessionFilter(t *testing.T) {
	subject := EventSubject("acme", "s1", model.EventTypeOrderFulfilled)
	assert.Equal(t, "orders.acme.s1.event."+string(model.EventTypeOrderFulfilled), subject)
	assert.Equal(t, "orders.acme.s1.event.>", SessionFilter("acme", "s1"))
}

func TestConnectOptions(t *testing.T) {
	base := len(connectOptions(Config{URL: "nats://localhost:4222"}, logger.Nop()))

	withToken := connectOptions(Config{Token: "secret"}, logger.Nop())
	assert.Len(t, withToken, base+1)

	partialTLS := connectOptions(Config{CAFile: "ca.pem", CertFile: "cert.pem"}, logger.Nop())
	assert.Len(t, partialTLS, base)

	fullTLS := connectOptions(Config{CAFile: "ca.pem", CertFile: "cert.pem", KeyFile: "key.pem"}, logger.Nop())
	assert.Len(t, fullTLS, base+2)
}
