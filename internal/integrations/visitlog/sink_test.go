package visitlog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNop(t *testing.T) {
	var sink Sink = Nop{}
	assert.NoError(t, sink.Append(context.Background(), Row{AppointmentID: "a1"}))
}

func TestNewMongoSink_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewMongoSink(ctx, "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200", "crm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MongoDB")
}
