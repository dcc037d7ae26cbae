package crm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type recordingConn struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (r *recordingConn) Publish(subject string, data []byte) error {
	if r.err != nil {
		return r.err
	}
	r.subjects = append(r.subjects, subject)
	r.payloads = append(r.payloads, data)
	return nil
}

func TestPublisherRoutesByEntity(t *testing.T) {
	conn := &recordingConn{}
	publisher := NewPublisher(conn, "backoffice.crm.sync", zerolog.Nop())

	require.NoError(t, publisher.Publish(context.Background(), Event{Entity: EntityOfferer, ID: 12, Action: "OFFERER_VALIDATED"}))
	require.Equal(t, []string{"backoffice.crm.sync.offerer"}, conn.subjects)

	var decoded Event
	require.NoError(t, json.Unmarshal(conn.payloads[0], &decoded))
	require.Equal(t, uint(12), decoded.ID)
	require.False(t, decoded.OccurredAt.IsZero())
}

func TestPublisherWithoutConnectionIsNoop(t *testing.T) {
	publisher := NewPublisher(nil, "backoffice.crm.sync", zerolog.Nop())
	require.NoError(t, publisher.Publish(context.Background(), Event{Entity: EntityUser, ID: 1}))

	conn, err := Connect("")
	require.NoError(t, err)
	require.Nil(t, conn)
}

func TestPublisherSurfacesErrors(t *testing.T) {
	publisher := NewPublisher(&recordingConn{err: errors.New("nats down")}, "s", zerolog.Nop())
	require.Error(t, publisher.Publish(context.Background(), Event{Entity: EntityUser, ID: 1}))
}
