package realtime

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"crm/apperrors"
	"crm/schemas"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type stubAuth map[string]schemas.Actor

func (s stubAuth) Authenticate(token string) (schemas.Actor, error) {
	if a, ok := s[token]; ok {
		return a, nil
	}
	return schemas.Actor{}, apperrors.Unauthorized("Token is not valid")
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws/crm?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, orgID bson.ObjectID, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Clients(orgID) == n }, 2*time.Second, 10*time.Millisecond)
}

func TestPublishReachesOnlyTheOrganization(t *testing.T) {
	orgA, orgB := bson.NewObjectID(), bson.NewObjectID()
	log, _ := test.NewNullLogger()
	hub := NewHub(stubAuth{
		"a": {UserID: bson.NewObjectID(), OrganizationID: orgA},
		"b": {UserID: bson.NewObjectID(), OrganizationID: orgB},
	}, log)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	connA := dial(t, srv, "a")
	connB := dial(t, srv, "b")
	waitForClients(t, hub, orgA, 1)
	waitForClients(t, hub, orgB, 1)

	id := bson.NewObjectID()
	hub.Publish(orgA, schemas.Event{Type: schemas.EVENT_CREATED, Entity: "lead", ID: id})

	var got map[string]any
	require.NoError(t, connA.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, connA.ReadJSON(&got))
	assert.Equal(t, "created", got["type"])
	assert.Equal(t, "lead", got["entity"])
	assert.Equal(t, id.Hex(), got["id"])

	require.NoError(t, connB.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := connB.ReadMessage()
	assert.Error(t, err)
}

func TestClosedClientsAreRemoved(t *testing.T) {
	org := bson.NewObjectID()
	log, _ := test.NewNullLogger()
	hub := NewHub(stubAuth{"a": {OrganizationID: org}}, log)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv, "a")
	waitForClients(t, hub, org, 1)
	conn.Close()
	waitForClients(t, hub, org, 0)
}

func TestHandshakeRequiresToken(t *testing.T) {
	log, _ := test.NewNullLogger()
	srv := httptest.NewServer(NewHub(stubAuth{}, log))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws/crm?token=nope"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestPublishDropsClientWithFullQueue(t *testing.T) {
	org := bson.NewObjectID()
	log, _ := test.NewNullLogger()
	hub := NewHub(stubAuth{}, log)

	// No writer drains this client, so its queue fills up.
	stalled := newClient(nil)
	hub.add(org, stalled)

	done := make(chan struct{})
	go func() {
		for i := 0; i <= SEND_BUFFER; i++ {
			hub.Publish(org, schemas.Event{Type: schemas.EVENT_UPDATED, Entity: "deal", ID: bson.NewObjectID()})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a stalled client")
	}
	assert.Equal(t, 0, hub.Clients(org))

	queued := 0
	for range stalled.send {
		queued++
	}
	assert.Equal(t, SEND_BUFFER, queued)
}
