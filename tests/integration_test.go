package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigmarket/internal/adapter/repository"
	"gigmarket/internal/devserver"
	"gigmarket/internal/domain/entity"
	"gigmarket/internal/infrastructure/realtime"
	"gigmarket/internal/infrastructure/rest"
	"gigmarket/internal/infrastructure/session"
	"gigmarket/internal/usecase"
	"gigmarket/pkg/config"
	"gigmarket/pkg/errors"
)

// sdk bundles the client-side stack for one signed-in user.
type sdk struct {
	session *session.Session
	orders  *usecase.OrderUseCase
	gigs    *usecase.GigUseCase
	chat    *usecase.ChatUseCase
	reviews *usecase.ReviewUseCase
	channel *realtime.Channel
}

func startServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		Environment:  "test",
		DevJWTSecret: "integration-test-secret",
		DevUploadDir: t.TempDir(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv := devserver.New(ctx, cfg)
	ts := httptest.NewServer(srv.Echo)
	t.Cleanup(ts.Close)
	return ts
}

func mintToken(t *testing.T, ts *httptest.Server, userID, role string) string {
	t.Helper()

	body, err := json.Marshal(map[string]string{
		"user_id": userID,
		"name":    userID,
		"role":    role,
	})
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/api/dev/token", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.True(t, envelope.Success)
	require.NotEmpty(t, envelope.Data.Token)
	return envelope.Data.Token
}

// connect builds the full client stack against the test server, including a
// live websocket connection.
func connect(t *testing.T, ts *httptest.Server, userID, role string) *sdk {
	t.Helper()

	sess := session.New()
	require.NoError(t, sess.Set(mintToken(t, ts, userID, role)))

	client := rest.NewClient(ts.URL+"/api", 10*time.Second, sess)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	channel, err := realtime.Dial(context.Background(), wsURL, sess.Token())
	require.NoError(t, err)
	t.Cleanup(func() { channel.Close() })

	return &sdk{
		session: sess,
		orders:  usecase.NewOrderUseCase(repository.NewRestOrderRepository(client), sess),
		gigs:    usecase.NewGigUseCase(repository.NewRestGigRepository(client), sess),
		chat:    usecase.NewChatUseCase(repository.NewRestMessageRepository(client), channel, sess),
		reviews: usecase.NewReviewUseCase(repository.NewRestReviewRepository(client), sess),
		channel: channel,
	}
}

func feedIDs(s *usecase.ChatSession) []string {
	msgs := s.Messages()
	ids := make([]string, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
	}
	return ids
}

func TestOrderLifecycleAndChat(t *testing.T) {
	ts := startServer(t)
	ctx := context.Background()

	freelancer := connect(t, ts, "freelancer-1", entity.RoleFreelancer)
	client := connect(t, ts, "client-1", entity.RoleClient)

	gig, err := freelancer.gigs.CreateGig(ctx, usecase.CreateGigInput{
		Title:        "I will build your landing page",
		Description:  "A responsive landing page with contact form and analytics.",
		Category:     "programming-tech",
		Price:        150,
		DeliveryDays: 7,
	})
	require.NoError(t, err)

	order, err := client.orders.PlaceOrder(ctx, usecase.PlaceOrderInput{
		GigID:        gig.ID,
		Requirements: "Dark theme please",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPending, order.Status)
	assert.True(t, order.ChatLocked())

	// Chat binds while Pending (history is readable) but refuses sends.
	pendingChat, err := client.chat.BindChat(ctx, order)
	require.NoError(t, err)
	_, err = pendingChat.Send(ctx, "are you there?", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "SEND_REJECTED"))
	pendingChat.Close()

	// The client may not accept their own order; nothing reaches the wire.
	_, err = client.orders.UpdateStatus(ctx, order, entity.OrderStatusInProgress)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "ILLEGAL_TRANSITION"))

	// The freelancer accepts, unlocking the chat.
	theirOrder, err := freelancer.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	accepted, err := freelancer.orders.UpdateStatus(ctx, theirOrder, entity.OrderStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusInProgress, accepted.Status)
	assert.False(t, accepted.ChatLocked())

	// First send creates the conversation and adopts its canonical id.
	order, err = client.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	clientChat, err := client.chat.BindChat(ctx, order)
	require.NoError(t, err)
	defer clientChat.Close()
	assert.Equal(t, "", clientChat.ConversationID())

	first, err := clientChat.Send(ctx, "hello, excited to get started", nil)
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	require.NotEmpty(t, first.ConversationID)
	assert.Equal(t, first.ConversationID, clientChat.ConversationID())

	// The freelancer binds afterwards and sees the history.
	freelancerChat, err := freelancer.chat.BindChat(ctx, accepted)
	require.NoError(t, err)
	defer freelancerChat.Close()
	assert.Equal(t, first.ConversationID, freelancerChat.ConversationID())
	require.Len(t, freelancerChat.Messages(), 1)

	// A reply travels over the live websocket to the client.
	reply, err := freelancerChat.Send(ctx, "same here, starting today", nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(clientChat.Messages()) == 2
	}, 3*time.Second, 20*time.Millisecond, "the reply should reach the client over the relay")

	assert.Equal(t, []string{first.ID, reply.ID}, feedIDs(clientChat))
	assert.Equal(t, feedIDs(freelancerChat), feedIDs(clientChat), "both feeds converge to the same order")

	// Delivery and completion.
	delivered, err := freelancer.orders.UpdateStatus(ctx, accepted, entity.OrderStatusDelivered)
	require.NoError(t, err)
	order, err = client.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	completed, err := client.orders.UpdateStatus(ctx, order, entity.OrderStatusCompleted)
	require.NoError(t, err)
	assert.True(t, completed.Status.IsTerminal())
	assert.False(t, completed.ChatLocked(), "post-completion discussion stays possible")

	// A stale snapshot passes the local table but the backend refuses it.
	_, err = freelancer.orders.UpdateStatus(ctx, delivered, entity.OrderStatusCancelled)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "TRANSITION_REJECTED"))

	// Review, exactly once.
	review, err := client.reviews.SubmitReview(ctx, completed, usecase.SubmitReviewInput{
		Rating:  5,
		Comment: "great work",
	})
	require.NoError(t, err)
	assert.Equal(t, completed.ID, review.OrderID)

	_, err = client.reviews.SubmitReview(ctx, completed, usecase.SubmitReviewInput{Rating: 4})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "CONFLICT"))
}

func TestChatStaysReadableAfterCancellation(t *testing.T) {
	ts := startServer(t)
	ctx := context.Background()

	freelancer := connect(t, ts, "freelancer-2", entity.RoleFreelancer)
	client := connect(t, ts, "client-2", entity.RoleClient)

	gig, err := freelancer.gigs.CreateGig(ctx, usecase.CreateGigInput{
		Title:        "I will translate your documents",
		Description:  "English to Indonesian translation with proofreading pass.",
		Category:     "writing-translation",
		Price:        40,
		DeliveryDays: 2,
	})
	require.NoError(t, err)

	order, err := client.orders.PlaceOrder(ctx, usecase.PlaceOrderInput{GigID: gig.ID})
	require.NoError(t, err)

	theirOrder, err := freelancer.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	accepted, err := freelancer.orders.UpdateStatus(ctx, theirOrder, entity.OrderStatusInProgress)
	require.NoError(t, err)

	chat, err := freelancer.chat.BindChat(ctx, accepted)
	require.NoError(t, err)
	_, err = chat.Send(ctx, "I have a question about the source file", nil)
	require.NoError(t, err)
	chat.Close()

	cancelled, err := freelancer.orders.UpdateStatus(ctx, accepted, entity.OrderStatusCancelled)
	require.NoError(t, err)
	assert.True(t, cancelled.ChatLocked())

	// History binds fine, new messages are refused locally and by the server.
	order, err = client.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	readonly, err := client.chat.BindChat(ctx, order)
	require.NoError(t, err)
	defer readonly.Close()
	require.Len(t, readonly.Messages(), 1)

	_, err = readonly.Send(ctx, "wait, why?", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "SEND_REJECTED"))
}
