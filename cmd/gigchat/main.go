package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"gigmarket/internal/adapter/repository"
	"gigmarket/internal/domain/entity"
	"gigmarket/internal/infrastructure/realtime"
	"gigmarket/internal/infrastructure/rest"
	"gigmarket/internal/infrastructure/session"
	"gigmarket/internal/usecase"
	"gigmarket/pkg/config"
	"gigmarket/pkg/logger"
)

// gigchat is a terminal chat client for one order's conversation: it loads
// the order, reports its status and chat lock state, binds the chat session
// and relays stdin lines as messages.
func main() {
	orderID := flag.String("order", "", "order id to open the chat for")
	token := flag.String("token", os.Getenv("TOKEN"), "bearer token (defaults to $TOKEN)")
	flag.Parse()

	if *orderID == "" || *token == "" {
		fmt.Fprintln(os.Stderr, "usage: gigchat -order <id> [-token <bearer token>]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	sess := session.New()
	if err := sess.Set(*token); err != nil {
		log.Fatalf("Invalid token: %v", err)
	}
	identity := sess.Identity()

	client := rest.NewClient(cfg.APIBaseURL, time.Duration(cfg.RequestTimeout)*time.Second, sess)
	orderRepo := repository.NewRestOrderRepository(client)
	messageRepo := repository.NewRestMessageRepository(client)

	ctx := context.Background()

	orderUC := usecase.NewOrderUseCase(orderRepo, sess)
	order, err := orderUC.GetOrder(ctx, *orderID)
	if err != nil {
		log.Fatalf("Failed to load order: %v", err)
	}

	fmt.Printf("Order %s (status: %s)\n", order.ID, order.Status)
	if order.ChatLocked() {
		if order.Status == entity.OrderStatusPending {
			fmt.Println("Chat is locked until the freelancer accepts the order.")
		} else {
			fmt.Println("Chat is disabled for cancelled orders.")
		}
		os.Exit(0)
	}

	channel, err := realtime.Dial(ctx, cfg.SocketURL, sess.Token())
	if err != nil {
		log.Fatalf("Failed to connect to relay: %v", err)
	}
	defer channel.Close()

	channel.OnDisconnect(func(err error) {
		logger.Warn("Connection lost (%v); restart gigchat to resync the conversation", err)
	})

	chatUC := usecase.NewChatUseCase(messageRepo, channel, sess)
	chat, err := chatUC.BindChat(ctx, order)
	if err != nil {
		log.Fatalf("Failed to bind chat: %v", err)
	}
	defer chat.Close()

	var printMu sync.Mutex
	printed := 0
	printNew := func() {
		printMu.Lock()
		defer printMu.Unlock()
		msgs := chat.Messages()
		for _, msg := range msgs[printed:] {
			who := msg.SenderID
			if who == identity.UserID {
				who = "me"
			}
			line := msg.Content
			if msg.AttachmentURL != "" {
				line = fmt.Sprintf("%s [attachment: %s]", line, msg.AttachmentURL)
			}
			fmt.Printf("[%s] %s: %s\n", msg.CreatedAt.Format("15:04"), who, line)
		}
		printed = len(msgs)
	}

	printNew()
	chat.OnUpdate(printNew)

	fmt.Println("Type a message and press enter (ctrl-d to quit).")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := scanner.Text()
		if text == "" {
			continue
		}
		if _, err := chat.Send(ctx, text, nil); err != nil {
			logger.Error("Send failed: %v", err)
		}
	}
}
