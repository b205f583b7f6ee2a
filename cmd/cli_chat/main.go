package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
)

// Cliente interactivo para probar el endpoint /ws contra un servidor corriendo.
// Requiere CHAT_WS_URL (p.ej. ws://localhost:8080/ws), CHAT_TOKEN y CHAT_ID.

type envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type messagePayload struct {
	Content string `json:"content"`
	Chat    string `json:"chat"`
}

func main() {
	_ = godotenv.Load()

	wsURL := os.Getenv("CHAT_WS_URL")
	if wsURL == "" {
		wsURL = "ws://localhost:8080/ws"
	}
	token := os.Getenv("CHAT_TOKEN")
	chatID := os.Getenv("CHAT_ID")
	if token == "" || chatID == "" {
		log.Fatal("CHAT_TOKEN and CHAT_ID are required")
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+token, nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	go func() {
		for {
			var env envelope
			if err := conn.ReadJSON(&env); err != nil {
				log.Printf("connection closed: %v", err)
				os.Exit(0)
			}
			switch env.Event {
			case "ai-message-response":
				var p messagePayload
				if err := json.Unmarshal(env.Payload, &p); err != nil {
					log.Printf("bad payload: %v", err)
					continue
				}
				fmt.Printf("\nElliy: %s\n> ", p.Content)
			case "error":
				fmt.Printf("\nserver error: %s\n> ", string(env.Payload))
			}
		}
	}()

	reader := bufio.NewReader(os.Stdin)
	fmt.Println("Connected. Type a message and press enter (ctrl+c to quit).")
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		payload, _ := json.Marshal(messagePayload{Content: line, Chat: chatID})
		if err := conn.WriteJSON(envelope{Event: "ai-message", Payload: payload}); err != nil {
			log.Fatalf("write: %v", err)
		}
	}
}
