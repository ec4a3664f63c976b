package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"

	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/logging"
	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/server"
	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/signaling"
)

func main() {
	logging.Init()

	addr := flag.String("addr", "", "listen address (defaults to :5000 or $PORT)")
	flag.Parse()

	listen := *addr
	if listen == "" {
		if port := os.Getenv("PORT"); port != "" {
			listen = ":" + port
		} else {
			listen = ":5000"
		}
	}

	hub := signaling.NewHub()
	go hub.Run()

	http.HandleFunc("/health", server.Health)
	http.HandleFunc("/ws", server.ServeWs(hub))

	slog.Info("signaling server listening", "addr", listen)
	if err := http.ListenAndServe(listen, nil); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}
