package main

import (
	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/logging"
)

func main() {
	// Initialize logging
	logging.Init()
	Execute()
}
