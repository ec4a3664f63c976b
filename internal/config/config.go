package config

import (
	"fmt"
	"os"

	"github.com/pion/webrtc/v4"
)

// Default configuration values.
const (
	DefaultServer   = "localhost:5000"
	DefaultSTUN     = "stun:stun.l.google.com:19302"
	DefaultTURN     = "" // no TURN relay unless configured
	DefaultTURNUser = ""
	DefaultTURNPass = ""
)

// Config holds the meeting client configuration.
type Config struct {
	// Server is the signaling server host[:port].
	Server string

	// WebSocketURL is constructed from Server.
	WebSocketURL string

	// ICE servers for WebRTC.
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string

	// Secure selects wss:// over ws://.
	Secure bool
}

// Options carries CLI flag overrides into Load.
type Options struct {
	Server     string
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
	Secure     bool
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	server := firstOf(opts.Server, os.Getenv("MEET_SERVER"), DefaultServer)
	stun := firstOf(opts.STUNServer, os.Getenv("STUN_SERVER"), DefaultSTUN)
	turn := firstOf(opts.TURNServer, os.Getenv("TURN_SERVER"), DefaultTURN)
	turnUser := firstOf(opts.TURNUser, os.Getenv("TURN_USERNAME"), DefaultTURNUser)
	turnPass := firstOf(opts.TURNPass, os.Getenv("TURN_PASSWORD"), DefaultTURNPass)

	scheme := "ws"
	if opts.Secure {
		scheme = "wss"
	}

	return &Config{
		Server:       server,
		WebSocketURL: fmt.Sprintf("%s://%s/ws", scheme, server),
		STUNServer:   stun,
		TURNServer:   turn,
		TURNUser:     turnUser,
		TURNPass:     turnPass,
		Secure:       opts.Secure,
	}, nil
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ICEServers builds the pion ICE server list from the configured STUN and
// optional TURN endpoints.
func (c *Config) ICEServers() []webrtc.ICEServer {
	servers := []webrtc.ICEServer{{URLs: []string{c.STUNServer}}}
	if c.TURNServer != "" {
		servers = append(servers, webrtc.ICEServer{
			URLs:       []string{c.TURNServer},
			Username:   c.TURNUser,
			Credential: c.TURNPass,
		})
	}
	return servers
}
