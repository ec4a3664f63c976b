package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/config"
	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/media"
	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/meeting"
	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/roomstore"
	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/ui"
)

var (
	flagJoinServer   string
	flagJoinName     string
	flagJoinSTUN     string
	flagJoinTURN     string
	flagJoinTURNUser string
	flagJoinTURNPass string
	flagJoinSecure   bool
	flagJoinNoVideo  bool
	flagJoinNoAudio  bool
)

var joinCmd = &cobra.Command{
	Use:     "join <room-id|url>",
	Aliases: []string{"j"},
	Short:   "Join an existing meeting room",
	Long: `Join a meeting room by its id or invite link. If the room is vacant you
become its host; otherwise the current host is asked to admit you.

Examples:
  meet join ABC123 --name Alice
  meet join https://meet.example.com/room/ABC123`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, err := parseRoomInput(args[0])
		if err != nil {
			return err
		}
		return runMeeting(roomID)
	},
}

// parseRoomInput accepts a bare room id or an invite URL ending in the id.
func parseRoomInput(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("room id is empty")
	}
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		u, err := url.Parse(input)
		if err != nil {
			return "", fmt.Errorf("invalid room url: %w", err)
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		id := parts[len(parts)-1]
		if id == "" {
			return "", errors.New("room url has no room id")
		}
		return id, nil
	}
	return input, nil
}

func loadConfig() (*config.Config, error) {
	return config.Load(config.Options{
		Server:     flagJoinServer,
		STUNServer: flagJoinSTUN,
		TURNServer: flagJoinTURN,
		TURNUser:   flagJoinTURNUser,
		TURNPass:   flagJoinTURNPass,
		Secure:     flagJoinSecure,
	})
}

func displayName() string {
	if flagJoinName != "" {
		return flagJoinName
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "guest"
}

func openStore() *roomstore.Store {
	path, err := roomstore.DefaultPath()
	if err != nil {
		return nil
	}
	store, err := roomstore.Open(path)
	if err != nil {
		return nil
	}
	return store
}

func runMeeting(roomID string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	provider := media.NewSyntheticProvider()
	if flagJoinNoVideo {
		provider.DisableVideo()
	}
	if flagJoinNoAudio {
		provider.DisableAudio()
	}

	loop := newRoomLoop()

	ctx := context.Background()
	session, err := meeting.Dial(ctx, meeting.Options{
		Config:      cfg,
		RoomID:      roomID,
		DisplayName: displayName(),
		Provider:    provider,
		Store:       openStore(),
	}, loop.hooks())
	if err != nil {
		return err
	}
	defer session.Close()

	if warning := session.MediaWarning(); warning != "" {
		ui.PrintWarning(warning)
	}

	ui.PrintInfof("Connected as %s", session.ConnectionID())
	if err := session.Join(ctx); err != nil {
		return err
	}

	ui.RenderRoomBanner(roomID, session.IsHost())
	return loop.run(ctx, session)
}

func registerMeetingFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagJoinServer, "server", "", "Signaling server host[:port]")
	cmd.Flags().StringVarP(&flagJoinName, "name", "n", "", "Display name shown to other participants")
	cmd.Flags().StringVarP(&flagJoinSTUN, "stun", "s", "", "Custom STUN server")
	cmd.Flags().StringVarP(&flagJoinTURN, "turn", "t", "", "Custom TURN server")
	cmd.Flags().StringVar(&flagJoinTURNUser, "turn-user", "", "TURN username")
	cmd.Flags().StringVar(&flagJoinTURNPass, "turn-pass", "", "TURN password")
	cmd.Flags().BoolVar(&flagJoinSecure, "secure", false, "Connect over wss://")
	cmd.Flags().BoolVar(&flagJoinNoVideo, "no-video", false, "Join without a camera")
	cmd.Flags().BoolVar(&flagJoinNoAudio, "no-audio", false, "Join without a microphone")
}

func init() {
	rootCmd.AddCommand(joinCmd)
	registerMeetingFlags(joinCmd)
}
