package main

import (
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/ui"
)

var createCmd = &cobra.Command{
	Use:     "create",
	Aliases: []string{"c", "new"},
	Short:   "Create a new meeting room and join it as host",
	Long: `Create a room with a fresh id and join it. As the first participant you
become the host and decide who else gets in. Share the printed room id with
the people you want to invite.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID := newRoomID()
		ui.PrintSuccessf("Created room %s", roomID)
		ui.PrintInfof("Invite others with: meet join %s", roomID)
		return runMeeting(roomID)
	},
}

// newRoomID derives a short shareable id from a UUID.
func newRoomID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func init() {
	rootCmd.AddCommand(createCmd)
	registerMeetingFlags(createCmd)
}
