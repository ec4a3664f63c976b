package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/ui"
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List rooms created on this machine",
	Long:  `List the rooms this machine created. For these rooms the client asserts host priority when rejoining.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := openStore()
		if store == nil {
			return errors.New("could not open room cache")
		}

		rows := make([]ui.OwnedRoomRow, 0)
		for _, room := range store.Owned() {
			rows = append(rows, ui.OwnedRoomRow{
				RoomID:    room.RoomID,
				CreatedAt: room.CreatedAt.Format("2006-01-02 15:04"),
			})
		}
		ui.RenderOwnedRooms(rows)
		return nil
	},
}

var forgetCmd = &cobra.Command{
	Use:   "forget <room-id>",
	Short: "Drop a room from the ownership cache",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := openStore()
		if store == nil {
			return errors.New("could not open room cache")
		}
		if err := store.Remove(args[0]); err != nil {
			return err
		}
		ui.PrintSuccessf("Forgot room %s", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(roomsCmd)
	rootCmd.AddCommand(forgetCmd)
}
