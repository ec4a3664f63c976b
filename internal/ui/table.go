package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// ParticipantRow is one line of the room roster.
type ParticipantRow struct {
	ConnectionID string
	DisplayName  string
	IsHost       bool
	HandRaised   bool
}

// ParticipantsView renders the room roster.
func ParticipantsView(rows []ParticipantRow) string {
	if len(rows) == 0 {
		return MutedStyle.Render("Nobody else is here yet.")
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers("Name", "Connection", "Flags")

	for _, r := range rows {
		flags := ""
		if r.IsHost {
			flags += IconHost
		}
		if r.HandRaised {
			flags += IconHand
		}
		t.Row(r.DisplayName, shorten(r.ConnectionID), flags)
	}

	return t.Render()
}

// RenderParticipants prints the current room roster.
func RenderParticipants(rows []ParticipantRow) {
	fmt.Println(ParticipantsView(rows))
}

// OwnedRoomRow is one line of the owned-rooms listing.
type OwnedRoomRow struct {
	RoomID    string
	CreatedAt string
}

// RenderOwnedRooms prints the rooms this machine created.
func RenderOwnedRooms(rows []OwnedRoomRow) {
	if len(rows) == 0 {
		fmt.Println(MutedStyle.Render("No rooms created on this machine."))
		return
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers("Room", "Created")

	for _, r := range rows {
		t.Row(r.RoomID, r.CreatedAt)
	}

	fmt.Println(t.Render())
}

// RenderRoomBanner prints the joined-room header with the shareable id.
func RenderRoomBanner(roomID string, isHost bool) {
	role := "participant"
	if isHost {
		role = "host " + IconHost
	}
	banner := fmt.Sprintf("%s Room %s (you are %s)", IconRoom, BoldStyle.Render(roomID), role)
	fmt.Println(TitleStyle.Render(banner))
}

func shorten(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
