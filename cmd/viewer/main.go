// Viewer is a read-only CLI over the chat database: without arguments
// it lists the rooms, with -number it prints one transcript.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"

	"wachat/repositories"
)

func main() {
	_ = godotenv.Load()
	dbPath := flag.String("db", os.Getenv("BADGER_FILEPATH"), "Path to badger DB")
	number := flag.String("number", "", "Counterparty number whose transcript to print")
	flag.Parse()

	// BypassLockGuard allows opening while the server holds the lock.
	opts := badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	logger := logs.GetLoggerFromString("INFO")

	if *number != "" {
		printTranscript(repositories.NewMessageRepository(db, logger), *number)
		return
	}
	printRooms(repositories.NewRoomRepository(db, logger))
}

func printRooms(rooms repositories.RoomRepository) {
	all, err := rooms.All()
	if err != nil {
		log.Fatalf("Failed to list rooms: %v", err)
	}

	table := newTable([]string{"ID", "Number", "Name", "Last Message", "Read", "Updated"})
	for _, room := range all {
		read := color.Red.Sprint("unread")
		if room.IsRead {
			read = color.Green.Sprint("read")
		}
		table.Append([]string{
			room.ID.String(),
			room.MobileNumber,
			room.DisplayName,
			room.LastMessage,
			read,
			room.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	table.Render()
}

func printTranscript(messages repositories.MessageRepository, number string) {
	transcript, err := messages.Transcript(number)
	if err != nil {
		log.Fatalf("Failed to read transcript: %v", err)
	}

	table := newTable([]string{"Time", "Direction", "Kind", "Content"})
	for _, message := range transcript {
		direction := color.Cyan.Sprint(message.Direction)
		if message.Direction == "Outgoing" {
			direction = color.Yellow.Sprint(message.Direction)
		}
		table.Append([]string{
			message.CreatedAt.Format("15:04:05"),
			direction,
			string(message.Kind),
			message.Content(),
		})
	}
	table.Render()
}

func newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}
