package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"

	"chatroom-service/internal/models"
	"chatroom-service/internal/repositories"
)

func main() {
	dbPath := flag.String("db", "data/chatroom", "Path to badger DB")
	as := flag.String("as", "", "Show the log as seen by this participant")
	limit := flag.Int("limit", 0, "Only show the most recent N messages (0 = all)")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).WithLogger(nil))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	store, err := repositories.NewBadgerStore(db)
	if err != nil {
		log.Fatal("Error while opening store: ", err)
	}
	defer store.Close()

	ctx := context.Background()
	participants, err := store.ListParticipants(ctx)
	if err != nil {
		log.Fatal("Error while listing participants: ", err)
	}
	msgs, err := store.ListVisibleMessages(ctx, *as, *limit)
	if err != nil {
		log.Fatal("Error while listing messages: ", err)
	}

	fmt.Printf("Participants (%d)\n", len(participants))
	renderParticipants(os.Stdout, participants)
	fmt.Printf("\nMessages (%d)\n", len(msgs))
	renderMessages(os.Stdout, msgs)
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
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

func renderParticipants(w io.Writer, participants []models.Participant) {
	table := newTable(w, []string{"Name", "Last Seen"})
	for _, p := range participants {
		table.Append([]string{p.Name, time.UnixMilli(p.LastSeen).Format(time.RFC3339)})
	}
	table.Render()
}

func renderMessages(w io.Writer, msgs []models.Message) {
	table := newTable(w, []string{"ID", "Time", "Type", "From", "To", "Text"})
	for _, m := range msgs {
		table.Append([]string{strconv.FormatInt(m.ID, 10), m.Time, string(m.Type), m.From, m.To, m.Text})
	}
	table.Render()
}
