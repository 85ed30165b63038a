package lib

import (
	"fmt"
	"os"
	"path"

	"github.com/yeqown/go-qrcode"
)

// TicketCodeFile renders the scannable code for a ticket to an image file and
// returns its path. The payload is the ticket id itself; scanners resolve it
// against the store at admission time.
func TicketCodeFile(ticketID string) (string, error) {
	qrc, err := qrcode.New(ticketID)
	if err != nil {
		return "", err
	}
	tempdir := os.Getenv("TEMP_DIR")
	if tempdir == "" {
		tempdir = os.TempDir()
	}
	filepath := path.Join(tempdir, fmt.Sprintf("ticketcode_%s.jpeg", ticketID))
	if err := qrc.Save(filepath); err != nil {
		return "", err
	}
	return filepath, nil
}
