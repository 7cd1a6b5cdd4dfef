package domain

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// DedupeHash derives the publication uniqueness key from the process number,
// the deadline start date and a truncated digest of the notice text. The
// layout must stay stable: it is the upsert conflict key in the database.
func DedupeHash(processNumber string, start time.Time, notes string) string {
	notesSum := md5.Sum([]byte(notes))
	base := fmt.Sprintf("%s|%s|%s",
		strings.ToLower(processNumber),
		start.Format("2006-01-02"),
		hex.EncodeToString(notesSum[:])[:16],
	)
	sum := sha256.Sum256([]byte(base))
	return hex.EncodeToString(sum[:])
}
