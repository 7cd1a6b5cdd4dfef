// Package mail adapts an IMAP mailbox to the ingestion port. Messages are
// fetched whole and rendered to plain text, preferring the HTML part when
// the message carries both.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"golang.org/x/net/html"

	"PrazoScanner/internal/ports"
)

// IMAP holds one logged-in session. Not safe for concurrent use; the email
// pipeline runs sequentially.
type IMAP struct {
	client   *imapclient.Client
	logger   *slog.Logger
	selected string
}

// Dial connects over implicit TLS and logs in.
func Dial(server, address, password string, logger *slog.Logger) (*IMAP, error) {
	client, err := imapclient.DialTLS(server+":993", nil)
	if err != nil {
		return nil, fmt.Errorf("dial imap %s: %w", server, err)
	}
	if err := client.Login(address, password).Wait(); err != nil {
		client.Close()
		return nil, fmt.Errorf("imap login %s: %w", address, err)
	}
	return &IMAP{client: client, logger: logger}, nil
}

func (m *IMAP) selectFolder(folder string) error {
	if m.selected == folder {
		return nil
	}
	if _, err := m.client.Select(folder, nil).Wait(); err != nil {
		return fmt.Errorf("select %s: %w", folder, err)
	}
	m.selected = folder
	return nil
}

// Search returns the sequence numbers of messages from sender received since
// the given day, oldest first. The SINCE criterion is date-granular; the
// caller filters out already-processed messages by timestamp.
func (m *IMAP) Search(ctx context.Context, folder, sender string, since time.Time) ([]uint32, error) {
	if err := m.selectFolder(folder); err != nil {
		return nil, err
	}
	criteria := &imap.SearchCriteria{
		Since: since,
		Header: []imap.SearchCriteriaHeaderField{
			{Key: "FROM", Value: sender},
		},
	}
	data, err := m.client.Search(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("search %s in %s: %w", sender, folder, err)
	}
	nums := data.AllSeqNums()
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })
	return nums, nil
}

// Fetch downloads one message and renders its body to text.
func (m *IMAP) Fetch(ctx context.Context, folder string, id uint32) (*ports.MailMessage, error) {
	if err := m.selectFolder(folder); err != nil {
		return nil, err
	}
	section := &imap.FetchItemBodySection{}
	options := &imap.FetchOptions{
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{section},
	}
	msgs, err := m.client.Fetch(imap.SeqSetNum(id), options).Collect()
	if err != nil {
		return nil, fmt.Errorf("fetch %d in %s: %w", id, folder, err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("fetch %d in %s: no message returned", id, folder)
	}
	buf := msgs[0]
	raw := buf.FindBodySection(section)
	body, err := renderBody(raw)
	if err != nil {
		return nil, fmt.Errorf("render message %d: %w", id, err)
	}
	var date time.Time
	if buf.Envelope != nil {
		date = buf.Envelope.Date
	}
	return &ports.MailMessage{Date: date, Body: body}, nil
}

// Close logs out; the connection drops once the server acknowledges.
func (m *IMAP) Close() error {
	return m.client.Logout().Wait()
}

// renderBody extracts a text body from a raw RFC 5322 message. HTML wins
// over plain text because the court senders put the useful labels only in
// the HTML part.
func renderBody(raw []byte) (string, error) {
	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return "", fmt.Errorf("parse message: %w", err)
	}
	htmlPart, plain := collectParts(entity)
	if htmlPart != "" {
		return htmlToText(htmlPart)
	}
	return plain, nil
}

// collectParts walks the MIME tree and returns the first HTML and first
// plain-text leaves found. Non-text parts (attachments) are skipped.
func collectParts(entity *message.Entity) (htmlPart, plain string) {
	if mr := entity.MultipartReader(); mr != nil {
		for {
			part, err := mr.NextPart()
			if err == io.EOF || err != nil {
				break
			}
			h, p := collectParts(part)
			if htmlPart == "" {
				htmlPart = h
			}
			if plain == "" {
				plain = p
			}
		}
		return htmlPart, plain
	}
	mediaType, _, _ := entity.Header.ContentType()
	body, err := io.ReadAll(entity.Body)
	if err != nil {
		return "", ""
	}
	switch mediaType {
	case "text/html":
		return string(body), ""
	case "text/plain", "":
		return "", string(body)
	default:
		return "", ""
	}
}

// htmlToText renders an HTML body one text node per line. The extractors
// scan line by line, so table cells and block elements must not run
// together.
func htmlToText(page string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse html body: %w", err)
	}
	var lines []string
	for _, root := range doc.Nodes {
		collectText(root, &lines)
	}
	return strings.Join(lines, "\n"), nil
}

func collectText(n *html.Node, lines *[]string) {
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	if n.Type == html.TextNode {
		if text := strings.TrimSpace(n.Data); text != "" {
			*lines = append(*lines, text)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, lines)
	}
}
