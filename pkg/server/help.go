package server

import (
	"bufio"
	_ "embed"
	"io"
	"os"
	"sort"
	"strings"
)

//go:embed help.txt
var builtinHelp string

// HelpFile holds parsed help entries. Entries are separated by lines
// starting with "& topicname"; consecutive topic lines share one body.
type HelpFile struct {
	Entries map[string]string // lowercase topic -> text content
}

// ParseHelp reads help entries from r.
func ParseHelp(r io.Reader) (*HelpFile, error) {
	hf := &HelpFile{Entries: make(map[string]string)}
	scanner := bufio.NewScanner(r)

	var currentTopics []string
	var buf strings.Builder

	saveEntry := func() {
		if len(currentTopics) == 0 {
			return
		}
		text := strings.TrimRight(buf.String(), "\n ")
		for _, topic := range currentTopics {
			hf.Entries[strings.ToLower(topic)] = text
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "& ") {
			topic := strings.TrimSpace(line[2:])
			if buf.Len() == 0 && len(currentTopics) > 0 {
				currentTopics = append(currentTopics, topic)
			} else {
				saveEntry()
				currentTopics = []string{topic}
				buf.Reset()
			}
			continue
		}
		if len(currentTopics) > 0 {
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	}
	saveEntry()
	return hf, scanner.Err()
}

// LoadHelpFile parses the help file at path.
func LoadHelpFile(path string) (*HelpFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseHelp(f)
}

func defaultHelp() *HelpFile {
	hf, _ := ParseHelp(strings.NewReader(builtinHelp))
	return hf
}

// Lookup finds a help entry by topic name. Tries exact match first, then
// the shortest topic that starts with the request.
func (hf *HelpFile) Lookup(topic string) string {
	topic = strings.ToLower(strings.TrimSpace(topic))
	if topic == "" {
		topic = "help"
	}
	if text, ok := hf.Entries[topic]; ok {
		return text
	}
	var bestKey string
	for key := range hf.Entries {
		if strings.HasPrefix(key, topic) && (bestKey == "" || len(key) < len(bestKey)) {
			bestKey = key
		}
	}
	if bestKey != "" {
		return hf.Entries[bestKey]
	}
	return ""
}

// Topics returns the sorted topic names.
func (hf *HelpFile) Topics() []string {
	topics := make([]string, 0, len(hf.Entries))
	for k := range hf.Entries {
		topics = append(topics, k)
	}
	sort.Strings(topics)
	return topics
}

func cmdHelp(g *Game, d *Descriptor, args string, _ []string) {
	if g.Help == nil {
		d.Send("No help available.")
		return
	}
	text := g.Help.Lookup(args)
	if text == "" {
		d.Send("No entry for '" + strings.TrimSpace(args) + "'.")
		return
	}
	d.Send(text)
}
