package server

import (
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/crystal-mush/rpkit/pkg/gamedb"
)

// passwordCost is the bcrypt cost for new hashes. Tests lower it.
var passwordCost = bcrypt.DefaultCost

// ParseConnect parses a login-screen command into (command, user, password).
// Handles "connect name password", "create name password" and quoted names.
func ParseConnect(msg string) (command, user, password string) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return "", "", ""
	}

	parts := strings.SplitN(msg, " ", 2)
	command = strings.ToLower(parts[0])
	if len(parts) < 2 {
		return command, "", ""
	}

	rest := strings.TrimSpace(parts[1])
	if rest == "" {
		return command, "", ""
	}

	// Quoted names may contain spaces
	if rest[0] == '"' {
		end := strings.Index(rest[1:], "\"")
		if end >= 0 {
			user = rest[1 : end+1]
			password = strings.TrimSpace(rest[end+2:])
			return
		}
	}

	parts = strings.SplitN(rest, " ", 2)
	user = parts[0]
	if len(parts) > 1 {
		password = strings.TrimSpace(parts[1])
	}
	return
}

// HashPassword returns the bcrypt hash stored on new players.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword verifies a password against the player's stored hash.
func CheckPassword(db *gamedb.Database, player gamedb.DBRef, password string) bool {
	obj, ok := db.Get(player)
	if !ok || obj.PassHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(obj.PassHash), []byte(password)) == nil
}

// validPlayerName rejects names that would confuse the command parser.
func validPlayerName(name string) (string, bool) {
	switch {
	case len(name) < 2:
		return "That name is too short.", false
	case strings.ContainsAny(name, "\";=/#*"):
		return "That name contains illegal characters.", false
	case strings.EqualFold(name, "me") || strings.EqualFold(name, "here"):
		return "That name is reserved.", false
	}
	return "", true
}

// WelcomeText is the default welcome screen shown to new connections.
const WelcomeText = `
            _    _ _
 _ __ _ __ | | _(_) |_
| '__| '_ \| |/ / | __|
| |  | |_) |   <| | |_
|_|  | .__/|_|\_\_|\__|
     |_|

"connect <name> <password>" to connect to your existing character.
"create <name> <password>" to create a new character.
"QUIT" to disconnect.

`
