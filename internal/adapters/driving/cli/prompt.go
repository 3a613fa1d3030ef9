package cli

import (
	"bufio"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// stdin is the input used for prompts.
var stdin io.Reader = os.Stdin

// readLine reads one trimmed line from stdin.
func readLine() string {
	input, _ := bufio.NewReader(stdin).ReadString('\n')
	return strings.TrimSpace(input)
}

// readSecret reads a line without echo when stdin is a terminal.
func readSecret() string {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	return readLine()
}

// confirm asks a yes/no question; anything but y or yes is a no.
func confirm(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
