package pkg

import (
	"log"
	"os"
	"strings"
	"unicode"

	petname "github.com/dustinkirkland/golang-petname"
)

const maxNicknameLength = 16

func InitLog(dest, prefix string) {
	f, err := os.OpenFile(dest, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}
	log.SetOutput(f)
	log.SetPrefix(prefix)
}

// Nickname cleans up a user supplied name. An empty result is replaced by a
// random pet name such as "clever-otter".
func Nickname(name string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return -1
	}, strings.TrimSpace(name))
	if len(name) > maxNicknameLength {
		name = name[:maxNicknameLength]
	}
	if name == "" {
		return petname.Generate(2, "-")
	}
	return name
}
