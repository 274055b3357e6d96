package utils

import (
	"strings"

	"github.com/google/uuid"
)

// RecordIDLength is the length of identifiers issued by the sandbox store.
const RecordIDLength = 18

type UUIDGenerator struct {
}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) Generate() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}

// RecordID returns a fixed-length record identifier whose first three
// characters are derived from objectType, like the key prefixes of the
// remote store ("Account" -> "ACC...").
func (g *UUIDGenerator) RecordID(objectType string) string {
	prefix := strings.ToUpper(objectType)
	for len(prefix) < 3 {
		prefix += "0"
	}
	body := strings.ReplaceAll(g.Generate(), "-", "")
	// v7 starts with a millisecond timestamp; the random tail keeps ids unique
	return prefix[:3] + body[len(body)-(RecordIDLength-3):]
}
