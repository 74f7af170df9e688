package domain

import (
	"regexp"
	"strings"
)

// формат username в Telegram: 5-32 символа, начинается с буквы
var recipientRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{4,31}$`)

// NormalizeRecipient "@Alice " → "Alice"
func NormalizeRecipient(tag string) string {
	return strings.TrimPrefix(strings.TrimSpace(tag), "@")
}

// ValidRecipientFormat проверка формата без обращения к API доставки
func ValidRecipientFormat(tag string) bool {
	return recipientRe.MatchString(NormalizeRecipient(tag))
}
