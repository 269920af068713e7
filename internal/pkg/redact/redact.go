// Package redact маскирует персональные данные перед записью в лог:
// e-mail пользователей и должностных лиц, refresh-токены и тексты
// комментариев, отклонённых модерацией.
package redact

import (
	"strings"
	"unicode/utf8"
)

const mask = "***"

// Email оставляет от локальной части адреса не больше двух первых рун,
// домен не трогает. Строка без ровно одного '@' маскируется целиком.
//
//	"meera.iyer@gov.in" -> "me***@gov.in"
//	"ab@ward12.in"      -> "***@ward12.in"
//	"not-an-email"      -> "***"
func Email(s string) string {
	local, domain, ok := strings.Cut(s, "@")
	if !ok || strings.Contains(domain, "@") {
		return mask
	}

	if utf8.RuneCountInString(local) <= 2 {
		return mask + "@" + domain
	}

	r := []rune(local)
	return string(r[:2]) + mask + "@" + domain
}

// Token возвращает последние четыре символа токена, этого достаточно,
// чтобы сопоставить записи одного клиента.
func Token(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 8 {
		return mask
	}

	return mask + s[len(s)-4:]
}

// Excerpt обрезает пользовательский текст до limit рун и схлопывает
// переводы строк, чтобы одна запись лога оставалась одной строкой.
func Excerpt(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if limit <= 0 {
		return ""
	}

	r := []rune(s)
	if len(r) <= limit {
		return s
	}

	return string(r[:limit]) + "…"
}
