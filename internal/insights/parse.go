package insights

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// State: исход разбора ответа классификатора.
type State int

const (
	// StateParsed: ответ разобран как есть.
	StateParsed State = iota
	// StateRepaired: ответ разобран после снятия форматного шума.
	StateRepaired
	// StateFallback: ответа нет или он не разбирается; используются значения по умолчанию.
	StateFallback
)

func (s State) String() string {
	switch s {
	case StateParsed:
		return "parsed"
	case StateRepaired:
		return "repaired"
	default:
		return "fallback"
	}
}

var errNoJSON = errors.New("no json payload")

// Result: результат строгого разбора: либо значение (Parsed/Repaired), либо ошибка (Fallback).
// Подстановка значений по умолчанию выполняется отдельным шагом над Result.
type Result[T any] struct {
	State State
	Value T
	Err   error
}

// Ok сообщает, удалось ли получить значение.
func (r Result[T]) Ok() bool { return r.State != StateFallback }

func failed[T any](err error) Result[T] {
	return Result[T]{State: StateFallback, Err: err}
}

// parseJSON сначала пробует разобрать ответ как есть, затем после repair.
func parseJSON[T any](raw string) Result[T] {
	var v T

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return failed[T](errNoJSON)
	}

	if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
		return Result[T]{State: StateParsed, Value: v}
	}

	fixed := repair(trimmed)
	if fixed == "" || fixed == trimmed {
		return failed[T](errNoJSON)
	}

	var rv T
	if err := json.Unmarshal([]byte(fixed), &rv); err != nil {
		return failed[T](err)
	}

	return Result[T]{State: StateRepaired, Value: rv}
}

// repair снимает типичный форматный шум вокруг JSON:
//   - обрамляющие ``` (с меткой языка или без);
//   - отдельную метку "json" в начале;
//   - любой текст до первой открывающей и после последней закрывающей скобки.
func repair(raw string) string {
	s := strings.TrimSpace(raw)

	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	s = strings.TrimSpace(s)

	if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		s = strings.TrimSpace(s[4:])
	}

	return outermostJSON(s)
}

// outermostJSON вырезает фрагмент от первой '{' или '[' до последней парной скобки.
func outermostJSON(s string) string {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return ""
	}

	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}

	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return ""
	}

	return s[start : end+1]
}

// Поле-по-полю чтение json.RawMessage: отсутствующее или неподходящее
// по типу поле даёт ok=false, и вызывающий подставляет значение по умолчанию.

func asString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}

	return s, true
}

func asBool(raw json.RawMessage) (bool, bool) {
	if len(raw) == 0 {
		return false, false
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, false
	}

	return b, true
}

// asNumber принимает JSON-число или строку с числом ("85", "85%").
func asNumber(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, !math.IsNaN(f) && !math.IsInf(f, 0)
	}

	s, ok := asString(raw)
	if !ok {
		return 0, false
	}

	f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	return f, true
}

// asStrings читает массив, пропуская нестроковые и пустые элементы.
func asStrings(raw json.RawMessage, limit int) []string {
	out := make([]string, 0)
	if len(raw) == 0 {
		return out
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return out
	}

	for _, it := range items {
		if len(out) == limit {
			break
		}

		s, ok := asString(it)
		if !ok {
			continue
		}

		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}

	return out
}

// clampPercent округляет и ограничивает значение диапазоном [0,100].
func clampPercent(f float64) int {
	switch {
	case f < 0:
		return 0
	case f > 100:
		return 100
	}

	return int(math.Round(f))
}

// truncateRunes обрезает строку до n рун.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n])
}
