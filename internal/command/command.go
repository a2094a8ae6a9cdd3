// Package command tokenizes and parses the free-text command line.
//
// The grammar is deliberately small glue: an action token plus
// quoted/unquoted arguments. Parsing produces a Command value; all side
// effects (keyword/config mutation, fetch triggering) happen in the UI
// dispatch layer.
package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abelbrown/keywatch/internal/fetch"
)

// Kind identifies a parsed action.
type Kind int

const (
	KindAddKeyword Kind = iota
	KindRemoveKeyword
	KindSourceLimit
	KindShowSettings
	KindList
	KindGlobalLimit
	KindInterval
	KindSetDefault
	KindSave
	KindLoad
	KindFetch
	KindClear
	KindHelp
	KindHistory
	KindExit
)

// Command is one parsed command line.
type Command struct {
	Kind       Kind
	Source     fetch.Source
	AllSources bool   // keyword ops with no source scope
	Keyword    string
	N          int
	Default    bool   // "~<source> default": clear the override
	File       string
}

// Parse turns one input line into a Command. Errors describe the problem
// inline (bad number, unknown source, missing argument) and imply that no
// state was mutated.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, fmt.Errorf("empty command")
	}

	switch line[0] {
	case '+':
		return parseKeywordCmd(KindAddKeyword, line[1:])
	case '-':
		return parseKeywordCmd(KindRemoveKeyword, line[1:])
	case '~':
		return parseLimitCmd(line[1:])
	}

	toks := Tokenize(line)
	if len(toks) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}
	action := strings.ToLower(toks[0])
	args := toks[1:]

	switch action {
	case "list":
		return Command{Kind: KindList}, nil
	case "set":
		return parseSetCmd(args)
	case "save":
		if len(args) == 0 {
			return Command{}, fmt.Errorf("save: missing filename")
		}
		return Command{Kind: KindSave, File: args[0]}, nil
	case "load":
		if len(args) == 0 {
			return Command{}, fmt.Errorf("load: missing filename")
		}
		return Command{Kind: KindLoad, File: args[0]}, nil
	case "history":
		cmd := Command{Kind: KindHistory, N: 20}
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return Command{}, fmt.Errorf("history: bad count %q", args[0])
			}
			cmd.N = n
		}
		return cmd, nil
	case "fetch":
		return Command{Kind: KindFetch}, nil
	case "clear":
		return Command{Kind: KindClear}, nil
	case "help":
		return Command{Kind: KindHelp}, nil
	case "exit", "quit":
		return Command{Kind: KindExit}, nil
	}

	return Command{}, fmt.Errorf("unknown command %q (try help)", action)
}

// parseKeywordCmd handles the +/- forms: the sign may be followed by a
// source name, then a quoted or bare keyword. No source means all sources.
func parseKeywordCmd(kind Kind, rest string) (Command, error) {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return Command{}, fmt.Errorf("missing keyword")
	}

	cmd := Command{Kind: kind, AllSources: true}

	if i := strings.IndexAny(rest, `"'`); i >= 0 {
		name := strings.TrimSpace(rest[:i])
		if name != "" {
			src, ok := fetch.ParseSource(name)
			if !ok {
				return Command{}, fmt.Errorf("unknown source %q", name)
			}
			cmd.Source = src
			cmd.AllSources = false
		}
		cmd.Keyword = unquote(strings.TrimSpace(rest[i:]))
	} else {
		fields := strings.Fields(rest)
		if src, ok := fetch.ParseSource(fields[0]); ok {
			// A bare source name is not a keyword; require one after it.
			if len(fields) == 1 {
				return Command{}, fmt.Errorf("missing keyword after source %q", fields[0])
			}
			cmd.Source = src
			cmd.AllSources = false
			cmd.Keyword = strings.Join(fields[1:], " ")
		} else {
			cmd.Keyword = rest
		}
	}

	if strings.TrimSpace(cmd.Keyword) == "" {
		return Command{}, fmt.Errorf("missing keyword")
	}
	return cmd, nil
}

// parseLimitCmd handles the ~ forms: "~<source> <N|default>" sets or
// clears a per-source limit; a bare "~<source>" shows the settings summary.
func parseLimitCmd(rest string) (Command, error) {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("~: missing source")
	}

	src, ok := fetch.ParseSource(fields[0])
	if !ok {
		return Command{}, fmt.Errorf("unknown source %q", fields[0])
	}
	if len(fields) == 1 {
		return Command{Kind: KindShowSettings, Source: src}, nil
	}

	if strings.EqualFold(fields[1], "default") {
		return Command{Kind: KindSourceLimit, Source: src, Default: true}, nil
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 0 {
		return Command{}, fmt.Errorf("~%s: bad limit %q", src, fields[1])
	}
	return Command{Kind: KindSourceLimit, Source: src, N: n}, nil
}

// parseSetCmd handles "set list <N>", "set interval <minutes>",
// "set default <file>".
func parseSetCmd(args []string) (Command, error) {
	if len(args) < 2 {
		return Command{}, fmt.Errorf("set: usage: set <list|interval|default> <value>")
	}

	switch strings.ToLower(args[0]) {
	case "list":
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			return Command{}, fmt.Errorf("set list: bad limit %q", args[1])
		}
		return Command{Kind: KindGlobalLimit, N: n}, nil
	case "interval":
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			return Command{}, fmt.Errorf("set interval: bad minutes %q", args[1])
		}
		return Command{Kind: KindInterval, N: n}, nil
	case "default":
		return Command{Kind: KindSetDefault, File: args[1]}, nil
	}
	return Command{}, fmt.Errorf("set: unknown setting %q", args[0])
}

// Tokenize splits a line on whitespace while honoring double and single
// quotes. Quote characters are stripped from the returned tokens.
func Tokenize(line string) []string {
	var toks []string
	var cur strings.Builder
	var quote rune
	inToken := false

	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inToken = true
		case r == ' ' || r == '\t':
			if inToken {
				toks = append(toks, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	if inToken {
		toks = append(toks, cur.String())
	}
	return toks
}

// unquote strips one matching pair of surrounding quotes, if present.
func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	if len(s) >= 1 && (s[0] == '"' || s[0] == '\'') {
		// Unterminated quote: take everything after it.
		return s[1:]
	}
	return s
}
