// Copyright 2024-2026 Aiku AI

package bridge

import (
	"fmt"
	"strings"
)

// Command arguments are whitespace-separated tokens of three shapes: a bare
// flag ("help"), a key-value pair ("vis=unlisted"), and a signed toggle
// ("+cw" / "-cw"). Unrecognized or ill-formed tokens fail the whole parse.

type argValueKind int

const (
	argBare argValueKind = iota
	argKV
	argToggle
)

type arg struct {
	name   string
	kind   argValueKind
	value  string // kind == argKV
	enable bool   // kind == argToggle
}

func parseArg(token string) (arg, error) {
	signed := strings.HasPrefix(token, "+") || strings.HasPrefix(token, "-")
	name, value, kv := strings.Cut(token, "=")

	switch {
	case signed && kv:
		return arg{}, fmt.Errorf("+/-option with =value is not supported: %q", token)
	case signed:
		return arg{name: token[1:], kind: argToggle, enable: token[0] == '+'}, nil
	case kv:
		return arg{name: name, kind: argKV, value: value}, nil
	default:
		return arg{name: token, kind: argBare}, nil
	}
}

const postUsage = `Usage: reply to the message to synchronize with /post [options]

Options:
- help: show this message
- vis=<public|unlisted|private|direct>: override the post visibility
- +cw / -cw: force the sensitive content flag on or off`

// postArgs are the recognized options of /post.
type postArgs struct {
	Help       bool
	Visibility string
	// Sensitive overrides the spoiler-derived sensitivity when set.
	Sensitive *bool
}

var visibilities = map[string]bool{
	"public":   true,
	"unlisted": true,
	"private":  true,
	"direct":   true,
}

func parsePostArgs(input string) (*postArgs, error) {
	args := &postArgs{}
	for _, token := range strings.Fields(input) {
		parsed, err := parseArg(token)
		if err != nil {
			return nil, err
		}
		switch {
		case parsed.kind == argBare && parsed.name == "help":
			args.Help = true
		case parsed.kind == argKV && parsed.name == "vis":
			if !visibilities[parsed.value] {
				return nil, fmt.Errorf("unknown visibility: %q", parsed.value)
			}
			args.Visibility = parsed.value
		case parsed.kind == argToggle && parsed.name == "cw":
			enable := parsed.enable
			args.Sensitive = &enable
		default:
			return nil, fmt.Errorf("unrecognized or ill-formed argument: %q", token)
		}
	}
	return args, nil
}
