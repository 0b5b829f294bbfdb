// Copyright 2024-2026 Aiku AI

package bridge

import (
	"testing"
)

func TestParseArgShapes(t *testing.T) {
	t.Parallel()
	cases := []struct {
		token string
		want  arg
	}{
		{"help", arg{name: "help", kind: argBare}},
		{"vis=unlisted", arg{name: "vis", kind: argKV, value: "unlisted"}},
		{"+cw", arg{name: "cw", kind: argToggle, enable: true}},
		{"-cw", arg{name: "cw", kind: argToggle, enable: false}},
	}
	for _, tc := range cases {
		got, err := parseArg(tc.token)
		if err != nil {
			t.Errorf("parseArg(%q): %v", tc.token, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseArg(%q): got %+v, want %+v", tc.token, got, tc.want)
		}
	}
}

func TestParseArgSignedWithValue(t *testing.T) {
	t.Parallel()
	for _, token := range []string{"+cw=yes", "-cw=no"} {
		if _, err := parseArg(token); err == nil {
			t.Errorf("parseArg(%q): expected error", token)
		}
	}
}

func TestParsePostArgsEmpty(t *testing.T) {
	t.Parallel()
	args, err := parsePostArgs("")
	if err != nil {
		t.Fatalf("parsePostArgs: %v", err)
	}
	if args.Help || args.Visibility != "" || args.Sensitive != nil {
		t.Errorf("empty input: got %+v", args)
	}
}

func TestParsePostArgsHelp(t *testing.T) {
	t.Parallel()
	args, err := parsePostArgs("help")
	if err != nil {
		t.Fatalf("parsePostArgs: %v", err)
	}
	if !args.Help {
		t.Error("help flag not set")
	}

	for _, input := range []string{"+help", "-help", "help=abc"} {
		if _, err := parsePostArgs(input); err == nil {
			t.Errorf("parsePostArgs(%q): expected error", input)
		}
	}
}

func TestParsePostArgsVisibility(t *testing.T) {
	t.Parallel()
	for _, vis := range []string{"public", "unlisted", "private", "direct"} {
		args, err := parsePostArgs("vis=" + vis)
		if err != nil {
			t.Fatalf("parsePostArgs(vis=%s): %v", vis, err)
		}
		if args.Visibility != vis {
			t.Errorf("visibility: got %q, want %q", args.Visibility, vis)
		}
	}

	for _, input := range []string{"vis=everyone", "vis", "+vis", "vis="} {
		if _, err := parsePostArgs(input); err == nil {
			t.Errorf("parsePostArgs(%q): expected error", input)
		}
	}
}

func TestParsePostArgsContentWarning(t *testing.T) {
	t.Parallel()
	args, err := parsePostArgs("+cw")
	if err != nil {
		t.Fatalf("parsePostArgs(+cw): %v", err)
	}
	if args.Sensitive == nil || !*args.Sensitive {
		t.Errorf("+cw: got %+v", args.Sensitive)
	}

	args, err = parsePostArgs("-cw")
	if err != nil {
		t.Fatalf("parsePostArgs(-cw): %v", err)
	}
	if args.Sensitive == nil || *args.Sensitive {
		t.Errorf("-cw: got %+v", args.Sensitive)
	}

	for _, input := range []string{"cw", "cw=on"} {
		if _, err := parsePostArgs(input); err == nil {
			t.Errorf("parsePostArgs(%q): expected error", input)
		}
	}
}

func TestParsePostArgsCombined(t *testing.T) {
	t.Parallel()
	args, err := parsePostArgs("vis=private +cw")
	if err != nil {
		t.Fatalf("parsePostArgs: %v", err)
	}
	if args.Visibility != "private" {
		t.Errorf("visibility: got %q", args.Visibility)
	}
	if args.Sensitive == nil || !*args.Sensitive {
		t.Errorf("sensitive: got %+v", args.Sensitive)
	}
}

func TestParsePostArgsUnknown(t *testing.T) {
	t.Parallel()
	if _, err := parsePostArgs("vis=public bogus"); err == nil {
		t.Error("unknown token must fail the whole parse")
	}
}
