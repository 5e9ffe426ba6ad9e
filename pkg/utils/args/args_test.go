package args_test

import (
	"flag"
	"testing"

	"github.com/heatcare/heatcare/pkg/mandantsync"
	"github.com/heatcare/heatcare/pkg/utils/args"
)

func TestParser(t *testing.T) {
	t.Run("when it parses an acceptable value, parsing success", func(t *testing.T) {
		testee := args.Parser(mandantsync.ParseConflictPolicy)
		if testee.IsSet() {
			t.Error("it is set, unexpectedly")
		}

		f := flag.NewFlagSet("test", flag.ContinueOnError)
		f.Var(testee, "conflict-policy", "")
		if err := f.Parse([]string{"-conflict-policy", "merge"}); err != nil {
			t.Fatal(err)
		}

		if testee.Value() != mandantsync.Merge {
			t.Errorf("unmatch: Value(): (actual, expected) = (%s, %s)", testee.Value(), mandantsync.Merge)
		}
		if !testee.IsSet() {
			t.Error("it is not set")
		}
		if testee.String() != "merge" {
			t.Errorf("unmatch: String(): %s", testee.String())
		}
	})

	t.Run("when it parses an unacceptable value, parsing errors", func(t *testing.T) {
		testee := args.Parser(mandantsync.ParseConflictPolicy)

		f := flag.NewFlagSet("test", flag.ContinueOnError)
		f.Var(testee, "conflict-policy", "")
		if err := f.Parse([]string{"-conflict-policy", "random"}); err == nil {
			t.Error("expected error does not happen")
		}
		if testee.IsSet() {
			t.Error("it is set, unexpectedly")
		}
	})

	t.Run("when it is not set, it has the default value", func(t *testing.T) {
		testee := args.ParserWithDefault(mandantsync.ParseMissingConfigPolicy, mandantsync.Keep)

		f := flag.NewFlagSet("test", flag.ContinueOnError)
		f.Var(testee, "missing-config", "")
		if err := f.Parse([]string{}); err != nil {
			t.Fatal(err)
		}

		if testee.IsSet() {
			t.Error("it is set, unexpectedly")
		}
		if testee.Value() != mandantsync.Keep {
			t.Errorf("unmatch: Value(): %s", testee.Value())
		}
	})
}
