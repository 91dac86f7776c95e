package commands_test

import (
	"testing"

	"github.com/goliatone/go-cms-nav/internal/commands"
	"github.com/goliatone/go-cms-nav/pkg/testsupport"
)

func TestLoggerNamesCommandGroup(t *testing.T) {
	sink := testsupport.NewLogSink()

	commands.Logger(sink, " Menus ").Info("command.done")
	commands.Logger(sink, "").Info("command.done")

	entries := sink.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Logger != "cmsnav.commands.menus" || entries[0].Fields["command_group"] != "menus" {
		t.Fatalf("unexpected menus entry %+v", entries[0])
	}
	if entries[1].Logger != "cmsnav.commands.core" || entries[1].Fields["module"] != "cmsnav.commands.core" {
		t.Fatalf("unexpected core entry %+v", entries[1])
	}
}
