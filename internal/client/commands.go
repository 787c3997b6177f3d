package client

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenggwsx/NickDirectory/internal/protocol"
	"github.com/fenggwsx/NickDirectory/internal/storage"
)

type commandSpec struct {
	trigger     string
	usage       string
	description string
}

func defaultCommands(prefix rune) []commandSpec {
	p := string(prefix)
	return []commandSpec{
		{trigger: p + "add", usage: p + "add <name> <nickname>", description: "Insert a new record"},
		{trigger: p + "list", usage: p + "list [id|name|nickname]", description: "Show all records, sorted by name by default"},
		{trigger: p + "nick", usage: p + "nick <id> <nickname>", description: "Change the nickname of a record"},
		{trigger: p + "delete", usage: p + "delete <id>", description: "Delete one record"},
		{trigger: p + "clear", usage: p + "clear", description: "Delete all records"},
		{trigger: p + "records", usage: p + "records", description: "Switch to the records view"},
		{trigger: p + "help", usage: p + "help", description: "Browse all commands"},
		{trigger: p + "quit", usage: p + "quit", description: "Leave the directory"},
	}
}

func (a *App) handleSubmit(value string) tea.Cmd {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if strings.HasPrefix(value, string(a.cfg.CommandPrefix)) {
		return a.executeCommand(value)
	}
	a.logErrorf("Commands start with %s. Try %shelp.", string(a.cfg.CommandPrefix), string(a.cfg.CommandPrefix))
	return nil
}

func (a *App) executeCommand(raw string) tea.Cmd {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil
	}

	name := strings.TrimPrefix(fields[0], string(a.cfg.CommandPrefix))
	args := fields[1:]

	switch name {
	case "add":
		if len(args) < 2 {
			a.logErrorf("Please insert the records first.")
			return nil
		}
		return a.insertRecord(args[0], strings.Join(args[1:], " "))
	case "list":
		if len(args) > 0 {
			key, err := storage.ParseSortKey(args[0])
			if err != nil {
				a.logErrorf("%v", err)
				return nil
			}
			a.sort = key
		}
		a.view = viewRecords
		return a.loadRecords(true)
	case "nick":
		if len(args) < 2 {
			a.logErrorf("Usage: %snick <id> <nickname>", string(a.cfg.CommandPrefix))
			return nil
		}
		id, ok := parseRecordID(args[0])
		if !ok {
			a.logErrorf("Invalid record id %q", args[0])
			return nil
		}
		return a.renameRecord(id, strings.Join(args[1:], " "))
	case "delete":
		if len(args) != 1 {
			a.logErrorf("Usage: %sdelete <id>", string(a.cfg.CommandPrefix))
			return nil
		}
		id, ok := parseRecordID(args[0])
		if !ok {
			a.logErrorf("Invalid record id %q", args[0])
			return nil
		}
		return a.deleteRecords(storage.Item(id))
	case "clear":
		return a.deleteRecords(storage.Collection())
	case "records":
		a.view = viewRecords
		a.updateViewportContent()
		a.logf("Switched to RECORDS view")
	case "help":
		a.view = viewHelp
		a.updateViewportContent()
		a.logf("Switched to HELP view")
	case "quit":
		return a.quit()
	default:
		a.logErrorf("Unknown command: %s", fields[0])
	}
	return nil
}

func (a *App) loadRecords(announce bool) tea.Cmd {
	req := protocol.NewRequest(protocol.MethodGet, storage.Collection(), protocol.ListPayload{Sort: string(a.sort)})
	return func() tea.Msg {
		resp, err := a.dir.Dispatch(a.ctx, req)
		if err != nil {
			return recordsMsg{err: err}
		}
		return recordsMsg{records: resp.Records, announce: announce}
	}
}

func (a *App) insertRecord(name, nickname string) tea.Cmd {
	payload := protocol.InsertPayload{Name: name, Nickname: nickname}
	req := protocol.NewRequest(protocol.MethodPost, storage.Collection(), payload)
	return func() tea.Msg {
		resp, err := a.dir.Dispatch(a.ctx, req)
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{text: fmt.Sprintf("Record inserted (%s)", resp.Location)}
	}
}

func (a *App) renameRecord(id int64, nickname string) tea.Cmd {
	payload := protocol.UpdatePayload{Nickname: &nickname}
	req := protocol.NewRequest(protocol.MethodPut, storage.Item(id), payload)
	return func() tea.Msg {
		resp, err := a.dir.Dispatch(a.ctx, req)
		if err != nil {
			return resultMsg{err: err}
		}
		if resp.Affected == 0 {
			return resultMsg{err: fmt.Errorf("no record with id %d", id)}
		}
		return resultMsg{text: fmt.Sprintf("Record %d now has nickname: %s", id, nickname)}
	}
}

func (a *App) deleteRecords(addr storage.Address) tea.Cmd {
	req := protocol.NewRequest(protocol.MethodDelete, addr, nil)
	return func() tea.Msg {
		resp, err := a.dir.Dispatch(a.ctx, req)
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{text: fmt.Sprintf("%d records are deleted.", resp.Affected)}
	}
}

func parseRecordID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (a *App) logf(format string, args ...interface{}) {
	a.logLine = logEntry{level: logLevelInfo, label: "INFO", body: fmt.Sprintf(format, args...)}
}

func (a *App) logErrorf(format string, args ...interface{}) {
	a.logLine = logEntry{level: logLevelError, label: "ERROR", body: fmt.Sprintf(format, args...)}
}
