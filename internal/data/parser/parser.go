// Package parser reads and writes JSONL dumps of raw stack events, so a
// deployment fetched once can be re-rendered offline.
package parser

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/cfnplot/cfnplot/internal/core/event"
	"github.com/cfnplot/cfnplot/internal/util"
)

// ReadFile parses a JSONL event dump: one RawEvent object per line, blank
// lines ignored. A line that is not valid JSON fails the whole batch; a
// silently dropped event would misrepresent deployment duration.
func ReadFile(path string) ([]event.RawEvent, error) {
	util.LogDebugf("Start parsing event dump: %s", path)

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var events []event.RawEvent
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	lineCount := 0
	for scanner.Scan() {
		lineCount++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var raw event.RawEvent
		if err := sonic.Unmarshal([]byte(line), &raw); err != nil {
			return nil, fmt.Errorf("invalid event at %s:%d: %w", path, lineCount, err)
		}
		events = append(events, raw)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	util.LogDebugf("Parsed %d events from %s (%d lines)", len(events), path, lineCount)
	return events, nil
}

// WriteFile writes raw events as a JSONL dump, one object per line, in the
// order given.
func WriteFile(path string, events []event.RawEvent) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for _, ev := range events {
		data, err := sonic.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encode event for %s: %w", ev.LogicalID, err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return err
		}
	}
	return w.Flush()
}
